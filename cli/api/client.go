package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"curachain/core/crowdfund"
)

const DefaultNode = "http://localhost:8080"

// Client talks to a CuraChain node.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultNode
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Error is a non-2xx reply from the node.
type Error struct {
	Status  int      `json:"-"`
	Code    string   `json:"code"`
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	return msg
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) SubmitCase(ctx context.Context, description string, amountNeeded uint64, recordsLink string) (crowdfund.SubmitCaseReceipt, error) {
	var out crowdfund.SubmitCaseReceipt
	err := c.do(ctx, http.MethodPost, "/api/v1/cases", map[string]any{
		"description":  description,
		"amountNeeded": amountNeeded,
		"recordsLink":  recordsLink,
	}, &out)
	return out, err
}

func (c *Client) GetCase(ctx context.Context, caseID string) (crowdfund.CaseRecord, error) {
	var out crowdfund.CaseRecord
	err := c.do(ctx, http.MethodGet, "/api/v1/cases/"+url.PathEscape(caseID), nil, &out)
	return out, err
}

// ListCases lists open cases, optionally only those in status.
func (c *Client) ListCases(ctx context.Context, status string) ([]crowdfund.CaseRecord, error) {
	path := "/api/v1/cases"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out []crowdfund.CaseRecord
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) CloseCase(ctx context.Context, caseID string) (crowdfund.CloseReceipt, error) {
	var out crowdfund.CloseReceipt
	err := c.do(ctx, http.MethodPost, "/api/v1/cases/"+url.PathEscape(caseID)+"/close", nil, &out)
	return out, err
}

func (c *Client) Vote(ctx context.Context, caseID string, approve bool) (crowdfund.VoteReceipt, error) {
	var out crowdfund.VoteReceipt
	err := c.do(ctx, http.MethodPost, "/api/v1/cases/"+url.PathEscape(caseID)+"/votes", map[string]any{"approve": approve}, &out)
	return out, err
}

func (c *Client) Donate(ctx context.Context, caseID string, amount uint64) (crowdfund.DonationReceipt, error) {
	var out crowdfund.DonationReceipt
	err := c.do(ctx, http.MethodPost, "/api/v1/cases/"+url.PathEscape(caseID)+"/donations", map[string]any{"amount": amount}, &out)
	return out, err
}

// Release pays out a funded case; the client token must be the administrator's.
func (c *Client) Release(ctx context.Context, caseID, facility string, cosignerTokens []string) (crowdfund.ReleaseReceipt, error) {
	var out crowdfund.ReleaseReceipt
	err := c.do(ctx, http.MethodPost, "/api/v1/cases/"+url.PathEscape(caseID)+"/release", map[string]any{
		"facility":       facility,
		"cosignerTokens": cosignerTokens,
	}, &out)
	return out, err
}

func (c *Client) Verifier(ctx context.Context, identity string, op crowdfund.VerifierOp) (crowdfund.VerifierReceipt, error) {
	var out crowdfund.VerifierReceipt
	err := c.do(ctx, http.MethodPost, "/api/v1/verifiers", map[string]any{"identity": identity, "op": op}, &out)
	return out, err
}

func (c *Client) ListVerifiers(ctx context.Context, activeOnly bool) ([]crowdfund.Verifier, error) {
	path := "/api/v1/verifiers"
	if activeOnly {
		path += "?active=true"
	}
	var out []crowdfund.Verifier
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context) (crowdfund.PlatformStats, error) {
	var out crowdfund.PlatformStats
	err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &out)
	return out, err
}
