package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"curachain/core/auth"
	"curachain/core/crowdfund"
	"curachain/core/validation"
)

type submitCaseRequest struct {
	Description  string `json:"description"`
	AmountNeeded int64  `json:"amountNeeded"`
	RecordsLink  string `json:"recordsLink"`
}

type voteRequest struct {
	Approve       bool    `json:"approve"`
	ExpectVersion *uint64 `json:"expectVersion,omitempty"`
}

type donationRequest struct {
	Amount        int64   `json:"amount"`
	ExpectVersion *uint64 `json:"expectVersion,omitempty"`
}

type releaseRequest struct {
	Facility       string   `json:"facility"`
	CosignerTokens []string `json:"cosignerTokens"`
}

// decode reads the body, checks it against schema and unmarshals it into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema validation.Schema, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return &validation.Error{Schema: schema, Issues: []string{"body: " + err.Error()}}
	}
	if err := s.validator.Validate(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &validation.Error{Schema: schema, Issues: []string{err.Error()}}
	}
	return nil
}

// positiveAmount converts a decoded amount, refusing zero and negatives with
// the same error the engine uses for zero.
func positiveAmount(v int64) (uint64, error) {
	if v <= 0 {
		return 0, crowdfund.ErrInvalidAmount
	}
	return uint64(v), nil
}

// expectCase turns an optional expected case version into a call option.
func (s *Server) expectCase(r *http.Request, caseID string, version *uint64) ([]crowdfund.CallOption, error) {
	if version == nil {
		return nil, nil
	}
	rec, err := s.engine.GetCase(r.Context(), caseID)
	if err != nil {
		return nil, err
	}
	return []crowdfund.CallOption{crowdfund.ExpectVersion(rec.Account, *version)}, nil
}

func (s *Server) handleSubmitCase(w http.ResponseWriter, r *http.Request) {
	var req submitCaseRequest
	if err := s.decode(w, r, validation.SchemaSubmitCase, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	need, err := positiveAmount(req.AmountNeeded)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rc, err := s.engine.SubmitCase(r.Context(), crowdfund.SubmitCase{
		Patient:      identity(r),
		Description:  req.Description,
		AmountNeeded: need,
		RecordsLink:  req.RecordsLink,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/cases/%s", rc.CaseID))
	writeJSON(w, http.StatusCreated, rc)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.engine.ListCases(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := cases[:0]
		for _, c := range cases {
			if string(c.Status) == status {
				filtered = append(filtered, c)
			}
		}
		cases = filtered
	}
	if cases == nil {
		cases = []crowdfund.CaseRecord{}
	}
	writeJSON(w, http.StatusOK, cases)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	rec, err := s.engine.GetCase(r.Context(), r.PathValue("caseId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleVerification(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.VerificationSummary(r.Context(), r.PathValue("caseId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleFunding(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.FundingSummary(r.Context(), r.PathValue("caseId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseId")
	var req voteRequest
	if err := s.decode(w, r, validation.SchemaVote, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.expectCase(r, caseID, req.ExpectVersion)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rc, err := s.engine.CastVote(r.Context(), identity(r), caseID, req.Approve, opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (s *Server) handleDonate(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseId")
	var req donationRequest
	if err := s.decode(w, r, validation.SchemaDonation, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := positiveAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.expectCase(r, caseID, req.ExpectVersion)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rc, err := s.engine.Donate(r.Context(), identity(r), caseID, amount, opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

// handleRelease runs a release authorized by the caller (the administrator)
// and three co-signers, each presenting a verifier token scoped to
// auth.ReleaseAction(caseId).
func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseId")
	var req releaseRequest
	if err := s.decode(w, r, validation.SchemaRelease, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	cosigners, res := s.authorizer.AuthorizeAll(req.CosignerTokens, auth.ReleaseAction(caseID), auth.RoleVerifier)
	if !res.Authorized {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Code:    codeUnauthenticated,
			Kind:    string(crowdfund.KindAuthorization),
			Message: "co-signer token rejected: " + res.Reason,
		})
		return
	}
	rc, err := s.engine.ReleaseFunds(r.Context(), identity(r), caseID, req.Facility, cosigners)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (s *Server) handleCloseCase(w http.ResponseWriter, r *http.Request) {
	rc, err := s.engine.CloseRejectedCase(r.Context(), identity(r), r.PathValue("caseId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (s *Server) handlePatientCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.engine.ListCasesByPatient(r.Context(), r.PathValue("identity"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cases == nil {
		cases = []crowdfund.CaseRecord{}
	}
	writeJSON(w, http.StatusOK, cases)
}
