package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"curachain/core/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command against node with the given arguments.
func run(t *testing.T, node string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--node", node, "--token", "tok", "-o", "plain"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCaseGetPlain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cases/CASE0001", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"caseId":"CASE0001","patient":"patient-1","status":"verified","amountNeeded":1000,"amountRaised":250,"yesVotes":3}`))
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "case", "get", "CASE0001")
	require.NoError(t, err)
	assert.Contains(t, out, "Case: CASE0001")
	assert.Contains(t, out, "Status: verified")
	assert.Contains(t, out, "Funding: 250 / 1000 (25.0%)")
	assert.Contains(t, out, "Votes: 3 yes / 0 no")
}

func TestCaseListJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pending_verification", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`[{"caseId":"CASE0002","status":"pending_verification"}]`))
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "case", "list", "--status", "pending_verification", "-o", "json")
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "CASE0002", got[0]["caseId"])
}

func TestReleaseSendsCosigners(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Facility       string   `json:"facility"`
			CosignerTokens []string `json:"cosignerTokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "st-mary", body.Facility)
		assert.Equal(t, []string{"a", "b", "c"}, body.CosignerTokens)
		_, _ = w.Write([]byte(`{"seq":9,"amount":1000,"case":{"caseId":"CASE0001"}}`))
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "release", "CASE0001", "--facility", "st-mary",
		"--cosigner", "a", "--cosigner", "b", "--cosigner", "c")
	require.NoError(t, err)
	assert.Contains(t, out, "Released 1000 from CASE0001 to st-mary")
}

func TestCommandSurfacesNodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"DUPLICATE_VOTE","kind":"validation","message":"verifier already voted"}`))
	}))
	defer srv.Close()

	_, err := run(t, srv.URL, "vote", "CASE0001", "--approve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DUPLICATE_VOTE")
}

func TestVerifierList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		_, _ = w.Write([]byte(`[{"identity":"verifier-1","isActive":true}]`))
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "verifier", "list", "--active")
	require.NoError(t, err)
	assert.Equal(t, "verifier-1  active", strings.TrimSpace(out))
}

func TestUnknownOutputFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := run(t, srv.URL, "stats", "-o", "yaml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestTokenIssuesVerifiableToken(t *testing.T) {
	secret := "0123456789abcdef0123"
	out, err := run(t, "http://unused", "token", "donor-7", "--secret", secret, "--role", "donor")
	require.NoError(t, err)

	claims, err := auth.NewTokenVerifier([]byte(secret), "curachain").Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "donor-7", claims.Identity())
	assert.True(t, claims.HasRole(auth.RoleDonor))
	assert.Empty(t, claims.Action)
}

func TestTokenScopedToRelease(t *testing.T) {
	secret := "0123456789abcdef0123"
	t.Cleanup(func() { _ = tokenCmd.Flags().Set("release", "") })
	out, err := run(t, "http://unused", "token", "verifier-2", "--secret", secret,
		"--role", "verifier", "--release", "CASE0003")
	require.NoError(t, err)

	claims, err := auth.NewTokenVerifier([]byte(secret), "curachain").Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, auth.ReleaseAction("CASE0003"), claims.Action)
	assert.True(t, claims.HasRole(auth.RoleVerifier))
}
