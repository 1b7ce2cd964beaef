package auth

import (
	"fmt"
	"strings"

	"curachain/core/audit"
)

type Authorizer struct {
	Verifier    *TokenVerifier
	AuditLogger audit.AuditLogger
}

type AuthorizationResult struct {
	Authorized bool
	Identity   string
	Claims     *Claims
	Reason     string
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authorize verifies a bearer token and records failures.
func (a *Authorizer) Authorize(token string, action string) AuthorizationResult {
	claims, err := a.Verifier.Verify(token)
	if err != nil {
		a.log(audit.NewEvent("token_verification", "", audit.ResultFailure, err.Error(), map[string]string{"action": action}))
		return AuthorizationResult{Reason: err.Error()}
	}
	return AuthorizationResult{Authorized: true, Identity: claims.Identity(), Claims: claims, Reason: "Authorized"}
}

// AuthorizeAll verifies every co-signer token and returns their subjects in
// order. Each token must be scoped to action and carry role. Distinctness
// and active membership are the ledger's call.
func (a *Authorizer) AuthorizeAll(tokens []string, action, role string) ([]string, AuthorizationResult) {
	identities := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		res := a.Authorize(tok, action)
		if !res.Authorized {
			return nil, res
		}
		reason := ""
		switch {
		case res.Claims.Action != action:
			reason = fmt.Sprintf("token is not scoped to %s", action)
		case !res.Claims.HasRole(role):
			reason = fmt.Sprintf("token lacks role %s", role)
		}
		if reason != "" {
			a.log(audit.NewEvent("token_scope", res.Identity, audit.ResultFailure, reason, map[string]string{"action": action}))
			return nil, AuthorizationResult{Identity: res.Identity, Claims: res.Claims, Reason: reason}
		}
		identities = append(identities, res.Identity)
	}
	return identities, AuthorizationResult{Authorized: true, Reason: "Authorized"}
}

func (a *Authorizer) log(e audit.AuditEvent) {
	if a.AuditLogger != nil {
		a.AuditLogger.LogEvent(e)
	}
}
