package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in a token. Co-signer tokens must carry RoleVerifier; beyond
// that the ledger decides what an identity may actually do.
const (
	RoleAdmin    = "admin"
	RoleVerifier = "verifier"
	RolePatient  = "patient"
	RoleDonor    = "donor"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token or claims")
)

// Claims identify the caller. Subject is the identity used by every
// crowdfunding operation. Action scopes a token to a single operation.
type Claims struct {
	Roles  []string `json:"roles,omitempty"`
	Action string   `json:"act,omitempty"`
	jwt.RegisteredClaims
}

// ReleaseAction is the Action a co-signer token needs to release caseID.
func ReleaseAction(caseID string) string {
	return "release:" + caseID
}

func (c *Claims) Identity() string {
	return c.Subject
}

func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// TokenVerifier checks HS256 tokens signed with a shared secret.
type TokenVerifier struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
}

func NewTokenVerifier(secret []byte, issuer string) *TokenVerifier {
	return &TokenVerifier{Secret: secret, Issuer: issuer, Leeway: 30 * time.Second}
}

func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.Leeway),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.Secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenIssuer mints tokens for local operators and tests.
type TokenIssuer struct {
	Secret []byte
	Issuer string
	Now    func() time.Time
}

func NewTokenIssuer(secret []byte, issuer string) *TokenIssuer {
	return &TokenIssuer{Secret: secret, Issuer: issuer, Now: time.Now}
}

// Issue signs a token for identity valid for ttl.
func (i *TokenIssuer) Issue(identity string, ttl time.Duration, roles ...string) (string, error) {
	return i.IssueScoped(identity, "", ttl, roles...)
}

// IssueScoped signs a token limited to action, e.g. ReleaseAction(caseID).
func (i *TokenIssuer) IssueScoped(identity, action string, ttl time.Duration, roles ...string) (string, error) {
	if identity == "" {
		return "", errors.New("identity is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}
	now := i.Now()
	claims := Claims{
		Roles:  roles,
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			Issuer:    i.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
}
