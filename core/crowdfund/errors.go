package crowdfund

import "errors"

// Kind groups error codes into the categories callers branch on.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindStateConflict Kind = "state_conflict"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
)

// Code is the machine-readable reason an operation was refused.
type Code string

const (
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotAVerifier Code = "NOT_A_VERIFIER"

	CodeCaseNotPending     Code = "CASE_NOT_PENDING"
	CodeCaseNotVerified    Code = "CASE_NOT_VERIFIED"
	CodeNotRejected        Code = "NOT_REJECTED"
	CodeAlreadyFullyFunded Code = "ALREADY_FULLY_FUNDED"
	CodeAlreadyReleased    Code = "ALREADY_RELEASED"
	CodeNotFullyFunded     Code = "NOT_FULLY_FUNDED"
	CodeAlreadyInitialized Code = "ALREADY_INITIALIZED"
	CodeNotInitialized     Code = "NOT_INITIALIZED"

	CodeInvalidAmount         Code = "INVALID_AMOUNT"
	CodeExceedsRemainingNeed  Code = "EXCEEDS_REMAINING_NEED"
	CodeDuplicatePatientCase  Code = "DUPLICATE_PATIENT_CASE"
	CodeDuplicateVote         Code = "DUPLICATE_VOTE"
	CodeInvalidVerifierQuorum Code = "INVALID_VERIFIER_QUORUM"
	CodeInvalidFacility       Code = "INVALID_FACILITY"
	CodeInvalidPayload        Code = "INVALID_PAYLOAD"

	CodeCaseNotFound     Code = "CASE_NOT_FOUND"
	CodeVerifierNotFound Code = "VERIFIER_NOT_FOUND"
	CodeDonorNotFound    Code = "DONOR_NOT_FOUND"
	CodeFacilityNotFound Code = "FACILITY_NOT_FOUND"
)

var codeKinds = map[Code]Kind{
	CodeUnauthorized: KindAuthorization,
	CodeNotAVerifier: KindAuthorization,

	CodeCaseNotPending:     KindStateConflict,
	CodeCaseNotVerified:    KindStateConflict,
	CodeNotRejected:        KindStateConflict,
	CodeAlreadyFullyFunded: KindStateConflict,
	CodeAlreadyReleased:    KindStateConflict,
	CodeNotFullyFunded:     KindStateConflict,
	CodeAlreadyInitialized: KindStateConflict,
	CodeNotInitialized:     KindStateConflict,

	CodeInvalidAmount:         KindValidation,
	CodeExceedsRemainingNeed:  KindValidation,
	CodeDuplicatePatientCase:  KindValidation,
	CodeDuplicateVote:         KindValidation,
	CodeInvalidVerifierQuorum: KindValidation,
	CodeInvalidFacility:       KindValidation,
	CodeInvalidPayload:        KindValidation,

	CodeCaseNotFound:     KindNotFound,
	CodeVerifierNotFound: KindNotFound,
	CodeDonorNotFound:    KindNotFound,
	CodeFacilityNotFound: KindNotFound,
}

// Kind returns the category of c. Unknown codes are validation errors.
func (c Code) Kind() Kind {
	if k, ok := codeKinds[c]; ok {
		return k
	}
	return KindValidation
}

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable detail
	Metadata map[string]string // Identifiers involved (caseId, identity, ...)
}

func (e *Error) Error() string {
	return e.Message
}

// Kind returns the category of the error code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// newError builds an Error; kv are metadata key/value pairs.
func newError(code Code, message string, kv ...string) *Error {
	e := &Error{Code: code, Message: message}
	if len(kv) > 1 {
		e.Metadata = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Metadata[kv[i]] = kv[i+1]
		}
	}
	return e
}

// CodeOf extracts the domain code from err.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthorized          = &Error{Code: CodeUnauthorized, Message: "caller is not authorized"}
	ErrAlreadyInitialized    = &Error{Code: CodeAlreadyInitialized, Message: "already initialized"}
	ErrNotInitialized        = &Error{Code: CodeNotInitialized, Message: "registry is not initialized"}
	ErrInvalidAmount         = &Error{Code: CodeInvalidAmount, Message: "amount must be positive"}
	ErrInvalidVerifierQuorum = &Error{Code: CodeInvalidVerifierQuorum, Message: "release needs three distinct active verifiers"}
	ErrInvalidFacility       = &Error{Code: CodeInvalidFacility, Message: "facility identity is required"}
	ErrCaseNotFound          = &Error{Code: CodeCaseNotFound, Message: "case not found"}
)
