package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"curachain/core/crowdfund"
	"curachain/core/ledger"
	"curachain/core/validation"
)

const (
	codeConflict        = "CONFLICT"
	codeInternal        = "INTERNAL"
	codeUnauthenticated = "UNAUTHENTICATED"
	codeNotFound        = "NOT_FOUND"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code     string            `json:"code"`
	Kind     string            `json:"kind,omitempty"`
	Message  string            `json:"message"`
	Details  []string          `json:"details,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

var kindStatus = map[crowdfund.Kind]int{
	crowdfund.KindAuthorization: http.StatusForbidden,
	crowdfund.KindStateConflict: http.StatusConflict,
	crowdfund.KindValidation:    http.StatusUnprocessableEntity,
	crowdfund.KindNotFound:      http.StatusNotFound,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *crowdfund.Error
	var validationErr *validation.Error
	switch {
	case errors.As(err, &domainErr):
		status, ok := kindStatus[domainErr.Kind()]
		if !ok {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, ErrorResponse{
			Code:     string(domainErr.Code),
			Kind:     string(domainErr.Kind()),
			Message:  domainErr.Message,
			Metadata: domainErr.Metadata,
		})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Code:    string(crowdfund.CodeInvalidPayload),
			Kind:    string(crowdfund.KindValidation),
			Message: "payload failed validation",
			Details: validationErr.Issues,
		})
	case errors.Is(err, ledger.ErrConflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{Code: codeConflict, Kind: string(crowdfund.KindStateConflict), Message: err.Error()})
	case errors.Is(err, ledger.ErrEntryNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: codeNotFound, Kind: string(crowdfund.KindNotFound), Message: err.Error()})
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", requestID(r))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Code: codeInternal, Message: "internal error"})
	}
}
