package server

import (
	"net/http"
	"strconv"

	"curachain/core/crowdfund"
	"curachain/core/ledger"
	"curachain/core/validation"
)

type verifierRequest struct {
	Identity string               `json:"identity"`
	Op       crowdfund.VerifierOp `json:"op"`
}

func (s *Server) handleVerifierOp(w http.ResponseWriter, r *http.Request) {
	var req verifierRequest
	if err := s.decode(w, r, validation.SchemaVerifier, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rc, err := s.engine.AddOrRemoveVerifier(r.Context(), identity(r), req.Identity, req.Op)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (s *Server) handleListVerifiers(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.ListVerifiers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("active") == "true" {
		active := list[:0]
		for _, v := range list {
			if v.IsActive {
				active = append(active, v)
			}
		}
		list = active
	}
	if list == nil {
		list = []crowdfund.Verifier{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetVerifier(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.GetVerifier(r.Context(), r.PathValue("identity"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleListDonors(w http.ResponseWriter, r *http.Request) {
	donors, err := s.engine.ListDonors(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if donors == nil {
		donors = []crowdfund.DonorRecord{}
	}
	writeJSON(w, http.StatusOK, donors)
}

func (s *Server) handleGetDonor(w http.ResponseWriter, r *http.Request) {
	d, err := s.engine.GetDonor(r.Context(), r.PathValue("identity"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGetFacility(w http.ResponseWriter, r *http.Request) {
	f, err := s.engine.GetFacility(r.Context(), r.PathValue("identity"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.PlatformStats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLedgerHead(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Ledger().Head())
}

// handleLedgerEntries pages through the commit log: ?from=<seq>&limit=<n>.
func (s *Server) handleLedgerEntries(w http.ResponseWriter, r *http.Request) {
	from := uint64(1)
	limit := 50
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: string(crowdfund.CodeInvalidPayload), Kind: string(crowdfund.KindValidation), Message: "from must be a positive integer"})
			return
		}
		from = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: string(crowdfund.CodeInvalidPayload), Kind: string(crowdfund.KindValidation), Message: "limit must be within 1..500"})
			return
		}
		limit = n
	}
	entries, err := s.engine.Ledger().Entries(from, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
