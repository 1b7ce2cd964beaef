package crowdfund

import (
	"context"
	"errors"
	"sort"

	"curachain/core/ledger"
	"curachain/types/ids"
)

// CaseRecord is a case together with where it lives and its version,
// for callers that want to pass an expectation back with their next write.
type CaseRecord struct {
	Case
	Account ids.ID `json:"account"`
	Version uint64 `json:"version"`
}

// VerificationSummary reports vote progress against the thresholds.
type VerificationSummary struct {
	CaseID           string     `json:"caseId"`
	Status           CaseStatus `json:"status"`
	YesVotes         uint32     `json:"yesVotes"`
	NoVotes          uint32     `json:"noVotes"`
	TotalVotes       uint32     `json:"totalVotes"`
	ActiveVerifiers  int        `json:"activeVerifiers"`
	ParticipationPct float64    `json:"participationPct"`
	ApprovalPct      float64    `json:"approvalPct"`
	VotedVerifiers   []string   `json:"votedVerifiers"`
	Thresholds       Thresholds `json:"thresholds"`
}

// FundingSummary reports donation progress and escrow state.
type FundingSummary struct {
	CaseID          string  `json:"caseId"`
	AmountNeeded    uint64  `json:"amountNeeded"`
	AmountRaised    uint64  `json:"amountRaised"`
	Remaining       uint64  `json:"remaining"`
	Percentage      float64 `json:"percentage"`
	FullyFunded     bool    `json:"fullyFunded"`
	FundsReleased   bool    `json:"fundsReleased"`
	Facility        string  `json:"facility,omitempty"`
	EscrowAccount   ids.ID  `json:"escrowAccount"`
	EscrowBalance   uint64  `json:"escrowBalance"`
	ReleaseEligible bool    `json:"releaseEligible"`
}

// PlatformStats aggregates the whole platform.
type PlatformStats struct {
	TotalCasesSubmitted uint64 `json:"totalCasesSubmitted"`
	ActiveCases         int    `json:"activeCases"`
	PendingCases        int    `json:"pendingCases"`
	VerifiedCases       int    `json:"verifiedCases"`
	RejectedCases       int    `json:"rejectedCases"`
	FullyFundedCases    int    `json:"fullyFundedCases"`
	ReleasedCases       int    `json:"releasedCases"`
	TotalRaised         uint64 `json:"totalRaised"`
	TotalVerifiers      int    `json:"totalVerifiers"`
	ActiveVerifiers     int    `json:"activeVerifiers"`
	TotalDonors         int    `json:"totalDonors"`
	LedgerHeight        uint64 `json:"ledgerHeight"`
}

// FundingPercentage is raised/needed as a percentage, capped at 100.
func FundingPercentage(raised, needed uint64) float64 {
	if needed == 0 {
		return 0
	}
	if raised >= needed {
		return 100
	}
	return float64(raised) * 100 / float64(needed)
}

func (e *Engine) caseRecord(tx *ledger.Tx, caseID string) (*CaseRecord, error) {
	c, addr, err := e.cases.Load(tx, caseID)
	if errors.Is(err, ErrCaseNotFound) {
		archived, aerr := e.cases.LoadArchived(tx, caseID)
		if aerr != nil {
			return nil, aerr
		}
		c, addr, err = archived, CaseArchiveAddress(caseID), nil
	}
	if err != nil {
		return nil, err
	}
	version, err := tx.Version(addr)
	if err != nil {
		return nil, err
	}
	return &CaseRecord{Case: *c, Account: addr, Version: version}, nil
}

// GetCase returns the case with caseId. Closed cases come back from the
// archive with Closed set.
func (e *Engine) GetCase(ctx context.Context, caseID string) (*CaseRecord, error) {
	var out *CaseRecord
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		r, err := e.caseRecord(tx, caseID)
		out = r
		return err
	})
	return out, err
}

// ListCases returns every case still reachable by caseId, ordered by caseId.
func (e *Engine) ListCases(ctx context.Context) ([]CaseRecord, error) {
	var out []CaseRecord
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		return tx.List(kindCaseLookup, func(id ids.ID) error {
			var lookup CaseLookup
			if _, err := tx.Get(id, &lookup); err != nil {
				return err
			}
			r, err := e.caseRecord(tx, lookup.CaseID)
			if err != nil {
				return err
			}
			out = append(out, *r)
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out, err
}

// ListCasesByPatient returns the patient's open case and any closed ones.
func (e *Engine) ListCasesByPatient(ctx context.Context, patient string) ([]CaseRecord, error) {
	var out []CaseRecord
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		addr := PatientCaseAddress(patient)
		var c Case
		found, err := tx.Get(addr, &c)
		if err != nil {
			return err
		}
		if found {
			v, err := tx.Version(addr)
			if err != nil {
				return err
			}
			out = append(out, CaseRecord{Case: c, Account: addr, Version: v})
		}
		return tx.List(kindCaseArchive, func(id ids.ID) error {
			var archived Case
			if _, err := tx.Get(id, &archived); err != nil {
				return err
			}
			if archived.Patient != patient {
				return nil
			}
			v, err := tx.Version(id)
			if err != nil {
				return err
			}
			out = append(out, CaseRecord{Case: archived, Account: id, Version: v})
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out, err
}

func (e *Engine) VerificationSummary(ctx context.Context, caseID string) (VerificationSummary, error) {
	var out VerificationSummary
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		r, err := e.caseRecord(tx, caseID)
		if err != nil {
			return err
		}
		active, err := e.verifiers.ActiveCount(tx)
		if err != nil {
			return err
		}
		total := r.YesVotes + r.NoVotes
		out = VerificationSummary{
			CaseID:          r.CaseID,
			Status:          r.Status,
			YesVotes:        r.YesVotes,
			NoVotes:         r.NoVotes,
			TotalVotes:      total,
			ActiveVerifiers: active,
			VotedVerifiers:  append([]string{}, r.VotedVerifiers...),
			Thresholds:      e.voting.Thresholds,
		}
		if active > 0 {
			out.ParticipationPct = float64(total) * 100 / float64(active)
		}
		if total > 0 {
			out.ApprovalPct = float64(r.YesVotes) * 100 / float64(total)
		}
		return nil
	})
	return out, err
}

func (e *Engine) FundingSummary(ctx context.Context, caseID string) (FundingSummary, error) {
	var out FundingSummary
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		c, addr, err := e.cases.Load(tx, caseID)
		if err != nil {
			return err
		}
		escrowAddr := EscrowAddress(caseID, addr)
		var escrow EscrowAccount
		if _, err := tx.Get(escrowAddr, &escrow); err != nil {
			return err
		}
		out = FundingSummary{
			CaseID:          c.CaseID,
			AmountNeeded:    c.AmountNeeded,
			AmountRaised:    c.AmountRaised,
			Remaining:       c.RemainingNeed(),
			Percentage:      FundingPercentage(c.AmountRaised, c.AmountNeeded),
			FullyFunded:     c.FullyFunded(),
			FundsReleased:   c.FundsReleased,
			Facility:        c.Facility,
			EscrowAccount:   escrowAddr,
			EscrowBalance:   escrow.Balance,
			ReleaseEligible: c.ReleaseEligible(),
		}
		return nil
	})
	return out, err
}

// IsFullyFunded reports whether the case has met its need.
func (e *Engine) IsFullyFunded(ctx context.Context, caseID string) (bool, error) {
	var out bool
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		ok, err := e.escrow.IsFullyFunded(tx, caseID)
		out = ok
		return err
	})
	return out, err
}

func (e *Engine) GetVerifier(ctx context.Context, identity string) (*Verifier, error) {
	var out Verifier
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		found, err := tx.Get(VerifierAddress(identity), &out)
		if err != nil {
			return err
		}
		if !found {
			return newError(CodeVerifierNotFound, "verifier not found", "identity", identity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVerifiers returns every verifier ever added, in registration order.
func (e *Engine) ListVerifiers(ctx context.Context) ([]Verifier, error) {
	var out []Verifier
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		var list VerifierRegistryList
		found, err := tx.Get(VerifierListAddress(), &list)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotInitialized
		}
		for _, entry := range list.Entries {
			var v Verifier
			if _, err := tx.Get(VerifierAddress(entry.Identity), &v); err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

func (e *Engine) GetDonor(ctx context.Context, identity string) (*DonorRecord, error) {
	var out DonorRecord
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		found, err := tx.Get(DonorAddress(identity), &out)
		if err != nil {
			return err
		}
		if !found {
			return newError(CodeDonorNotFound, "donor not found", "identity", identity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDonors returns all donors, largest total first.
func (e *Engine) ListDonors(ctx context.Context) ([]DonorRecord, error) {
	var out []DonorRecord
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		return tx.List(kindDonor, func(id ids.ID) error {
			var d DonorRecord
			if _, err := tx.Get(id, &d); err != nil {
				return err
			}
			out = append(out, d)
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalDonated != out[j].TotalDonated {
			return out[i].TotalDonated > out[j].TotalDonated
		}
		return out[i].Identity < out[j].Identity
	})
	return out, err
}

func (e *Engine) GetFacility(ctx context.Context, identity string) (*FacilityAccount, error) {
	var out FacilityAccount
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		found, err := tx.Get(FacilityAddress(identity), &out)
		if err != nil {
			return err
		}
		if !found {
			return newError(CodeFacilityNotFound, "facility not found", "identity", identity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Engine) IsAdmin(ctx context.Context, identity string) (bool, error) {
	var out bool
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		ok, err := e.verifiers.IsActiveAdmin(tx, identity)
		out = ok
		return err
	})
	return out, err
}

func (e *Engine) IsVerifier(ctx context.Context, identity string) (bool, error) {
	var out bool
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		ok, err := e.verifiers.IsActiveVerifier(tx, identity)
		out = ok
		return err
	})
	return out, err
}

// PlatformStats scans every open case, the verifier list and donors.
func (e *Engine) PlatformStats(ctx context.Context) (PlatformStats, error) {
	var out PlatformStats
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		var counter CaseCounter
		if _, err := tx.Get(CaseCounterAddress(), &counter); err != nil {
			return err
		}
		out.TotalCasesSubmitted = counter.CurrentID

		err := tx.List(kindCaseLookup, func(id ids.ID) error {
			var lookup CaseLookup
			if _, err := tx.Get(id, &lookup); err != nil {
				return err
			}
			c, _, err := e.cases.Load(tx, lookup.CaseID)
			if err != nil {
				return err
			}
			out.ActiveCases++
			switch c.Status {
			case StatusPendingVerification:
				out.PendingCases++
			case StatusVerified:
				out.VerifiedCases++
			case StatusRejected:
				out.RejectedCases++
			}
			if c.FullyFunded() {
				out.FullyFundedCases++
			}
			if c.FundsReleased {
				out.ReleasedCases++
			}
			out.TotalRaised += c.AmountRaised
			return nil
		})
		if err != nil {
			return err
		}

		var list VerifierRegistryList
		if _, err := tx.Get(VerifierListAddress(), &list); err != nil {
			return err
		}
		out.TotalVerifiers = len(list.Entries)
		out.ActiveVerifiers = list.ActiveCount()

		return tx.List(kindDonor, func(ids.ID) error {
			out.TotalDonors++
			return nil
		})
	})
	out.LedgerHeight = e.ledger.Head().Seq
	return out, err
}
