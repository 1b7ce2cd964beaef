package crowdfund

import (
	"fmt"

	"curachain/core/ledger"
)

// Thresholds are percentages applied after every vote.
// A case is verified once participation and approval both reach their
// minimums, and rejected once participation is reached and approval falls
// below RejectionPct.
type Thresholds struct {
	ParticipationPct uint64 `json:"participationPct" yaml:"participationPct"`
	ApprovalPct      uint64 `json:"approvalPct" yaml:"approvalPct"`
	RejectionPct     uint64 `json:"rejectionPct" yaml:"rejectionPct"`
}

// DefaultThresholds: 50% participation, 70% approval, under 30% approval rejects.
func DefaultThresholds() Thresholds {
	return Thresholds{ParticipationPct: 50, ApprovalPct: 70, RejectionPct: 30}
}

func (t Thresholds) Validate() error {
	for name, v := range map[string]uint64{
		"participation": t.ParticipationPct,
		"approval":      t.ApprovalPct,
		"rejection":     t.RejectionPct,
	} {
		if v == 0 || v > 100 {
			return fmt.Errorf("%s threshold must be within 1..100, got %d", name, v)
		}
	}
	if t.RejectionPct > t.ApprovalPct {
		return fmt.Errorf("rejection threshold %d exceeds approval threshold %d", t.RejectionPct, t.ApprovalPct)
	}
	return nil
}

// Evaluate returns the status a pending case moves to, or pending when no
// threshold is crossed. Integer cross-multiplication, no rounding.
func (t Thresholds) Evaluate(yes, no uint64, active int) CaseStatus {
	voted := yes + no
	if voted == 0 || active <= 0 {
		return StatusPendingVerification
	}
	if voted*100 < t.ParticipationPct*uint64(active) {
		return StatusPendingVerification
	}
	switch {
	case yes*100 >= t.ApprovalPct*voted:
		return StatusVerified
	case yes*100 < t.RejectionPct*voted:
		return StatusRejected
	default:
		return StatusPendingVerification
	}
}

// VerificationCoordinator records verifier votes and settles case status.
type VerificationCoordinator struct {
	Thresholds Thresholds
	Cases      CaseRegistry
	Verifiers  VerifierRegistry
}

// CastVote records one vote. It reports whether the vote moved the case out
// of pending verification.
func (v VerificationCoordinator) CastVote(tx *ledger.Tx, verifier, caseID string, approve bool) (*Case, bool, error) {
	active, err := v.Verifiers.IsActiveVerifier(tx, verifier)
	if err != nil {
		return nil, false, err
	}
	if !active {
		return nil, false, newError(CodeNotAVerifier, "caller is not an active verifier", "identity", verifier)
	}
	c, addr, err := v.Cases.Load(tx, caseID)
	if err != nil {
		return nil, false, err
	}
	if c.Status != StatusPendingVerification {
		return nil, false, newError(CodeCaseNotPending, "case is not pending verification", "caseId", caseID, "status", string(c.Status))
	}
	if c.HasVoted(verifier) {
		return nil, false, newError(CodeDuplicateVote, "verifier already voted on this case", "caseId", caseID, "identity", verifier)
	}

	c.VotedVerifiers = append(c.VotedVerifiers, verifier)
	if approve {
		c.YesVotes++
	} else {
		c.NoVotes++
	}

	total, err := v.Verifiers.ActiveCount(tx)
	if err != nil {
		return nil, false, err
	}
	c.Status = v.Thresholds.Evaluate(uint64(c.YesVotes), uint64(c.NoVotes), total)
	if err := v.Cases.save(tx, addr, c); err != nil {
		return nil, false, err
	}
	return c, c.Status != StatusPendingVerification, nil
}
