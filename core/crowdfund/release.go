package crowdfund

import (
	"strings"

	"curachain/core/ledger"
)

// RequiredCosigners is how many distinct active verifiers must co-sign a release.
const RequiredCosigners = 3

// ReleaseAuthority pays a funded case's escrow out to a facility.
type ReleaseAuthority struct {
	Cases     CaseRegistry
	Verifiers VerifierRegistry
}

// Release is what ReleaseFunds reports back.
type Release struct {
	Case     *Case
	Escrow   *EscrowAccount
	Facility *FacilityAccount
	Amount   uint64
}

// ReleaseFunds debits the whole escrow and credits the facility in one step.
func (r ReleaseAuthority) ReleaseFunds(tx *ledger.Tx, admin, caseID, facility string, cosigners []string) (*Release, error) {
	if err := r.Verifiers.requireAdmin(tx, admin); err != nil {
		return nil, err
	}
	facility = strings.TrimSpace(facility)
	if facility == "" {
		return nil, ErrInvalidFacility
	}
	c, caseAddr, err := r.Cases.Load(tx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.FullyFunded() {
		return nil, newError(CodeNotFullyFunded, "case is not fully funded", "caseId", caseID)
	}
	if c.FundsReleased {
		return nil, newError(CodeAlreadyReleased, "funds already released", "caseId", caseID)
	}
	if !c.ReleaseEligible() {
		// only the status can still fail here
		return nil, newError(CodeCaseNotVerified, "case is not verified", "caseId", caseID, "status", string(c.Status))
	}
	if err := r.checkQuorum(tx, cosigners); err != nil {
		return nil, err
	}

	escrowAddr := EscrowAddress(caseID, caseAddr)
	var escrow EscrowAccount
	found, err := tx.Get(escrowAddr, &escrow)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, newError(CodeNotFullyFunded, "case has no escrow", "caseId", caseID)
	}

	var account FacilityAccount
	found, err = tx.Get(FacilityAddress(facility), &account)
	if err != nil {
		return nil, err
	}
	if !found {
		account = FacilityAccount{Identity: facility, Releases: []string{}}
	}

	amount := escrow.Balance
	escrow.Balance = 0
	escrow.Owner = facility
	escrow.ReleasedAt = tx.Now()
	account.TotalReceived += amount
	account.Releases = append(account.Releases, caseID)
	c.FundsReleased = true
	c.Facility = facility

	if err := r.Cases.save(tx, caseAddr, c); err != nil {
		return nil, err
	}
	if err := tx.Put(escrowAddr, kindEscrow, escrow); err != nil {
		return nil, err
	}
	if err := tx.Put(FacilityAddress(facility), kindFacility, account); err != nil {
		return nil, err
	}
	return &Release{Case: c, Escrow: &escrow, Facility: &account, Amount: amount}, nil
}

func (r ReleaseAuthority) checkQuorum(tx *ledger.Tx, cosigners []string) error {
	if len(cosigners) != RequiredCosigners {
		return ErrInvalidVerifierQuorum
	}
	seen := make(map[string]bool, len(cosigners))
	for _, id := range cosigners {
		if id == "" || seen[id] {
			return newError(CodeInvalidVerifierQuorum, "co-signers must be distinct", "identity", id)
		}
		seen[id] = true
		active, err := r.Verifiers.IsActiveVerifier(tx, id)
		if err != nil {
			return err
		}
		if !active {
			return newError(CodeInvalidVerifierQuorum, "co-signer is not an active verifier", "identity", id)
		}
	}
	return nil
}
