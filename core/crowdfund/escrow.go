package crowdfund

import (
	"math"
	"strconv"

	"curachain/core/ledger"
)

// EscrowLedger accepts donations into per-case escrow accounts.
type EscrowLedger struct {
	Cases CaseRegistry
}

// Donation is what Donate reports back.
type Donation struct {
	Case   *Case
	Escrow *EscrowAccount
	Donor  *DonorRecord
}

// Donate moves amount into the case escrow. Amounts above the remaining need
// are refused, never clamped.
func (e EscrowLedger) Donate(tx *ledger.Tx, donor, caseID string, amount uint64) (*Donation, error) {
	if donor == "" {
		return nil, ErrUnauthorized
	}
	c, caseAddr, err := e.Cases.Load(tx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusVerified {
		return nil, newError(CodeCaseNotVerified, "case is not verified", "caseId", caseID, "status", string(c.Status))
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if c.FullyFunded() {
		return nil, newError(CodeAlreadyFullyFunded, "case is already fully funded", "caseId", caseID)
	}
	if amount > c.RemainingNeed() {
		return nil, newError(CodeExceedsRemainingNeed, "amount exceeds remaining need",
			"caseId", caseID,
			"remaining", strconv.FormatUint(c.RemainingNeed(), 10),
		)
	}

	escrowAddr := EscrowAddress(caseID, caseAddr)
	var escrow EscrowAccount
	found, err := tx.Get(escrowAddr, &escrow)
	if err != nil {
		return nil, err
	}
	if !found {
		escrow = EscrowAccount{CaseID: caseID, Owner: EscrowOwnerCase, CreatedAt: tx.Now()}
	}

	var record DonorRecord
	found, err = tx.Get(DonorAddress(donor), &record)
	if err != nil {
		return nil, err
	}
	if !found {
		record = DonorRecord{Identity: donor, FirstDonationAt: tx.Now()}
	}
	if record.TotalDonated > math.MaxUint64-amount {
		return nil, newError(CodeInvalidAmount, "donor total would overflow", "identity", donor)
	}

	c.AmountRaised += amount
	escrow.Balance += amount
	record.TotalDonated += amount
	record.DonationCount++
	record.LastDonationAt = tx.Now()

	if err := e.Cases.save(tx, caseAddr, c); err != nil {
		return nil, err
	}
	if err := tx.Put(escrowAddr, kindEscrow, escrow); err != nil {
		return nil, err
	}
	if err := tx.Put(DonorAddress(donor), kindDonor, record); err != nil {
		return nil, err
	}
	return &Donation{Case: c, Escrow: &escrow, Donor: &record}, nil
}

// IsFullyFunded reports whether the case has raised its full need.
func (e EscrowLedger) IsFullyFunded(tx *ledger.Tx, caseID string) (bool, error) {
	c, _, err := e.Cases.Load(tx, caseID)
	if err != nil {
		return false, err
	}
	return c.FullyFunded(), nil
}
