package crowdfund

import (
	"strings"

	"curachain/core/ledger"
	"curachain/types/ids"
)

// SubmitCase is the input of CaseRegistry.Submit.
type SubmitCase struct {
	Patient      string `json:"patient"`
	Description  string `json:"description"`
	AmountNeeded uint64 `json:"amountNeeded"`
	RecordsLink  string `json:"recordsLink"`
}

// CaseRegistry owns case records, the case counter and the caseId index.
type CaseRegistry struct{}

// Submit creates a pending case for the patient and assigns the next caseId.
func (CaseRegistry) Submit(tx *ledger.Tx, in SubmitCase) (*Case, error) {
	if in.Patient == "" {
		return nil, ErrUnauthorized
	}
	if in.AmountNeeded == 0 {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, newError(CodeInvalidPayload, "description is required")
	}
	if strings.TrimSpace(in.RecordsLink) == "" {
		return nil, newError(CodeInvalidPayload, "records link is required")
	}

	var counter CaseCounter
	found, err := tx.Get(CaseCounterAddress(), &counter)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotInitialized
	}

	caseAddr := PatientCaseAddress(in.Patient)
	exists, err := tx.Has(caseAddr)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, newError(CodeDuplicatePatientCase, "patient already has an open case", "patient", in.Patient)
	}

	counter.CurrentID++
	c := &Case{
		CaseID:         FormatCaseID(counter.CurrentID),
		Patient:        in.Patient,
		Description:    in.Description,
		AmountNeeded:   in.AmountNeeded,
		RecordsLink:    in.RecordsLink,
		Status:         StatusPendingVerification,
		VotedVerifiers: []string{},
		SubmittedAt:    tx.Now(),
		UpdatedAt:      tx.Now(),
	}
	if err := tx.Put(CaseCounterAddress(), kindCaseCounter, counter); err != nil {
		return nil, err
	}
	if err := tx.Put(caseAddr, kindCase, c); err != nil {
		return nil, err
	}
	lookup := CaseLookup{CaseID: c.CaseID, CaseAccount: caseAddr, Patient: in.Patient}
	if err := tx.Put(CaseLookupAddress(c.CaseID), kindCaseLookup, lookup); err != nil {
		return nil, err
	}
	return c, nil
}

// CloseRejected retires a rejected case. The lookup entry goes away, the
// case moves to the archive as a tombstone and the patient may submit again.
func (r CaseRegistry) CloseRejected(tx *ledger.Tx, caller, caseID string) (*Case, error) {
	c, addr, err := r.Load(tx, caseID)
	if err != nil {
		return nil, err
	}
	if caller == "" || caller != c.Patient {
		return nil, newError(CodeUnauthorized, "only the patient may close the case", "caseId", caseID)
	}
	if c.Status != StatusRejected {
		return nil, newError(CodeNotRejected, "case is not rejected", "caseId", caseID, "status", string(c.Status))
	}

	c.Closed = true
	c.UpdatedAt = tx.Now()
	if err := tx.Delete(CaseLookupAddress(caseID)); err != nil {
		return nil, err
	}
	if err := tx.Delete(addr); err != nil {
		return nil, err
	}
	if err := tx.Put(CaseArchiveAddress(caseID), kindCaseArchive, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Load resolves caseId through the lookup index.
func (CaseRegistry) Load(tx *ledger.Tx, caseID string) (*Case, ids.ID, error) {
	var lookup CaseLookup
	found, err := tx.Get(CaseLookupAddress(caseID), &lookup)
	if err != nil {
		return nil, ids.Empty, err
	}
	if !found {
		return nil, ids.Empty, newError(CodeCaseNotFound, "case not found", "caseId", caseID)
	}
	var c Case
	found, err = tx.Get(lookup.CaseAccount, &c)
	if err != nil {
		return nil, ids.Empty, err
	}
	if !found || c.CaseID != caseID {
		return nil, ids.Empty, newError(CodeCaseNotFound, "case not found", "caseId", caseID)
	}
	return &c, lookup.CaseAccount, nil
}

// LoadArchived returns a closed case tombstone.
func (CaseRegistry) LoadArchived(tx *ledger.Tx, caseID string) (*Case, error) {
	var c Case
	found, err := tx.Get(CaseArchiveAddress(caseID), &c)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, newError(CodeCaseNotFound, "case not found", "caseId", caseID)
	}
	return &c, nil
}

func (CaseRegistry) save(tx *ledger.Tx, addr ids.ID, c *Case) error {
	c.UpdatedAt = tx.Now()
	return tx.Put(addr, kindCase, c)
}
