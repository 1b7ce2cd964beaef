package crowdfund

import (
	"fmt"
	"slices"
	"time"

	"curachain/types/ids"
)

// CaseStatus is the verification state of a case.
type CaseStatus string

const (
	StatusPendingVerification CaseStatus = "pending_verification"
	StatusVerified            CaseStatus = "verified"
	StatusRejected            CaseStatus = "rejected"
)

// Account kinds, used by the ledger index for listing.
const (
	kindCase         = "case"
	kindCaseCounter  = "case_counter"
	kindCaseLookup   = "case_lookup"
	kindCaseArchive  = "case_archive"
	kindVerifier     = "verifier"
	kindVerifierList = "verifier_list"
	kindAdmin        = "admin"
	kindAdminConfig  = "admin_config"
	kindDonor        = "donor"
	kindEscrow       = "escrow"
	kindFacility     = "facility"
)

// Case is a patient's funding request.
type Case struct {
	CaseID         string     `json:"caseId"`
	Patient        string     `json:"patient"`
	Description    string     `json:"description"`
	AmountNeeded   uint64     `json:"amountNeeded"`
	AmountRaised   uint64     `json:"amountRaised"`
	RecordsLink    string     `json:"recordsLink"`
	Status         CaseStatus `json:"status"`
	YesVotes       uint32     `json:"yesVotes"`
	NoVotes        uint32     `json:"noVotes"`
	VotedVerifiers []string   `json:"votedVerifiers"`
	FundsReleased  bool       `json:"fundsReleased"`
	Facility       string     `json:"facility,omitempty"`
	Closed         bool       `json:"closed,omitempty"`
	SubmittedAt    time.Time  `json:"submittedAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// FullyFunded reports whether the need has been met.
func (c *Case) FullyFunded() bool {
	return c.AmountRaised >= c.AmountNeeded
}

// ReleaseEligible reports whether the case is verified, fully funded and not
// yet paid out.
func (c *Case) ReleaseEligible() bool {
	return c.Status == StatusVerified && c.FullyFunded() && !c.FundsReleased
}

func (c *Case) RemainingNeed() uint64 {
	if c.AmountRaised >= c.AmountNeeded {
		return 0
	}
	return c.AmountNeeded - c.AmountRaised
}

func (c *Case) HasVoted(verifier string) bool {
	return slices.Contains(c.VotedVerifiers, verifier)
}

// CaseCounter is the global submission counter.
type CaseCounter struct {
	CurrentID uint64 `json:"currentId"`
}

// CaseLookup maps a caseId to the account holding the case.
type CaseLookup struct {
	CaseID      string `json:"caseId"`
	CaseAccount ids.ID `json:"caseAccount"`
	Patient     string `json:"patient"`
}

type Verifier struct {
	Identity  string    `json:"identity"`
	IsActive  bool      `json:"isActive"`
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type VerifierEntry struct {
	Identity string `json:"identity"`
	Active   bool   `json:"active"`
}

// VerifierRegistryList enumerates every verifier ever added.
type VerifierRegistryList struct {
	Entries []VerifierEntry `json:"entries"`
}

func (l *VerifierRegistryList) ActiveCount() int {
	n := 0
	for _, e := range l.Entries {
		if e.Active {
			n++
		}
	}
	return n
}

func (l *VerifierRegistryList) set(identity string, active bool) {
	for i := range l.Entries {
		if l.Entries[i].Identity == identity {
			l.Entries[i].Active = active
			return
		}
	}
	l.Entries = append(l.Entries, VerifierEntry{Identity: identity, Active: active})
}

type Administrator struct {
	Identity  string    `json:"identity"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdminConfig records the one genesis administrator.
type AdminConfig struct {
	GenesisAdmin  string    `json:"genesisAdmin"`
	InitializedAt time.Time `json:"initializedAt"`
}

// DonorRecord accumulates a donor's contributions across all cases.
type DonorRecord struct {
	Identity        string    `json:"identity"`
	TotalDonated    uint64    `json:"totalDonated"`
	DonationCount   uint64    `json:"donationCount"`
	FirstDonationAt time.Time `json:"firstDonationAt"`
	LastDonationAt  time.Time `json:"lastDonationAt"`
}

// EscrowOwnerCase marks an escrow still held for its case.
const EscrowOwnerCase = "case"

// EscrowAccount holds donated funds until release.
type EscrowAccount struct {
	CaseID     string    `json:"caseId"`
	Balance    uint64    `json:"balance"`
	Owner      string    `json:"owner"`
	CreatedAt  time.Time `json:"createdAt"`
	ReleasedAt time.Time `json:"releasedAt,omitempty"`
}

// FacilityAccount receives released funds.
type FacilityAccount struct {
	Identity      string   `json:"identity"`
	TotalReceived uint64   `json:"totalReceived"`
	Releases      []string `json:"releases"`
}

// FormatCaseID renders the counter value as CASE0001, CASE0002, ...
func FormatCaseID(n uint64) string {
	return fmt.Sprintf("CASE%04d", n)
}

func PatientCaseAddress(patient string) ids.ID {
	return ids.DeriveString(ids.NamespacePatient, patient)
}

func CaseCounterAddress() ids.ID {
	return ids.Derive(ids.NamespaceCaseCounter)
}

func CaseLookupAddress(caseID string) ids.ID {
	return ids.DeriveString(ids.NamespaceCaseLookup, caseID)
}

func CaseArchiveAddress(caseID string) ids.ID {
	return ids.DeriveString(ids.NamespaceCaseArchive, caseID)
}

func VerifierAddress(identity string) ids.ID {
	return ids.DeriveString(ids.NamespaceVerifierRole, identity)
}

func VerifierListAddress() ids.ID {
	return ids.Derive(ids.NamespaceVerifiersList)
}

func AdminAddress(identity string) ids.ID {
	return ids.DeriveString(ids.NamespaceAdmin, identity)
}

func AdminConfigAddress() ids.ID {
	return ids.Derive(ids.NamespaceAdmin)
}

func DonorAddress(identity string) ids.ID {
	return ids.DeriveString(ids.NamespaceDonor, identity)
}

// EscrowAddress binds the escrow to both the case id and the case account.
func EscrowAddress(caseID string, caseAccount ids.ID) ids.ID {
	return ids.Derive(ids.NamespacePatientEscrow, []byte(caseID), caseAccount[:])
}

func FacilityAddress(identity string) ids.ID {
	return ids.DeriveString(ids.NamespaceFacility, identity)
}
