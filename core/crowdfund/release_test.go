package crowdfund

import (
	"testing"

	"curachain/core/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quorum = []string{"verifier-1", "verifier-2", "verifier-3"}

func fundedCase(t *testing.T) (*fixture, string) {
	t.Helper()
	f := newFixture(t, 4)
	caseID := f.submit("patient-1", 1000)
	f.verify(caseID)
	f.fund(caseID)
	return f, caseID
}

func TestReleaseFunds(t *testing.T) {
	f, caseID := fundedCase(t)

	rc, err := f.engine.ReleaseFunds(f.ctx, testAdmin, caseID, "st-mary", quorum)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), rc.Amount)
	assert.True(t, rc.Case.FundsReleased)
	assert.Equal(t, "st-mary", rc.Case.Facility)
	assert.Equal(t, uint64(1000), rc.Facility.TotalReceived)
	assert.Equal(t, []string{caseID}, rc.Facility.Releases)

	funding, err := f.engine.FundingSummary(f.ctx, caseID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), funding.EscrowBalance)
	assert.Equal(t, uint64(1000), funding.AmountRaised)
	assert.True(t, funding.FundsReleased)
	assert.False(t, funding.ReleaseEligible)

	facility, err := f.engine.GetFacility(f.ctx, "st-mary")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), facility.TotalReceived)

	_, err = f.engine.ReleaseFunds(f.ctx, testAdmin, caseID, "st-mary", quorum)
	requireCode(t, err, CodeAlreadyReleased)

	var released []notify.Notification
	for _, n := range f.notifications() {
		if n.Event == notify.EventFundsReleased {
			released = append(released, n)
		}
	}
	require.Len(t, released, 2)
	assert.Equal(t, notify.NotifyFacility, released[0].Type)
	assert.Equal(t, "st-mary", released[0].Recipient)
	assert.Equal(t, "patient-1", released[1].Recipient)
}

func TestReleaseFundsAuthorization(t *testing.T) {
	f, caseID := fundedCase(t)

	_, err := f.engine.ReleaseFunds(f.ctx, "verifier-1", caseID, "st-mary", quorum)
	requireCode(t, err, CodeUnauthorized)

	_, err = f.engine.ReleaseFunds(f.ctx, testAdmin, caseID, "  ", quorum)
	requireCode(t, err, CodeInvalidFacility)

	_, err = f.engine.ReleaseFunds(f.ctx, testAdmin, "CASE0404", "st-mary", quorum)
	requireCode(t, err, CodeCaseNotFound)
}

func TestReleaseFundsQuorum(t *testing.T) {
	f, caseID := fundedCase(t)

	tests := []struct {
		name      string
		cosigners []string
	}{
		{"too few", []string{"verifier-1", "verifier-2"}},
		{"too many", []string{"verifier-1", "verifier-2", "verifier-3", "verifier-4"}},
		{"duplicate", []string{"verifier-1", "verifier-1", "verifier-2"}},
		{"stranger", []string{"verifier-1", "verifier-2", "stranger"}},
		{"admin is not a verifier", []string{"verifier-1", "verifier-2", testAdmin}},
		{"empty identity", []string{"verifier-1", "verifier-2", ""}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.ReleaseFunds(f.ctx, testAdmin, caseID, "st-mary", tc.cosigners)
			requireCode(t, err, CodeInvalidVerifierQuorum)
		})
	}

	_, err := f.engine.AddOrRemoveVerifier(f.ctx, testAdmin, "verifier-3", VerifierRemove)
	require.NoError(t, err)
	_, err = f.engine.ReleaseFunds(f.ctx, testAdmin, caseID, "st-mary", quorum)
	requireCode(t, err, CodeInvalidVerifierQuorum)

	rc, err := f.engine.ReleaseFunds(f.ctx, testAdmin, caseID, "st-mary", []string{"verifier-1", "verifier-2", "verifier-4"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), rc.Amount)
}

func TestReleaseFundsRequiresFullFunding(t *testing.T) {
	f := newFixture(t, 4)
	caseID := f.submit("patient-1", 1000)

	// unverified and unfunded: funding is checked first
	_, err := f.engine.ReleaseFunds(f.ctx, testAdmin, caseID, "st-mary", quorum)
	requireCode(t, err, CodeNotFullyFunded)

	f.verify(caseID)
	_, err = f.engine.Donate(f.ctx, "donor-1", caseID, 999)
	require.NoError(t, err)
	_, err = f.engine.ReleaseFunds(f.ctx, testAdmin, caseID, "st-mary", quorum)
	requireCode(t, err, CodeNotFullyFunded)

	funding, err := f.engine.FundingSummary(f.ctx, caseID)
	require.NoError(t, err)
	assert.Equal(t, uint64(999), funding.EscrowBalance)
	assert.False(t, funding.ReleaseEligible)
}

func TestReleasedCaseBlocksResubmission(t *testing.T) {
	f, caseID := fundedCase(t)
	_, err := f.engine.ReleaseFunds(f.ctx, testAdmin, caseID, "st-mary", quorum)
	require.NoError(t, err)

	_, err = f.engine.SubmitCase(f.ctx, SubmitCase{
		Patient: "patient-1", Description: "follow-up", AmountNeeded: 10, RecordsLink: "ipfs://z",
	})
	requireCode(t, err, CodeDuplicatePatientCase)

	_, err = f.engine.CloseRejectedCase(f.ctx, "patient-1", caseID)
	requireCode(t, err, CodeNotRejected)
}
