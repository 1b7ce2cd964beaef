package crowdfund

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializationIsOneShot(t *testing.T) {
	f := newBareFixture(t)

	_, err := f.engine.InitializeRegistry(f.ctx, testAdmin)
	requireCode(t, err, CodeUnauthorized)

	rc, err := f.engine.InitializeAdministrator(f.ctx, "genesis", testAdmin)
	require.NoError(t, err)
	assert.Equal(t, testAdmin, rc.Administrator.Identity)
	assert.True(t, rc.Administrator.IsActive)

	_, err = f.engine.InitializeAdministrator(f.ctx, "genesis", "admin-2")
	requireCode(t, err, CodeAlreadyInitialized)

	_, err = f.engine.InitializeRegistry(f.ctx, "admin-2")
	requireCode(t, err, CodeUnauthorized)

	_, err = f.engine.ListVerifiers(f.ctx)
	requireCode(t, err, CodeNotInitialized)
	_, err = f.engine.AddOrRemoveVerifier(f.ctx, testAdmin, "verifier-1", VerifierAdd)
	requireCode(t, err, CodeNotInitialized)

	_, err = f.engine.InitializeRegistry(f.ctx, testAdmin)
	require.NoError(t, err)
	_, err = f.engine.InitializeRegistry(f.ctx, testAdmin)
	requireCode(t, err, CodeAlreadyInitialized)

	isAdmin, err := f.engine.IsAdmin(f.ctx, testAdmin)
	require.NoError(t, err)
	assert.True(t, isAdmin)
	isAdmin, err = f.engine.IsAdmin(f.ctx, "admin-2")
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestAddOrRemoveVerifier(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.engine.AddOrRemoveVerifier(f.ctx, "verifier-x", "verifier-1", VerifierAdd)
	requireCode(t, err, CodeUnauthorized)

	_, err = f.engine.AddOrRemoveVerifier(f.ctx, testAdmin, "verifier-1", VerifierRemove)
	requireCode(t, err, CodeVerifierNotFound)

	_, err = f.engine.AddOrRemoveVerifier(f.ctx, testAdmin, "", VerifierAdd)
	requireCode(t, err, CodeInvalidPayload)
	_, err = f.engine.AddOrRemoveVerifier(f.ctx, testAdmin, "verifier-1", VerifierOp("promote"))
	requireCode(t, err, CodeInvalidPayload)

	for _, id := range []string{"verifier-1", "verifier-2", "verifier-3"} {
		rc, err := f.engine.AddOrRemoveVerifier(f.ctx, testAdmin, id, VerifierAdd)
		require.NoError(t, err)
		assert.True(t, rc.Verifier.IsActive)
	}

	rc, err := f.engine.AddOrRemoveVerifier(f.ctx, testAdmin, "verifier-2", VerifierRemove)
	require.NoError(t, err)
	assert.False(t, rc.Verifier.IsActive)

	// removing twice is harmless
	_, err = f.engine.AddOrRemoveVerifier(f.ctx, testAdmin, "verifier-2", VerifierRemove)
	require.NoError(t, err)

	ok, err := f.engine.IsVerifier(f.ctx, "verifier-2")
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := f.engine.GetVerifier(f.ctx, "verifier-2")
	require.NoError(t, err)
	assert.False(t, v.IsActive)

	// re-adding reactivates the same entry
	_, err = f.engine.AddOrRemoveVerifier(f.ctx, testAdmin, "verifier-2", VerifierAdd)
	require.NoError(t, err)
	_, err = f.engine.AddOrRemoveVerifier(f.ctx, testAdmin, "verifier-1", VerifierAdd)
	require.NoError(t, err)

	list, err := f.engine.ListVerifiers(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, v := range list {
		assert.Equal(t, verifierName(i+1), v.Identity)
		assert.True(t, v.IsActive)
	}

	_, err = f.engine.GetVerifier(f.ctx, "verifier-9")
	requireCode(t, err, CodeVerifierNotFound)
}

func TestVerifierListMirrorsAccounts(t *testing.T) {
	l := VerifierRegistryList{}
	l.set("a", true)
	l.set("b", true)
	l.set("a", false)
	l.set("c", true)
	assert.Len(t, l.Entries, 3)
	assert.Equal(t, 2, l.ActiveCount())
	assert.False(t, l.Entries[0].Active)
}
