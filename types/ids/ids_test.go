package ids

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveIsDeterministic(t *testing.T) {
	a := DeriveString(NamespacePatient, "patient-1")
	b := DeriveString(NamespacePatient, "patient-1")
	assert.Equal(t, a, b)
	assert.False(t, a.IsEmpty())
}

func TestDeriveSeparatesNamespaces(t *testing.T) {
	assert.NotEqual(t, DeriveString(NamespaceDonor, "x"), DeriveString(NamespaceAdmin, "x"))
	assert.NotEqual(t, DeriveString(NamespaceAdmin), DeriveString(NamespaceAdmin, ""))
}

func TestDeriveLengthPrefixesParts(t *testing.T) {
	assert.NotEqual(t, DeriveString("ns", "ab", "c"), DeriveString("ns", "a", "bc"))
	assert.NotEqual(t, DeriveString("nsa", "b"), DeriveString("ns", "ab"))
}

func TestFromStringRoundTrip(t *testing.T) {
	id := DeriveString(NamespaceCaseLookup, "CASE0001")
	parsed, err := FromString(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = FromString("abcd")
	assert.Error(t, err)
	_, err = FromString("zz")
	assert.Error(t, err)
}

func TestIDJSONAsHex(t *testing.T) {
	id := NewID([]byte("escrow"))
	raw, err := json.Marshal(map[string]ID{"account": id})
	require.NoError(t, err)
	assert.Contains(t, string(raw), id.String())

	var out map[string]ID
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, id, out["account"])
}
