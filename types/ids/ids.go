package ids

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// ID is a 32-byte account address.
type ID [32]byte

// Empty is the zero-value ID (all zeros)
var Empty ID

// Account namespaces. Every derived address belongs to exactly one.
const (
	NamespacePatient       = "patient"
	NamespaceCaseCounter   = "case_counter"
	NamespaceCaseLookup    = "case_lookup"
	NamespaceCaseArchive   = "case_archive"
	NamespaceVerifierRole  = "verifier_role"
	NamespaceVerifiersList = "verifiers_list"
	NamespaceDonor         = "donor"
	NamespaceAdmin         = "admin"
	NamespacePatientEscrow = "patient_escrow"
	NamespaceFacility      = "facility"
)

// NewID generates a new ID by hashing input bytes
func NewID(data []byte) ID {
	hash := sha256.Sum256(data)
	return ID(hash)
}

// Derive maps a namespace and its key parts to a stable address.
// Namespace and parts are length-prefixed so distinct inputs never share
// an encoding.
func Derive(namespace string, parts ...[]byte) ID {
	h := sha256.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(namespace)))
	h.Write(n[:])
	h.Write([]byte(namespace))
	binary.BigEndian.PutUint64(n[:], uint64(len(parts)))
	h.Write(n[:])
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// DeriveString is Derive for string parts.
func DeriveString(namespace string, parts ...string) ID {
	raw := make([][]byte, len(parts))
	for i, p := range parts {
		raw[i] = []byte(p)
	}
	return Derive(namespace, raw...)
}

// FromString parses a hex string into an ID
func FromString(s string) (ID, error) {
	var id ID
	bytes, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(bytes) != len(id) {
		return id, fmt.Errorf("id must be %d bytes, got %d", len(id), len(bytes))
	}
	copy(id[:], bytes)
	return id, nil
}

// String converts an ID back to a hex string
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsEmpty reports whether id is the zero value.
func (id ID) IsEmpty() bool {
	return id == Empty
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
