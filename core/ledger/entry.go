package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"curachain/types/ids"
)

// Entry is one committed operation in the append-only log.
type Entry struct {
	Seq          uint64    `json:"seq"`          // 1 for the first commit
	ID           ids.ID    `json:"id"`           // hash of the header fields
	PrevID       ids.ID    `json:"prevId"`       // ID of the previous entry, zero for the first
	Operation    string    `json:"operation"`    // operation name, e.g. "submit_case"
	Caller       string    `json:"caller"`       // identity that invoked the operation
	Accounts     []ids.ID  `json:"accounts"`     // accounts written, sorted
	AccountsRoot string    `json:"accountsRoot"` // Merkle root over the written account states
	CommittedAt  time.Time `json:"committedAt"`
}

// ComputeID hashes the entry header (everything except ID itself).
func (e *Entry) ComputeID() ids.ID {
	header := struct {
		Seq          uint64
		PrevID       ids.ID
		Operation    string
		Caller       string
		Accounts     []ids.ID
		AccountsRoot string
		CommittedAt  time.Time
	}{
		e.Seq, e.PrevID, e.Operation, e.Caller, e.Accounts, e.AccountsRoot, e.CommittedAt,
	}
	data, _ := json.Marshal(header)
	return ids.NewID(data)
}

const (
	merkleLeaf byte = 0x00
	merkleNode byte = 0x01
)

// MerkleRoot folds hex-encoded hashes into a single root. Leaves and inner
// nodes are hashed under distinct prefixes so a subtree root can never pass
// for a leaf, and a trailing odd node moves up a level unchanged rather than
// being paired with itself. An empty list has the empty root.
func MerkleRoot(hashes []string) string {
	if len(hashes) == 0 {
		return ""
	}
	level := make([][]byte, len(hashes))
	for i, leaf := range hashes {
		level[i] = merkleHash(merkleLeaf, []byte(leaf))
	}
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, merkleHash(merkleNode, level[i], level[i+1]))
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return hex.EncodeToString(level[0])
}

func merkleHash(prefix byte, parts ...[]byte) []byte {
	h := sha256.New()
	h.Write([]byte{prefix})
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

func leafHash(id ids.ID, state []byte) string {
	h := sha256.New()
	h.Write(id[:])
	h.Write(state)
	return hex.EncodeToString(h.Sum(nil))
}
