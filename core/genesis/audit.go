package genesis

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"curachain/core/ledger"
)

type AuditEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	EventType string          `json:"eventType"`
	Details   json.RawMessage `json:"details"`
}

// Journal appends bootstrap events to a JSON-lines file.
type Journal struct {
	Path string
}

// Append writes an audit event to the journal file.
func (j *Journal) Append(eventType string, details any) error {
	if j == nil || j.Path == "" {
		return nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(j.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(AuditEvent{Timestamp: time.Now().UTC(), EventType: eventType, Details: raw})
	if err != nil {
		return err
	}
	_, err = f.Write(append(b, '\n'))
	return err
}

// MerkleRoot hashes every journal line and returns their Merkle root.
// An empty or missing journal has an empty root.
func (j *Journal) MerkleRoot() (string, error) {
	if j == nil || j.Path == "" {
		return "", nil
	}
	f, err := os.Open(j.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	var hashes []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		sum := sha256.Sum256(scanner.Bytes())
		hashes = append(hashes, hex.EncodeToString(sum[:]))
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read journal: %w", err)
	}
	return ledger.MerkleRoot(hashes), nil
}
