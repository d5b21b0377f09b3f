package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Metadata describes an ingested company list.
type Metadata struct {
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339 format
	Hash      string `json:"hash"`      // SHA256 hex digest of the company list
	Companies int    `json:"companies"`
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(companies []string, source string) *Metadata {
	return &Metadata{
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(companies),
		Companies: len(companies),
	}
}

// computeHash hashes the list one name per line, so reordering changes the hash.
func computeHash(companies []string) string {
	hash := sha256.Sum256([]byte(strings.Join(companies, "\n")))
	return hex.EncodeToString(hash[:])
}
