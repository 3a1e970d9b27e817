package report

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Change describes one rewritten file for the run history.
type Change struct {
	Task         string   `json:"task" yaml:"task"`
	Path         string   `json:"path" yaml:"path"`
	Instances    int      `json:"instances" yaml:"instances"`
	BeforeDigest string   `json:"beforeDigest" yaml:"beforeDigest"`
	AfterDigest  string   `json:"afterDigest" yaml:"afterDigest"`
	Notes        []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Digest returns the hex BLAKE2b-256 digest of text.
func Digest(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
