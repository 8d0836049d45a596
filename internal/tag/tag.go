// Package tag produces the hash tags that group tickets.
package tag

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// tagBytes keeps tags at 40 hex characters.
const tagBytes = 20

// Generator produces tags.
type Generator interface {
	// FromID derives a tag from a store-assigned ticket id.
	FromID(id string) string
	// New returns a fresh tag that is not tied to any ticket.
	New() string
}

// Hasher derives tags with BLAKE3. Equal ids always yield equal tags.
type Hasher struct{}

// NewHasher returns the default tag generator.
func NewHasher() Hasher {
	return Hasher{}
}

func (Hasher) FromID(id string) string {
	sum := blake3.Sum256([]byte(id))
	return hex.EncodeToString(sum[:tagBytes])
}

func (h Hasher) New() string {
	return h.FromID(uuid.NewString())
}
