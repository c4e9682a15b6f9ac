// Package hashing turns plaintext identity attributes into one-way digests.
//
// The Normalizer is the only place plaintext is read; everything downstream
// sees digests. Absence is preserved: a nil input never produces a digest.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Algorithm names a digest primitive.
type Algorithm string

const (
	AlgorithmSHA256  Algorithm = "sha256"
	AlgorithmBLAKE2b Algorithm = "blake2b"
)

// Hasher is a deterministic one-way digest primitive.
type Hasher interface {
	// Hash returns the lowercase hex digest of plaintext.
	Hash(plaintext []byte) string
}

type sha256Hasher struct{}

// SHA256 returns the default hasher. Digests are 64 hex characters.
func SHA256() Hasher { return sha256Hasher{} }

func (sha256Hasher) Hash(plaintext []byte) string {
	sum := sha256.Sum256(plaintext)
	return hex.EncodeToString(sum[:])
}

type blake2bHasher struct {
	key []byte
}

// BLAKE2b returns a BLAKE2b-256 hasher. A non-empty pepper keys the hash; the
// same pepper must be used for the lifetime of the stored data.
func BLAKE2b(pepper []byte) (Hasher, error) {
	if len(pepper) > blake2b.Size {
		return nil, fmt.Errorf("blake2b pepper must be at most %d bytes, got %d", blake2b.Size, len(pepper))
	}
	// Validate the key once so Hash cannot fail later.
	if _, err := blake2b.New256(pepper); err != nil {
		return nil, fmt.Errorf("init blake2b: %w", err)
	}
	return &blake2bHasher{key: append([]byte(nil), pepper...)}, nil
}

func (h *blake2bHasher) Hash(plaintext []byte) string {
	d, _ := blake2b.New256(h.key)
	d.Write(plaintext)
	return hex.EncodeToString(d.Sum(nil))
}

// New resolves a hasher by algorithm name. The pepper is only meaningful for
// keyed algorithms.
func New(algorithm string, pepper string) (Hasher, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(algorithm))) {
	case "", AlgorithmSHA256:
		if pepper != "" {
			return nil, fmt.Errorf("hash algorithm %s does not accept a pepper", AlgorithmSHA256)
		}
		return SHA256(), nil
	case AlgorithmBLAKE2b:
		return BLAKE2b([]byte(pepper))
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algorithm)
	}
}

// Normalizer maps optional plaintext to optional digests.
type Normalizer struct {
	hasher Hasher
}

// NewNormalizer wraps a hasher. A nil hasher falls back to SHA256.
func NewNormalizer(hasher Hasher) *Normalizer {
	if hasher == nil {
		hasher = SHA256()
	}
	return &Normalizer{hasher: hasher}
}

// Digest returns nil for nil input and the digest of the exact bytes
// otherwise. The empty string is a value and gets a digest.
func (n *Normalizer) Digest(plaintext *string) *string {
	if plaintext == nil {
		return nil
	}
	d := n.hasher.Hash([]byte(*plaintext))
	return &d
}

// DigestField looks up a field in a request mapping. A missing key and a key
// mapped to nil both yield nil.
func (n *Normalizer) DigestField(data map[string]*string, field string) *string {
	return n.Digest(data[field])
}
