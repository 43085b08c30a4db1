package pow

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"

	lru "github.com/hashicorp/golang-lru"
	"github.com/minio/sha256-simd"
)

// ErrInvalidProof is returned when a claimed (nonce, digest) pair does not
// hold for the statement it was submitted with.
var ErrInvalidProof = errors.New("invalid proof of work")

// Params ties verification to the salt and difficulty proofs were mined
// under.
type Params struct {
	Salt       []byte
	Difficulty uint
}

func NewParams(salt []byte, difficulty uint) Params {
	return Params{
		Salt:       salt,
		Difficulty: difficulty,
	}
}

func (p Params) Equal(other Params) bool {
	if p.Difficulty != other.Difficulty {
		return false
	}

	return bytes.Equal(p.Salt, other.Salt)
}

// A Verifier re-derives proofs submitted by untrusted parties.
type Verifier interface {
	// Verify recomputes the digest of payload ‖ nonce ‖ salt and checks that
	// it equals the claimed digest and satisfies the difficulty's target.
	Verify(payload []byte, nonce uint64, digest Digest) error
	Params() Params
}

type verifier struct {
	params  Params
	target  Target
	newHash func() hash.Hash
}

type verifierOption func(*verifier)

// WithHashFunc overrides the digest primitive. The default is the reference
// SHA-256; it must match the primitive proofs were mined with.
func WithHashFunc(newHash func() hash.Hash) verifierOption {
	return func(v *verifier) {
		v.newHash = newHash
	}
}

func NewVerifier(params Params, opts ...verifierOption) Verifier {
	v := &verifier{
		params:  params,
		target:  DeriveTarget(params.Difficulty),
		newHash: sha256.New,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *verifier) Params() Params {
	return v.params
}

func (v *verifier) Verify(payload []byte, nonce uint64, digest Digest) error {
	computed := NewHasherFunc(v.newHash, payload, v.params.Salt).Sum(nonce)
	if computed != digest {
		return fmt.Errorf("%w: digest mismatch", ErrInvalidProof)
	}
	if !v.target.Accepts(digest) {
		return fmt.Errorf("%w: digest exceeds target", ErrInvalidProof)
	}
	return nil
}

// caching is a read-through cache on top of a Verifier. Verification is
// deterministic for fixed params, so outcomes are cached under a hash binding
// the full statement: payload, nonce and the claimed digest.
type caching struct {
	cache    *lru.Cache
	verifier Verifier
}

func NewCaching(size int, verifier Verifier) (Verifier, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &caching{
		cache:    cache,
		verifier: verifier,
	}, nil
}

func (c *caching) Params() Params {
	return c.verifier.Params()
}

func (c *caching) Verify(payload []byte, nonce uint64, digest Digest) error {
	var nonceBytes [8]byte
	binary.LittleEndian.PutUint64(nonceBytes[:], nonce)

	var key [sha256.Size]byte
	h := sha256.New()
	h.Write(payload)
	h.Write(nonceBytes[:])
	h.Write(digest[:])
	h.Sum(key[:0])

	if outcome, ok := c.cache.Get(key); ok {
		// Only error values (possibly nil) are ever stored.
		err, _ := outcome.(error)
		return err
	}

	err := c.verifier.Verify(payload, nonce, digest)
	if err == nil || errors.Is(err, ErrInvalidProof) {
		c.cache.Add(key, err)
	}
	return err
}
