package pow

import (
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/blake2b"
)

// A Hasher computes digests for successive nonces over a fixed payload and
// salt. It keeps a reusable input buffer whose last 8 bytes hold the
// little-endian nonce, so enumerating nonces does not reallocate. The
// primitive is fed payload ‖ nonce as one chunk and the salt as a second,
// which for a streaming hash equals hashing the full concatenation.
//
// A Hasher is not safe for concurrent use; independent searches should each
// build their own.
type Hasher struct {
	h    hash.Hash
	buf  []byte // payload followed by the 8-byte nonce slot
	salt []byte
}

// NewHasher returns a Hasher over the reference primitive, SHA-256.
func NewHasher(payload, salt []byte) *Hasher {
	return NewHasherFunc(sha256.New, payload, salt)
}

// NewHasherFunc returns a Hasher over the given primitive, which must produce
// HashSize-byte sums. Payload and salt are copied; the caller's slices are
// never written to.
func NewHasherFunc(newHash func() hash.Hash, payload, salt []byte) *Hasher {
	buf := make([]byte, 0, len(payload)+8)
	buf = append(buf, payload...)
	buf = append(buf, make([]byte, 8)...) // nonce slot
	return &Hasher{
		h:    newHash(),
		buf:  buf,
		salt: append([]byte(nil), salt...),
	}
}

// Sum computes the digest for the given nonce. Identical (payload, nonce,
// salt) triples always produce identical digests.
func (h *Hasher) Sum(nonce uint64) Digest {
	binary.LittleEndian.PutUint64(h.buf[len(h.buf)-8:], nonce)

	h.h.Reset()
	h.h.Write(h.buf)
	h.h.Write(h.salt)

	var d Digest
	h.h.Sum(d[:0])
	return d
}

// HashConstructor resolves a configured primitive name. "sha256" is the
// reference primitive; "blake2b" selects BLAKE2b-256. An empty name means
// sha256.
func HashConstructor(name string) (func() hash.Hash, error) {
	switch name {
	case "", "sha256":
		return sha256.New, nil
	case "blake2b":
		return func() hash.Hash {
			h, err := blake2b.New256(nil)
			if err != nil {
				// New256 fails only for an oversized key and we pass none.
				panic(err)
			}
			return h
		}, nil
	default:
		return nil, fmt.Errorf("unsupported pow hash function %q", name)
	}
}
