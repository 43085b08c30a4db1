package pow

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
)

// HashSize is the width, in bytes, of digests and targets.
const HashSize = 32

// ErrNonceSpaceExhausted is returned by FindNonce when the full 64-bit nonce
// space was swept without finding a satisfying digest.
var ErrNonceSpaceExhausted = errors.New("nonce space exhausted")

// A Digest is the 256-bit hash of payload ‖ nonce ‖ salt. It doubles as the
// proof half of a mined (nonce, digest) pair.
type Digest [HashSize]byte

// DigestFromHex parses the canonical lower-case hex rendering produced by
// Digest.Hex.
func DigestFromHex(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("decoding digest: %w", err)
	}
	if len(b) != HashSize {
		return Digest{}, fmt.Errorf("digest must be %d bytes, got %d", HashSize, len(b))
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

// Hex returns the canonical lower-case hex rendering of the digest. Any
// persisted or displayed form must use it; raw byte-array renderings don't
// round-trip.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) String() string {
	return d.Hex()
}

// A Target is the threshold a digest must not exceed for its nonce to count
// as a valid proof. Exactly one byte is ever non-zero: the byte at
// difficulty/8, holding 0xFF right-shifted by difficulty%8. Targets within
// the same 8-wide difficulty band are therefore not ordered the way a
// leading-zero-bits scheme would order them; the formula is part of the
// proof format and must not be "corrected".
type Target [HashSize]byte

// DeriveTarget converts a difficulty into its threshold. Difficulties of 256
// and above silently degrade to the all-zero target, which only the all-zero
// digest satisfies; they are accepted rather than rejected.
func DeriveTarget(difficulty uint) Target {
	var t Target
	if cut := difficulty / 8; cut < HashSize {
		t[cut] = 0xff >> (difficulty % 8)
	}
	return t
}

// Accepts reports whether the digest satisfies the target: compared as
// unsigned big-endian 256-bit integers, digest <= target. The comparison
// short-circuits at the first differing byte; equal sequences are accepted,
// so the all-zero target still admits the all-zero digest.
func (t Target) Accepts(d Digest) bool {
	return bytes.Compare(d[:], t[:]) <= 0
}

// Mine searches for the lowest nonce whose digest over payload ‖ nonce ‖ salt
// satisfies the difficulty's target, returning the winning pair. The search
// starts at nonce 0 and increments by one per attempt with no suspension
// points; it blocks the caller until a solution is found. If the 64-bit nonce
// space is exhausted the counter wraps and the scan continues — callers
// needing bounded search time should use Hasher.FindNonce instead.
func Mine(payload, salt []byte, difficulty uint) (uint64, Digest) {
	target := DeriveTarget(difficulty)
	h := NewHasher(payload, salt)
	for nonce := uint64(0); ; nonce++ {
		if digest := h.Sum(nonce); target.Accepts(digest) {
			return nonce, digest
		}
	}
}

// FindNonce runs the same sequential search as Mine over the hasher's payload
// and salt, honoring ctx cancellation between attempts. Unlike Mine it fails
// with ErrNonceSpaceExhausted after a full sweep instead of wrapping.
func (h *Hasher) FindNonce(ctx context.Context, target Target) (uint64, Digest, error) {
	for nonce := uint64(0); ; nonce++ {
		select {
		case <-ctx.Done():
			return 0, Digest{}, ctx.Err()
		default:
		}

		if digest := h.Sum(nonce); target.Accepts(digest) {
			return nonce, digest, nil
		}
		if nonce == math.MaxUint64 {
			return 0, Digest{}, ErrNonceSpaceExhausted
		}
	}
}
