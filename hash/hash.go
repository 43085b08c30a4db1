// Package hash provides the hash functions used for chain commitments.
package hash

import "github.com/minio/sha256-simd"

// GenMerkleHashFunc generates Merkle node hash functions salted with the
// chain's domain separator. The salt is prepended to the concatenation of the
// left- and right-child and the result is hashed using Sha256, so commitments
// mined under different salts never collide structurally.
func GenMerkleHashFunc(salt []byte) func(buf, lChild, rChild []byte) []byte {
	return func(buf, lChild, rChild []byte) []byte {
		h := sha256.New()
		h.Write(salt)
		h.Write(lChild)
		h.Write(rChild)
		return h.Sum(buf)
	}
}
