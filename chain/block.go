package chain

import (
	"encoding/binary"
	"time"

	"github.com/fractalchain/fractald/fractal"
	"github.com/fractalchain/fractald/pow"
)

// A Block is one sealed entry of the chain. Index, Timestamp and PrevDigest
// are bound into the proof through SealInput; the attachment is decorative
// and deliberately left out of it.
type Block struct {
	Index      uint64
	Timestamp  time.Time
	PrevDigest pow.Digest
	Nonce      uint64
	Attachment *fractal.Triangle
	Digest     pow.Digest
}

// SealInput encodes the fields covered by the proof of work: the block index
// and Unix timestamp as little-endian 64-bit values followed by the raw
// previous digest. A genesis block references the all-zero digest. The
// encoding is fixed-width, so no field can bleed into another.
func (b *Block) SealInput() []byte {
	buf := make([]byte, 16+pow.HashSize)
	binary.LittleEndian.PutUint64(buf[0:8], b.Index)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(b.Timestamp.Unix()))
	copy(buf[16:], b.PrevDigest[:])
	return buf
}
