package chain

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	xdr "github.com/nullstyle/go-xdr/xdr3"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/fractalchain/fractald/fractal"
	"github.com/fractalchain/fractald/pow"
)

var ErrNotFound = leveldb.ErrNotFound

var tipKey = []byte("tip")

// blockKey is "block/" followed by the big-endian height, so iterating the
// keyspace visits blocks in chain order.
func blockKey(height uint64) []byte {
	key := make([]byte, 6+8)
	copy(key, "block/")
	binary.BigEndian.PutUint64(key[6:], height)
	return key
}

// XDR has no native time or float-triangle types, so blocks are persisted
// through flat record structs. Timestamps are stored as Unix seconds, the
// same resolution the seal input binds.
type vertexRecord struct {
	X float64
	Y float64
}

type attachmentRecord struct {
	Depth    uint32
	Vertices []vertexRecord
}

type blockRecord struct {
	Index       uint64
	UnixSeconds int64
	PrevDigest  [pow.HashSize]byte
	Nonce       uint64
	Digest      [pow.HashSize]byte
	Attachment  *attachmentRecord
}

func newBlockRecord(b *Block) *blockRecord {
	rec := &blockRecord{
		Index:       b.Index,
		UnixSeconds: b.Timestamp.Unix(),
		PrevDigest:  b.PrevDigest,
		Nonce:       b.Nonce,
		Digest:      b.Digest,
	}
	if b.Attachment != nil {
		att := &attachmentRecord{
			Depth:    uint32(b.Attachment.Depth),
			Vertices: make([]vertexRecord, len(b.Attachment.Vertices)),
		}
		for i, v := range b.Attachment.Vertices {
			att.Vertices[i] = vertexRecord{X: v.X, Y: v.Y}
		}
		rec.Attachment = att
	}
	return rec
}

func (rec *blockRecord) block() *Block {
	b := &Block{
		Index:      rec.Index,
		Timestamp:  time.Unix(rec.UnixSeconds, 0),
		PrevDigest: rec.PrevDigest,
		Nonce:      rec.Nonce,
		Digest:     rec.Digest,
	}
	if rec.Attachment != nil {
		att := &fractal.Triangle{
			Depth:    uint(rec.Attachment.Depth),
			Vertices: make([]fractal.Point, len(rec.Attachment.Vertices)),
		}
		for i, v := range rec.Attachment.Vertices {
			att.Vertices[i] = fractal.Point{X: v.X, Y: v.Y}
		}
		b.Attachment = att
	}
	return b
}

// putBlock persists the block and moves the tip to it in one synced batch, so
// a crash can't leave the tip pointing past the stored blocks.
func putBlock(db *leveldb.DB, b *Block) error {
	serialized, err := serializeBlock(b)
	if err != nil {
		return fmt.Errorf("failed serializing block: %w", err)
	}

	var tip [8]byte
	binary.BigEndian.PutUint64(tip[:], b.Index)

	batch := new(leveldb.Batch)
	batch.Put(blockKey(b.Index), serialized)
	batch.Put(tipKey, tip[:])
	if err := db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("storing block in DB: %w", err)
	}
	return nil
}

func getBlock(db *leveldb.DB, height uint64) (*Block, error) {
	data, err := db.Get(blockKey(height), nil)
	if err != nil {
		return nil, fmt.Errorf("get block %d from DB: %w", height, err)
	}
	return deserializeBlock(data)
}

// getTipHeight reports the stored tip height, or ok=false for an empty chain.
func getTipHeight(db *leveldb.DB) (uint64, bool, error) {
	data, err := db.Get(tipKey, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("get tip from DB: %w", err)
	case len(data) != 8:
		return 0, false, fmt.Errorf("malformed tip record (%d bytes)", len(data))
	}
	return binary.BigEndian.Uint64(data), true, nil
}

func serializeBlock(b *Block) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, newBlockRecord(b)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deserializeBlock(data []byte) (*Block, error) {
	rec := &blockRecord{}
	if _, err := xdr.Unmarshal(bytes.NewReader(data), rec); err != nil {
		return nil, fmt.Errorf("failed to deserialize block: %w", err)
	}
	return rec.block(), nil
}
