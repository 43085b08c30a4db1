package chain

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/fractalchain/fractald/fractal"
	"github.com/fractalchain/fractald/pow"
)

func testConfig() Config {
	cfg := *DefaultConfig()
	// Keep mining instant in tests.
	cfg.Difficulty = 0
	return cfg
}

// mineBlock seals a block extending prev (nil for genesis).
func mineBlock(prev *Block, ts time.Time, cfg Config) *Block {
	b := &Block{
		Timestamp:  time.Unix(ts.Unix(), 0),
		Attachment: fractal.Generate(1),
	}
	if prev != nil {
		b.Index = prev.Index + 1
		b.PrevDigest = prev.Digest
	}
	b.Nonce, b.Digest = pow.Mine(b.SealInput(), []byte(cfg.Salt), cfg.Difficulty)
	return b
}

func TestSealInput(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	b := &Block{
		Index:      7,
		Timestamp:  time.Unix(1700000000, 0),
		PrevDigest: pow.Digest{0: 0xaa, 31: 0xbb},
	}

	input := b.SealInput()
	r.Len(input, 16+pow.HashSize)
	r.Equal(uint64(7), binary.LittleEndian.Uint64(input[0:8]))
	r.Equal(uint64(1700000000), binary.LittleEndian.Uint64(input[8:16]))
	r.Equal(b.PrevDigest[:], input[16:])

	// The attachment never feeds the seal.
	withAttachment := *b
	withAttachment.Attachment = fractal.Generate(3)
	r.Equal(input, withAttachment.SealInput())
}

func TestAppendAndReopen(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	ctx := context.Background()
	dir := t.TempDir()
	cfg := testConfig()

	c, err := Open(ctx, dir, cfg)
	r.NoError(err)

	_, ok := c.Height()
	r.False(ok)
	r.Nil(c.Tip())

	now := time.Now()
	var blocks []*Block
	var prev *Block
	for i := 0; i < 3; i++ {
		b := mineBlock(prev, now.Add(time.Duration(i)*time.Second), cfg)
		r.NoError(c.Append(ctx, b))
		blocks = append(blocks, b)
		prev = b
	}

	height, ok := c.Height()
	r.True(ok)
	r.Equal(uint64(2), height)
	r.Equal(blocks[2].Digest, c.Tip().Digest)
	r.NoError(c.Close())

	// Reopening restores the tip and every stored block, attachment included.
	c, err = Open(ctx, dir, cfg)
	r.NoError(err)
	defer c.Close()

	height, ok = c.Height()
	r.True(ok)
	r.Equal(uint64(2), height)
	r.Equal(blocks[2].Digest, c.Tip().Digest)

	for i, want := range blocks {
		got, err := c.Block(uint64(i))
		r.NoError(err)
		r.Equal(want, got)
	}

	_, err = c.Block(3)
	r.ErrorIs(err, ErrNotFound)
}

func TestAppendRejectsBadLinkage(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	ctx := context.Background()
	cfg := testConfig()
	c, err := Open(ctx, t.TempDir(), cfg)
	r.NoError(err)
	defer c.Close()

	now := time.Now()

	// Genesis must start at index 0 with the zero previous digest.
	bad := mineBlock(nil, now, cfg)
	bad.Index = 1
	r.ErrorIs(c.Append(ctx, bad), ErrIndexGap)

	bad = &Block{Timestamp: now, PrevDigest: pow.Digest{0: 0x01}}
	bad.Nonce, bad.Digest = pow.Mine(bad.SealInput(), []byte(cfg.Salt), cfg.Difficulty)
	r.ErrorIs(c.Append(ctx, bad), ErrPrevMismatch)

	genesis := mineBlock(nil, now, cfg)
	r.NoError(c.Append(ctx, genesis))

	// An index gap, a stale previous digest and a rewound clock all reject.
	gap := mineBlock(genesis, now, cfg)
	gap.Index = 5
	r.ErrorIs(c.Append(ctx, gap), ErrIndexGap)

	stale := mineBlock(genesis, now, cfg)
	stale.PrevDigest = pow.Digest{0: 0xff}
	r.ErrorIs(c.Append(ctx, stale), ErrPrevMismatch)

	rewound := mineBlock(genesis, now.Add(-time.Minute), cfg)
	r.ErrorIs(c.Append(ctx, rewound), ErrTimestampBehind)

	// Equal timestamps are fine; difficulty-0 chains mine several blocks
	// per second.
	sameSecond := mineBlock(genesis, genesis.Timestamp, cfg)
	r.NoError(c.Append(ctx, sameSecond))
}

func TestAppendRejectsInvalidProof(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	ctx := context.Background()
	cfg := testConfig()
	c, err := Open(ctx, t.TempDir(), cfg)
	r.NoError(err)
	defer c.Close()

	b := mineBlock(nil, time.Now(), cfg)
	b.Digest[0] ^= 0x01
	r.ErrorIs(c.Append(ctx, b), pow.ErrInvalidProof)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	ctx := context.Background()
	dir := t.TempDir()
	cfg := testConfig()

	c, err := Open(ctx, dir, cfg)
	r.NoError(err)

	now := time.Now()
	var prev *Block
	for i := 0; i < 4; i++ {
		b := mineBlock(prev, now, cfg)
		r.NoError(c.Append(ctx, b))
		prev = b
	}
	r.NoError(c.Validate(ctx))

	// Tamper with two stored blocks behind the chain's back.
	r.NoError(c.Close())
	db, err := leveldb.OpenFile(dir, nil)
	r.NoError(err)

	for _, height := range []uint64{1, 2} {
		data, err := db.Get(blockKey(height), nil)
		r.NoError(err)
		tampered, err := deserializeBlock(data)
		r.NoError(err)
		tampered.Nonce++
		serialized, err := serializeBlock(tampered)
		r.NoError(err)
		r.NoError(db.Put(blockKey(height), serialized, &opt.WriteOptions{Sync: true}))
	}
	r.NoError(db.Close())

	c, err = Open(ctx, dir, cfg)
	r.NoError(err)
	defer c.Close()

	// Both tampered blocks are reported, not just the first.
	err = c.Validate(ctx)
	r.ErrorIs(err, pow.ErrInvalidProof)
	r.Contains(err.Error(), "2 errors occurred")
}

func TestValidateEnforcesLinkageRules(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := testConfig()
	now := time.Now()

	// A store written by another tool can hold blocks with valid proofs
	// that Append would never have admitted; Validate must flag them too.
	writeBlocks := func(t *testing.T, dir string, blocks ...*Block) {
		db, err := leveldb.OpenFile(dir, nil)
		require.NoError(t, err)
		for _, b := range blocks {
			require.NoError(t, putBlock(db, b))
		}
		require.NoError(t, db.Close())
	}

	t.Run("genesis with non-zero prev digest", func(t *testing.T) {
		t.Parallel()
		r := require.New(t)

		dir := t.TempDir()
		genesis := &Block{
			Timestamp:  time.Unix(now.Unix(), 0),
			PrevDigest: pow.Digest{0: 0x07},
		}
		genesis.Nonce, genesis.Digest = pow.Mine(genesis.SealInput(), []byte(cfg.Salt), cfg.Difficulty)
		writeBlocks(t, dir, genesis)

		c, err := Open(ctx, dir, cfg)
		r.NoError(err)
		defer c.Close()
		r.ErrorIs(c.Validate(ctx), ErrPrevMismatch)
	})

	t.Run("timestamp regression", func(t *testing.T) {
		t.Parallel()
		r := require.New(t)

		dir := t.TempDir()
		genesis := mineBlock(nil, now, cfg)
		rewound := mineBlock(genesis, now.Add(-time.Minute), cfg)
		writeBlocks(t, dir, genesis, rewound)

		c, err := Open(ctx, dir, cfg)
		r.NoError(err)
		defer c.Close()
		r.ErrorIs(c.Validate(ctx), ErrTimestampBehind)
	})
}

func TestValidateWrongDifficulty(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	ctx := context.Background()
	dir := t.TempDir()
	cfg := testConfig()

	c, err := Open(ctx, dir, cfg)
	r.NoError(err)
	r.NoError(c.Append(ctx, mineBlock(nil, time.Now(), cfg)))
	r.NoError(c.Close())

	// A chain opened with stricter parameters than it was mined under fails
	// validation.
	strict := cfg
	strict.Difficulty = 255
	c, err = Open(ctx, dir, strict)
	r.NoError(err)
	defer c.Close()
	r.ErrorIs(c.Validate(ctx), pow.ErrInvalidProof)
}

func TestRoot(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	ctx := context.Background()
	cfg := testConfig()
	c, err := Open(ctx, t.TempDir(), cfg)
	r.NoError(err)
	defer c.Close()

	root, err := c.Root()
	r.NoError(err)
	r.Nil(root)

	now := time.Now()
	genesis := mineBlock(nil, now, cfg)
	r.NoError(c.Append(ctx, genesis))

	root, err = c.Root()
	r.NoError(err)
	r.NotEmpty(root)

	// Stable until the chain grows.
	again, err := c.Root()
	r.NoError(err)
	r.Equal(root, again)

	r.NoError(c.Append(ctx, mineBlock(genesis, now, cfg)))
	grown, err := c.Root()
	r.NoError(err)
	r.NotEqual(root, grown)
}
