// Package chain stores mined blocks and guards their linkage: every appended
// block must extend the tip and carry a proof of work that verifies against
// the chain's salt and difficulty.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/syndtr/goleveldb/leveldb"
	"go.uber.org/zap"

	"github.com/fractalchain/fractald/logging"
	"github.com/fractalchain/fractald/pow"
)

const verifierCacheSize = 128

var (
	ErrIndexGap        = errors.New("block index does not extend the tip")
	ErrPrevMismatch    = errors.New("previous digest does not match the tip")
	ErrTimestampBehind = errors.New("block timestamp precedes the tip")
)

// A Chain is a persistent, append-only ledger of sealed blocks. It is safe
// for concurrent use.
type Chain struct {
	db       *leveldb.DB
	cfg      Config
	verifier pow.Verifier

	mtx sync.RWMutex
	tip *Block // nil while the chain is empty
}

// Open loads or creates a chain in dir. The config's proof parameters must
// match the ones the stored blocks were mined under; Validate reports any
// divergence.
func Open(ctx context.Context, dir string, cfg Config) (*Chain, error) {
	newHash, err := pow.HashConstructor(cfg.HashFunc)
	if err != nil {
		return nil, err
	}
	verifier, err := pow.NewCaching(
		verifierCacheSize,
		pow.NewVerifier(cfg.Params(), pow.WithHashFunc(newHash)),
	)
	if err != nil {
		return nil, err
	}

	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database @ %s: %w", dir, err)
	}

	c := &Chain{
		db:       db,
		cfg:      cfg,
		verifier: verifier,
	}
	height, ok, err := getTipHeight(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if ok {
		tip, err := getBlock(db, height)
		if err != nil {
			db.Close()
			return nil, err
		}
		c.tip = tip
		logging.FromContext(ctx).Info(
			"opened chain",
			zap.Uint64("height", height),
			zap.String("tip", tip.Digest.Hex()),
		)
	} else {
		logging.FromContext(ctx).Info("opened empty chain")
	}
	return c, nil
}

func (c *Chain) Close() error {
	return c.db.Close()
}

// Params returns the proof parameters blocks are appended under.
func (c *Chain) Params() Config {
	return c.cfg
}

// Tip returns the most recently appended block, or nil for an empty chain.
func (c *Chain) Tip() *Block {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.tip
}

// Height returns the tip index. ok is false while the chain is empty.
func (c *Chain) Height() (uint64, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if c.tip == nil {
		return 0, false
	}
	return c.tip.Index, true
}

// Block fetches the stored block at the given height.
func (c *Chain) Block(height uint64) (*Block, error) {
	return getBlock(c.db, height)
}

// Append verifies the block's linkage and proof of work and persists it as
// the new tip. The genesis block must carry index 0 and the all-zero
// previous digest.
func (c *Chain) Append(ctx context.Context, b *Block) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if err := checkLinkage(c.tip, b); err != nil {
		return err
	}
	if err := c.verifier.Verify(b.SealInput(), b.Nonce, b.Digest); err != nil {
		return fmt.Errorf("block %d: %w", b.Index, err)
	}

	if err := putBlock(c.db, b); err != nil {
		return err
	}
	c.tip = b

	logging.FromContext(ctx).Info(
		"appended block",
		zap.Uint64("height", b.Index),
		zap.Uint64("nonce", b.Nonce),
		zap.String("digest", b.Digest.Hex()),
	)
	return nil
}

// checkLinkage verifies that b extends prev; a nil prev stands for the
// empty chain, which only a genesis block extends.
func checkLinkage(prev, b *Block) error {
	if prev == nil {
		if b.Index != 0 {
			return fmt.Errorf("%w: got %d, want 0", ErrIndexGap, b.Index)
		}
		if b.PrevDigest != (pow.Digest{}) {
			return fmt.Errorf("%w: genesis must reference the zero digest", ErrPrevMismatch)
		}
		return nil
	}

	if b.Index != prev.Index+1 {
		return fmt.Errorf("%w: got %d, want %d", ErrIndexGap, b.Index, prev.Index+1)
	}
	if b.PrevDigest != prev.Digest {
		return fmt.Errorf("%w: got %s, want %s", ErrPrevMismatch, b.PrevDigest, prev.Digest)
	}
	if b.Timestamp.Before(prev.Timestamp) {
		return fmt.Errorf(
			"%w: %s is before %s",
			ErrTimestampBehind, b.Timestamp, prev.Timestamp,
		)
	}
	return nil
}

// Validate re-reads every stored block and re-checks its linkage and proof,
// the same path any independent consumer of a mined chain follows. All
// failures are collected rather than stopping at the first.
func (c *Chain) Validate(ctx context.Context) error {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	if c.tip == nil {
		return nil
	}

	logger := logging.FromContext(ctx)

	var result *multierror.Error
	var prev *Block
	for height := uint64(0); height <= c.tip.Index; height++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := getBlock(c.db, height)
		if err != nil {
			result = multierror.Append(result, err)
			prev = nil
			continue
		}

		if b.Index != height {
			result = multierror.Append(
				result,
				fmt.Errorf("block %d: %w: stored index %d", height, ErrIndexGap, b.Index),
			)
		}
		// The same rules Append enforces, replayed against the stored
		// predecessor; after a read failure there is no predecessor to
		// link against.
		if prev != nil || height == 0 {
			if err := checkLinkage(prev, b); err != nil {
				result = multierror.Append(result, fmt.Errorf("block %d: %w", height, err))
			}
		}
		if err := c.verifier.Verify(b.SealInput(), b.Nonce, b.Digest); err != nil {
			result = multierror.Append(result, fmt.Errorf("block %d: %w", height, err))
		}

		logger.Debug("validated block", zap.Uint64("height", height))
		prev = b
	}

	return result.ErrorOrNil()
}
