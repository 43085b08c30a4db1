// Package miner assembles candidate blocks, runs the proof-of-work search
// over them and hands sealed blocks to the chain. Mining is strictly
// sequential: one block at a time, one nonce at a time.
package miner

//go:generate mockgen -package mocks -destination mocks/chain_writer.go . ChainWriter

import (
	"context"
	"fmt"
	"hash"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fractalchain/fractald/chain"
	"github.com/fractalchain/fractald/fractal"
	"github.com/fractalchain/fractald/logging"
	"github.com/fractalchain/fractald/pow"
)

// Config defines the configuration options for the mining engine.
type Config struct {
	Address      string `long:"address" description:"Miner identity tag stamped on logs"`
	Blocks       uint64 `long:"blocks" description:"Number of blocks to mine before exiting (0 to mine until interrupted)"`
	FractalDepth uint   `long:"fractaldepth" description:"Subdivision depth of the fractal attached to mined blocks"`
}

// DefaultConfig returns a config with default hardcoded values.
func DefaultConfig() *Config {
	return &Config{
		Address:      "genesis-miner",
		Blocks:       1,
		FractalDepth: 1,
	}
}

// ChainWriter is the slice of the chain the miner needs: reading the tip to
// extend and appending sealed blocks.
type ChainWriter interface {
	Tip() *chain.Block
	Params() chain.Config
	Append(ctx context.Context, b *chain.Block) error
}

type Miner struct {
	chain   ChainWriter
	cfg     Config
	newHash func() hash.Hash
	salt    []byte
	target  pow.Target
}

type Option func(*Miner)

func WithConfig(cfg Config) Option {
	return func(m *Miner) {
		m.cfg = cfg
	}
}

// New creates a mining engine over the given chain, adopting the chain's
// proof parameters.
func New(cw ChainWriter, opts ...Option) (*Miner, error) {
	m := &Miner{
		chain: cw,
		cfg:   *DefaultConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}

	params := cw.Params()
	newHash, err := pow.HashConstructor(params.HashFunc)
	if err != nil {
		return nil, err
	}
	m.newHash = newHash
	m.salt = []byte(params.Salt)
	m.target = pow.DeriveTarget(params.Difficulty)
	return m, nil
}

// MineBlock assembles the next candidate block and searches for its nonce.
// It blocks until a proof is found or ctx is canceled; the sealed block is
// returned but not yet appended.
func (m *Miner) MineBlock(ctx context.Context) (*chain.Block, error) {
	logger := logging.FromContext(ctx).With(
		zap.String("miner", m.cfg.Address),
		zap.String("job", uuid.New().String()),
	)

	// The seal binds the timestamp at second resolution, so the block
	// carries no finer.
	b := &chain.Block{
		Timestamp:  time.Unix(time.Now().Unix(), 0),
		Attachment: fractal.Generate(m.cfg.FractalDepth),
	}
	if tip := m.chain.Tip(); tip != nil {
		b.Index = tip.Index + 1
		b.PrevDigest = tip.Digest
	}

	logger.Info("mining block", zap.Uint64("height", b.Index), zap.String("prev", b.PrevDigest.Hex()))

	start := time.Now()
	hasher := pow.NewHasherFunc(m.newHash, b.SealInput(), m.salt)
	nonce, digest, err := hasher.FindNonce(ctx, m.target)
	if err != nil {
		return nil, fmt.Errorf("searching nonce for block %d: %w", b.Index, err)
	}
	elapsed := time.Since(start)
	b.Nonce = nonce
	b.Digest = digest

	attempts := float64(nonce) + 1
	attemptsMetric.Add(attempts)
	blocksMinedMetric.Inc()
	searchSecondsMetric.Observe(elapsed.Seconds())
	if s := elapsed.Seconds(); s > 0 {
		hashRateMetric.Set(attempts / s)
	}

	logger.Info(
		"sealed block",
		zap.Uint64("height", b.Index),
		zap.Uint64("nonce", nonce),
		zap.String("digest", digest.Hex()),
		zap.Duration("elapsed", elapsed),
	)
	return b, nil
}

// Run mines and appends blocks until the configured count is reached, or
// indefinitely when the count is 0. It returns ctx's error when canceled
// mid-search.
func (m *Miner) Run(ctx context.Context) error {
	for mined := uint64(0); m.cfg.Blocks == 0 || mined < m.cfg.Blocks; mined++ {
		b, err := m.MineBlock(ctx)
		if err != nil {
			return err
		}
		if err := m.chain.Append(ctx, b); err != nil {
			return fmt.Errorf("appending block %d: %w", b.Index, err)
		}
	}
	return nil
}
