package miner_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/fractalchain/fractald/chain"
	"github.com/fractalchain/fractald/miner"
	"github.com/fractalchain/fractald/miner/mocks"
	"github.com/fractalchain/fractald/pow"
)

func testChainConfig() chain.Config {
	cfg := *chain.DefaultConfig()
	cfg.Difficulty = 0
	return cfg
}

func TestMineBlockGenesis(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	ctrl := gomock.NewController(t)
	cfg := testChainConfig()

	cw := mocks.NewMockChainWriter(ctrl)
	cw.EXPECT().Params().Return(cfg)
	cw.EXPECT().Tip().Return(nil)

	m, err := miner.New(cw)
	r.NoError(err)

	b, err := m.MineBlock(context.Background())
	r.NoError(err)
	r.Equal(uint64(0), b.Index)
	r.Equal(pow.Digest{}, b.PrevDigest)
	r.NotNil(b.Attachment)
	r.Equal(uint(1), b.Attachment.Depth)

	// The sealed block holds on the same verification path the chain runs.
	r.NoError(pow.NewVerifier(cfg.Params()).Verify(b.SealInput(), b.Nonce, b.Digest))
}

func TestMineBlockExtendsTip(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	ctrl := gomock.NewController(t)
	cfg := testChainConfig()

	tip := &chain.Block{
		Index:     4,
		Timestamp: time.Unix(1700000000, 0),
		Digest:    pow.Digest{0: 0xaa},
	}

	cw := mocks.NewMockChainWriter(ctrl)
	cw.EXPECT().Params().Return(cfg)
	cw.EXPECT().Tip().Return(tip)

	m, err := miner.New(cw)
	r.NoError(err)

	b, err := m.MineBlock(context.Background())
	r.NoError(err)
	r.Equal(uint64(5), b.Index)
	r.Equal(tip.Digest, b.PrevDigest)
	r.False(b.Timestamp.Before(tip.Timestamp))
}

func TestNewRejectsUnknownHashFunc(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cfg := testChainConfig()
	cfg.HashFunc = "md5"

	cw := mocks.NewMockChainWriter(ctrl)
	cw.EXPECT().Params().Return(cfg)

	_, err := miner.New(cw)
	require.Error(t, err)
}

func TestRunMinesConfiguredCount(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	ctrl := gomock.NewController(t)
	cfg := testChainConfig()

	var appended []*chain.Block
	cw := mocks.NewMockChainWriter(ctrl)
	cw.EXPECT().Params().Return(cfg)
	cw.EXPECT().Tip().DoAndReturn(func() *chain.Block {
		if len(appended) == 0 {
			return nil
		}
		return appended[len(appended)-1]
	}).Times(3)
	cw.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, b *chain.Block) error {
			appended = append(appended, b)
			return nil
		},
	).Times(3)

	minerCfg := *miner.DefaultConfig()
	minerCfg.Blocks = 3
	m, err := miner.New(cw, miner.WithConfig(minerCfg))
	r.NoError(err)
	r.NoError(m.Run(context.Background()))

	r.Len(appended, 3)
	for i, b := range appended {
		r.Equal(uint64(i), b.Index)
		if i > 0 {
			r.Equal(appended[i-1].Digest, b.PrevDigest)
		}
	}
}

func TestRunStopsWhenCanceled(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	ctrl := gomock.NewController(t)
	cfg := testChainConfig()
	// Practically unsatisfiable, so the search only ends via ctx.
	cfg.Difficulty = 255

	cw := mocks.NewMockChainWriter(ctrl)
	cw.EXPECT().Params().Return(cfg)
	cw.EXPECT().Tip().Return(nil)

	m, err := miner.New(cw)
	r.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	r.ErrorIs(m.Run(ctx), context.DeadlineExceeded)
}

func TestMinerEndToEnd(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	ctx := context.Background()
	cfg := *chain.DefaultConfig()
	cfg.Difficulty = 1

	c, err := chain.Open(ctx, t.TempDir(), cfg)
	r.NoError(err)
	defer c.Close()

	minerCfg := *miner.DefaultConfig()
	minerCfg.Blocks = 3
	minerCfg.FractalDepth = 2
	m, err := miner.New(c, miner.WithConfig(minerCfg))
	r.NoError(err)
	r.NoError(m.Run(ctx))

	height, ok := c.Height()
	r.True(ok)
	r.Equal(uint64(2), height)
	r.NoError(c.Validate(ctx))

	root, err := c.Root()
	r.NoError(err)
	r.NotEmpty(root)
}
