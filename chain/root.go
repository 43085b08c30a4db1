package chain

import (
	"fmt"

	"github.com/spacemeshos/merkle-tree"

	"github.com/fractalchain/fractald/hash"
)

// Root computes a Merkle commitment over the digests of all stored blocks,
// in chain order, using the salt-prefixed node hash. An empty chain has a
// nil root.
func (c *Chain) Root() ([]byte, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	if c.tip == nil {
		return nil, nil
	}

	mtree, err := merkle.NewTreeBuilder().
		WithHashFunc(hash.GenMerkleHashFunc([]byte(c.cfg.Salt))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize merkle tree: %v", err)
	}

	for height := uint64(0); height <= c.tip.Index; height++ {
		b, err := getBlock(c.db, height)
		if err != nil {
			return nil, err
		}
		if err := mtree.AddLeaf(b.Digest[:]); err != nil {
			return nil, err
		}
	}

	return mtree.Root(), nil
}
