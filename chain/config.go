package chain

import "github.com/fractalchain/fractald/pow"

// Config holds the proof parameters every block of a chain is sealed under.
// They are fixed for the chain's lifetime; there is no retargeting.
type Config struct {
	Salt       string `long:"salt" description:"Domain separator bound into every proof"`
	Difficulty uint   `long:"difficulty" description:"Proof-of-work difficulty"`
	HashFunc   string `long:"hashfunc" description:"Digest primitive (sha256 or blake2b)"`
}

// DefaultConfig returns a config with default hardcoded values.
func DefaultConfig() *Config {
	return &Config{
		Salt:       "genesis-salt",
		Difficulty: 2,
		HashFunc:   "sha256",
	}
}

// Params returns the pow verification parameters implied by the config.
func (c *Config) Params() pow.Params {
	return pow.NewParams([]byte(c.Salt), c.Difficulty)
}
