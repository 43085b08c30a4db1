package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

const (
	defaultN        = 20
	defaultCPU      = false
	defaultHashFunc = "sha256"
)

// config defines the configuration options for bench.
type config struct {
	N        uint   `short:"n" description:"number of digests to compute = 2^n"`
	CPU      bool   `short:"c" description:"whether to enable CPU profiling"`
	HashFunc string `short:"f" description:"digest primitive (sha256 or blake2b)"`
}

// loadConfig initializes and parses the config using command line options.
func loadConfig() (*config, error) {
	// Default config.
	cfg := config{
		N:        defaultN,
		CPU:      defaultCPU,
		HashFunc: defaultHashFunc,
	}

	// Parse command line options.
	if _, err := flags.Parse(&cfg); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		return nil, err
	}

	return &cfg, nil
}
