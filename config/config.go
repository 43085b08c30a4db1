// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers

package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/fractalchain/fractald/chain"
	"github.com/fractalchain/fractald/miner"
)

const (
	defaultConfigFilename = "fractald.conf"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "fractald.log"
	defaultMaxLogFiles    = 3
	defaultMaxLogFileSize = 10
	defaultMetricsPort    = 2112
)

var (
	defaultFractaldDir = appDataDir()
	defaultConfigFile  = filepath.Join(defaultFractaldDir, defaultConfigFilename)
	defaultDataDir     = filepath.Join(defaultFractaldDir, defaultDataDirname)
	defaultLogDir      = filepath.Join(defaultFractaldDir, defaultLogDirname)
)

// Config defines the configuration options for fractald.
//
// See fractaldMain for further details regarding the
// configuration loading+parsing process.
type Config struct {
	FractaldDir string `long:"fractaldir" description:"The base directory that contains fractald's data, logs, configuration file, etc."`
	ConfigFile  string `short:"c" long:"configfile" description:"Path to configuration file"`
	DataDir     string `short:"b" long:"datadir" description:"The directory to store the chain within"`
	LogDir      string `long:"logdir" description:"Directory to log output."`

	DebugLog       bool `long:"debuglog" description:"Enable debug logs"`
	JSONLog        bool `long:"jsonlog" description:"Whether to log in JSON format"`
	MaxLogFiles    int  `long:"maxlogfiles" description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogFileSize int  `long:"maxlogfilesize" description:"Maximum logfile size in MB"`

	MetricsListen string `long:"metricslisten" description:"The interface/port to serve Prometheus metrics on (empty to disable)"`
	CPUProfile    string `long:"cpuprofile" description:"Write CPU profile to the specified file"`
	Profile       string `long:"profile" description:"Enable HTTP profiling on given port -- must be between 1024 and 65535"`

	Validate bool `long:"validate" description:"Re-verify the stored chain instead of mining, then exit"`

	Chain *chain.Config `group:"Chain" namespace:"chain"`
	Miner *miner.Config `group:"Miner" namespace:"miner"`
}

// LogFile returns the path the daemon logs to.
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// DefaultConfig returns a config with default hardcoded values.
func DefaultConfig() *Config {
	return &Config{
		FractaldDir:    defaultFractaldDir,
		ConfigFile:     defaultConfigFile,
		DataDir:        defaultDataDir,
		LogDir:         defaultLogDir,
		MaxLogFiles:    defaultMaxLogFiles,
		MaxLogFileSize: defaultMaxLogFileSize,
		MetricsListen:  fmt.Sprintf("localhost:%d", defaultMetricsPort),
		Chain:          chain.DefaultConfig(),
		Miner:          miner.DefaultConfig(),
	}
}

// ParseFlags reads values from command line arguments.
func ParseFlags(preCfg *Config) (*Config, error) {
	if _, err := flags.Parse(preCfg); err != nil {
		return nil, err
	}
	return preCfg, nil
}

// ReadConfigFile reads values from a conf file. A missing file is not an
// error; defaults and command line flags simply stand.
func ReadConfigFile(preCfg *Config) (*Config, error) {
	preCfg.FractaldDir = cleanAndExpandPath(preCfg.FractaldDir)
	preCfg.ConfigFile = cleanAndExpandPath(preCfg.ConfigFile)
	if preCfg.FractaldDir != defaultFractaldDir {
		if preCfg.ConfigFile == defaultConfigFile {
			preCfg.ConfigFile = filepath.Join(
				preCfg.FractaldDir, defaultConfigFilename,
			)
		}
	}

	cfg := preCfg
	if err := flags.IniParse(preCfg.ConfigFile, cfg); err != nil {
		// If it's a parsing related error, then we'll return
		// immediately, otherwise we can proceed as possibly the config
		// file doesn't exist which is OK.
		var iniError *flags.IniError
		if errors.As(err, &iniError) {
			return nil, err
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return cfg, nil
}

// SetupConfig initializes filesystem infrastructure.
func SetupConfig(cfg *Config) (*Config, error) {
	// If the provided fractald directory is not the default, we'll modify
	// the path to all of the files and directories that will live within it.
	if cfg.FractaldDir != defaultFractaldDir {
		cfg.DataDir = filepath.Join(cfg.FractaldDir, defaultDataDirname)
		cfg.LogDir = filepath.Join(cfg.FractaldDir, defaultLogDirname)
	}

	// Create the fractald directory if it doesn't already exist.
	if err := os.MkdirAll(cfg.FractaldDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create fractald directory: %w", err)
	}

	// As soon as we're done parsing configuration options, ensure all paths
	// to directories and files are cleaned and expanded before attempting
	// to use them later on.
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	return cfg, nil
}

// appDataDir returns the default base directory, ~/.fractald.
func appDataDir() string {
	homeDir := os.Getenv("HOME")
	if usr, err := user.Current(); err == nil {
		homeDir = usr.HomeDir
	}
	return filepath.Join(homeDir, ".fractald")
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		user, err := user.Current()
		if err == nil {
			homeDir = user.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
