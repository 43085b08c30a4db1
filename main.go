package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fractalchain/fractald/chain"
	"github.com/fractalchain/fractald/config"
	"github.com/fractalchain/fractald/logging"
	"github.com/fractalchain/fractald/miner"
)

// Fractald binary version.
// It should be passed during the build with '-ldflags "-X main.version="'.
var version = "unknown"

// fractaldMain is the true entry point for fractald. This function is
// required since defers created in the top-level scope of a main method
// aren't executed if os.Exit() is called.
func fractaldMain() error {
	var err error
	// Start with a default Config with sane settings
	cfg := config.DefaultConfig()
	// Pre-parse the command line to check for an alternative Config file
	cfg, err = config.ParseFlags(cfg)
	if err != nil {
		return err
	}
	// Load configuration file overwriting defaults with any specified options
	cfg, err = config.ReadConfigFile(cfg)
	if err != nil {
		return err
	}

	cfg, err = config.SetupConfig(cfg)
	if err != nil {
		return err
	}
	// Finally, parse the remaining command line options again to ensure
	// they take precedence.
	cfg, err = config.ParseFlags(cfg)
	if err != nil {
		return err
	}

	// Initialize logging
	logLevel := zap.InfoLevel
	if cfg.DebugLog {
		logLevel = zap.DebugLevel
	}
	logger := logging.New(logLevel, cfg.LogFile(), cfg.JSONLog, cfg.MaxLogFileSize, cfg.MaxLogFiles)
	ctx := logging.NewContext(context.Background(), logger)

	defer func() {
		logger.Info("shutdown complete")
	}()

	// Show version at startup.
	logger.Sugar().Infof(
		"version: %s, dir: %v, datadir: %v, salt: %q, difficulty: %d",
		version, cfg.FractaldDir, cfg.DataDir, cfg.Chain.Salt, cfg.Chain.Difficulty,
	)

	// Enable http profiling server if requested.
	if cfg.Profile != "" {
		logger.Sugar().Infof("starting HTTP profiling on port %v", cfg.Profile)
		go func() {
			listenAddr := net.JoinHostPort("", cfg.Profile)
			profileRedirect := http.RedirectHandler("/debug/pprof",
				http.StatusSeeOther)
			http.Handle("/", profileRedirect)
			fmt.Println(http.ListenAndServe(listenAddr, nil))
		}()
	} else {
		// Disable go default unbounded memory profiler.
		runtime.MemProfileRate = 0
	}

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			logger.With(zap.Error(err)).Error("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.With(zap.Error(err)).Error("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := chain.Open(ctx, filepath.Join(cfg.DataDir, "chain"), *cfg.Chain)
	if err != nil {
		return fmt.Errorf("failed to open chain: %w", err)
	}
	defer c.Close()

	if cfg.Validate {
		if err := c.Validate(ctx); err != nil {
			return fmt.Errorf("chain validation failed: %w", err)
		}
		logger.Info("chain valid")
		return reportChain(ctx, c)
	}

	m, err := miner.New(c, miner.WithConfig(*cfg.Miner))
	if err != nil {
		return fmt.Errorf("failed to create miner: %w", err)
	}

	serverGroup, ctx := errgroup.WithContext(ctx)
	if cfg.MetricsListen != "" {
		metricsServer := &http.Server{
			Addr:    cfg.MetricsListen,
			Handler: promhttp.Handler(),
		}
		serverGroup.Go(func() error {
			logger.Sugar().Infof("metrics listening on %s", cfg.MetricsListen)
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		serverGroup.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	err = m.Run(ctx)
	stop()
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("mining interrupted")
	case err != nil:
		return fmt.Errorf("failure in miner: %w", err)
	}

	if err := serverGroup.Wait(); err != nil {
		return fmt.Errorf("failure in metrics server: %w", err)
	}

	return reportChain(ctx, c)
}

// reportChain logs the tip and the Merkle commitment over the stored chain.
func reportChain(ctx context.Context, c *chain.Chain) error {
	logger := logging.FromContext(ctx)

	tip := c.Tip()
	if tip == nil {
		logger.Info("chain is empty")
		return nil
	}
	root, err := c.Root()
	if err != nil {
		return fmt.Errorf("failed to compute chain root: %w", err)
	}
	logger.Info(
		"chain tip",
		zap.Uint64("height", tip.Index),
		zap.String("digest", tip.Digest.Hex()),
		zap.String("root", fmt.Sprintf("%x", root)),
	)
	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := fractaldMain(); err != nil {
		// If it's the flag utility error don't print it,
		// because it was already printed.
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
