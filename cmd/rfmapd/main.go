package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	osignal "os/signal"
	"syscall"
	"time"

	"github.com/rfmap/rfmap/pkg/cache"
	"github.com/rfmap/rfmap/pkg/engine"
	"github.com/rfmap/rfmap/pkg/logx"
	"github.com/rfmap/rfmap/pkg/metrics"
	"github.com/rfmap/rfmap/pkg/mqtt"
	"github.com/rfmap/rfmap/pkg/signal"
	"github.com/rfmap/rfmap/pkg/store"
	"github.com/rfmap/rfmap/pkg/uci"
)

const (
	version = "1.0.0-dev"
	appName = "rfmapd"
)

func main() {
	// Command line flags
	var (
		configFile  = flag.String("config", "/etc/config/rfmap", "UCI config file path")
		inputFile   = flag.String("input", "-", "Cycle input stream, newline-delimited JSON (- for stdin)")
		logLevel    = flag.String("log-level", "", "Log level override (debug|info|warn|error)")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, version)
		os.Exit(0)
	}

	// Load UCI configuration
	config, err := uci.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	effectiveLogLevel := config.LogLevel
	if *logLevel != "" {
		effectiveLogLevel = *logLevel
	}
	logger := logx.New(effectiveLogLevel)

	logger.Info("starting rfmap daemon",
		"version", version,
		"config", *configFile,
		"log_level", effectiveLogLevel,
		"database", config.DatabasePath,
	)

	if !config.Enable {
		logger.Info("daemon disabled in configuration, exiting")
		return
	}

	if err := run(config, *inputFile, logger); err != nil {
		logger.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run(config *uci.Config, inputFile string, logger *logx.Logger) error {
	s, err := store.Open(config.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("open emitter store: %w", err)
	}

	c := cache.New(s, config.Cache, logger)
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("cache close failed", "error", err)
		}
	}()

	corrector := signal.NewCorrector(s, logger)

	var metricsServer *metrics.Server
	if config.MetricsListener {
		metricsServer = metrics.NewServer(logger)
		addr := fmt.Sprintf(":%d", config.MetricsPort)
		if err := metricsServer.Start(addr); err != nil {
			return fmt.Errorf("start metrics listener: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(); err != nil {
				logger.Error("metrics stop failed", "error", err)
			}
		}()
	}

	var publisher engine.Publisher
	if config.MQTT != nil && config.MQTT.Enabled {
		client := mqtt.NewClient(config.MQTT, logger)
		if err := client.Connect(); err != nil {
			// Location publishing is best-effort; the daemon keeps
			// learning coverage without a broker.
			logger.Warn("mqtt connect failed, publishing disabled", "error", err)
		} else {
			publisher = client
			defer func() {
				if err := client.Disconnect(); err != nil {
					logger.Error("mqtt disconnect failed", "error", err)
				}
			}()
		}
	}

	eng := engine.New(c, corrector, config.Synthesis, metricsServer, publisher, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	osignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	go eng.Run(ctx)

	if err := feedCycles(ctx, eng, inputFile, config.CycleIntervalMS, logger); err != nil {
		return err
	}
	logger.Info("cycle input closed, shutting down")
	return nil
}

// feedCycles reads newline-delimited JSON cycles from the input stream and
// submits them to the engine until the stream ends or the context is
// cancelled. File input is replayed at the configured cycle cadence; stdin
// is consumed as fast as it arrives.
func feedCycles(ctx context.Context, eng *engine.Engine, inputFile string, intervalMS int, logger *logx.Logger) error {
	var in io.Reader
	var ticker *time.Ticker
	if inputFile == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(inputFile)
		if err != nil {
			return fmt.Errorf("open cycle input: %w", err)
		}
		defer f.Close()
		in = f
		ticker = time.NewTicker(time.Duration(intervalMS) * time.Millisecond)
		defer ticker.Stop()
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var cycle engine.Cycle
		if err := json.Unmarshal(line, &cycle); err != nil {
			logger.Warn("malformed cycle line skipped", "error", err)
			continue
		}
		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return nil
			}
		}
		eng.Submit(cycle)
	}
	return scanner.Err()
}
