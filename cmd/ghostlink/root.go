package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghostlink/ghostlink/config"
	"github.com/ghostlink/ghostlink/crypto/envelope"
	"github.com/ghostlink/ghostlink/internal/logutil"
	"github.com/ghostlink/ghostlink/link"
	"github.com/ghostlink/ghostlink/observability"
	"github.com/ghostlink/ghostlink/observability/prom"
)

var (
	// Global flags.
	cfgFile       string
	debugFlag     bool
	keyFlag       string
	passphrase    string
	saltFlag      string
	metricsAddr   string
	maxPayload    int
	retryInterval time.Duration

	// Shared state set during PersistentPreRun.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ghostlink",
	Short: "Encrypted point-to-point chat over TCP or WebSocket",
	Long: `Ghostlink establishes an encrypted messaging channel between exactly
two peers: one listener and one initiator. Payloads are sealed with a
pre-shared Fernet key and framed with a SHA-256 integrity header.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Flag overrides.
		if keyFlag != "" {
			cfg.Key = keyFlag
		}
		if passphrase != "" {
			cfg.Passphrase = passphrase
		}
		if saltFlag != "" {
			cfg.Salt = saltFlag
		}
		if metricsAddr != "" {
			cfg.MetricsAddr = metricsAddr
		}
		if maxPayload > 0 {
			cfg.MaxPayloadBytes = maxPayload
		}
		if retryInterval > 0 {
			cfg.RetryInterval = retryInterval.String()
		}
		if debugFlag {
			cfg.Debug = true
		}
		if cfg.Debug {
			logutil.EnableDebug()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.ghostlink/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&keyFlag, "key", "", "base64 Fernet key")
	rootCmd.PersistentFlags().StringVar(&passphrase, "passphrase", "", "shared passphrase (alternative to --key)")
	rootCmd.PersistentFlags().StringVar(&saltFlag, "salt", "", "salt for passphrase derivation")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().IntVar(&maxPayload, "max-payload", 0, "max incoming payload bytes (0 uses default)")
	rootCmd.PersistentFlags().DurationVar(&retryInterval, "retry-interval", 0, "delay between reconnect attempts (0 uses default)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildEnvelope resolves key material from config and flags.
func buildEnvelope() (*envelope.Envelope, error) {
	key, err := cfg.EnvelopeKey()
	if err != nil {
		return nil, err
	}
	return envelope.New(key), nil
}

// buildLinkConfig assembles engine tunables, wiring a Prometheus observer
// when a metrics address is configured.
func buildLinkConfig() (link.Config, error) {
	retry, err := cfg.RetryDuration()
	if err != nil {
		return link.Config{}, fmt.Errorf("invalid retry_interval: %w", err)
	}
	obs := observability.NewAtomicLinkObserver()
	if cfg.MetricsAddr != "" {
		reg := prom.NewRegistry()
		obs.Set(prom.NewLinkObserver(reg))
		mux := http.NewServeMux()
		mux.Handle("/metrics", prom.Handler(reg))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logutil.Error("metrics server failed: %v", err)
			}
		}()
		logutil.Info("serving metrics on %s/metrics", cfg.MetricsAddr)
	}
	return link.Config{
		MaxPayloadBytes: cfg.MaxPayloadBytes,
		RetryInterval:   retry,
		Observer:        obs,
	}, nil
}
