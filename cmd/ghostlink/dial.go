package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghostlink/ghostlink/link"
	"github.com/ghostlink/ghostlink/transport"
	"github.com/ghostlink/ghostlink/transport/tcp"
	"github.com/ghostlink/ghostlink/transport/ws"
)

var (
	dialTarget    string
	dialTransport string
)

var dialCmd = &cobra.Command{
	Use:   "dial",
	Short: "Connect to a listening peer, then chat",
	Long: `Dial connects to the peer address and keeps retrying at a fixed
interval after any failure, until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dialTarget != "" {
			cfg.Target = dialTarget
		}
		if dialTransport != "" {
			cfg.Transport = dialTransport
		}
		if cfg.Target == "" {
			return errors.New("missing target address (--target)")
		}

		env, err := buildEnvelope()
		if err != nil {
			return err
		}
		linkCfg, err := buildLinkConfig()
		if err != nil {
			return err
		}

		var dialer transport.Dialer
		switch cfg.Transport {
		case "tcp":
			dialer = tcp.Dialer{Target: cfg.Target, Timeout: 5 * time.Second}
		case "ws":
			dialer = ws.Dialer{URL: cfg.Target, HandshakeTimeout: 5 * time.Second}
		default:
			return errors.New("transport must be tcp or ws")
		}

		eng := link.NewInitiator(linkCfg, dialer, env, chatHandler{})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		done := make(chan struct{})
		go func() {
			eng.Run()
			close(done)
		}()

		runChat(ctx, eng)
		eng.Stop()
		<-done
		return nil
	},
}

func init() {
	dialCmd.Flags().StringVar(&dialTarget, "target", "", "peer address (host:port, or ws:// URL for ws transport)")
	dialCmd.Flags().StringVar(&dialTransport, "transport", "", "transport: tcp or ws")
	rootCmd.AddCommand(dialCmd)
}
