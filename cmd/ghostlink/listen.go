package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ghostlink/ghostlink/internal/logutil"
	"github.com/ghostlink/ghostlink/link"
	"github.com/ghostlink/ghostlink/transport"
	"github.com/ghostlink/ghostlink/transport/tcp"
	"github.com/ghostlink/ghostlink/transport/ws"
)

var (
	listenAddr      string
	listenTransport string
	listenWSPath    string
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Wait for the peer to connect, then chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listenAddr != "" {
			cfg.Listen = listenAddr
		}
		if listenTransport != "" {
			cfg.Transport = listenTransport
		}
		if listenWSPath != "" {
			cfg.WSPath = listenWSPath
		}

		env, err := buildEnvelope()
		if err != nil {
			return err
		}
		linkCfg, err := buildLinkConfig()
		if err != nil {
			return err
		}

		var binder transport.Binder
		switch cfg.Transport {
		case "tcp":
			binder = tcp.Binder{Addr: cfg.Listen}
		case "ws":
			binder = ws.Binder{Addr: cfg.Listen, Path: cfg.WSPath}
		default:
			return errors.New("transport must be tcp or ws")
		}

		eng := link.NewListener(linkCfg, binder, env, chatHandler{})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		done := make(chan error, 1)
		go func() { done <- eng.Run() }()

		chatDone := make(chan struct{})
		go func() {
			runChat(ctx, eng)
			close(chatDone)
		}()

		select {
		case err := <-done:
			// Engine ended on its own (bind/accept failure).
			return err
		case <-chatDone:
		case <-ctx.Done():
		}
		eng.Stop()
		if err := <-done; err != nil {
			logutil.Error("listener ended with error: %v", err)
		}
		return nil
	},
}

func init() {
	listenCmd.Flags().StringVar(&listenAddr, "listen", "", "bind address (default from config)")
	listenCmd.Flags().StringVar(&listenTransport, "transport", "", "transport: tcp or ws")
	listenCmd.Flags().StringVar(&listenWSPath, "ws-path", "", "websocket upgrade path")
	rootCmd.AddCommand(listenCmd)
}
