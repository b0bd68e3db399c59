package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghostlink/ghostlink/crypto/envelope"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a fresh shared key",
	Long: `Keygen prints a new base64 Fernet key. Put the same key in the config
file (or --key flag) on both peers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := envelope.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key.Encode())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
