package main

import (
	"errors"
	"fmt"

	"github.com/pscheid92/slackbridge/internal/platform/crypto"
	"github.com/spf13/cobra"
)

func newEncryptCmd(defaults cliEnv) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "encrypt [plaintext|-]",
		Short: "Encrypt a token into the iv:tag:ciphertext storage format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plaintext, err := readValue(cmd, args)
			if err != nil {
				return err
			}

			artifact, err := crypto.EncryptWith(plaintext, key)
			if errors.Is(err, crypto.ErrConfig) {
				return keyError(err)
			}
			if err != nil {
				return fmt.Errorf("encryption failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), artifact)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", defaults.TokenEncryptionKey, "64-character hex key (default $TOKEN_ENCRYPTION_KEY)")
	return cmd
}

func newDecryptCmd(defaults cliEnv) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "decrypt [artifact|-]",
		Short: "Decrypt a stored iv:tag:ciphertext artifact",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact, err := readValue(cmd, args)
			if err != nil {
				return err
			}

			plaintext, err := crypto.DecryptWith(artifact, key)
			if err != nil {
				return keyError(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), plaintext)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", defaults.TokenEncryptionKey, "64-character hex key (default $TOKEN_ENCRYPTION_KEY)")
	return cmd
}

// keyError keeps malformed and tampered artifacts indistinguishable.
func keyError(err error) error {
	if errors.Is(err, crypto.ErrConfig) {
		return &exitError{msg: "invalid encryption key: expected 64 hex characters"}
	}
	return &exitError{msg: "decryption failed"}
}
