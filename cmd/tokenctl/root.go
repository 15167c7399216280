package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pscheid92/slackbridge/internal/platform/version"
	"github.com/spf13/cobra"
	"go-simpler.org/env"
)

// cliEnv supplies flag defaults from the same variables the server reads.
type cliEnv struct {
	TokenEncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"`
	SigningSecret      string `env:"SIGNING_SECRET"`
}

func loadEnv() cliEnv {
	_ = godotenv.Load()

	var e cliEnv
	if err := env.Load(&e, nil); err != nil {
		slog.Debug("Failed to read environment", "error", err)
	}
	return e
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tokenctl",
		Short:         "Token encryption and webhook signing utility",
		Long:          `Encrypts OAuth tokens for storage, decrypts stored artifacts, and signs or verifies webhook requests.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("tokenctl {{.Version}}\n")

	defaults := loadEnv()
	root.AddCommand(
		newEncryptCmd(defaults),
		newDecryptCmd(defaults),
		newSignCmd(defaults),
		newVerifyCmd(defaults),
	)
	return root
}

// readValue returns the positional argument, or stdin when it is "-" or
// absent. One trailing newline is stripped from stdin input.
func readValue(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}

	data, err := io.ReadAll(bufio.NewReader(cmd.InOrStdin()))
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	s := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}
