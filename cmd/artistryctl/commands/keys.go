// AngelaMos | 2026
// keys.go

package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/artistry/internal/auth"
)

type keysOptions struct {
	privatePath string
	publicPath  string
	force       bool
}

func newKeysCommand(_ *options) *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage the token signing keys",
	}

	ko := &keysOptions{}

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write a new ES256 key pair",
		Long: `Write a new P-256 key pair as PEM files. Existing files are left
untouched unless --force is given; replacing the pair invalidates every
access token already issued.

Examples:
  artistryctl keys generate
  artistryctl keys generate --private /etc/artistry/private.pem --public /etc/artistry/public.pem`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKeysGenerate(cmd, ko)
		},
	}

	generate.Flags().StringVar(&ko.privatePath, "private", "keys/private.pem", "private key output path")
	generate.Flags().StringVar(&ko.publicPath, "public", "keys/public.pem", "public key output path")
	generate.Flags().BoolVar(&ko.force, "force", false, "overwrite existing key files")

	keys.AddCommand(generate)
	return keys
}

func runKeysGenerate(cmd *cobra.Command, ko *keysOptions) error {
	if !ko.force {
		for _, p := range []string{ko.privatePath, ko.publicPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists, pass --force to replace it", p)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", p, err)
			}
		}
	}

	for _, p := range []string{ko.privatePath, ko.publicPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return fmt.Errorf("create key directory: %w", err)
		}
	}

	if err := auth.GenerateKeyPair(ko.privatePath, ko.publicPath); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", ko.privatePath, ko.publicPath)
	return nil
}
