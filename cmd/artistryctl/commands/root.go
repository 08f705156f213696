// AngelaMos | 2026
// root.go

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/artistry/internal/config"
)

type options struct {
	configPath string
}

// NewRootCommand builds the operator CLI. Subcommands load the same config
// file and environment overrides as the API server.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "artistryctl",
		Short: "Operator tooling for the Artistry gallery API",
		Long: `artistryctl runs one-off maintenance against the gallery database.

Subcommands:
  migrate   - Apply, revert or inspect schema migrations
  keys      - Generate the ES256 signing key pair
  billing   - Run the premium renewal sweep once`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(
		&opts.configPath,
		"config",
		"config.yaml",
		"path to config file",
	)

	root.AddCommand(
		newMigrateCommand(opts),
		newKeysCommand(opts),
		newBillingCommand(opts),
	)

	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *options) load() (*config.Config, error) {
	return config.Load(o.configPath)
}
