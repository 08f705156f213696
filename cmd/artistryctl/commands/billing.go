// AngelaMos | 2026
// billing.go

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/subscription"
)

func newBillingCommand(opts *options) *cobra.Command {
	billing := &cobra.Command{
		Use:   "billing",
		Short: "Premium billing maintenance",
	}

	renew := &cobra.Command{
		Use:   "renew",
		Short: "Advance every due active subscription by one period",
		Long: `Run the renewal sweep the API scheduler runs on its cron schedule.
Safe to run repeatedly: a subscription is only advanced while its next
billing date is on or before today.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			db, err := core.NewDatabase(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits right after

			svc := subscription.NewService(db.DB, cfg.Billing, nil)

			renewed, err := svc.RenewDue(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "renewed %d subscription(s)\n", renewed)
			return nil
		},
	}

	billing.AddCommand(renew)
	return billing
}
