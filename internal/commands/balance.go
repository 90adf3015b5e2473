package commands

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"pocketledger/internal/config"
	"pocketledger/internal/models"
	"pocketledger/internal/services"
)

func newBalanceCommand(open opener) *cobra.Command {
	var userID string
	var accountID string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print account balances for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(open, func(_ *config.Config, f *services.Facade) error {
				ctx := cmd.Context()

				var accounts []models.Account
				if accountID != "" {
					account, err := f.Accounts.GetAccountByID(ctx, userID, accountID)
					if err != nil {
						return err
					}
					accounts = append(accounts, *account)
				} else {
					all, err := f.Accounts.GetUserAccounts(ctx, userID)
					if err != nil {
						return err
					}
					accounts = all
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ACCOUNT\tINCOME\tEXPENSES\tBALANCE")
				for _, a := range accounts {
					b, err := f.Accounts.GetAccountBalance(ctx, userID, a.ID)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Name, formatCents(b.Income), formatCents(b.Expenses), formatCents(b.Balance))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&accountID, "account", "", "limit output to one account")

	return cmd
}

func formatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// parseCents reads a major-unit amount such as "12.50" into cents.
func parseCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("invalid amount %q: more than two decimal places", s)
	}
	if cents.LessThan(decimal.NewFromInt(math.MinInt64)) || cents.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("invalid amount %q: out of range", s)
	}
	return cents.IntPart(), nil
}
