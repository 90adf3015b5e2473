package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pocketledger/internal/config"
	"pocketledger/internal/services"
)

func newTransferCommand(open opener) *cobra.Command {
	var userID, fromID, toID, amount string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between two accounts of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := parseCents(amount)
			if err != nil {
				return err
			}
			return withFacade(open, func(_ *config.Config, f *services.Facade) error {
				res, err := f.Transfers.TransferFunds(cmd.Context(), userID, fromID, toID, cents)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s  %s\n", res.ExpenseLeg.Description, formatCents(res.ExpenseLeg.Amount))
				fmt.Fprintf(out, "%s  %s\n", res.IncomeLeg.Description, formatCents(res.IncomeLeg.Amount))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&fromID, "from", "", "source account id (required)")
	cmd.Flags().StringVar(&toID, "to", "", "destination account id (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in major units, e.g. 12.50 (required)")
	for _, name := range []string{"user", "from", "to", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
