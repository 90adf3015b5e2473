package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pocketledger/internal/config"
	"pocketledger/internal/services"
)

func newRecomputeCommand(open opener) *cobra.Command {
	var userID string
	var accountID string

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute goal progress for one account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(open, func(_ *config.Config, f *services.Facade) error {
				if err := f.Goals.RecomputeGoalsForAccount(cmd.Context(), userID, accountID); err != nil {
					return fmt.Errorf("recomputing goals: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "goals recomputed for account %s\n", accountID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&accountID, "account", "", "account id (required)")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}
