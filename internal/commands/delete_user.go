package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pocketledger/internal/config"
	"pocketledger/internal/services"
)

func newDeleteUserCommand(open opener) *cobra.Command {
	var userID string
	var confirm bool

	cmd := &cobra.Command{
		Use:   "delete-user",
		Short: "Remove every account, transaction, category and goal of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to delete %s without --confirm", userID)
			}
			return withFacade(open, func(_ *config.Config, f *services.Facade) error {
				res, err := f.Provisioning.DeleteUserData(cmd.Context(), userID)
				if err != nil {
					return fmt.Errorf("deleting %s: %w", userID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "accounts: %d, transactions: %d, categories: %d, goals: %d\n",
					res.AccountsDeleted, res.TransactionsDeleted, res.CategoriesDeleted, res.GoalsDeleted)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "actually delete the data")

	return cmd
}
