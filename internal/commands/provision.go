package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pocketledger/internal/config"
	"pocketledger/internal/services"
)

func newProvisionCommand(open opener) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the default accounts, categories and goals for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(open, func(_ *config.Config, f *services.Facade) error {
				res, err := f.Provisioning.ProvisionDefaultData(cmd.Context(), userID)
				if err != nil {
					return fmt.Errorf("provisioning %s: %w", userID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "accounts: %d, categories: %d, goals: %d\n",
					res.AccountsCreated, res.CategoriesCreated, res.GoalsCreated)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
