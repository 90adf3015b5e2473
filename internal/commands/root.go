package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pocketledger/internal/config"
	"pocketledger/internal/database"
	"pocketledger/internal/services"
)

// opener builds a facade for a single command run. The returned func
// releases whatever the facade holds open.
type opener func(cfg *config.Config) (*services.Facade, func(), error)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(openFacade)
}

func newRootCommand(open opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate a PocketLedger store from the command line",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newTokenCommand(),
		newProvisionCommand(open),
		newBalanceCommand(open),
		newRecomputeCommand(open),
		newTransferCommand(open),
		newDeleteUserCommand(open),
	)

	return rootCmd
}

func openFacade(cfg *config.Config) (*services.Facade, func(), error) {
	store, manager, err := database.OpenStore(cfg, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	release := func() {
		if manager != nil {
			_ = manager.Close()
		}
	}
	return services.NewFacade(store, services.WithTransferFallbackID(cfg.TransferFallback)), release, nil
}

// withFacade loads configuration, opens the store and runs fn against it.
func withFacade(open opener, fn func(cfg *config.Config, f *services.Facade) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	f, release, err := open(cfg)
	if err != nil {
		return err
	}
	defer release()
	return fn(cfg, f)
}
