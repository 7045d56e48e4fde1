// Package commands defines all Cobra CLI commands for the refubot binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/refubot-go/internal/audit"
	"github.com/54b3r/refubot-go/internal/config"
	"github.com/54b3r/refubot-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "refubot",
		Short: "REFU product-support chatbot",
		Long: `refubot answers questions about REFU power electronics products from
their indexed datasheets.

Visitors navigate a product category tree, ask questions scoped to the
selected product, and can leave their contact details for a customised
offer. The chat model is selected via MODEL_PROVIDER (default: gemini)
or a YAML config file (~/.refubot/config.yaml).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}

			audit.LogCommandStart(cmd.Context(), log, cmd.Name(), path)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.refubot/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIndexCmd(),
		NewAskCmd(),
		NewCatalogCmd(),
		NewVersionCmd(),
	)

	return root
}
