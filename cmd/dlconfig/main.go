package main

import (
	"os"

	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/godtiergamers/dlconfig/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opencensus.io/stats/view"
)

var version = "dev"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)

	gCfg, err := config.NewGeneratorConfigFromEnv()
	if err != nil {
		log.Fatalf("ERROR: invalid environment: %v", err)
	}

	if err := newRootCmd(log, gCfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(log *logrus.Logger, gCfg *config.GeneratorConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dlconfig",
		Short:   "Generate a DiscordLogger config.yml",
		Version: version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if must(cmd.Flags().GetBool("verbose")) {
				log.SetLevel(logrus.DebugLevel)
				if err := view.Register(metrics.SchemaViews...); err != nil {
					log.Warnf("could not register metrics: %v", err)
				}
			}
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	cmd.PersistentFlags().String("catalog", gCfg.CatalogFile, "YAML file with additional plugin and config versions")
	cmd.PersistentFlags().String("base", gCfg.AssetBase, "base location of the config assets (empty uses the built-in assets)")
	cmd.PersistentFlags().String("relay-url", gCfg.RelayURL, "relay endpoint for webhook tests (empty posts directly to Discord)")
	cmd.PersistentFlags().String("relay-origin", gCfg.RelayOrigin, "Origin header sent to the relay")
	cmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	cmd.PersistentFlags().SortFlags = false

	cmd.AddCommand(
		newWizardCmd(log, gCfg),
		newRenderCmd(log, gCfg),
		newTestWebhookCmd(log, gCfg),
		newVersionsCmd(log, gCfg),
	)
	return cmd
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// runE adapts a subcommand's run function to the root command's error
// reporting.
func runE(log *logrus.Logger, fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		err := fn(cmd, args)
		if must(cmd.Flags().GetBool("verbose")) {
			metrics.LogViews(log, metrics.SchemaViews)
		}
		if err != nil {
			log.Errorf("ERROR: %v", err)
			os.Exit(1)
		}
	}
}
