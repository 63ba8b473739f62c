package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	clockoffset "github.com/yourname/bgp-clock-offset"
	"github.com/yourname/bgp-clock-offset/model"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	Config   string
	LogLevel string
	Workers  int
}

func main() {
	// A missing .env file is fine; the environment may be set otherwise.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "clockerr",
		Short:         "Estimate BGP collector clock offsets and correct convergence quantiles.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(flags.LogLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&flags.Config, "config", getenv("CLOCKERR_CONFIG", ""),
		"YAML configuration file; built-in 2009 RIS beacon set when empty.")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "info",
		"Log level: debug, info, warning or error.")
	cmd.PersistentFlags().IntVar(&flags.Workers, "workers", 0,
		"Parallel windows and collectors; overrides the configuration when > 0.")

	cmd.AddCommand(
		newCollectorStageCmd(flags, "summarize", "Summarize raw beacon dumps into per-path event tables.", runSummarize),
		newCollectorStageCmd(flags, "filter", "Remove path events explained by anchor activity or clock skew.", runFilter),
		newCollectorStageCmd(flags, "mins", "Extract the per-window minimum delays observed at a collector.", runMins),
		newCollectorStageCmd(flags, "quantiles", "Compute path convergence quantiles of a collector.", runQuantiles),
		newDistancesCmd(flags),
		newProfilesCmd(flags),
		newCorrectCmd(flags),
		newStatsCmd(flags),
		newRunCmd(flags),
		newServeCmd(flags),
	)
	return cmd
}

func (f *rootFlags) config() (model.Config, error) {
	cfg, err := model.LoadConfig(f.Config)
	if err != nil {
		return model.Config{}, err
	}
	if f.Workers > 0 {
		cfg.Workers = f.Workers
	}
	return cfg, nil
}

func (f *rootFlags) pipeline(experiment string) (*clockoffset.Pipeline, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}
	return clockoffset.New(cfg, experiment)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
