package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	clockoffset "github.com/yourname/bgp-clock-offset"
	"github.com/yourname/bgp-clock-offset/model"
	"github.com/yourname/bgp-clock-offset/output"
	"github.com/yourname/bgp-clock-offset/store"
)

type collectorStage func(ctx context.Context, p *clockoffset.Pipeline, c model.CollectorID, out io.Writer) error

// newCollectorStageCmd builds a "<stage> <experiment> <collector>" command.
func newCollectorStageCmd(flags *rootFlags, use, short string, run collectorStage) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <experiment> <collector>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.pipeline(args[0])
			if err != nil {
				return err
			}
			return run(cmd.Context(), p, model.NewCollectorID(args[1]), cmd.OutOrStdout())
		},
	}
}

func runSummarize(ctx context.Context, p *clockoffset.Pipeline, c model.CollectorID, out io.Writer) error {
	n, err := p.Summarize(ctx, c)
	if err != nil {
		return err
	}
	r := p.Report()
	fmt.Fprintf(out, "%d windows summarized, %d files missing, %d malformed\n", n, r.MissingFiles, r.MalformedFiles)
	return nil
}

func runFilter(ctx context.Context, p *clockoffset.Pipeline, c model.CollectorID, out io.Writer) error {
	s, err := p.Filter(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "kept %d, non-beacon %d, clock guard %d, anchored %d\n", s.Kept, s.NonBeacon, s.ClockGuard, s.Anchored)
	return nil
}

func runMins(ctx context.Context, p *clockoffset.Pipeline, c model.CollectorID, out io.Writer) error {
	d, err := p.MinDelays(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d directed delays written to %s\n", len(d), p.Layout().MinDelays(c))
	return nil
}

func runQuantiles(ctx context.Context, p *clockoffset.Pipeline, c model.CollectorID, out io.Writer) error {
	q, err := p.Quantiles(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d paths written to %s\n", len(q), p.Layout().Quantiles(c))
	return nil
}

func newDistancesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "distances <experiment>",
		Short: "Compute per-window shortest distances between all collectors.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.pipeline(args[0])
			if err != nil {
				return err
			}
			d, stats, err := p.Distances(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total entries %d, with worse direct distance: %d (synthesized edges %d)\n",
				len(d), stats.Detours, stats.Synthesized)
			return nil
		},
	}
}

type profilesFlags struct {
	OnlyUp   bool
	OnlyDown bool
}

func newProfilesCmd(flags *rootFlags) *cobra.Command {
	pf := &profilesFlags{}
	cmd := &cobra.Command{
		Use:   "profiles <experiment>",
		Short: "Aggregate shortest distances into per-pair clock error profiles.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := model.PhaseFromFlags(pf.OnlyUp, pf.OnlyDown)
			if err != nil {
				return err
			}
			p, err := flags.pipeline(args[0])
			if err != nil {
				return err
			}
			_, summary, err := p.Profiles(cmd.Context(), phase)
			if err != nil {
				return err
			}
			output.WriteProfileSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pf.OnlyUp, "only-up", false, "Use announcement windows only.")
	cmd.Flags().BoolVar(&pf.OnlyDown, "only-down", false, "Use withdrawal windows only.")
	return cmd
}

func newCorrectCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "correct <experiment>",
		Short: "Apply clock error profiles to the path quantiles of every collector.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.pipeline(args[0])
			if err != nil {
				return err
			}
			_, s, err := p.Correct(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "read %d, corrected %d, dropped %d (missing profile %d, unreliable %d)\n",
				s.Read, s.Corrected, s.Dropped(), s.MissingProfile, s.Unreliable)
			return nil
		},
	}
}

func newStatsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <experiment>",
		Short: "Print convergence statistics of the corrected quantiles.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.pipeline(args[0])
			if err != nil {
				return err
			}
			stats, err := p.Stats(cmd.Context())
			if err != nil {
				return err
			}
			output.WriteStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

type runFlags struct {
	Prepare bool
	Store   string
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	rf := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <experiment>",
		Short: "Run the estimation chain and print a report.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.pipeline(args[0])
			if err != nil {
				return err
			}
			if rf.Store != "" {
				s, err := store.Open(rf.Store)
				if err != nil {
					return err
				}
				defer s.Close()
				p.WithStore(s)
			}
			if rf.Prepare {
				if err := p.Prepare(cmd.Context()); err != nil {
					return err
				}
			}
			report, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}
			output.GenerateReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&rf.Prepare, "prepare", false, "Summarize and filter the raw dumps first.")
	cmd.Flags().StringVar(&rf.Store, "store", getenv("CLOCKERR_STORE", ""),
		"Archive the run in <engine>:<params> (sqlite3, mysql or postgres).")
	return cmd
}

