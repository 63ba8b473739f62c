package output

import (
	"fmt"
	"io"

	"github.com/yourname/bgp-clock-offset/model"
)

// GenerateReport prints a pipeline run report.
func GenerateReport(w io.Writer, r model.Report) {
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintf(w, "Experiment: %s\n", r.Experiment)
	fmt.Fprintf(w, "Time Range: %s - %s\n", r.Started.Format("2006-01-02 15:04:05"), r.Finished.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Collectors: %d, windows: %d, missing files: %d, malformed files: %d\n",
		r.Collectors, r.Windows, r.MissingFiles, r.MalformedFiles)
	if len(r.EmptyCollectors) > 0 {
		fmt.Fprintln(w, "Collectors without data:")
		for _, c := range r.EmptyCollectors {
			fmt.Fprintf(w, "  - %s\n", c)
		}
	}
	e := r.Edges
	fmt.Fprintf(w, "Edges: %d (measured %d, one-way %d, synthesized %d, ignored rows %d, duplicate rows %d)\n",
		e.Edges, e.Measured, e.OneWay, e.Synthesized, e.Ignored, e.Duplicates)
	if e.Edges > 0 {
		fmt.Fprintf(w, "Shorter indirect path: %d (fraction %.3f)\n", e.Detours, float64(e.Detours)/float64(e.Edges))
	}
	fmt.Fprintln(w, "Clock error profiles:")
	for _, p := range r.Profiles {
		WriteProfileSummary(w, p)
	}
	c := r.Correction
	fmt.Fprintf(w, "Quantile correction: read %d, corrected %d, dropped %d\n", c.Read, c.Corrected, c.Dropped())
	fmt.Fprintf(w, "  - incomplete %d, few events %d, unknown prefix %d\n", c.Incomplete, c.FewEvents, c.UnknownPrefix)
	fmt.Fprintf(w, "  - missing profile %d, unreliable profile %d, same collector %d\n", c.MissingProfile, c.Unreliable, c.SameCollector)
}

// WriteProfileSummary prints the pair counts and mean percentiles of one
// profile set.
func WriteProfileSummary(w io.Writer, s model.ProfileSummary) {
	fmt.Fprintf(w, "  [%s] pairs %d, insufficient %d, reliable %d\n", s.Phase, s.Total, s.Insufficient, s.Reliable)
	fmt.Fprintf(w, "    mean p0 %.3f, p50 %.3f, p90 %.3f, p100 %.3f\n", s.MeanP0, s.MeanP50, s.MeanP90, s.MeanP100)
}

// WriteStats prints convergence statistics per address family.
func WriteStats(w io.Writer, stats []model.ConvergenceStats) {
	for _, s := range stats {
		fmt.Fprintf(w, "\n------------------\n%s\n", s.Family)
		fmt.Fprintf(w, "Total number of pairs: %d\n", s.Pairs)
		fmt.Fprintf(w, "Number of unique monitors: %d\n\n", s.Monitors)
		fmt.Fprintf(w, "Fraction of zombies: %.3f\n", s.ZombieFraction)
		fmt.Fprintf(w, "     Total number of zombie route events: %d\n", s.Zombies)
		fmt.Fprintf(w, "Fraction of rfd events over total events: %.3f\n", s.RFDFraction)
		fmt.Fprintf(w, "     Fraction of RFD in DOWN over total: %.3f\n", s.RFDDownShare)
		fmt.Fprintf(w, "     Fraction of monitor/beacon pairs observing at least one rfd event: %.3f\n", s.PairsWithRFD)
		fmt.Fprintf(w, "     Fraction of monitor/beacon pairs observing many rfd events: %.3f\n\n", s.PairsWithManyRFD)
		fmt.Fprintf(w, "Mean clock error: %.3f\n\n", s.MeanClockError)
		writeInterval(w, "Prefix reachability interval", s.FirstAdvert)
		writeInterval(w, "Preferred route interval", s.PreferredRoute)
		writeInterval(w, "Prefix withdrawn interval", s.Withdrawal)
		fmt.Fprintf(w, "Mean number of messages in UP events: %.3f\n", s.MessagesPerUp)
		fmt.Fprintf(w, "Mean number of messages in DOWN events: %.3f\n\n", s.MessagesPerDown)
		fmt.Fprintf(w, "Mean AS path count in DOWN events: %.3f\n", s.ASPathCountDown)
		fmt.Fprintf(w, "Mean count of different ASes in DOWN events: %.3f\n", s.ASesDifferentDown)
		fmt.Fprintf(w, "Mean length of the last path in DOWN events: %.3f\n", s.LastASPathLengthDown)
	}
}

func writeInterval(w io.Writer, name string, s model.IntervalStats) {
	fmt.Fprintf(w, "Mean of %s, q50: %.3f\n", name, s.MeanRaw)
	fmt.Fprintf(w, "...q50 + clock error: %.3f\n", s.MeanUpper)
}
