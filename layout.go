package clockoffset

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/yourname/bgp-clock-offset/model"
)

// Layout locates the files of one experiment below its result directory.
type Layout struct {
	Root string
}

// NewLayout returns the layout of experiment below the first existing one
// of cfg.ResultDir and cfg.AlternativeResultDir.
func NewLayout(cfg model.Config, experiment string) (Layout, error) {
	for _, dir := range []string{cfg.ResultDir, cfg.AlternativeResultDir} {
		if dir == "" {
			continue
		}
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return Layout{Root: filepath.Join(dir, experiment)}, nil
		}
	}
	return Layout{}, errors.Errorf("neither result directory %q nor alternative %q exists", cfg.ResultDir, cfg.AlternativeResultDir)
}

func (l Layout) numbered(dir string, c model.CollectorID, stem string, w model.Window) string {
	return filepath.Join(l.Root, dir, string(c), stem+"_"+strconv.Itoa(int(w))+".csv")
}

// Updates is the raw beacon dump of a collector and window.
func (l Layout) Updates(c model.CollectorID, w model.Window) string {
	return l.numbered("download", c, "beacon", w)
}

// Anchors is the raw anchor dump of a collector and window.
func (l Layout) Anchors(c model.CollectorID, w model.Window) string {
	return l.numbered("download", c, "anchor", w)
}

// PathEvents is the summarized path table of a collector and window.
func (l Layout) PathEvents(c model.CollectorID, w model.Window) string {
	return l.numbered("per_path_event", c, "per_path_event", w)
}

// Filtered is the cross-validated path table of a collector and window.
func (l Layout) Filtered(c model.CollectorID, w model.Window) string {
	return l.numbered("per_path_event_filtered", c, "per_path_event_filtered", w)
}

// MinDelays is the directed delay table observed at a collector.
func (l Layout) MinDelays(c model.CollectorID) string {
	return filepath.Join(l.Root, "per_collector_event_mins", string(c)+".csv")
}

// Distances is the per-window shortest distance table.
func (l Layout) Distances() string {
	return filepath.Join(l.Root, "per_event_shortest_distance.csv")
}

// Profiles is the clock error profile table of a phase.
func (l Layout) Profiles(phase model.Phase) string {
	name := "per_experiment_clock_synch"
	switch phase {
	case model.PhaseUp:
		name += "_UP"
	case model.PhaseDown:
		name += "_DOWN"
	}
	return filepath.Join(l.Root, name+".csv")
}

// Quantiles is the path quantile table of a collector.
func (l Layout) Quantiles(c model.CollectorID) string {
	return filepath.Join(l.Root, "quantiles", string(c)+".csv")
}

// Corrected is the quantile table with clock error bounds.
func (l Layout) Corrected() string {
	return filepath.Join(l.Root, "quantiles_with_clock.csv")
}
