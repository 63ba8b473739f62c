package analyzer

import (
	"sort"

	"github.com/yourname/bgp-clock-offset/model"
)

// Aggregator reduces per-window shortest distances to one clock error
// profile per collector pair.
type Aggregator struct {
	// Ceiling drops distances produced by sentinel-only paths.
	Ceiling float64
	Phase   model.Phase
}

// NewAggregator returns an aggregator for the up/down switches. Selecting
// both yields model.ErrConflictingPhase.
func NewAggregator(ceiling float64, onlyUp, onlyDown bool) (Aggregator, error) {
	phase, err := model.PhaseFromFlags(onlyUp, onlyDown)
	if err != nil {
		return Aggregator{}, err
	}
	return Aggregator{Ceiling: ceiling, Phase: phase}, nil
}

// Aggregate returns the profiles sorted by pair. Pairs without any measured
// distance in the selected phase produce no profile.
func (a Aggregator) Aggregate(distances []model.ShortestDistance) []model.ClockErrorProfile {
	samples := make(map[model.PairKey][]float64)
	for _, d := range distances {
		if !d.Measured(a.Ceiling) || !a.Phase.Includes(d.Window) {
			continue
		}
		k := d.Key()
		samples[k] = append(samples[k], d.Distance)
	}

	keys := make([]model.PairKey, 0, len(samples))
	for k := range samples {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})

	out := make([]model.ClockErrorProfile, 0, len(keys))
	for _, k := range keys {
		s := sortedCopy(samples[k])
		out = append(out, model.ClockErrorProfile{
			Collector1: k.A,
			Collector2: k.B,
			P0:         s[0],
			P50:        Percentile(s, 0.5),
			P90:        Percentile(s, 0.9),
			P100:       s[len(s)-1],
			Count:      len(s),
		})
	}
	return out
}

// SummarizeProfiles counts the pairs below the reliability gate and
// averages the percentiles of the reliable ones.
func SummarizeProfiles(profiles []model.ClockErrorProfile, minSamples int, phase model.Phase) model.ProfileSummary {
	s := model.ProfileSummary{Phase: phase, Total: len(profiles)}
	var p0, p50, p90, p100 []float64
	for _, p := range profiles {
		if !p.Reliable(minSamples) {
			s.Insufficient++
			continue
		}
		p0 = append(p0, p.P0)
		p50 = append(p50, p.P50)
		p90 = append(p90, p.P90)
		p100 = append(p100, p.P100)
	}
	s.Reliable = len(p0)
	s.MeanP0, s.MeanP50, s.MeanP90, s.MeanP100 = mean(p0), mean(p50), mean(p90), mean(p100)
	return s
}
