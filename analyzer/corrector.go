package analyzer

import (
	"github.com/pkg/errors"

	"github.com/yourname/bgp-clock-offset/model"
)

// ErrDuplicateProfile is returned when a collector pair has more than one
// stored clock profile. It invalidates the whole correction run.
var ErrDuplicateProfile = errors.New("duplicate clock profile")

type storedPair struct{ first, second model.CollectorID }

// ProfileIndex finds clock profiles regardless of the order in which the
// pair was stored.
type ProfileIndex struct {
	entries map[storedPair][]model.ClockErrorProfile
}

// NewProfileIndex indexes profiles under their stored order.
func NewProfileIndex(profiles []model.ClockErrorProfile) *ProfileIndex {
	ix := &ProfileIndex{entries: make(map[storedPair][]model.ClockErrorProfile, len(profiles))}
	for _, p := range profiles {
		k := storedPair{first: p.Collector1, second: p.Collector2}
		ix.entries[k] = append(ix.entries[k], p)
	}
	return ix
}

// Len returns the number of indexed profiles.
func (ix *ProfileIndex) Len() int {
	n := 0
	for _, ps := range ix.entries {
		n += len(ps)
	}
	return n
}

// Lookup returns the profile of {a, b}. More than one entry across both
// storage orders is an ErrDuplicateProfile.
func (ix *ProfileIndex) Lookup(a, b model.CollectorID) (model.ClockErrorProfile, bool, error) {
	found := ix.entries[storedPair{first: a, second: b}]
	if a != b {
		found = append(found[:len(found):len(found)], ix.entries[storedPair{first: b, second: a}]...)
	}
	switch len(found) {
	case 0:
		return model.ClockErrorProfile{}, false, nil
	case 1:
		return found[0], true, nil
	}
	return model.ClockErrorProfile{}, false, errors.Wrapf(ErrDuplicateProfile, "%s-%s has %d entries", a, b, len(found))
}

// SelectQuantiles keeps the records with every statistic defined and more
// than minEvents advertisements and withdrawals.
func SelectQuantiles(records []model.QuantileRecord, minEvents int) ([]model.QuantileRecord, model.CorrectionStats) {
	stats := model.CorrectionStats{Read: len(records)}
	out := make([]model.QuantileRecord, 0, len(records))
	for _, r := range records {
		switch {
		case !r.Complete():
			stats.Incomplete++
		case r.CountA <= minEvents || r.CountW <= minEvents:
			stats.FewEvents++
		default:
			out = append(out, r)
		}
	}
	return out, stats
}

// Corrector widens path quantiles by the clock error between the observing
// collector and the collector that originated the beacon.
type Corrector struct {
	Profiles      *ProfileIndex
	Owner         PrefixOwner
	MinSamples    int
	MinPathEvents int
	Percentile    model.ClockPercentile
}

// Correct screens the records and applies the clock error to the survivors.
// Records without a reliable profile are dropped, never given a zero error.
func (c Corrector) Correct(records []model.QuantileRecord) ([]model.CorrectedRecord, model.CorrectionStats, error) {
	selected, stats := SelectQuantiles(records, c.MinPathEvents)
	out := make([]model.CorrectedRecord, 0, len(selected))
	for _, r := range selected {
		remote, ok := c.Owner.BeaconCollector(r.Prefix)
		if !ok {
			stats.UnknownPrefix++
			continue
		}
		cr := model.CorrectedRecord{QuantileRecord: r, RemoteCollector: remote}
		if remote == r.Collector {
			stats.SameCollector++
		} else {
			p, found, err := c.Profiles.Lookup(r.Collector, remote)
			if err != nil {
				return nil, stats, err
			}
			if !found {
				stats.MissingProfile++
				continue
			}
			if !p.Reliable(c.MinSamples) {
				stats.Unreliable++
				continue
			}
			cr.ClockP50, cr.ClockP90 = p.P50, p.P90
		}
		clockErr := cr.ClockP90
		if c.Percentile == model.ClockP50 {
			clockErr = cr.ClockP50
		}
		cr.FirstAdvert = model.NewBound(r.MinAQ50Up, clockErr)
		cr.PreferredRoute = model.NewBound(r.MaxAQ50Up, clockErr)
		cr.Withdrawal = model.NewBound(r.MaxWQ50Down, clockErr)
		out = append(out, cr)
	}
	stats.Corrected = len(out)
	return out, stats, nil
}
