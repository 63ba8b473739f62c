package analyzer

import (
	"time"

	"github.com/yourname/bgp-clock-offset/model"
	"github.com/yourname/bgp-clock-offset/utils"
)

// FilterStats counts the rows removed from one window.
type FilterStats struct {
	NonBeacon  int
	ClockGuard int
	Anchored   int
	Kept       int
}

// Filter cross-validates beacon path events against anchor activity. It is
// stateful: windows of one collector must be passed in order, since the
// anchor activity at the end of a window also suppresses the next one.
type Filter struct {
	beacons  map[string]bool
	anchors  map[string]string // anchor prefix -> beacon prefix
	limit    float64
	lookback time.Duration
	tail     map[pathKey]bool
}

// NewFilter builds a filter for the beacon table and guards of cfg.
func NewFilter(cfg model.Config) *Filter {
	f := &Filter{
		beacons:  make(map[string]bool),
		anchors:  make(map[string]string),
		limit:    (cfg.WindowLength - cfg.ClockGuard).Seconds(),
		lookback: cfg.AnchorLookback,
	}
	for _, p := range cfg.BeaconPrefixes() {
		f.beacons[p] = true
	}
	for _, b := range cfg.Beacons {
		if beacon, ok := cfg.AnchorBeacon(b.Anchor); ok {
			f.anchors[b.Anchor] = beacon
		}
	}
	return f
}

// Window filters the events of one window. anchors are the raw anchor
// updates seen by the collector in that window, rng its time range.
func (f *Filter) Window(events []model.PathEvent, anchors []model.UpdateRecord, rng utils.TimeRange) ([]model.PathEvent, FilterStats) {
	suppressed := f.anchored(anchors)
	var stats FilterStats
	out := make([]model.PathEvent, 0, len(events))
	for _, ev := range events {
		switch {
		case !f.beacons[ev.Prefix]:
			stats.NonBeacon++
		case ev.LastActivity() > f.limit:
			stats.ClockGuard++
		case suppressed[pathKey{monitor: ev.MonitorIP, prefix: ev.Prefix}]:
			stats.Anchored++
		default:
			out = append(out, ev)
		}
	}
	stats.Kept = len(out)
	f.Skip(anchors, rng)
	return out, stats
}

// Skip advances the filter over a window without beacon data, carrying its
// anchor tail forward.
func (f *Filter) Skip(anchors []model.UpdateRecord, rng utils.TimeRange) {
	f.tail = make(map[pathKey]bool)
	from := rng.End.Add(-f.lookback).Unix()
	for _, u := range anchors {
		if u.Timestamp <= from {
			continue
		}
		if beacon, ok := f.anchors[u.Prefix]; ok {
			f.tail[pathKey{monitor: u.MonitorIP, prefix: beacon}] = true
		}
	}
}

// anchored returns the (monitor, beacon) paths whose anchor was active in
// this window or at the end of the previous one.
func (f *Filter) anchored(anchors []model.UpdateRecord) map[pathKey]bool {
	out := make(map[pathKey]bool, len(anchors)+len(f.tail))
	for k := range f.tail {
		out[k] = true
	}
	for _, u := range anchors {
		if beacon, ok := f.anchors[u.Prefix]; ok {
			out[pathKey{monitor: u.MonitorIP, prefix: beacon}] = true
		}
	}
	return out
}
