package model

import (
	"math"
	"strings"
)

// CollectorID identifies a route collector (vantage point), always lower-cased.
type CollectorID string

// NewCollectorID normalises a collector name such as "RRC00" into "rrc00".
func NewCollectorID(name string) CollectorID {
	return CollectorID(strings.ToLower(strings.TrimSpace(name)))
}

// Window is the 0-based index of a two hour beacon event within an experiment.
type Window int

// Up reports whether the window is an announcement phase.
func (w Window) Up() bool { return w%2 == 0 }

// Down reports whether the window is a withdrawal phase.
func (w Window) Down() bool { return w%2 == 1 }

// Phase selects which windows take part in an aggregation.
type Phase int

const (
	PhaseAll Phase = iota
	PhaseUp
	PhaseDown
)

// PhaseFromFlags maps the up-only / down-only switches to a Phase.
func PhaseFromFlags(onlyUp, onlyDown bool) (Phase, error) {
	switch {
	case onlyUp && onlyDown:
		return PhaseAll, ErrConflictingPhase
	case onlyUp:
		return PhaseUp, nil
	case onlyDown:
		return PhaseDown, nil
	}
	return PhaseAll, nil
}

// ParsePhase parses "all", "up" or "down".
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return PhaseAll, nil
	case "up":
		return PhaseUp, nil
	case "down":
		return PhaseDown, nil
	}
	return PhaseAll, ErrUnknownPhase
}

// Includes reports whether window w belongs to the phase.
func (p Phase) Includes(w Window) bool {
	switch p {
	case PhaseUp:
		return w.Up()
	case PhaseDown:
		return w.Down()
	}
	return true
}

func (p Phase) String() string {
	switch p {
	case PhaseUp:
		return "up"
	case PhaseDown:
		return "down"
	}
	return "all"
}

// PairKey is an unordered collector pair, smaller id first.
type PairKey struct {
	A, B CollectorID
}

// NewPairKey returns the canonical key for {a, b}.
func NewPairKey(a, b CollectorID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// DirectedDelay is the fastest propagation observed in one window from a
// beacon originated at Src to its first sighting at Dst, in seconds.
type DirectedDelay struct {
	Src     CollectorID
	Dst     CollectorID
	Window  Window
	MinTime float64
}

// PairEdge is the undirected edge between two collectors for one window.
// MinTime1 is the delay Collector1 -> Collector2 and MinTime2 the reverse;
// a missing direction carries the sentinel.
type PairEdge struct {
	Collector1 CollectorID
	Collector2 CollectorID
	Window     Window
	MinTime1   float64
	MinTime2   float64
	Weight     float64
}

// Key returns the unordered pair of the edge.
func (e PairEdge) Key() PairKey { return NewPairKey(e.Collector1, e.Collector2) }

// ShortestDistance is the length of the lightest path between the edge's
// collectors in the window graph. Distance never exceeds Weight.
type ShortestDistance struct {
	PairEdge
	Distance float64
}

// Measured reports whether the distance is a real bound rather than an
// artifact of sentinel-only edges.
func (d ShortestDistance) Measured(ceiling float64) bool {
	return d.Distance < ceiling
}

// ClockErrorProfile holds percentiles of the shortest distance for one
// collector pair across the windows of an experiment.
type ClockErrorProfile struct {
	Collector1 CollectorID `json:"collector_1"`
	Collector2 CollectorID `json:"collector_2"`
	P0         float64     `json:"p_0"`
	P50        float64     `json:"p_50"`
	P90        float64     `json:"p_90"`
	P100       float64     `json:"p_100"`
	Count      int         `json:"event_count"`
}

// Key returns the unordered pair of the profile.
func (p ClockErrorProfile) Key() PairKey { return NewPairKey(p.Collector1, p.Collector2) }

// Reliable reports whether enough windows contributed to the profile.
func (p ClockErrorProfile) Reliable(minSamples int) bool {
	return p.Count > minSamples
}

// Percentile returns the profile value selected by name.
func (p ClockErrorProfile) Percentile(which ClockPercentile) float64 {
	if which == ClockP50 {
		return p.P50
	}
	return p.P90
}

// ClockPercentile names the profile percentile used as the clock error.
type ClockPercentile string

const (
	ClockP50 ClockPercentile = "p50"
	ClockP90 ClockPercentile = "p90"
)

// UpdateRecord is a single BGP message as delivered by the update source.
type UpdateRecord struct {
	Type      string // "A" or "W"
	Timestamp int64  // unix seconds
	MonitorIP string
	MonitorAS string
	Prefix    string
	ASPath    string // empty for withdrawals
}

// PathEvent summarises the activity of one path (monitor, prefix) in one
// window. Timestamps are seconds relative to the window start.
type PathEvent struct {
	MonitorIP           string
	Prefix              string
	MinTsA              float64
	MaxTsA              float64
	CountA              int
	MinTsW              *float64
	MaxTsW              *float64
	CountW              *int
	ASPathCountA        int
	DifferentASesCountA int
	LastASPathLengthA   int
	Window              Window
}

// FirstActivity is the earliest advertisement or withdrawal of the path.
func (e PathEvent) FirstActivity() float64 {
	if e.MinTsW != nil && (*e.MinTsW < e.MinTsA || math.IsNaN(e.MinTsA)) {
		return *e.MinTsW
	}
	return e.MinTsA
}

// LastActivity is the latest advertisement or withdrawal of the path.
func (e PathEvent) LastActivity() float64 {
	if e.MaxTsW != nil && (*e.MaxTsW > e.MaxTsA || math.IsNaN(e.MaxTsA)) {
		return *e.MaxTsW
	}
	return e.MaxTsA
}

// QuantileRecord holds the convergence quantiles of one path observed at
// Collector. Statistics without samples are NaN.
type QuantileRecord struct {
	MonitorIP            string
	Prefix               string
	MinAQ0               float64
	MinAQ50Up            float64
	MaxAQ50Up            float64
	MinAQ90Up            float64
	MaxAQ90Up            float64
	CountA               int
	CountUpEvents        int
	MinQ50Down           float64
	MaxWQ50Down          float64
	MinQ90Down           float64
	MaxWQ90Down          float64
	CountW               int
	CountDownEvents      int
	ASPathCountDown      float64
	ASesDifferentDown    float64
	LastASPathLengthDown float64
	ZombieCount          int
	RFDCountUp           int
	RFDCountDown         int
	Collector            CollectorID
}

// Complete reports whether every statistic of the record is defined.
func (q QuantileRecord) Complete() bool {
	for _, v := range []float64{
		q.MinAQ0, q.MinAQ50Up, q.MaxAQ50Up, q.MinAQ90Up, q.MaxAQ90Up,
		q.MinQ50Down, q.MaxWQ50Down, q.MinQ90Down, q.MaxWQ90Down,
		q.ASPathCountDown, q.ASesDifferentDown, q.LastASPathLengthDown,
	} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// IPv6 reports whether the record's prefix is an IPv6 beacon.
func (q QuantileRecord) IPv6() bool { return strings.Contains(q.Prefix, ":") }

// Bound is a latency quantile widened by the clock error.
type Bound struct {
	Raw   float64
	Lower float64
	Upper float64
}

// NewBound returns raw +/- clockErr with the lower bound floored at zero.
func NewBound(raw, clockErr float64) Bound {
	return Bound{Raw: raw, Lower: math.Max(raw-clockErr, 0), Upper: raw + clockErr}
}

// CorrectedRecord is a QuantileRecord with the clock error of its
// (observer, origin) collector pair applied.
type CorrectedRecord struct {
	QuantileRecord
	RemoteCollector CollectorID
	ClockP50        float64
	ClockP90        float64
	FirstAdvert     Bound // time to first advertisement, up windows
	PreferredRoute  Bound // time to last (preferred) route, up windows
	Withdrawal      Bound // time to withdrawal, down windows
}

// ClockError returns the clock percentile applied to the record.
func (r CorrectedRecord) ClockError(which ClockPercentile) float64 {
	if which == ClockP50 {
		return r.ClockP50
	}
	return r.ClockP90
}
