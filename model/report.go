package model

import "time"

// ProfileSummary condenses a set of clock error profiles.
type ProfileSummary struct {
	Phase        Phase
	Total        int
	Insufficient int
	Reliable     int
	MeanP0       float64
	MeanP50      float64
	MeanP90      float64
	MeanP100     float64
}

// EdgeStats counts how the pair edges of an experiment were assembled.
type EdgeStats struct {
	Edges       int // pairs x windows
	Measured    int // both directions observed
	OneWay      int // one direction observed
	Synthesized int // no direction observed, sentinel weight
	Ignored     int // self pairs, unknown collectors or out-of-range windows
	Duplicates  int // repeated directed rows, minimum kept
	Detours     int // rows whose shortest distance is below the direct weight
}

// CorrectionStats counts the fate of quantile records in a correction run.
type CorrectionStats struct {
	Read           int
	Incomplete     int
	FewEvents      int
	SameCollector  int
	MissingProfile int
	Unreliable     int
	UnknownPrefix  int
	Corrected      int
}

// Dropped returns the number of records that did not receive a correction.
func (s CorrectionStats) Dropped() int {
	return s.Incomplete + s.FewEvents + s.MissingProfile + s.Unreliable + s.UnknownPrefix
}

// Report describes the outcome of a pipeline run.
type Report struct {
	RunID           string
	Experiment      string
	Started         time.Time
	Finished        time.Time
	Collectors      int
	Windows         int
	MissingFiles    int
	MalformedFiles  int // present but unparseable, treated as missing
	EmptyCollectors []CollectorID
	Edges           EdgeStats
	Profiles        []ProfileSummary
	Correction      CorrectionStats
}

// IntervalStats averages one convergence interval before and after the
// clock error is added.
type IntervalStats struct {
	MeanRaw   float64
	MeanUpper float64
}

// ConvergenceStats summarises corrected records of one address family.
type ConvergenceStats struct {
	Family   string
	Pairs    int
	Monitors int

	Zombies          int
	ZombieFraction   float64
	RFDFraction      float64
	RFDDownShare     float64
	PairsWithRFD     float64
	PairsWithManyRFD float64

	MeanClockError float64
	FirstAdvert    IntervalStats
	PreferredRoute IntervalStats
	Withdrawal     IntervalStats

	MessagesPerUp        float64
	MessagesPerDown      float64
	ASPathCountDown      float64
	ASesDifferentDown    float64
	LastASPathLengthDown float64
}
