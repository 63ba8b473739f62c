package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/bgp-clock-offset/model"
	"github.com/yourname/bgp-clock-offset/utils"
)

var windowStart = time.Date(2009, 10, 1, 4, 0, 0, 0, time.UTC)

func at(offset int) int64 { return windowStart.Unix() + int64(offset) }

func ptr[T any](v T) *T { return &v }

func TestSummarizeCollapsesPrepending(t *testing.T) {
	updates := []model.UpdateRecord{
		{Type: "A", Timestamp: at(40), MonitorIP: "m0", Prefix: prefixRRC00, ASPath: "1 4 3"},
		{Type: "A", Timestamp: at(10), MonitorIP: "m0", Prefix: prefixRRC00, ASPath: "1 2 2 3"},
		{Type: "W", Timestamp: at(100), MonitorIP: "m0", Prefix: prefixRRC00},
		{Type: "A", Timestamp: at(5), MonitorIP: "m0", Prefix: prefixRRC01, ASPath: "5 5 5"},
		{Type: "W", Timestamp: at(7), MonitorIP: "m1", Prefix: prefixRRC00},
		{Type: "X", Timestamp: at(1), MonitorIP: "m2", Prefix: prefixRRC00, ASPath: "9"},
	}
	events := Summarize(updates, 3, windowStart)
	require.Len(t, events, 2, "withdrawal-only and unknown message paths produce no event")

	ev := events[0]
	assert.Equal(t, "m0", ev.MonitorIP)
	assert.Equal(t, prefixRRC00, ev.Prefix)
	assert.Equal(t, model.Window(3), ev.Window)
	assert.Equal(t, 10.0, ev.MinTsA)
	assert.Equal(t, 40.0, ev.MaxTsA)
	assert.Equal(t, 2, ev.CountA)
	assert.Equal(t, 2, ev.ASPathCountA)
	assert.Equal(t, 4, ev.DifferentASesCountA)
	assert.Equal(t, 3, ev.LastASPathLengthA)
	require.NotNil(t, ev.MinTsW)
	assert.Equal(t, 100.0, *ev.MinTsW)
	assert.Equal(t, 1, *ev.CountW)

	ev = events[1]
	assert.Equal(t, prefixRRC01, ev.Prefix)
	assert.Equal(t, 1, ev.LastASPathLengthA)
	assert.Equal(t, 1, ev.DifferentASesCountA)
	assert.Nil(t, ev.CountW)
}

func TestExtractMinDelays(t *testing.T) {
	events := []model.PathEvent{
		{MonitorIP: "m1", Prefix: prefixRRC00, MinTsA: 12, Window: 0},
		{MonitorIP: "m2", Prefix: prefixRRC00, MinTsA: 7, Window: 0},
		{MonitorIP: "m1", Prefix: "2001:7fb:fe00::/48", MinTsA: 9, MinTsW: ptr(4.0), Window: 0},
		{MonitorIP: "m1", Prefix: prefixRRC04, MinTsA: 3, Window: 1},
		{MonitorIP: "m1", Prefix: prefixRRC00, MinTsA: math.NaN(), Window: 1},
		{MonitorIP: "m1", Prefix: "10.0.0.0/8", MinTsA: 1, Window: 1},
	}
	delays, unknown := ExtractMinDelays("rrc01", events, model.DefaultConfig())
	assert.Equal(t, 1, unknown)
	assert.Equal(t, []model.DirectedDelay{
		{Src: "rrc00", Dst: "rrc01", Window: 0, MinTime: 4},
		{Src: "rrc04", Dst: "rrc01", Window: 1, MinTime: 3},
	}, delays)
}

func TestFilterGuardsAndAnchors(t *testing.T) {
	cfg := model.DefaultConfig()
	f := NewFilter(cfg)
	rng := utils.WindowRange(windowStart.Add(-4*time.Hour), 0)
	require.Equal(t, windowStart, rng.Start)

	events := []model.PathEvent{
		{MonitorIP: "m1", Prefix: "10.0.0.0/8", MaxTsA: 1},
		{MonitorIP: "m1", Prefix: prefixRRC00, MaxTsA: 7141},
		{MonitorIP: "m1", Prefix: prefixRRC01, MaxTsA: 7140},
		{MonitorIP: "m2", Prefix: prefixRRC00, MaxTsA: 10},
		{MonitorIP: "m3", Prefix: prefixRRC00, MaxTsA: 10},
	}
	anchors := []model.UpdateRecord{
		{Type: "A", Timestamp: rng.Start.Unix() + 60, MonitorIP: "m2", Prefix: "84.205.80.0/24"},
		{Type: "A", Timestamp: rng.End.Unix() - 300, MonitorIP: "m3", Prefix: "84.205.80.0/24"},
	}
	kept, stats := f.Window(events, anchors, rng)
	require.Len(t, kept, 1)
	assert.Equal(t, prefixRRC01, kept[0].Prefix)
	assert.Equal(t, FilterStats{NonBeacon: 1, ClockGuard: 1, Anchored: 2, Kept: 1}, stats)

	next := model.Window(1)
	second := []model.PathEvent{
		{MonitorIP: "m2", Prefix: prefixRRC00, MaxTsA: 10, Window: next},
		{MonitorIP: "m3", Prefix: prefixRRC00, MaxTsA: 10, Window: next},
	}
	kept, stats = f.Window(second, nil, utils.WindowRange(windowStart.Add(-4*time.Hour), 1))
	require.Len(t, kept, 1, "the anchor tail of the previous window suppresses m3")
	assert.Equal(t, "m2", kept[0].MonitorIP)
	assert.Equal(t, 1, stats.Anchored)

	kept, _ = f.Window(second, nil, utils.WindowRange(windowStart.Add(-4*time.Hour), 2))
	assert.Len(t, kept, 2)
}

func TestFilterSkipCarriesAnchorTail(t *testing.T) {
	f := NewFilter(model.DefaultConfig())
	first := utils.WindowRange(windowStart.Add(-4*time.Hour), 0)
	f.Skip([]model.UpdateRecord{
		{Type: "W", Timestamp: first.End.Unix() - 60, MonitorIP: "m1", Prefix: "2001:7fb:ff00::/48"},
	}, first)

	kept, stats := f.Window([]model.PathEvent{
		{MonitorIP: "m1", Prefix: "2001:7fb:fe00::/48", MaxTsA: 10, Window: 1},
	}, nil, utils.WindowRange(windowStart.Add(-4*time.Hour), 1))
	assert.Empty(t, kept)
	assert.Equal(t, 1, stats.Anchored)
}

func classifier() Classifier {
	return Classifier{RFDThreshold: 20 * time.Minute, ZombieThreshold: 90 * time.Minute}
}

func TestClassifier(t *testing.T) {
	c := classifier()
	assert.True(t, c.Zombie(model.PathEvent{Window: 1, MaxTsA: 5}))
	assert.True(t, c.Zombie(model.PathEvent{Window: 1, MaxTsA: 5, MaxTsW: ptr(5401.0)}))
	assert.False(t, c.Zombie(model.PathEvent{Window: 0, MaxTsA: 5}))
	assert.False(t, c.RFD(model.PathEvent{Window: 1, MaxTsA: 5000}), "zombies are never RFD")
	assert.True(t, c.RFD(model.PathEvent{Window: 0, MaxTsA: 1201}))
	assert.True(t, c.RFD(model.PathEvent{Window: 1, MaxTsA: 5, MaxTsW: ptr(1300.0)}))
	assert.False(t, c.RFD(model.PathEvent{Window: 1, MaxTsA: 5, MaxTsW: ptr(1200.0)}))
}

func TestPathQuantiles(t *testing.T) {
	down := func(w model.Window, minA, maxW float64) model.PathEvent {
		return model.PathEvent{
			MonitorIP: "m1", Prefix: prefixRRC00, Window: w,
			MinTsA: minA, MaxTsA: minA, CountA: 1,
			MinTsW: ptr(maxW), MaxTsW: ptr(maxW), CountW: ptr(1),
			ASPathCountA: 2, DifferentASesCountA: 4, LastASPathLengthA: 3,
		}
	}
	events := []model.PathEvent{
		{MonitorIP: "m1", Prefix: prefixRRC00, Window: 0, MinTsA: 5, MaxTsA: 30, CountA: 3},
		{MonitorIP: "m1", Prefix: prefixRRC00, Window: 2, MinTsA: 10, MaxTsA: 40, CountA: 3},
		{MonitorIP: "m1", Prefix: prefixRRC00, Window: 4, MinTsA: 20, MaxTsA: 1500, CountA: 9},
		down(1, 8, 60),
		{MonitorIP: "m1", Prefix: prefixRRC00, Window: 3, MinTsA: 8, MaxTsA: 8, CountA: 1},
		down(5, 8, 2000),
		{MonitorIP: "m2", Prefix: prefixRRC00, Window: 1, MinTsA: 3, MaxTsA: 3, CountA: 1},
		{MonitorIP: "m3", Prefix: prefixRRC01, Window: 0, MinTsA: 4, MaxTsA: 6, CountA: 2},
	}
	records := classifier().PathQuantiles("rrc04", events)
	require.Len(t, records, 2, "a path with only zombie events produces no record")

	q := records[0]
	assert.Equal(t, "m1", q.MonitorIP)
	assert.Equal(t, model.CollectorID("rrc04"), q.Collector)
	assert.Equal(t, 5.0, q.MinAQ0)
	assert.Equal(t, 5.0, q.MinAQ50Up)
	assert.Equal(t, 30.0, q.MaxAQ50Up)
	assert.Equal(t, 5.0, q.MinAQ90Up)
	assert.Equal(t, 30.0, q.MaxAQ90Up)
	assert.Equal(t, 7, q.CountA)
	assert.Equal(t, 2, q.CountUpEvents)
	assert.Equal(t, 8.0, q.MinQ50Down)
	assert.Equal(t, 60.0, q.MaxWQ50Down)
	assert.Equal(t, 1, q.CountW)
	assert.Equal(t, 1, q.CountDownEvents)
	assert.Equal(t, 2.0, q.ASPathCountDown)
	assert.Equal(t, 4.0, q.ASesDifferentDown)
	assert.Equal(t, 3.0, q.LastASPathLengthDown)
	assert.Equal(t, 1, q.ZombieCount)
	assert.Equal(t, 1, q.RFDCountUp)
	assert.Equal(t, 1, q.RFDCountDown)
	assert.True(t, q.Complete())

	up := records[1]
	assert.Equal(t, "m3", up.MonitorIP)
	assert.Equal(t, 1, up.CountUpEvents)
	assert.True(t, math.IsNaN(up.MaxWQ50Down))
	assert.True(t, math.IsNaN(up.ASPathCountDown))
	assert.False(t, up.Complete())
}

func TestConvergenceStatistics(t *testing.T) {
	record := func(prefix, monitor string, rfdUp int, raw, clock float64) model.CorrectedRecord {
		q := quantileRecord("rrc00", prefix, raw, raw, raw)
		q.MonitorIP = monitor
		q.RFDCountUp = rfdUp
		q.ZombieCount = 6
		return model.CorrectedRecord{
			QuantileRecord: q,
			ClockP90:       clock,
			FirstAdvert:    model.NewBound(raw, clock),
			PreferredRoute: model.NewBound(raw, clock),
			Withdrawal:     model.NewBound(raw, clock),
		}
	}
	thin := record(prefixRRC01, "m9", 0, 1, 1)
	thin.CountDownEvents = 45
	stats := ConvergenceStatistics([]model.CorrectedRecord{
		record(prefixRRC00, "m1", 0, 10, 2),
		record(prefixRRC01, "m1", 12, 20, 4),
		record("2001:7fb:fe00::/48", "m2", 0, 30, 0),
		thin,
	}, 45, model.ClockP90)
	require.Len(t, stats, 2)

	v4 := stats[0]
	assert.Equal(t, "IPv4", v4.Family)
	assert.Equal(t, 2, v4.Pairs)
	assert.Equal(t, 1, v4.Monitors)
	assert.Equal(t, 12, v4.Zombies)
	assert.InDelta(t, 0.1, v4.ZombieFraction, 1e-9)
	assert.InDelta(t, 0.05, v4.RFDFraction, 1e-9)
	assert.Equal(t, 0.0, v4.RFDDownShare)
	assert.Equal(t, 0.5, v4.PairsWithRFD)
	assert.Equal(t, 0.5, v4.PairsWithManyRFD)
	assert.Equal(t, 3.0, v4.MeanClockError)
	assert.Equal(t, model.IntervalStats{MeanRaw: 15, MeanUpper: 18}, v4.FirstAdvert)
	assert.InDelta(t, 200.0/120, v4.MessagesPerUp, 1e-9)
	assert.InDelta(t, 1.5, v4.ASPathCountDown, 1e-9)

	v6 := stats[1]
	assert.Equal(t, "IPv6", v6.Family)
	assert.Equal(t, 1, v6.Pairs)
	assert.True(t, math.IsNaN(v6.RFDDownShare))
}
