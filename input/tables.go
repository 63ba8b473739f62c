package input

import (
	"github.com/yourname/bgp-clock-offset/model"
)

// FetchPathEvents reads a per-path event table of one collector and window.
func FetchPathEvents(path string) ([]model.PathEvent, error) {
	t, err := readTable(path, "monitor_ip", "prefix", "min_ts_A", "max_ts_A", "event_number")
	if err != nil {
		return nil, err
	}
	out := make([]model.PathEvent, 0, len(t.rows))
	err = t.each(func(d *rowDecoder) {
		out = append(out, model.PathEvent{
			MonitorIP:           d.key("monitor_ip"),
			Prefix:              d.key("prefix"),
			MinTsA:              d.value("min_ts_A"),
			MaxTsA:              d.value("max_ts_A"),
			CountA:              d.int("count_A"),
			MinTsW:              d.optFloat("min_ts_W"),
			MaxTsW:              d.optFloat("max_ts_W"),
			CountW:              d.optInt("count_W"),
			ASPathCountA:        d.int("as_path_count_A"),
			DifferentASesCountA: d.int("different_ases_count_A"),
			LastASPathLengthA:   d.int("last_as_path_length_A"),
			Window:              model.Window(d.index("event_number")),
		})
	})
	return out, err
}

// FetchDirectedDelays reads the per-window minimum delays observed at one
// collector.
func FetchDirectedDelays(path string) ([]model.DirectedDelay, error) {
	t, err := readTable(path, "collector_src", "collector_dst", "event_number", "min_time")
	if err != nil {
		return nil, err
	}
	out := make([]model.DirectedDelay, 0, len(t.rows))
	err = t.each(func(d *rowDecoder) {
		out = append(out, model.DirectedDelay{
			Src:     model.NewCollectorID(d.key("collector_src")),
			Dst:     model.NewCollectorID(d.key("collector_dst")),
			Window:  model.Window(d.index("event_number")),
			MinTime: d.value("min_time"),
		})
	})
	return out, err
}

// FetchShortestDistances reads the per-window shortest distance table.
func FetchShortestDistances(path string) ([]model.ShortestDistance, error) {
	t, err := readTable(path, "collector_1", "collector_2", "event_number", "shortest_distance")
	if err != nil {
		return nil, err
	}
	out := make([]model.ShortestDistance, 0, len(t.rows))
	err = t.each(func(d *rowDecoder) {
		out = append(out, model.ShortestDistance{
			PairEdge: model.PairEdge{
				Collector1: model.NewCollectorID(d.key("collector_1")),
				Collector2: model.NewCollectorID(d.key("collector_2")),
				Window:     model.Window(d.index("event_number")),
				MinTime1:   d.float("min_time_1"),
				MinTime2:   d.float("min_time_2"),
				Weight:     d.float("weight"),
			},
			Distance: d.value("shortest_distance"),
		})
	})
	return out, err
}

// FetchProfiles reads a clock error profile table.
func FetchProfiles(path string) ([]model.ClockErrorProfile, error) {
	t, err := readTable(path, "collector_1", "collector_2", "p_50", "p_90", "event_count")
	if err != nil {
		return nil, err
	}
	out := make([]model.ClockErrorProfile, 0, len(t.rows))
	err = t.each(func(d *rowDecoder) {
		out = append(out, model.ClockErrorProfile{
			Collector1: model.NewCollectorID(d.key("collector_1")),
			Collector2: model.NewCollectorID(d.key("collector_2")),
			P0:         d.float("p_0"),
			P50:        d.value("p_50"),
			P90:        d.value("p_90"),
			P100:       d.float("p_100"),
			Count:      d.index("event_count"),
		})
	})
	return out, err
}

// FetchQuantiles reads the path quantile table of one collector.
func FetchQuantiles(path string) ([]model.QuantileRecord, error) {
	t, err := readTable(path, "monitor_ip", "prefix", "collector")
	if err != nil {
		return nil, err
	}
	out := make([]model.QuantileRecord, 0, len(t.rows))
	err = t.each(func(d *rowDecoder) {
		out = append(out, decodeQuantile(d))
	})
	return out, err
}

func decodeQuantile(d *rowDecoder) model.QuantileRecord {
	return model.QuantileRecord{
		MonitorIP:            d.key("monitor_ip"),
		Prefix:               d.key("prefix"),
		MinAQ0:               d.float("minA_q0"),
		MinAQ50Up:            d.float("minA_q50_UP"),
		MaxAQ50Up:            d.float("maxA_q50_UP"),
		MinAQ90Up:            d.float("minA_q90_UP"),
		MaxAQ90Up:            d.float("maxA_q90_UP"),
		CountA:               d.int("count_A"),
		CountUpEvents:        d.int("count_UP_events"),
		MinQ50Down:           d.float("min_q50_DOWN"),
		MaxWQ50Down:          d.float("maxW_q50_DOWN"),
		MinQ90Down:           d.float("min_q90_DOWN"),
		MaxWQ90Down:          d.float("maxW_q90_DOWN"),
		CountW:               d.int("count_W"),
		CountDownEvents:      d.int("count_DOWN_events"),
		ASPathCountDown:      d.float("as_path_count_DOWN"),
		ASesDifferentDown:    d.float("ases_different_one_event_DOWN"),
		LastASPathLengthDown: d.float("last_as_path_length_DOWN"),
		ZombieCount:          d.int("zombie_count"),
		RFDCountUp:           d.int("rfd_count_UP"),
		RFDCountDown:         d.int("rfd_count_DOWN"),
		Collector:            model.NewCollectorID(d.key("collector")),
	}
}

// FetchCorrected reads the corrected quantile table of an experiment.
func FetchCorrected(path string) ([]model.CorrectedRecord, error) {
	t, err := readTable(path, "monitor_ip", "prefix", "collector", "remote_collector", "clock_p_50", "clock_p_90")
	if err != nil {
		return nil, err
	}
	out := make([]model.CorrectedRecord, 0, len(t.rows))
	err = t.each(func(d *rowDecoder) {
		out = append(out, model.CorrectedRecord{
			QuantileRecord:  decodeQuantile(d),
			RemoteCollector: model.NewCollectorID(d.key("remote_collector")),
			ClockP50:        d.float("clock_p_50"),
			ClockP90:        d.float("clock_p_90"),
			FirstAdvert: model.Bound{
				Raw: d.float("minA_q50_UP"), Lower: d.float("minA_q50_minus_clock"), Upper: d.float("minA_q50_plus_clock"),
			},
			PreferredRoute: model.Bound{
				Raw: d.float("maxA_q50_UP"), Lower: d.float("maxA_q50_minus_clock"), Upper: d.float("maxA_q50_plus_clock"),
			},
			Withdrawal: model.Bound{
				Raw: d.float("maxW_q50_DOWN"), Lower: d.float("maxW_q50_minus_clock"), Upper: d.float("maxW_q50_plus_clock"),
			},
		})
	})
	return out, err
}
