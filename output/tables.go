package output

import (
	"strconv"

	"github.com/yourname/bgp-clock-offset/model"
)

var (
	pathEventHeader = []string{
		"monitor_ip", "prefix", "min_ts_A", "max_ts_A", "count_A", "min_ts_W", "max_ts_W", "count_W",
		"as_path_count_A", "different_ases_count_A", "last_as_path_length_A", "event_number",
	}
	delayHeader    = []string{"collector_src", "collector_dst", "event_number", "min_time"}
	distanceHeader = []string{
		"collector_1", "collector_2", "event_number", "min_time_1", "min_time_2", "weight", "shortest_distance",
	}
	profileHeader  = []string{"collector_1", "collector_2", "p_0", "p_50", "p_90", "p_100", "event_count"}
	quantileHeader = []string{
		"monitor_ip", "prefix", "minA_q0", "minA_q50_UP", "maxA_q50_UP", "minA_q90_UP", "maxA_q90_UP",
		"count_A", "count_UP_events", "min_q50_DOWN", "maxW_q50_DOWN", "min_q90_DOWN", "maxW_q90_DOWN",
		"count_W", "count_DOWN_events", "as_path_count_DOWN", "ases_different_one_event_DOWN",
		"last_as_path_length_DOWN", "zombie_count", "rfd_count_UP", "rfd_count_DOWN", "collector",
	}
	correctedHeader = append(append([]string(nil), quantileHeader...),
		"remote_collector", "clock_p_50", "clock_p_90",
		"minA_q50_minus_clock", "minA_q50_plus_clock",
		"maxA_q50_minus_clock", "maxA_q50_plus_clock",
		"maxW_q50_minus_clock", "maxW_q50_plus_clock",
	)
)

// WritePathEvents writes a per-path event table.
func WritePathEvents(path string, events []model.PathEvent) error {
	return writeAtomic(path, pathEventHeader, func(emit func(...string) error) error {
		for _, e := range events {
			if err := emit(
				e.MonitorIP, e.Prefix,
				FormatFloat(e.MinTsA), FormatFloat(e.MaxTsA), strconv.Itoa(e.CountA),
				formatOptFloat(e.MinTsW), formatOptFloat(e.MaxTsW), formatOptInt(e.CountW),
				strconv.Itoa(e.ASPathCountA), strconv.Itoa(e.DifferentASesCountA), strconv.Itoa(e.LastASPathLengthA),
				strconv.Itoa(int(e.Window)),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteDirectedDelays writes the minimum delays observed at one collector.
func WriteDirectedDelays(path string, delays []model.DirectedDelay) error {
	return writeAtomic(path, delayHeader, func(emit func(...string) error) error {
		for _, d := range delays {
			if err := emit(string(d.Src), string(d.Dst), strconv.Itoa(int(d.Window)), FormatFloat(d.MinTime)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteShortestDistances writes one row per pair and window.
func WriteShortestDistances(path string, distances []model.ShortestDistance) error {
	return writeAtomic(path, distanceHeader, func(emit func(...string) error) error {
		for _, d := range distances {
			if err := emit(
				string(d.Collector1), string(d.Collector2), strconv.Itoa(int(d.Window)),
				FormatFloat(d.MinTime1), FormatFloat(d.MinTime2), FormatFloat(d.Weight), FormatFloat(d.Distance),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteProfiles writes clock error profiles.
func WriteProfiles(path string, profiles []model.ClockErrorProfile) error {
	return writeAtomic(path, profileHeader, func(emit func(...string) error) error {
		for _, p := range profiles {
			if err := emit(
				string(p.Collector1), string(p.Collector2),
				FormatFloat(p.P0), FormatFloat(p.P50), FormatFloat(p.P90), FormatFloat(p.P100),
				strconv.Itoa(p.Count),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func quantileCells(q model.QuantileRecord) []string {
	return []string{
		q.MonitorIP, q.Prefix,
		FormatFloat(q.MinAQ0), FormatFloat(q.MinAQ50Up), FormatFloat(q.MaxAQ50Up),
		FormatFloat(q.MinAQ90Up), FormatFloat(q.MaxAQ90Up),
		strconv.Itoa(q.CountA), strconv.Itoa(q.CountUpEvents),
		FormatFloat(q.MinQ50Down), FormatFloat(q.MaxWQ50Down), FormatFloat(q.MinQ90Down), FormatFloat(q.MaxWQ90Down),
		strconv.Itoa(q.CountW), strconv.Itoa(q.CountDownEvents),
		FormatFloat(q.ASPathCountDown), FormatFloat(q.ASesDifferentDown), FormatFloat(q.LastASPathLengthDown),
		strconv.Itoa(q.ZombieCount), strconv.Itoa(q.RFDCountUp), strconv.Itoa(q.RFDCountDown),
		string(q.Collector),
	}
}

// WriteQuantiles writes the path quantiles of one collector.
func WriteQuantiles(path string, records []model.QuantileRecord) error {
	return writeAtomic(path, quantileHeader, func(emit func(...string) error) error {
		for _, q := range records {
			if err := emit(quantileCells(q)...); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCorrected writes path quantiles with their clock error bounds.
func WriteCorrected(path string, records []model.CorrectedRecord) error {
	return writeAtomic(path, correctedHeader, func(emit func(...string) error) error {
		for _, r := range records {
			cells := append(quantileCells(r.QuantileRecord),
				string(r.RemoteCollector), FormatFloat(r.ClockP50), FormatFloat(r.ClockP90),
				FormatFloat(r.FirstAdvert.Lower), FormatFloat(r.FirstAdvert.Upper),
				FormatFloat(r.PreferredRoute.Lower), FormatFloat(r.PreferredRoute.Upper),
				FormatFloat(r.Withdrawal.Lower), FormatFloat(r.Withdrawal.Upper),
			)
			if err := emit(cells...); err != nil {
				return err
			}
		}
		return nil
	})
}
