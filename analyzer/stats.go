package analyzer

import (
	"github.com/yourname/bgp-clock-offset/model"
)

// ManyRFDEvents is the per-path RFD count above which a path is reported as
// heavily damped.
const ManyRFDEvents = 10

// ConvergenceStatistics summarises corrected records with more than
// minEvents up and down events, separately for IPv4 and IPv6 beacons.
func ConvergenceStatistics(records []model.CorrectedRecord, minEvents int, which model.ClockPercentile) []model.ConvergenceStats {
	var v4, v6 []model.CorrectedRecord
	for _, r := range records {
		if r.CountUpEvents <= minEvents || r.CountDownEvents <= minEvents {
			continue
		}
		if r.IPv6() {
			v6 = append(v6, r)
		} else {
			v4 = append(v4, r)
		}
	}
	return []model.ConvergenceStats{
		familyStats("IPv4", v4, which),
		familyStats("IPv6", v6, which),
	}
}

func familyStats(family string, records []model.CorrectedRecord, which model.ClockPercentile) model.ConvergenceStats {
	s := model.ConvergenceStats{Family: family, Pairs: len(records)}
	monitors := make(map[string]bool)
	var (
		zombies, rfdUp, rfdDown, withRFD, manyRFD int
		upEvents, downEvents, countA, countW      int
		asPaths, ases, last                       float64
		clockErr                                  []float64
		first, firstUp                            []float64
		pref, prefUp                              []float64
		wd, wdUp                                  []float64
	)
	for _, r := range records {
		monitors[r.MonitorIP] = true
		zombies += r.ZombieCount
		rfdUp += r.RFDCountUp
		rfdDown += r.RFDCountDown
		if r.RFDCountUp > 0 || r.RFDCountDown > 0 {
			withRFD++
		}
		if r.RFDCountUp > ManyRFDEvents || r.RFDCountDown > ManyRFDEvents {
			manyRFD++
		}
		upEvents += r.CountUpEvents
		downEvents += r.CountDownEvents
		countA += r.CountA
		countW += r.CountW
		asPaths += r.ASPathCountDown
		ases += r.ASesDifferentDown
		last += r.LastASPathLengthDown
		clockErr = append(clockErr, r.ClockError(which))
		first, firstUp = append(first, r.FirstAdvert.Raw), append(firstUp, r.FirstAdvert.Upper)
		pref, prefUp = append(pref, r.PreferredRoute.Raw), append(prefUp, r.PreferredRoute.Upper)
		wd, wdUp = append(wd, r.Withdrawal.Raw), append(wdUp, r.Withdrawal.Upper)
	}
	s.Monitors = len(monitors)
	s.Zombies = zombies
	s.ZombieFraction = ratio(float64(zombies), float64(downEvents))
	rfd := float64(rfdUp + rfdDown)
	s.RFDFraction = ratio(rfd, float64(upEvents+downEvents))
	s.RFDDownShare = ratio(float64(rfdDown), rfd)
	s.PairsWithRFD = ratio(float64(withRFD), float64(len(records)))
	s.PairsWithManyRFD = ratio(float64(manyRFD), float64(len(records)))
	s.MeanClockError = mean(clockErr)
	s.FirstAdvert = model.IntervalStats{MeanRaw: mean(first), MeanUpper: mean(firstUp)}
	s.PreferredRoute = model.IntervalStats{MeanRaw: mean(pref), MeanUpper: mean(prefUp)}
	s.Withdrawal = model.IntervalStats{MeanRaw: mean(wd), MeanUpper: mean(wdUp)}
	s.MessagesPerUp = ratio(float64(countA), float64(upEvents))
	s.MessagesPerDown = ratio(float64(countA+countW), float64(downEvents))
	s.ASPathCountDown = ratio(asPaths, float64(downEvents))
	s.ASesDifferentDown = ratio(ases, float64(downEvents))
	s.LastASPathLengthDown = ratio(last, float64(downEvents))
	return s
}
