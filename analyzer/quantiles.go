package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/yourname/bgp-clock-offset/model"
)

// Classifier flags path events that do not reflect normal convergence.
type Classifier struct {
	RFDThreshold    time.Duration
	ZombieThreshold time.Duration
}

// Zombie reports a withdrawal window in which the path was never withdrawn,
// or only after the zombie threshold.
func (c Classifier) Zombie(ev model.PathEvent) bool {
	if !ev.Window.Down() {
		return false
	}
	return ev.MaxTsW == nil || *ev.MaxTsW > c.ZombieThreshold.Seconds()
}

// RFD reports a non-zombie event whose activity lasted past the route flap
// damping threshold.
func (c Classifier) RFD(ev model.PathEvent) bool {
	if c.Zombie(ev) {
		return false
	}
	thr := c.RFDThreshold.Seconds()
	return ev.MaxTsA > thr || (ev.MaxTsW != nil && *ev.MaxTsW > thr)
}

type pathSamples struct {
	minA, minAUp, maxAUp []float64
	minDown, maxWDown    []float64
	countA, countW       int
	up, down             int
	asPaths, ases, last  float64
	zombies, rfdUp       int
	rfdDown              int
}

// PathQuantiles computes per-path convergence quantiles for the events
// observed at collector. Zombie and RFD events are counted but left out of
// the quantiles; paths without any normal event produce no record.
func (c Classifier) PathQuantiles(collector model.CollectorID, events []model.PathEvent) []model.QuantileRecord {
	paths := make(map[pathKey]*pathSamples)
	for _, ev := range events {
		k := pathKey{monitor: ev.MonitorIP, prefix: ev.Prefix}
		s, ok := paths[k]
		if !ok {
			s = &pathSamples{}
			paths[k] = s
		}
		switch {
		case c.Zombie(ev):
			s.zombies++
			continue
		case c.RFD(ev):
			if ev.Window.Up() {
				s.rfdUp++
			} else {
				s.rfdDown++
			}
			continue
		}
		s.minA = append(s.minA, ev.MinTsA)
		s.countA += ev.CountA
		if ev.CountW != nil {
			s.countW += *ev.CountW
		}
		if ev.Window.Up() {
			s.up++
			s.minAUp = append(s.minAUp, ev.MinTsA)
			s.maxAUp = append(s.maxAUp, ev.MaxTsA)
			continue
		}
		s.down++
		s.minDown = append(s.minDown, ev.FirstActivity())
		if ev.MaxTsW != nil {
			s.maxWDown = append(s.maxWDown, *ev.MaxTsW)
		}
		s.asPaths += float64(ev.ASPathCountA)
		s.ases += float64(ev.DifferentASesCountA)
		s.last += float64(ev.LastASPathLengthA)
	}

	out := make([]model.QuantileRecord, 0, len(paths))
	for k, s := range paths {
		if s.up+s.down == 0 {
			continue
		}
		minA := sortedCopy(s.minA)
		minAUp, maxAUp := sortedCopy(s.minAUp), sortedCopy(s.maxAUp)
		minDown, maxWDown := sortedCopy(s.minDown), sortedCopy(s.maxWDown)
		q := model.QuantileRecord{
			MonitorIP:            k.monitor,
			Prefix:               k.prefix,
			MinAQ0:               Percentile(minA, 0),
			MinAQ50Up:            Percentile(minAUp, 0.5),
			MaxAQ50Up:            Percentile(maxAUp, 0.5),
			MinAQ90Up:            Percentile(minAUp, 0.9),
			MaxAQ90Up:            Percentile(maxAUp, 0.9),
			CountA:               s.countA,
			CountUpEvents:        s.up,
			MinQ50Down:           Percentile(minDown, 0.5),
			MaxWQ50Down:          Percentile(maxWDown, 0.5),
			MinQ90Down:           Percentile(minDown, 0.9),
			MaxWQ90Down:          Percentile(maxWDown, 0.9),
			CountW:               s.countW,
			CountDownEvents:      s.down,
			ASPathCountDown:      math.NaN(),
			ASesDifferentDown:    math.NaN(),
			LastASPathLengthDown: math.NaN(),
			ZombieCount:          s.zombies,
			RFDCountUp:           s.rfdUp,
			RFDCountDown:         s.rfdDown,
			Collector:            collector,
		}
		if s.down > 0 {
			q.ASPathCountDown, q.ASesDifferentDown, q.LastASPathLengthDown = s.asPaths, s.ases, s.last
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MonitorIP != out[j].MonitorIP {
			return out[i].MonitorIP < out[j].MonitorIP
		}
		return out[i].Prefix < out[j].Prefix
	})
	return out
}
