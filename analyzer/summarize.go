package analyzer

import (
	"sort"
	"strings"
	"time"

	"github.com/yourname/bgp-clock-offset/model"
)

type pathKey struct {
	monitor string
	prefix  string
}

type msgAggregate struct {
	min, max float64
	count    int
	paths    map[string]bool
	ases     map[string]bool
	lastPath string
}

func (a *msgAggregate) add(ts float64, asPath string) {
	if a.count == 0 || ts < a.min {
		a.min = ts
	}
	if a.count == 0 || ts > a.max {
		a.max = ts
	}
	a.count++
	if asPath == "" {
		return
	}
	if a.paths == nil {
		a.paths = make(map[string]bool)
		a.ases = make(map[string]bool)
	}
	hops := strings.Fields(asPath)
	a.paths[strings.Join(dedupe(hops), " ")] = true
	for _, as := range hops {
		a.ases[as] = true
	}
	a.lastPath = asPath
}

// Summarize condenses the raw updates of one collector and window into one
// PathEvent per (monitor, prefix) that received at least one advertisement.
// Timestamps become seconds relative to start.
func Summarize(updates []model.UpdateRecord, w model.Window, start time.Time) []model.PathEvent {
	adverts := make(map[pathKey]*msgAggregate)
	withdrawals := make(map[pathKey]*msgAggregate)
	origin := start.Unix()
	for _, u := range updates {
		k := pathKey{monitor: u.MonitorIP, prefix: u.Prefix}
		target := adverts
		if u.Type == "W" {
			target = withdrawals
		} else if u.Type != "A" {
			continue
		}
		agg, ok := target[k]
		if !ok {
			agg = &msgAggregate{}
			target[k] = agg
		}
		agg.add(float64(u.Timestamp-origin), u.ASPath)
	}

	out := make([]model.PathEvent, 0, len(adverts))
	for k, a := range adverts {
		ev := model.PathEvent{
			MonitorIP:           k.monitor,
			Prefix:              k.prefix,
			MinTsA:              a.min,
			MaxTsA:              a.max,
			CountA:              a.count,
			ASPathCountA:        len(a.paths),
			DifferentASesCountA: len(a.ases),
			LastASPathLengthA:   len(dedupe(strings.Fields(a.lastPath))),
			Window:              w,
		}
		if wd, ok := withdrawals[k]; ok {
			minW, maxW, countW := wd.min, wd.max, wd.count
			ev.MinTsW, ev.MaxTsW, ev.CountW = &minW, &maxW, &countW
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MonitorIP != out[j].MonitorIP {
			return out[i].MonitorIP < out[j].MonitorIP
		}
		return out[i].Prefix < out[j].Prefix
	})
	return out
}

// dedupe removes repeated ASes, keeping the first occurrence of each, which
// strips path prepending.
func dedupe(hops []string) []string {
	seen := make(map[string]bool, len(hops))
	out := hops[:0:0]
	for _, h := range hops {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}
