package analyzer

import (
	"math"
	"sort"

	"github.com/yourname/bgp-clock-offset/model"
)

// PrefixOwner maps a beacon prefix to the collector that originates it.
type PrefixOwner interface {
	BeaconCollector(prefix string) (model.CollectorID, bool)
}

type originWindow struct {
	src model.CollectorID
	w   model.Window
}

// ExtractMinDelays returns, for every (origin collector, window), the
// fastest first sighting at dst of any beacon of that origin, over all
// monitors and both address families. Events of prefixes without an owner
// are skipped and counted.
func ExtractMinDelays(dst model.CollectorID, events []model.PathEvent, owner PrefixOwner) ([]model.DirectedDelay, int) {
	mins := make(map[originWindow]float64)
	unknown := 0
	for _, ev := range events {
		src, ok := owner.BeaconCollector(ev.Prefix)
		if !ok {
			unknown++
			continue
		}
		t := ev.FirstActivity()
		if math.IsNaN(t) {
			continue
		}
		k := originWindow{src: src, w: ev.Window}
		if cur, ok := mins[k]; !ok || t < cur {
			mins[k] = t
		}
	}

	out := make([]model.DirectedDelay, 0, len(mins))
	for k, t := range mins {
		out = append(out, model.DirectedDelay{Src: k.src, Dst: dst, Window: k.w, MinTime: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return out[i].Src < out[j].Src
		}
		return out[i].Window < out[j].Window
	})
	return out, unknown
}
