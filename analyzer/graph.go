package analyzer

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/yourname/bgp-clock-offset/model"
)

// Estimator turns directed minimum delays into per-window shortest
// distances over the complete collector graph.
//
// Edges and distances are laid out window-major: the row of pair i in
// window w is at index w*len(Pairs())+i.
type Estimator struct {
	collectors []model.CollectorID
	index      map[model.CollectorID]int
	pairs      []model.PairKey
	pairIndex  map[model.PairKey]int
	windows    int
	sentinel   float64
	workers    int
}

// NewEstimator returns an estimator over the given collectors. Duplicates
// are removed and the collectors sorted, so pair keys always have the
// smaller id first.
func NewEstimator(collectors []model.CollectorID, windows int, sentinel float64, workers int) *Estimator {
	sorted := append([]model.CollectorID(nil), collectors...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	e := &Estimator{
		index:     make(map[model.CollectorID]int, len(sorted)),
		pairIndex: make(map[model.PairKey]int),
		windows:   windows,
		sentinel:  sentinel,
		workers:   workers,
	}
	for _, c := range sorted {
		if _, dup := e.index[c]; dup {
			continue
		}
		e.index[c] = len(e.collectors)
		e.collectors = append(e.collectors, c)
	}
	for i := range e.collectors {
		for j := i + 1; j < len(e.collectors); j++ {
			k := model.PairKey{A: e.collectors[i], B: e.collectors[j]}
			e.pairIndex[k] = len(e.pairs)
			e.pairs = append(e.pairs, k)
		}
	}
	if e.workers <= 0 {
		e.workers = 1
	}
	return e
}

// Collectors returns the sorted collectors of the graph.
func (e *Estimator) Collectors() []model.CollectorID { return e.collectors }

// Pairs returns every unordered collector pair in canonical order.
func (e *Estimator) Pairs() []model.PairKey { return e.pairs }

// Windows returns the number of windows covered by the estimator.
func (e *Estimator) Windows() int { return e.windows }

type directedKey struct {
	src, dst model.CollectorID
	w        model.Window
}

// Assemble joins the directed delays against the complete index of pairs
// and windows. A direction that was not observed carries the sentinel, so
// exactly len(Pairs())*Windows() edges are returned.
func (e *Estimator) Assemble(delays []model.DirectedDelay) ([]model.PairEdge, model.EdgeStats) {
	var stats model.EdgeStats
	lookup := make(map[directedKey]float64, len(delays))
	for _, d := range delays {
		_, srcOK := e.index[d.Src]
		_, dstOK := e.index[d.Dst]
		if !srcOK || !dstOK || d.Src == d.Dst || int(d.Window) < 0 || int(d.Window) >= e.windows ||
			math.IsNaN(d.MinTime) || d.MinTime < 0 {
			stats.Ignored++
			continue
		}
		k := directedKey{src: d.Src, dst: d.Dst, w: d.Window}
		if cur, ok := lookup[k]; ok {
			stats.Duplicates++
			if d.MinTime >= cur {
				continue
			}
		}
		lookup[k] = d.MinTime
	}

	edges := make([]model.PairEdge, 0, len(e.pairs)*e.windows)
	for w := 0; w < e.windows; w++ {
		for _, p := range e.pairs {
			edge := model.PairEdge{Collector1: p.A, Collector2: p.B, Window: model.Window(w)}
			t1, ok1 := lookup[directedKey{src: p.A, dst: p.B, w: model.Window(w)}]
			t2, ok2 := lookup[directedKey{src: p.B, dst: p.A, w: model.Window(w)}]
			switch {
			case ok1 && ok2:
				stats.Measured++
			case ok1 || ok2:
				stats.OneWay++
			default:
				stats.Synthesized++
			}
			if !ok1 {
				t1 = e.sentinel
			}
			if !ok2 {
				t2 = e.sentinel
			}
			edge.MinTime1, edge.MinTime2 = t1, t2
			edge.Weight = math.Max(t1, t2)
			edges = append(edges, edge)
		}
	}
	stats.Edges = len(edges)
	return edges, stats
}

// ShortestPaths computes, for every window, all-pairs shortest distances
// over the complete weighted graph built from that window's edges. Windows
// are processed concurrently, each writing its own slice partition.
func (e *Estimator) ShortestPaths(ctx context.Context, edges []model.PairEdge) ([]model.ShortestDistance, error) {
	p := len(e.pairs)
	out := make([]model.ShortestDistance, p*e.windows)
	filled := make([]bool, len(out))
	for _, edge := range edges {
		i, ok := e.pairIndex[model.NewPairKey(edge.Collector1, edge.Collector2)]
		if !ok || int(edge.Window) < 0 || int(edge.Window) >= e.windows {
			return nil, errors.Errorf("edge %s-%s window %d outside the collector graph", edge.Collector1, edge.Collector2, edge.Window)
		}
		slot := int(edge.Window)*p + i
		if filled[slot] {
			return nil, errors.Errorf("duplicate edge %s-%s window %d", edge.Collector1, edge.Collector2, edge.Window)
		}
		filled[slot] = true
		out[slot].PairEdge = edge
	}
	for slot, ok := range filled {
		if !ok {
			k := e.pairs[slot%p]
			return nil, errors.Errorf("missing edge %s-%s window %d", k.A, k.B, slot/p)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for w := 0; w < e.windows; w++ {
		part := out[w*p : (w+1)*p]
		w := w
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.solveWindow(part)
			log.Debugf("window %d: %d pairs solved", w, len(part))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "shortest paths")
	}
	return out, nil
}

// solveWindow fills the Distance of every row of one window partition.
func (e *Estimator) solveWindow(part []model.ShortestDistance) {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range e.collectors {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, row := range part {
		u := simple.Node(int64(e.index[row.Collector1]))
		v := simple.Node(int64(e.index[row.Collector2]))
		g.SetWeightedEdge(g.NewWeightedEdge(u, v, row.Weight))
	}
	all := path.DijkstraAllPaths(g)
	for i := range part {
		u := int64(e.index[part[i].Collector1])
		v := int64(e.index[part[i].Collector2])
		part[i].Distance = all.Weight(u, v)
	}
}

// Estimate assembles the edges and solves every window.
func (e *Estimator) Estimate(ctx context.Context, delays []model.DirectedDelay) ([]model.ShortestDistance, model.EdgeStats, error) {
	edges, stats := e.Assemble(delays)
	distances, err := e.ShortestPaths(ctx, edges)
	if err != nil {
		return nil, stats, err
	}
	for _, d := range distances {
		if d.Distance < d.Weight {
			stats.Detours++
		}
	}
	return distances, stats, nil
}
