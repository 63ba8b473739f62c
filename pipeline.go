// Package clockoffset estimates the clock offset between BGP route
// collectors from beacon propagation delays and applies it to per-path
// convergence quantiles.
package clockoffset

import (
	"context"
	"io/fs"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourname/bgp-clock-offset/analyzer"
	"github.com/yourname/bgp-clock-offset/input"
	"github.com/yourname/bgp-clock-offset/model"
	"github.com/yourname/bgp-clock-offset/output"
	"github.com/yourname/bgp-clock-offset/store"
)

// Pipeline binds a configuration and an experiment to the files of its
// result directory. Each stage reads the artifacts of the previous one, so
// stages can be run one at a time or chained by Run.
type Pipeline struct {
	cfg    model.Config
	exp    model.Experiment
	layout Layout
	log    *log.Entry
	store  store.Store

	mu     sync.Mutex
	report model.Report
}

// New returns a pipeline for the named experiment.
func New(cfg model.Config, experiment string) (*Pipeline, error) {
	exp, err := cfg.Experiment(experiment)
	if err != nil {
		return nil, err
	}
	layout, err := NewLayout(cfg, experiment)
	if err != nil {
		return nil, err
	}
	return NewWithLayout(cfg, exp, layout), nil
}

// NewWithLayout returns a pipeline over an explicit file layout.
func NewWithLayout(cfg model.Config, exp model.Experiment, layout Layout) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		exp:    exp,
		layout: layout,
		log:    log.WithField("experiment", exp.Name),
	}
	p.resetReport()
	return p
}

// WithStore archives the results of Run in s.
func (p *Pipeline) WithStore(s store.Store) *Pipeline {
	p.store = s
	return p
}

// Layout returns the file layout of the pipeline.
func (p *Pipeline) Layout() Layout { return p.layout }

// Report returns the counters accumulated since the pipeline was created
// or Run last started.
func (p *Pipeline) Report() model.Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := p.report
	r.EmptyCollectors = append([]model.CollectorID(nil), p.report.EmptyCollectors...)
	r.Profiles = append([]model.ProfileSummary(nil), p.report.Profiles...)
	return r
}

func (p *Pipeline) resetReport() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report = model.Report{
		RunID:      uuid.NewString(),
		Experiment: p.exp.Name,
		Started:    time.Now().UTC(),
		Collectors: len(p.cfg.Collectors()),
		Windows:    p.exp.Windows(),
	}
}

func (p *Pipeline) update(fn func(r *model.Report)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.report)
}

// unreadable reports whether err makes a per-collector or per-window file
// missing data, counting it if so. Absent files are routine; files that do
// not parse are warned about.
func (p *Pipeline) unreadable(err error, entry *log.Entry, path string) bool {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		p.update(func(r *model.Report) { r.MissingFiles++ })
		entry.Debugf("missing %s", path)
	case errors.Is(err, input.ErrMalformed):
		p.update(func(r *model.Report) { r.MalformedFiles++ })
		entry.WithError(err).Warnf("skipping malformed %s", path)
	default:
		return false
	}
	return true
}

// forEachCollector runs fn for every configured collector, at most
// cfg.Parallelism() at a time.
func (p *Pipeline) forEachCollector(ctx context.Context, fn func(ctx context.Context, c model.CollectorID) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Parallelism())
	for _, c := range p.cfg.Collectors() {
		c := c
		g.Go(func() error { return fn(ctx, c) })
	}
	return g.Wait()
}

// Summarize turns the raw beacon dumps of a collector into per-path event
// tables. It returns the number of windows written.
func (p *Pipeline) Summarize(ctx context.Context, c model.CollectorID) (int, error) {
	entry := p.log.WithFields(log.Fields{"collector": c, "stage": "summarize"})
	written := 0
	for w := model.Window(0); int(w) < p.exp.Windows(); w++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path := p.layout.Updates(c, w)
		updates, err := input.FetchUpdates(path)
		if err != nil {
			if p.unreadable(err, entry, path) {
				continue
			}
			return written, err
		}
		if len(updates) == 0 {
			entry.Debugf("window %d: empty update dump", w)
			continue
		}
		events := analyzer.Summarize(updates, w, p.exp.WindowRange(w).Start)
		if err := output.WritePathEvents(p.layout.PathEvents(c, w), events); err != nil {
			return written, err
		}
		written++
	}
	entry.Infof("%d windows summarized", written)
	return written, nil
}

// Filter cross-validates the per-path events of a collector against its
// anchor activity.
func (p *Pipeline) Filter(ctx context.Context, c model.CollectorID) (analyzer.FilterStats, error) {
	entry := p.log.WithFields(log.Fields{"collector": c, "stage": "filter"})
	f := analyzer.NewFilter(p.cfg)
	var total analyzer.FilterStats
	for w := model.Window(0); int(w) < p.exp.Windows(); w++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		rng := p.exp.WindowRange(w)
		anchorPath := p.layout.Anchors(c, w)
		anchors, err := input.FetchUpdates(anchorPath)
		switch {
		case err == nil, errors.Is(err, fs.ErrNotExist):
		case p.unreadable(err, entry, anchorPath):
			// beacon paths cannot be validated without anchor activity
			f.Skip(nil, rng)
			continue
		default:
			return total, err
		}
		beaconPath := p.layout.PathEvents(c, w)
		events, err := input.FetchPathEvents(beaconPath)
		if err != nil {
			if p.unreadable(err, entry, beaconPath) {
				f.Skip(anchors, rng)
				continue
			}
			return total, err
		}
		kept, stats := f.Window(events, anchors, rng)
		if stats.ClockGuard > 0 {
			entry.Warningf("window %d: %d paths active in the last %s of the window", w, stats.ClockGuard, p.cfg.ClockGuard)
		}
		if err := output.WritePathEvents(p.layout.Filtered(c, w), kept); err != nil {
			return total, err
		}
		total.NonBeacon += stats.NonBeacon
		total.ClockGuard += stats.ClockGuard
		total.Anchored += stats.Anchored
		total.Kept += stats.Kept
	}
	entry.Infof("kept %d paths, removed %d non-beacon, %d clock guard, %d anchored",
		total.Kept, total.NonBeacon, total.ClockGuard, total.Anchored)
	return total, nil
}

// Prepare runs Summarize and Filter for every collector.
func (p *Pipeline) Prepare(ctx context.Context) error {
	return p.forEachCollector(ctx, func(ctx context.Context, c model.CollectorID) error {
		if _, err := p.Summarize(ctx, c); err != nil {
			return errors.Wrapf(err, "summarize %s", c)
		}
		if _, err := p.Filter(ctx, c); err != nil {
			return errors.Wrapf(err, "filter %s", c)
		}
		return nil
	})
}

// filteredEvents reads every filtered window of a collector.
func (p *Pipeline) filteredEvents(ctx context.Context, c model.CollectorID, entry *log.Entry) ([]model.PathEvent, error) {
	var all []model.PathEvent
	for w := model.Window(0); int(w) < p.exp.Windows(); w++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := p.layout.Filtered(c, w)
		events, err := input.FetchPathEvents(path)
		if err != nil {
			if p.unreadable(err, entry, path) {
				continue
			}
			return nil, err
		}
		all = append(all, events...)
	}
	if len(all) == 0 {
		entry.Warn("no filtered path events")
		p.update(func(r *model.Report) {
			for _, e := range r.EmptyCollectors {
				if e == c {
					return
				}
			}
			r.EmptyCollectors = append(r.EmptyCollectors, c)
		})
	}
	return all, nil
}

// MinDelays extracts the directed minimum delays observed at a collector
// and writes them to its per-collector table.
func (p *Pipeline) MinDelays(ctx context.Context, c model.CollectorID) ([]model.DirectedDelay, error) {
	entry := p.log.WithFields(log.Fields{"collector": c, "stage": "mins"})
	events, err := p.filteredEvents(ctx, c, entry)
	if err != nil {
		return nil, err
	}
	delays, unknown := analyzer.ExtractMinDelays(c, events, p.cfg)
	if unknown > 0 {
		entry.Warningf("%d path events with a prefix of no known collector", unknown)
	}
	if err := output.WriteDirectedDelays(p.layout.MinDelays(c), delays); err != nil {
		return nil, err
	}
	entry.Debugf("%d directed delays", len(delays))
	return delays, nil
}

// Distances builds the per-window collector graphs from the directed delay
// tables of all collectors and writes the shortest distances.
func (p *Pipeline) Distances(ctx context.Context) ([]model.ShortestDistance, model.EdgeStats, error) {
	entry := p.log.WithField("stage", "distances")
	var delays []model.DirectedDelay
	for _, c := range p.cfg.Collectors() {
		path := p.layout.MinDelays(c)
		d, err := input.FetchDirectedDelays(path)
		if err != nil {
			if p.unreadable(err, entry, path) {
				entry.Warningf("no usable delay table for %s", c)
				continue
			}
			return nil, model.EdgeStats{}, err
		}
		delays = append(delays, d...)
	}
	est := analyzer.NewEstimator(p.cfg.Collectors(), p.exp.Windows(), p.cfg.Sentinel, p.cfg.Parallelism())
	distances, stats, err := est.Estimate(ctx, delays)
	if err != nil {
		return nil, stats, err
	}
	if stats.Ignored > 0 {
		entry.Warningf("%d delay rows ignored", stats.Ignored)
	}
	if err := output.WriteShortestDistances(p.layout.Distances(), distances); err != nil {
		return nil, stats, err
	}
	p.update(func(r *model.Report) { r.Edges = stats })
	entry.Infof("total entries %d, with worse direct distance: %d", len(distances), stats.Detours)
	return distances, stats, nil
}

// Profiles aggregates the shortest distance table into clock error
// profiles for phase and writes them.
func (p *Pipeline) Profiles(ctx context.Context, phase model.Phase) ([]model.ClockErrorProfile, model.ProfileSummary, error) {
	entry := p.log.WithFields(log.Fields{"stage": "profiles", "phase": phase})
	distances, err := input.FetchShortestDistances(p.layout.Distances())
	if err != nil {
		return nil, model.ProfileSummary{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, model.ProfileSummary{}, err
	}
	agg := analyzer.Aggregator{Ceiling: p.cfg.Ceiling, Phase: phase}
	profiles := agg.Aggregate(distances)
	if err := output.WriteProfiles(p.layout.Profiles(phase), profiles); err != nil {
		return nil, model.ProfileSummary{}, err
	}
	summary := analyzer.SummarizeProfiles(profiles, p.cfg.MinSamples, phase)
	if summary.Insufficient > 0 {
		entry.Warningf("%d of %d pairs with at most %d events", summary.Insufficient, summary.Total, p.cfg.MinSamples)
	}
	p.update(func(r *model.Report) { r.Profiles = append(r.Profiles, summary) })
	return profiles, summary, nil
}

// Quantiles computes the path quantiles of a collector.
func (p *Pipeline) Quantiles(ctx context.Context, c model.CollectorID) ([]model.QuantileRecord, error) {
	entry := p.log.WithFields(log.Fields{"collector": c, "stage": "quantiles"})
	events, err := p.filteredEvents(ctx, c, entry)
	if err != nil || len(events) == 0 {
		return nil, err
	}
	cl := analyzer.Classifier{RFDThreshold: p.cfg.RFDThreshold, ZombieThreshold: p.cfg.ZombieThreshold}
	records := cl.PathQuantiles(c, events)
	if err := output.WriteQuantiles(p.layout.Quantiles(c), records); err != nil {
		return nil, err
	}
	entry.Debugf("%d paths", len(records))
	return records, nil
}

// Correct applies the withdrawal-phase clock error profiles to the path
// quantiles of every collector.
func (p *Pipeline) Correct(ctx context.Context) ([]model.CorrectedRecord, model.CorrectionStats, error) {
	entry := p.log.WithField("stage", "correct")
	profiles, err := input.FetchProfiles(p.layout.Profiles(model.PhaseDown))
	if err != nil {
		return nil, model.CorrectionStats{}, err
	}
	var records []model.QuantileRecord
	for _, c := range p.cfg.Collectors() {
		if err := ctx.Err(); err != nil {
			return nil, model.CorrectionStats{}, err
		}
		path := p.layout.Quantiles(c)
		q, err := input.FetchQuantiles(path)
		if err != nil {
			if p.unreadable(err, entry, path) {
				entry.Warningf("could not read quantiles of %s", c)
				continue
			}
			return nil, model.CorrectionStats{}, err
		}
		records = append(records, q...)
	}
	corr := analyzer.Corrector{
		Profiles:      analyzer.NewProfileIndex(profiles),
		Owner:         p.cfg,
		MinSamples:    p.cfg.MinSamples,
		MinPathEvents: p.cfg.MinPathEvents,
		Percentile:    p.cfg.ClockPercentile,
	}
	corrected, stats, err := corr.Correct(records)
	if err != nil {
		return nil, stats, err
	}
	if err := output.WriteCorrected(p.layout.Corrected(), corrected); err != nil {
		return nil, stats, err
	}
	p.update(func(r *model.Report) { r.Correction = stats })
	if n := stats.MissingProfile + stats.Unreliable; n > 0 {
		entry.Warningf("%d records dropped without a reliable clock profile", n)
	}
	return corrected, stats, nil
}

// Stats summarises the corrected quantile table per address family.
func (p *Pipeline) Stats(ctx context.Context) ([]model.ConvergenceStats, error) {
	records, err := input.FetchCorrected(p.layout.Corrected())
	if err != nil {
		return nil, err
	}
	return analyzer.ConvergenceStatistics(records, p.cfg.MinPathEvents, p.cfg.ClockPercentile), ctx.Err()
}

// Run executes the estimation chain from the filtered path events to the
// corrected quantiles and archives the result when a store is attached.
func (p *Pipeline) Run(ctx context.Context) (model.Report, error) {
	p.resetReport()
	p.log.Info("run started")

	if err := p.forEachCollector(ctx, func(ctx context.Context, c model.CollectorID) error {
		_, err := p.MinDelays(ctx, c)
		return errors.Wrapf(err, "mins %s", c)
	}); err != nil {
		return p.Report(), err
	}
	distances, _, err := p.Distances(ctx)
	if err != nil {
		return p.Report(), err
	}
	profiles := make(map[model.Phase][]model.ClockErrorProfile)
	for _, phase := range []model.Phase{model.PhaseAll, model.PhaseUp, model.PhaseDown} {
		if profiles[phase], _, err = p.Profiles(ctx, phase); err != nil {
			return p.Report(), err
		}
	}
	if err := p.forEachCollector(ctx, func(ctx context.Context, c model.CollectorID) error {
		_, err := p.Quantiles(ctx, c)
		return errors.Wrapf(err, "quantiles %s", c)
	}); err != nil {
		return p.Report(), err
	}
	if _, _, err := p.Correct(ctx); err != nil {
		return p.Report(), err
	}

	p.update(func(r *model.Report) { r.Finished = time.Now().UTC() })
	report := p.Report()
	if p.store != nil {
		run := store.Run{
			ID:         report.RunID,
			Experiment: report.Experiment,
			Started:    report.Started,
			Collectors: report.Collectors,
			Windows:    report.Windows,
		}
		if err := p.store.SaveRun(ctx, run, distances, profiles); err != nil {
			return report, errors.Wrap(err, "archive run")
		}
	}
	p.log.WithField("run", report.RunID).Info("run finished")
	return report, nil
}
