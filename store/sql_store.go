package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/yourname/bgp-clock-offset/model"
)

// NewSQLStore returns a Store backed by db. engine selects the SQL dialect:
// one of "sqlite3", "mysql" or "postgres".
func NewSQLStore(engine string, db *sql.DB) (Store, error) {
	s := &sqlStore{engine: engine, db: db}
	if err := s.initDB(); err != nil {
		return nil, err
	}
	return s, nil
}

type sqlStore struct {
	engine string
	db     *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS Run (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		experiment VARCHAR(64) NOT NULL,
		started_ns BIGINT NOT NULL,
		collectors INTEGER NOT NULL,
		windows INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ShortestDistance (
		run VARCHAR(36) NOT NULL,
		collector_1 VARCHAR(32) NOT NULL,
		collector_2 VARCHAR(32) NOT NULL,
		event_number INTEGER NOT NULL,
		min_time_1 DOUBLE PRECISION NOT NULL,
		min_time_2 DOUBLE PRECISION NOT NULL,
		weight DOUBLE PRECISION NOT NULL,
		shortest_distance DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ClockProfile (
		run VARCHAR(36) NOT NULL,
		phase VARCHAR(8) NOT NULL,
		collector_1 VARCHAR(32) NOT NULL,
		collector_2 VARCHAR(32) NOT NULL,
		p_0 DOUBLE PRECISION NOT NULL,
		p_50 DOUBLE PRECISION NOT NULL,
		p_90 DOUBLE PRECISION NOT NULL,
		p_100 DOUBLE PRECISION NOT NULL,
		event_count INTEGER NOT NULL
	)`,
}

const (
	insertRun      = "INSERT INTO Run (id, experiment, started_ns, collectors, windows) VALUES (?, ?, ?, ?, ?)"
	insertDistance = "INSERT INTO ShortestDistance (run, collector_1, collector_2, event_number, min_time_1, min_time_2, weight, shortest_distance) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	insertProfile  = "INSERT INTO ClockProfile (run, phase, collector_1, collector_2, p_0, p_50, p_90, p_100, event_count) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	selectRuns     = "SELECT id, experiment, started_ns, collectors, windows FROM Run WHERE experiment = ? ORDER BY started_ns DESC, id DESC"
	selectProfiles = "SELECT collector_1, collector_2, p_0, p_50, p_90, p_100, event_count FROM ClockProfile WHERE run = ? AND phase = ? ORDER BY collector_1, collector_2"
)

func (s *sqlStore) initDB() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(s.tweakSQL(stmt)); err != nil {
			return tagerr("schema", err)
		}
	}
	return nil
}

// tweakSQL returns a SQL string appropriate for the engine given a string
// written with "?" placeholders.
func (s *sqlStore) tweakSQL(query string) string {
	if s.engine != enginePostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) SaveRun(ctx context.Context, run Run, distances []model.ShortestDistance, profiles map[model.Phase][]model.ClockErrorProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// If tx.Commit is called, then this tx.Rollback is a no-op
	defer tx.Rollback() //nolint:errcheck
	if _, err := tx.ExecContext(ctx, s.tweakSQL(insertRun), run.ID, run.Experiment, run.Started.UnixNano(), run.Collectors, run.Windows); err != nil {
		return tagerr("run", err)
	}
	for _, d := range distances {
		if _, err := tx.ExecContext(ctx, s.tweakSQL(insertDistance), run.ID, string(d.Collector1), string(d.Collector2),
			int(d.Window), d.MinTime1, d.MinTime2, d.Weight, d.Distance); err != nil {
			return tagerr("distance", err)
		}
	}
	for _, phase := range []model.Phase{model.PhaseAll, model.PhaseUp, model.PhaseDown} {
		for _, p := range profiles[phase] {
			if _, err := tx.ExecContext(ctx, s.tweakSQL(insertProfile), run.ID, phase.String(), string(p.Collector1), string(p.Collector2),
				p.P0, p.P50, p.P90, p.P100, p.Count); err != nil {
				return tagerr("profile", err)
			}
		}
	}
	return tx.Commit()
}

func (s *sqlStore) Runs(ctx context.Context, experiment string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, s.tweakSQL(selectRuns), experiment)
	if err != nil {
		return nil, tagerr("runs", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &r.Experiment, &started, &r.Collectors, &r.Windows); err != nil {
			return nil, tagerr("runs", err)
		}
		r.Started = time.Unix(0, started).UTC()
		out = append(out, r)
	}
	return out, tagerr("runs", rows.Err())
}

func (s *sqlStore) Profiles(ctx context.Context, experiment string, phase model.Phase) ([]model.ClockErrorProfile, error) {
	runs, err := s.Runs(ctx, experiment)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, s.tweakSQL(selectProfiles), runs[0].ID, phase.String())
	if err != nil {
		return nil, tagerr("profiles", err)
	}
	defer rows.Close()
	var out []model.ClockErrorProfile
	for rows.Next() {
		var p model.ClockErrorProfile
		var c1, c2 string
		if err := rows.Scan(&c1, &c2, &p.P0, &p.P50, &p.P90, &p.P100, &p.Count); err != nil {
			return nil, tagerr("profiles", err)
		}
		p.Collector1, p.Collector2 = model.CollectorID(c1), model.CollectorID(c2)
		out = append(out, p)
	}
	return out, tagerr("profiles", rows.Err())
}

func (s *sqlStore) Close() error { return s.db.Close() }

func tagerr(tag string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, tag)
}
