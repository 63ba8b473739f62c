// Package store archives pipeline runs, their shortest distances and the
// clock error profiles derived from them.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/yourname/bgp-clock-offset/model"
)

// Run identifies one archived estimation.
type Run struct {
	ID         string    `json:"id"`
	Experiment string    `json:"experiment"`
	Started    time.Time `json:"started"`
	Collectors int       `json:"collectors"`
	Windows    int       `json:"windows"`
}

// Store is the archive interface used by the pipeline and the HTTP API.
type Store interface {
	// SaveRun records a run with its distances and profiles, keyed by phase,
	// in a single transaction.
	SaveRun(ctx context.Context, run Run, distances []model.ShortestDistance, profiles map[model.Phase][]model.ClockErrorProfile) error
	// Runs lists the runs of an experiment, newest first.
	Runs(ctx context.Context, experiment string) ([]Run, error)
	// Profiles returns the profiles of the latest run of an experiment.
	Profiles(ctx context.Context, experiment string, phase model.Phase) ([]model.ClockErrorProfile, error)
	Close() error
}

// Engines supported by Open, mapped to their database/sql driver names.
var engines = map[string]string{
	engineSqlite3:  "sqlite3",
	engineMySQL:    "mysql",
	enginePostgres: "pgx",
}

const (
	engineSqlite3  = "sqlite3"
	engineMySQL    = "mysql"
	enginePostgres = "postgres"
)

// Open parses a store spec of the form "<engine>:<params>", for example
// "sqlite3:/srv/clock.db" or "postgres:postgres://user@host/db", and
// returns the corresponding archive.
func Open(spec string) (Store, error) {
	engine, params, ok := strings.Cut(spec, ":")
	if !ok || params == "" {
		return nil, errors.Errorf("invalid store spec %q, want <engine>:<params>", spec)
	}
	driver, ok := engines[engine]
	if !ok {
		return nil, errors.Errorf("unsupported store engine %q", engine)
	}
	db, err := sql.Open(driver, params)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s store", engine)
	}
	s, err := NewSQLStore(engine, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
