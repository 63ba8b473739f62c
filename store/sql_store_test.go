package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/bgp-clock-offset/model"
)

func newMockStore(t *testing.T, engine string) (Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	for _, stmt := range schema {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	s, err := NewSQLStore(engine, db)
	require.NoError(t, err)
	return s, mock
}

func TestNewSQLStoreSchemaError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec(schema[0]).WillReturnError(errors.New("read-only database"))

	_, err = NewSQLStore(engineSqlite3, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRun(t *testing.T) {
	s, mock := newMockStore(t, engineSqlite3)
	started := time.Date(2024, 3, 1, 10, 0, 0, 250, time.UTC)
	run := Run{ID: "run-1", Experiment: "20091001_30d", Started: started, Collectors: 3, Windows: 6}
	distances := []model.ShortestDistance{{
		PairEdge: model.PairEdge{Collector1: "rrc00", Collector2: "rrc01", Window: 2, MinTime1: 4, MinTime2: 6, Weight: 6},
		Distance: 5,
	}}
	profiles := map[model.Phase][]model.ClockErrorProfile{
		model.PhaseDown: {{Collector1: "rrc00", Collector2: "rrc01", P0: 1, P50: 2, P90: 3, P100: 4, Count: 51}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(insertRun).WithArgs("run-1", "20091001_30d", started.UnixNano(), 3, 6).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insertDistance).WithArgs("run-1", "rrc00", "rrc01", 2, 4.0, 6.0, 6.0, 5.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insertProfile).WithArgs("run-1", "down", "rrc00", "rrc01", 1.0, 2.0, 3.0, 4.0, 51).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveRun(context.Background(), run, distances, profiles))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunRollsBack(t *testing.T) {
	s, mock := newMockStore(t, engineMySQL)
	mock.ExpectBegin()
	mock.ExpectExec(insertRun).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := s.SaveRun(context.Background(), Run{ID: "run-1", Started: time.Unix(0, 0)}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunsAndProfiles(t *testing.T) {
	s, mock := newMockStore(t, engineSqlite3)
	runRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "experiment", "started_ns", "collectors", "windows"}).
			AddRow("run-2", "exp", int64(200_000_000_500), 3, 6).
			AddRow("run-1", "exp", int64(100_000_000_000), 3, 6)
	}
	mock.ExpectQuery(selectRuns).WithArgs("exp").WillReturnRows(runRows())

	runs, err := s.Runs(context.Background(), "exp")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, time.Unix(200, 500).UTC(), runs[0].Started)

	mock.ExpectQuery(selectRuns).WithArgs("exp").WillReturnRows(runRows())
	mock.ExpectQuery(selectProfiles).WithArgs("run-2", "up").WillReturnRows(
		sqlmock.NewRows([]string{"collector_1", "collector_2", "p_0", "p_50", "p_90", "p_100", "event_count"}).
			AddRow("rrc00", "rrc01", 1.0, 2.0, 3.0, 4.0, 60))
	profiles, err := s.Profiles(context.Background(), "exp", model.PhaseUp)
	require.NoError(t, err)
	assert.Equal(t, []model.ClockErrorProfile{
		{Collector1: "rrc00", Collector2: "rrc01", P0: 1, P50: 2, P90: 3, P100: 4, Count: 60},
	}, profiles)

	mock.ExpectQuery(selectRuns).WithArgs("none").WillReturnRows(
		sqlmock.NewRows([]string{"id", "experiment", "started_ns", "collectors", "windows"}))
	profiles, err = s.Profiles(context.Background(), "none", model.PhaseAll)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestRunWithinOneSecond(t *testing.T) {
	ctx := context.Background()
	s, err := Open("sqlite3:" + filepath.Join(t.TempDir(), "clock.db"))
	require.NoError(t, err)
	defer s.Close()

	second := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	older := map[model.Phase][]model.ClockErrorProfile{
		model.PhaseDown: {{Collector1: "rrc00", Collector2: "rrc01", P90: 9, Count: 51}},
	}
	newer := map[model.Phase][]model.ClockErrorProfile{
		model.PhaseDown: {{Collector1: "rrc00", Collector2: "rrc01", P90: 3, Count: 51}},
	}
	// ids sort against start order
	require.NoError(t, s.SaveRun(ctx, Run{ID: "run-b", Experiment: "exp", Started: second.Add(time.Millisecond)}, nil, older))
	require.NoError(t, s.SaveRun(ctx, Run{ID: "run-a", Experiment: "exp", Started: second.Add(900 * time.Millisecond)}, nil, newer))

	runs, err := s.Runs(ctx, "exp")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-a", runs[0].ID)
	assert.Equal(t, second.Add(900*time.Millisecond), runs[0].Started)

	profiles, err := s.Profiles(ctx, "exp", model.PhaseDown)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, 3.0, profiles[0].P90)
}

func TestRunsQueryError(t *testing.T) {
	s, mock := newMockStore(t, engineSqlite3)
	mock.ExpectQuery(selectRuns).WithArgs("exp").WillReturnError(sql.ErrConnDone)
	_, err := s.Runs(context.Background(), "exp")
	assert.True(t, errors.Is(err, sql.ErrConnDone))
}

func TestPostgresPlaceholders(t *testing.T) {
	s := &sqlStore{engine: enginePostgres}
	q := s.tweakSQL(insertRun)
	assert.NotContains(t, q, "?")
	assert.True(t, strings.HasSuffix(q, "VALUES ($1, $2, $3, $4, $5)"))

	mysql := &sqlStore{engine: engineMySQL}
	assert.Equal(t, insertRun, mysql.tweakSQL(insertRun))
}

func TestOpenRejectsBadSpecs(t *testing.T) {
	for _, spec := range []string{"", "sqlite3", "sqlite3:", "oracle:scott/tiger"} {
		_, err := Open(spec)
		assert.Error(t, err, spec)
	}
}
