package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/BattGenie/battstats/internal/battstats/metrics"
)

const sqliteDialect = "sqlite3"

var ctx = context.Background()

const schema = `
CREATE TABLE testdata_meta (
	test_id     INTEGER PRIMARY KEY,
	schedule_id INTEGER,
	data_file   TEXT NOT NULL
);
CREATE TABLE schedules_meta (
	schedule_id             INTEGER,
	charge_steps            TEXT,
	cv_voltage_threshold_mv REAL,
	discharge_steps         TEXT
);
CREATE TABLE testdata (
	test_id    INTEGER NOT NULL,
	cycle      INTEGER NOT NULL,
	voltage_mv REAL
);
`

// withDatabase runs action against a fresh on-disk sqlite database holding the battstats schema.
func withDatabase(t *testing.T, action func(db *sql.DB, repo *SQLBattstatsRepository)) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "battstats.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(schema)
	require.NoError(t, err)

	action(db, NewSQLBattstatsRepository(db, sqliteDialect, WithMetrics(metrics.New())))
}

func exec(t *testing.T, db *sql.DB, query string, args ...interface{}) {
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

func insertTest(t *testing.T, db *sql.DB, testId int64, scheduleId interface{}, dataFile string) {
	exec(t, db, "INSERT INTO testdata_meta (test_id, schedule_id, data_file) VALUES (?, ?, ?)", testId, scheduleId, dataFile)
}

func insertSchedule(t *testing.T, db *sql.DB, scheduleId int64, chargeSteps string, cvThreshold float64, dischargeSteps string) {
	exec(t, db,
		"INSERT INTO schedules_meta (schedule_id, charge_steps, cv_voltage_threshold_mv, discharge_steps) VALUES (?, ?, ?, ?)",
		scheduleId, chargeSteps, cvThreshold, dischargeSteps)
}
