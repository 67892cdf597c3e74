package battstats

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
	_ "modernc.org/sqlite"

	"github.com/BattGenie/battstats/internal/battstats/configuration"
	"github.com/BattGenie/battstats/internal/battstats/repository"
	"github.com/BattGenie/battstats/internal/battstats/testconfig"
	"github.com/BattGenie/battstats/internal/common/battstatserrors"
)

var ctx = context.Background()

func withRepository(t *testing.T, action func(repo *repository.SQLBattstatsRepository)) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "battstats.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
CREATE TABLE testdata_meta (test_id INTEGER PRIMARY KEY, schedule_id INTEGER, data_file TEXT);
CREATE TABLE schedules_meta (schedule_id INTEGER, charge_steps TEXT, cv_voltage_threshold_mv INTEGER, discharge_steps TEXT);
CREATE TABLE testdata (test_id INTEGER, cycle INTEGER, voltage_mv REAL);
INSERT INTO testdata_meta VALUES (42, 7, 'bg_ambatt2_cell7_ict'), (43, 999, 'bg_ambatt2_cell8_ict');
INSERT INTO schedules_meta VALUES (7, 'CC-CV', 4200, 'CC');
INSERT INTO testdata VALUES (42, 1, 3650.5), (42, 2, 3701.0), (43, 1, 3600.0);
`)
	require.NoError(t, err)

	action(repository.NewSQLBattstatsRepository(db, "sqlite3"))
}

func TestCollect(t *testing.T) {
	withRepository(t, func(repo *repository.SQLBattstatsRepository) {
		summary, err := Collect(ctx, repo, &testconfig.TestConfig{
			TestName:  "BG_AmBatt2_Cell7_ICT",
			DataTable: "testdata",
		})
		require.NoError(t, err)
		assert.Equal(t, &Summary{
			TestName:   "BG_AmBatt2_Cell7_ICT",
			TestId:     42,
			ScheduleId: 7,
			Meta: map[string]interface{}{
				"charge_steps":            "CC-CV",
				"cv_voltage_threshold_mv": int64(4200),
				"discharge_steps":         "CC",
			},
			DataTable: "testdata",
			Columns:   []string{"test_id", "cycle", "voltage_mv"},
			Rows:      2,
		}, summary)
	})
}

func TestCollect_MissingMetadata(t *testing.T) {
	withRepository(t, func(repo *repository.SQLBattstatsRepository) {
		_, err := Collect(ctx, repo, &testconfig.TestConfig{
			TestName:  "bg_ambatt2_cell8_ict",
			DataTable: "testdata",
		})
		var notFound *battstatserrors.ErrNotFound
		require.True(t, errors.As(err, &notFound), "expected ErrNotFound, got %v", err)
		assert.Equal(t, "schedules_meta", notFound.Type)
	})
}

func TestCollect_UnknownTest(t *testing.T) {
	withRepository(t, func(repo *repository.SQLBattstatsRepository) {
		_, err := Collect(ctx, repo, &testconfig.TestConfig{TestName: "nope", DataTable: "testdata"})
		var notFound *battstatserrors.ErrNotFound
		assert.True(t, errors.As(err, &notFound), "expected ErrNotFound, got %v", err)
	})
}

var summary = &Summary{
	RunId:      "01h0000000000000000000000",
	TestName:   "BG_AmBatt2_Cell7_ICT",
	TestId:     42,
	ScheduleId: 7,
	Meta:       map[string]interface{}{"charge_steps": "CC-CV"},
	DataTable:  "testdata",
	Columns:    []string{"test_id", "cycle"},
	Rows:       2,
}

func TestWriteSummary_Json(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteSummary(&out, configuration.OutputJson, summary))

	var decoded Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, *summary, decoded)
}

func TestWriteSummary_Yaml(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteSummary(&out, configuration.OutputYaml, summary))

	assert.Contains(t, out.String(), "test_name: BG_AmBatt2_Cell7_ICT\n")
	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 42, decoded["test_id"])
}

func TestWriteSummary_UnknownFormat(t *testing.T) {
	err := WriteSummary(&bytes.Buffer{}, "xml", summary)
	var invalidArg *battstatserrors.ErrInvalidArgument
	assert.True(t, errors.As(err, &invalidArg), "expected ErrInvalidArgument, got %v", err)
}

func testConfiguration(t *testing.T) configuration.BattstatsConfiguration {
	return configuration.BattstatsConfiguration{
		Postgres: configuration.PostgresConfig{
			Driver:       "pgx",
			MaxOpenConns: 1,
			Credentials: configuration.DatabaseCredentials{
				Target:   "battdb",
				Username: "analyst",
				Password: "secret",
				Hostname: "127.0.0.1",
				Port:     "1",
				SslMode:  "disable",
			},
		},
		Output:          configuration.OutputJson,
		MetricsFile:     filepath.Join(t.TempDir(), "battstats.prom"),
		ConnectAttempts: 1,
		QueryTimeout:    2 * time.Second,
	}
}

func TestRun_MissingConfigFile(t *testing.T) {
	config := testConfiguration(t)

	err := Run(ctx, config, filepath.Join(t.TempDir(), "missing.json"), &bytes.Buffer{})
	var configErr *battstatserrors.ErrConfig
	assert.True(t, errors.As(err, &configErr), "expected ErrConfig, got %v", err)
}

func TestRun_UnreachableDatabase(t *testing.T) {
	config := testConfiguration(t)
	configPath := filepath.Join(t.TempDir(), "test_config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"test_name": "BG_AmBatt2_Cell7_ICT"}`), 0o644))

	var out bytes.Buffer
	err := Run(ctx, config, configPath, &out)
	assert.True(t, battstatserrors.IsConnection(err), "expected ErrConnection, got %v", err)
	assert.Empty(t, out.String())

	_, err = os.Stat(config.MetricsFile)
	assert.NoError(t, err)
}
