package battstats

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/BattGenie/battstats/internal/battstats/configuration"
	"github.com/BattGenie/battstats/internal/battstats/metrics"
	"github.com/BattGenie/battstats/internal/battstats/postgres"
	"github.com/BattGenie/battstats/internal/battstats/repository"
	"github.com/BattGenie/battstats/internal/battstats/testconfig"
	"github.com/BattGenie/battstats/internal/common/battstatserrors"
	"github.com/BattGenie/battstats/internal/common/util"
)

// Summary describes the data loaded for one test. It is what a statistics run starts from.
type Summary struct {
	RunId      string                 `json:"run_id" yaml:"run_id"`
	TestName   string                 `json:"test_name" yaml:"test_name"`
	TestId     int64                  `json:"test_id" yaml:"test_id"`
	ScheduleId int64                  `json:"schedule_id" yaml:"schedule_id"`
	Meta       map[string]interface{} `json:"meta" yaml:"meta"`
	DataTable  string                 `json:"data_table" yaml:"data_table"`
	Columns    []string               `json:"columns" yaml:"columns"`
	Rows       int                    `json:"rows" yaml:"rows"`
}

// Run loads the test described by the config file at configPath and writes its summary to out.
// It stops at the first error.
func Run(ctx context.Context, config configuration.BattstatsConfiguration, configPath string, out io.Writer) error {
	runId := util.NewULID()
	logger := log.WithField("run", runId)
	logger.Infof("Starting run for config %s", configPath)

	testConfig, err := testconfig.LoadTestConfig(configPath)
	if err != nil {
		return err
	}
	if config.DataTable != "" {
		testConfig.DataTable = config.DataTable
	}

	m := metrics.New()
	if config.MetricsFile != "" {
		defer func() {
			if err := m.WriteToTextfile(config.MetricsFile); err != nil {
				logger.WithError(err).Warn("Failed to write metrics")
			}
		}()
	}

	db, err := postgres.Connect(ctx, config.Postgres, config.ConnectAttempts, config.QueryTimeout)
	if err != nil {
		return err
	}
	defer util.CloseResource("database", db)
	if err := m.RegisterDbStats(db); err != nil {
		logger.WithError(err).Warn("Failed to register database metrics")
	}

	repo := repository.NewSQLBattstatsRepository(
		db,
		repository.PostgresDialect,
		repository.WithQueryTimeout(config.QueryTimeout),
		repository.WithMetrics(m),
		repository.WithLogger(logger),
		repository.WithErrorClassifier(func(err error) error {
			return postgres.ClassifyError(err, config.Postgres.Credentials)
		}),
	)

	summary, err := Collect(ctx, repo, testConfig)
	if err != nil {
		logger.WithError(err).Errorf("Run failed (%s)", battstatserrors.Kind(err))
		return err
	}
	summary.RunId = runId

	if err := WriteSummary(out, config.Output, summary); err != nil {
		return err
	}
	logger.Infof("Loaded %d rows for test %s (test_id %d)", summary.Rows, summary.TestName, summary.TestId)
	return nil
}

// Collect resolves the test's ids and schedule metadata and loads its data.
func Collect(ctx context.Context, repo repository.BattstatsRepository, testConfig *testconfig.TestConfig) (*Summary, error) {
	ids, err := repo.LookupTestIds(ctx, testConfig.TestName)
	if err != nil {
		return nil, err
	}

	meta, err := repo.GetMetaVariables(ctx, repository.DefaultMetaVariables, testConfig.TestName)
	if err != nil {
		return nil, err
	}

	data, err := repo.LoadData(ctx, ids.TestId, testConfig.DataTable)
	if err != nil {
		return nil, err
	}

	return &Summary{
		TestName:   testConfig.TestName,
		TestId:     ids.TestId,
		ScheduleId: ids.ScheduleId,
		Meta:       meta,
		DataTable:  testConfig.DataTable,
		Columns:    data.Columns,
		Rows:       data.Len(),
	}, nil
}

func WriteSummary(out io.Writer, format configuration.OutputFormat, summary *Summary) error {
	switch format {
	case configuration.OutputYaml:
		encoder := yaml.NewEncoder(out)
		if err := encoder.Encode(summary); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(encoder.Close())
	case configuration.OutputJson, "":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return errors.WithStack(encoder.Encode(summary))
	default:
		return errors.WithStack(&battstatserrors.ErrInvalidArgument{
			Name:    "format",
			Value:   format,
			Message: "must be json or yaml",
		})
	}
}
