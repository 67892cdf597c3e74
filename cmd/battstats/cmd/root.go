package cmd

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BattGenie/battstats/internal/battstats"
	"github.com/BattGenie/battstats/internal/battstats/configuration"
	"github.com/BattGenie/battstats/internal/common"
)

const (
	logFileFlag         = "logfile"
	envFileFlag         = "env-file"
	outputFlag          = "output"
	metricsFileFlag     = "metrics-file"
	connectAttemptsFlag = "connect-attempts"
	queryTimeoutFlag    = "query-timeout"
	dataTableFlag       = "data-table"
)

// RootCmd is the root Cobra command that gets called from the main func.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "battstats <test_config.json>",
		Short: "battstats loads the metadata and data of a battery test for statistics computation.",
		Long: `battstats reads a JSON test configuration, resolves the named test and its schedule in the
database and loads the test's data. Database credentials are read from the DB_TARGET,
DB_USERNAME, DB_PASSWORD, DB_HOSTNAME and DB_PORT environment variables, or from a .env file.`,
		// Argument count is checked in RunE, once logging is set up, so that the problem ends up in the log.
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE:         run,
	}

	cmd.Flags().String(logFileFlag, "log.log", "File diagnostics are written to; overwritten on every run")
	cmd.Flags().String(envFileFlag, ".env", "File database credentials are loaded from, if it exists")
	cmd.Flags().StringP(outputFlag, "o", string(configuration.OutputJson), "Summary output format: json or yaml")
	cmd.Flags().String(metricsFileFlag, "", "Write query metrics to this file in the Prometheus text format")
	cmd.Flags().Uint(connectAttemptsFlag, 1, "Number of attempts to connect to the database")
	cmd.Flags().Duration(queryTimeoutFlag, 30*time.Second, "Maximum duration of a single query")
	cmd.Flags().String(dataTableFlag, "", "Table to load test data from, overriding data_table in the test config")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := common.BindCommandlineArguments(v, cmd.Flags()); err != nil {
		return err
	}

	closeLog, err := common.ConfigureLogging(v.GetString(logFileFlag))
	if err != nil {
		return err
	}
	defer closeLog()

	if err := checkArgs(args); err != nil {
		log.Info(err.Error())
		return err
	}

	if err := common.LoadDotEnv(v.GetString("env_file")); err != nil {
		log.WithError(err).Error("Could not load environment file")
		return err
	}

	config, err := configuration.Load(v)
	if err != nil {
		log.WithError(err).Error("Could not load configuration")
		return err
	}
	if err := config.Validate(); err != nil {
		log.WithError(err).Error("Invalid configuration")
		return err
	}

	if err := battstats.Run(cmd.Context(), config, args[0], cmd.OutOrStdout()); err != nil {
		log.WithError(err).Error("battstats failed")
		return err
	}
	return nil
}

func checkArgs(args []string) error {
	switch {
	case len(args) < 1:
		return errors.New("Too few CLI arguments! Pass the test_config.json file!")
	case len(args) > 1:
		return errors.Errorf("Too many CLI arguments! Expected 1, got %d", len(args))
	}
	return nil
}
