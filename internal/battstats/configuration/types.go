package configuration

import "time"

type OutputFormat string

const (
	OutputJson OutputFormat = "json"
	OutputYaml OutputFormat = "yaml"
)

type DatabaseCredentials struct {
	// Name of the database to connect to
	Target   string `validate:"required"`
	Username string `validate:"required"`
	Password string `validate:"required"`
	Hostname string `validate:"required"`
	Port     string `validate:"required"`
	// libpq sslmode, e.g. disable, require, verify-full
	SslMode string
}

type PostgresConfig struct {
	// database/sql driver used to talk to postgres: "pgx" or "postgres" (lib/pq)
	Driver          string `validate:"oneof=pgx postgres"`
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Credentials     DatabaseCredentials
}

type BattstatsConfiguration struct {
	// Database configuration
	Postgres PostgresConfig
	// File all diagnostics are written to. Truncated on every run
	LogFile string `validate:"required"`
	// Format of the run summary written to stdout: json or yaml
	Output OutputFormat `validate:"oneof=json yaml"`
	// If set, query metrics are written here in the Prometheus text format at the end of the run
	MetricsFile string `mapstructure:"metrics_file"`
	// Number of times to try connecting before giving up. 1 means fail fast
	ConnectAttempts uint `mapstructure:"connect_attempts" validate:"min=1"`
	// Maximum time a single query may take, including waiting for a pooled connection
	QueryTimeout time.Duration `mapstructure:"query_timeout" validate:"required"`
	// Overrides the data_table key of the test config
	DataTable string `mapstructure:"data_table"`
}
