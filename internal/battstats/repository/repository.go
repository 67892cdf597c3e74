package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/BattGenie/battstats/internal/battstats/metrics"
	"github.com/BattGenie/battstats/internal/common/battstatserrors"
	"github.com/BattGenie/battstats/internal/common/util"
)

type BattstatsRepository interface {
	LookupId(ctx context.Context, filterValue interface{}, table string, filterColumn string, idColumn string) (int64, error)
	LookupTestIds(ctx context.Context, testName string) (*TestIds, error)
	GetMetaVariables(ctx context.Context, variables []string, testName string) (map[string]interface{}, error)
	GetScheduleVariables(ctx context.Context, variables []string, scheduleId int64) (map[string]interface{}, error)
	LoadData(ctx context.Context, testId int64, table string) (*Table, error)
}

// SQLBattstatsRepository reads test metadata and data from a database/sql pool.
// Every operation checks out its own connection and returns it to the pool before returning.
type SQLBattstatsRepository struct {
	db           *sql.DB
	dialect      string
	queryTimeout time.Duration
	metrics      *metrics.Metrics
	classify     func(error) error
	log          *log.Entry
}

type Option func(*SQLBattstatsRepository)

// WithQueryTimeout bounds each operation, including the wait for a pooled connection.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(r *SQLBattstatsRepository) {
		r.queryTimeout = timeout
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *SQLBattstatsRepository) {
		r.metrics = m
	}
}

// WithErrorClassifier sets the function used to translate driver errors,
// e.g. into *battstatserrors.ErrConnection.
func WithErrorClassifier(classify func(error) error) Option {
	return func(r *SQLBattstatsRepository) {
		r.classify = classify
	}
}

func WithLogger(logger *log.Entry) Option {
	return func(r *SQLBattstatsRepository) {
		r.log = logger
	}
}

func NewSQLBattstatsRepository(db *sql.DB, dialect string, opts ...Option) *SQLBattstatsRepository {
	r := &SQLBattstatsRepository{
		db:           db,
		dialect:      dialect,
		queryTimeout: 30 * time.Second,
		classify: func(err error) error {
			return errors.WithStack(err)
		},
		log: log.NewEntry(log.StandardLogger()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// query runs q on a connection checked out for this call only, handing the result rows to consume.
func (r *SQLBattstatsRepository) query(ctx context.Context, operation string, q *Query, consume func(*sql.Rows) error) (err error) {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.RecordQuery(operation, battstatserrors.Kind(err), time.Since(start))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	logger := r.log.WithField("operation", operation)
	logger.Debugf("Running query %s with args %v", q.Sql, q.Args)

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return r.classify(err)
	}
	defer util.CloseResource("database connection", conn)

	rows, err := conn.QueryContext(ctx, q.Sql, q.Args...)
	if err != nil {
		return r.classify(err)
	}
	defer util.CloseResource("result rows", rows)

	if err := consume(rows); err != nil {
		// Row lookup results are already typed; driver errors raised while scanning still need classifying.
		if battstatserrors.Kind(err) != "unknown" {
			return err
		}
		return r.classify(errors.Cause(err))
	}
	if err := rows.Err(); err != nil {
		return r.classify(err)
	}
	logger.Debugf("Query finished in %s", time.Since(start))
	return nil
}
