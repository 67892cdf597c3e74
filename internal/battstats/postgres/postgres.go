package postgres

import (
	"context"
	"database/sql"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/BattGenie/battstats/internal/battstats/configuration"
	"github.com/BattGenie/battstats/internal/common/battstatserrors"
)

// Open creates the connection pool. No connection is made until the pool is first used.
func Open(config configuration.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open(config.Driver, createConnectionString(connectionValues(config.Credentials)))
	if err != nil {
		return nil, errors.WithStack(&battstatserrors.ErrConnection{
			Address: Address(config.Credentials),
			Message: err.Error(),
		})
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	return db, nil
}

// Connect opens the pool and checks the database is reachable, trying up to attempts times.
// Only connection failures are retried; an attempts value of 1 fails on the first error.
func Connect(ctx context.Context, config configuration.PostgresConfig, attempts uint, timeout time.Duration) (*sql.DB, error) {
	db, err := Open(config)
	if err != nil {
		return nil, err
	}
	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return classify(db.PingContext(pingCtx), config.Credentials, true)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.RetryIf(battstatserrors.IsConnection),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).Warnf("Connection attempt %d of %d failed", n+1, attempts)
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debugf("Connected to %s using driver %s", Address(config.Credentials), config.Driver)
	return db, nil
}

// ClassifyError turns errors that mean the database can't be used at all (unreachable host,
// bad credentials, unknown database) into *battstatserrors.ErrConnection.
// A query that runs past its deadline is not a connection failure and is returned unclassified.
// Any other error is returned with a stack trace attached.
func ClassifyError(err error, credentials configuration.DatabaseCredentials) error {
	return classify(err, credentials, false)
}

// classify is ClassifyError, with timeouts counted as connection failures when timeoutIsConnection is set.
// Connect sets it: a ping that does not answer in time means the server is unreachable.
func classify(err error, credentials configuration.DatabaseCredentials, timeoutIsConnection bool) error {
	if err == nil {
		return nil
	}
	connection := isConnectionError(err)
	if isTimeout(err) {
		connection = timeoutIsConnection
	}
	if connection {
		return errors.WithStack(&battstatserrors.ErrConnection{
			Address: Address(credentials),
			Message: err.Error(),
		})
	}
	return errors.WithStack(err)
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)
}

// isConnectionError checks the driver error types. pgconn wraps failures while connecting
// (including dial errors and server-side auth failures) in an error that unwraps to the cause.
func isConnectionError(err error) bool {
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isConnectionCode(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return isConnectionCode(string(pqErr.Code))
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// isConnectionCode matches SQLSTATE classes 08 (connection exception) and 28 (invalid authorization)
// as well as an unknown database name.
func isConnectionCode(code string) bool {
	return sameClass(code, pgerrcode.ConnectionException) ||
		sameClass(code, pgerrcode.InvalidAuthorizationSpecification) ||
		code == pgerrcode.InvalidCatalogName
}

func sameClass(code string, classCode string) bool {
	return len(code) == 5 && code[:2] == classCode[:2]
}

func Address(credentials configuration.DatabaseCredentials) string {
	return net.JoinHostPort(credentials.Hostname, credentials.Port)
}

func connectionValues(credentials configuration.DatabaseCredentials) map[string]string {
	values := map[string]string{
		"host":     credentials.Hostname,
		"port":     credentials.Port,
		"user":     credentials.Username,
		"password": credentials.Password,
		"dbname":   credentials.Target,
	}
	if credentials.SslMode != "" {
		values["sslmode"] = credentials.SslMode
	}
	return values
}

func createConnectionString(values map[string]string) string {
	// https://www.postgresql.org/docs/10/libpq-connect.html#id-1.7.3.8.3.5
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	for _, k := range keys {
		pairs = append(pairs, k+"='"+replacer.Replace(values[k])+"'")
	}
	return strings.Join(pairs, " ")
}
