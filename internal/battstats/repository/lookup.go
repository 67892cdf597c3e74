package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/BattGenie/battstats/internal/common/battstatserrors"
)

// TestIds identifies one test run and the schedule it ran.
type TestIds struct {
	TestId     int64 `json:"test_id" yaml:"test_id"`
	ScheduleId int64 `json:"schedule_id" yaml:"schedule_id"`
}

// LookupId returns the id of the single row of table whose filterColumn matches filterValue
// (case-insensitively for strings). table must be testdata_meta or schedules_meta. If idColumn
// is empty the table's primary key is returned.
// Returns *battstatserrors.ErrNotFound if no row matches and *battstatserrors.ErrAmbiguousResult
// if more than one does.
func (r *SQLBattstatsRepository) LookupId(ctx context.Context, filterValue interface{}, table string, filterColumn string, idColumn string) (int64, error) {
	primaryKey, err := primaryKeyFor(table)
	if err != nil {
		return 0, err
	}
	if idColumn == "" {
		idColumn = primaryKey
	}

	q, err := BuildQuery(r.dialect, []string{idColumn}, table, filterColumn, filterValue)
	if err != nil {
		return 0, err
	}

	var id sql.NullInt64
	err = r.query(ctx, "lookup_id", q, func(rows *sql.Rows) error {
		return scanUnique(rows, table, filterValue, &id)
	})
	if err != nil {
		return 0, err
	}
	if !id.Valid {
		return 0, errors.WithStack(&battstatserrors.ErrNotFound{
			Type:    table,
			Value:   fmt.Sprint(filterValue),
			Message: fmt.Sprintf("%s is NULL", idColumn),
		})
	}
	r.log.Debugf("Resolved %s %q in %s to %d", filterColumn, fmt.Sprint(filterValue), table, id.Int64)
	return id.Int64, nil
}

// LookupTestIds returns the test and schedule ids of the test whose data file is testName.
func (r *SQLBattstatsRepository) LookupTestIds(ctx context.Context, testName string) (*TestIds, error) {
	q, err := BuildQuery(r.dialect, []string{ScheduleIdCol, TestIdCol}, TestDataMetaTable, DataFileCol, testName)
	if err != nil {
		return nil, err
	}

	var scheduleId, testId sql.NullInt64
	err = r.query(ctx, "lookup_test_ids", q, func(rows *sql.Rows) error {
		return scanUnique(rows, TestDataMetaTable, testName, &scheduleId, &testId)
	})
	if err != nil {
		return nil, err
	}
	if !scheduleId.Valid || !testId.Valid {
		return nil, errors.WithStack(&battstatserrors.ErrNotFound{
			Type:    TestDataMetaTable,
			Value:   testName,
			Message: "test_id or schedule_id is NULL",
		})
	}
	return &TestIds{TestId: testId.Int64, ScheduleId: scheduleId.Int64}, nil
}

// scanUnique scans the only row of rows into dest. It reads at most two rows.
func scanUnique(rows *sql.Rows, table string, filterValue interface{}, dest ...interface{}) error {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(&battstatserrors.ErrNotFound{
			Type:  table,
			Value: fmt.Sprint(filterValue),
		})
	}
	if err := rows.Scan(dest...); err != nil {
		return errors.WithStack(err)
	}
	if rows.Next() {
		return errors.WithStack(&battstatserrors.ErrAmbiguousResult{
			Type:  table,
			Value: fmt.Sprint(filterValue),
			Rows:  2,
		})
	}
	return nil
}
