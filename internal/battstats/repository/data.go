package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// LoadData returns every column of every row of table with the given test_id.
// The filter is always on test_id, whatever the table. No matching rows gives an empty table.
func (r *SQLBattstatsRepository) LoadData(ctx context.Context, testId int64, table string) (*Table, error) {
	q, err := BuildQuery(r.dialect, []string{allColumns}, table, TestIdCol, testId)
	if err != nil {
		return nil, err
	}

	var result *Table
	err = r.query(ctx, "load_data", q, func(rows *sql.Rows) error {
		table, err := scanTable(rows)
		result = table
		return err
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "loading test %d from %s", testId, table)
	}
	r.log.Debugf("Loaded %d rows for test %d from %s", result.Len(), testId, table)
	return result, nil
}
