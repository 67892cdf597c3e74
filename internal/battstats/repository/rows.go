package repository

import (
	"database/sql"

	"github.com/pkg/errors"
)

// Row maps column names to the scalar values of one result row.
type Row map[string]interface{}

// Table is a query result: the columns in the order the database returned them and every row.
type Table struct {
	Columns []string
	Rows    []Row
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func scanTable(rows *sql.Rows) (*Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	table := &Table{Columns: columns, Rows: []Row{}}
	for rows.Next() {
		values, err := scanValues(rows, len(columns))
		if err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, errors.WithStack(rows.Err())
}

// scanValues scans the current row into n generic values.
// Drivers hand back text and numeric columns as []byte; those are converted to strings.
func scanValues(rows *sql.Rows, n int) ([]interface{}, error) {
	values := make([]interface{}, n)
	pointers := make([]interface{}, n)
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		return nil, errors.WithStack(err)
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values, nil
}
