package repository

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/pkg/errors"

	"github.com/BattGenie/battstats/internal/common/battstatserrors"
)

const PostgresDialect = "postgres"

type Query struct {
	Sql  string
	Args []interface{}
}

// BuildQuery renders a single-filter SELECT for the given goqu dialect:
//
//	SELECT <selection> FROM <table> WHERE <filterColumn> = <placeholder>
//
// Columns are selected in the order given; "*" selects all of them. A string filter value is
// lower-cased and compared against LOWER(filterColumn), so the match ignores case. An integer
// filter value is compared as is. The value is always passed as a bound argument.
// Identifiers are lower-cased before quoting, matching how PostgreSQL resolves unquoted names.
func BuildQuery(dialect string, selection []string, table string, filterColumn string, filterValue interface{}) (*Query, error) {
	if len(selection) == 0 {
		return nil, errors.WithStack(&battstatserrors.ErrInvalidArgument{
			Name:    "selection",
			Value:   selection,
			Message: "at least one column must be selected",
		})
	}
	if err := validateIdentifier("table", table); err != nil {
		return nil, err
	}
	if err := validateIdentifier("filterColumn", filterColumn); err != nil {
		return nil, err
	}

	columns := make([]interface{}, 0, len(selection))
	for _, col := range selection {
		if col == allColumns {
			columns = append(columns, goqu.Star())
			continue
		}
		if err := validateIdentifier("selection", col); err != nil {
			return nil, err
		}
		columns = append(columns, goqu.C(foldIdentifier(col)))
	}

	filter, err := createFilter(foldIdentifier(filterColumn), filterValue)
	if err != nil {
		return nil, err
	}

	sql, args, err := goqu.Dialect(dialect).
		From(goqu.T(foldIdentifier(table))).
		Select(columns...).
		Where(filter).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, errors.Wrapf(err, "building query on %s", table)
	}
	return &Query{Sql: sql, Args: args}, nil
}

func createFilter(column string, value interface{}) (exp.Expression, error) {
	switch v := value.(type) {
	case string:
		return goqu.Func("LOWER", goqu.C(column)).Eq(strings.ToLower(v)), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return goqu.C(column).Eq(v), nil
	default:
		return nil, errors.WithStack(&battstatserrors.ErrInvalidArgument{
			Name:    "filterValue",
			Value:   value,
			Message: "must be a string or an integer",
		})
	}
}
