package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/BattGenie/battstats/internal/common/battstatserrors"
)

// GetMetaVariables returns the requested schedules_meta columns for the schedule the test
// testName ran. The result has exactly one entry per requested variable.
func (r *SQLBattstatsRepository) GetMetaVariables(ctx context.Context, variables []string, testName string) (map[string]interface{}, error) {
	scheduleId, err := r.LookupId(ctx, testName, TestDataMetaTable, DataFileCol, ScheduleIdCol)
	if err != nil {
		return nil, errors.WithMessagef(err, "resolving schedule of test %s", testName)
	}
	return r.GetScheduleVariables(ctx, variables, scheduleId)
}

// GetScheduleVariables returns the requested schedules_meta columns of one schedule.
func (r *SQLBattstatsRepository) GetScheduleVariables(ctx context.Context, variables []string, scheduleId int64) (map[string]interface{}, error) {
	if len(variables) == 0 {
		return nil, errors.WithStack(&battstatserrors.ErrInvalidArgument{
			Name:    "variables",
			Value:   variables,
			Message: "at least one variable must be requested",
		})
	}
	for _, v := range variables {
		if v == allColumns {
			return nil, errors.WithStack(&battstatserrors.ErrInvalidArgument{
				Name:    "variables",
				Value:   v,
				Message: "variables must be named explicitly",
			})
		}
	}

	q, err := BuildQuery(r.dialect, variables, SchedulesMetaTable, ScheduleIdCol, scheduleId)
	if err != nil {
		return nil, err
	}

	var values []interface{}
	err = r.query(ctx, "get_meta_variables", q, func(rows *sql.Rows) error {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return errors.WithStack(err)
			}
			return errors.WithStack(&battstatserrors.ErrNotFound{
				Type:    SchedulesMetaTable,
				Value:   fmt.Sprint(scheduleId),
				Message: "schedule has no metadata",
			})
		}
		scanned, err := scanValues(rows, len(variables))
		if err != nil {
			return err
		}
		values = scanned
		if rows.Next() {
			return errors.WithStack(&battstatserrors.ErrAmbiguousResult{
				Type:  SchedulesMetaTable,
				Value: fmt.Sprint(scheduleId),
				Rows:  2,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	meta := make(map[string]interface{}, len(variables))
	for i, v := range variables {
		meta[v] = values[i]
	}
	return meta, nil
}
