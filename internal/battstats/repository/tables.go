package repository

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/BattGenie/battstats/internal/common/battstatserrors"
)

const (
	TestDataMetaTable  = "testdata_meta"
	SchedulesMetaTable = "schedules_meta"

	// testdata_meta columns
	TestIdCol     = "test_id"
	ScheduleIdCol = "schedule_id"
	DataFileCol   = "data_file"

	// schedules_meta columns
	ChargeStepsCol          = "charge_steps"
	CvVoltageThresholdMvCol = "cv_voltage_threshold_mv"
	DischargeStepsCol       = "discharge_steps"

	allColumns = "*"
)

// DefaultMetaVariables are the schedule settings every statistics run needs.
var DefaultMetaVariables = []string{ChargeStepsCol, CvVoltageThresholdMvCol, DischargeStepsCol}

// primaryKeys lists the tables an id can be looked up in, with the column used when no id column is given.
var primaryKeys = map[string]string{
	TestDataMetaTable:  TestIdCol,
	SchedulesMetaTable: ScheduleIdCol,
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateIdentifier(name string, value string) error {
	if !identifierPattern.MatchString(value) {
		return errors.WithStack(&battstatserrors.ErrInvalidArgument{
			Name:    name,
			Value:   value,
			Message: "must be a plain SQL identifier",
		})
	}
	return nil
}

// foldIdentifier lower-cases an identifier the way PostgreSQL folds unquoted names,
// so that quoted output still matches tables and columns created without quotes.
func foldIdentifier(value string) string {
	return strings.ToLower(value)
}

// primaryKeyFor returns the default id column of a lookup table.
func primaryKeyFor(table string) (string, error) {
	key, ok := primaryKeys[foldIdentifier(table)]
	if !ok {
		return "", errors.WithStack(&battstatserrors.ErrInvalidArgument{
			Name:    "table",
			Value:   table,
			Message: "ids can only be looked up in " + TestDataMetaTable + " or " + SchedulesMetaTable,
		})
	}
	return key, nil
}
