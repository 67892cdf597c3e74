package testconfig

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/BattGenie/battstats/internal/common/battstatserrors"
)

const (
	TestNameKey  = "test_name"
	DataTableKey = "data_table"

	DefaultDataTable = "testdata_meta"
)

// TestConfig is the typed view of a test configuration file.
type TestConfig struct {
	// Name of the test; matched case-insensitively against testdata_meta.data_file
	TestName string `mapstructure:"test_name"`
	// Table the test's data is loaded from
	DataTable string `mapstructure:"data_table"`
	// Every other key in the file, passed through unvalidated
	Extra map[string]interface{} `mapstructure:",remain"`
}

// Load parses the JSON file at path into a map. Numbers are kept as json.Number so that
// re-encoding the map reproduces them exactly.
func Load(path string) (map[string]interface{}, error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Errorf("Path does not exist for test configuration file: %s", path)
		return nil, errors.WithStack(&battstatserrors.ErrConfig{Path: path, Message: "file does not exist"})
	}
	if err != nil {
		return nil, errors.WithStack(&battstatserrors.ErrConfig{Path: path, Message: err.Error()})
	}

	decoder := json.NewDecoder(bytes.NewReader(contents))
	decoder.UseNumber()
	var config map[string]interface{}
	if err := decoder.Decode(&config); err != nil {
		return nil, errors.WithStack(&battstatserrors.ErrConfig{Path: path, Message: "invalid JSON: " + err.Error()})
	}
	if decoder.More() {
		return nil, errors.WithStack(&battstatserrors.ErrConfig{Path: path, Message: "invalid JSON: trailing data"})
	}
	if config == nil {
		return nil, errors.WithStack(&battstatserrors.ErrConfig{Path: path, Message: "expected a JSON object"})
	}
	log.Debugf("Loaded test configuration from %s with %d keys", path, len(config))
	return config, nil
}

// Decode builds the typed view of a loaded configuration. test_name is required.
func Decode(config map[string]interface{}) (*TestConfig, error) {
	var result TestConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &result,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := decoder.Decode(config); err != nil {
		return nil, errors.WithStack(&battstatserrors.ErrConfig{Message: err.Error()})
	}
	if result.TestName == "" {
		return nil, errors.WithStack(&battstatserrors.ErrConfig{Key: TestNameKey, Message: "key is required"})
	}
	if result.DataTable == "" {
		result.DataTable = DefaultDataTable
	}
	return &result, nil
}

// LoadTestConfig loads the file at path and decodes it.
func LoadTestConfig(path string) (*TestConfig, error) {
	config, err := Load(path)
	if err != nil {
		return nil, err
	}
	result, err := Decode(config)
	if err != nil {
		var configErr *battstatserrors.ErrConfig
		if errors.As(err, &configErr) {
			configErr.Path = path
		}
		return nil, err
	}
	return result, nil
}
