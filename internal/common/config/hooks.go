package config

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// CustomHooks keeps viper's default hooks and additionally normalises enum-like settings.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		LowercaseStringHookFunc(),
	)),
}

// LowercaseStringHookFunc lower-cases and trims strings decoded into any named string type
// (e.g. configuration.OutputFormat), leaving plain strings untouched.
func LowercaseStringHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		// check that src and target types are valid
		if f.Kind() != reflect.String || t.Kind() != reflect.String || t == reflect.TypeOf("") {
			return data, nil
		}
		return strings.ToLower(strings.TrimSpace(data.(string))), nil
	}
}
