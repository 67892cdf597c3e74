package configuration

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/BattGenie/battstats/internal/common"
	"github.com/BattGenie/battstats/internal/common/battstatserrors"
	commonconfig "github.com/BattGenie/battstats/internal/common/config"
)

// CredentialEnvVars maps each DatabaseCredentials field to the environment variable it is read from.
var CredentialEnvVars = map[string]string{
	"Target":   "DB_TARGET",
	"Username": "DB_USERNAME",
	"Password": "DB_PASSWORD",
	"Hostname": "DB_HOSTNAME",
	"Port":     "DB_PORT",
	"SslMode":  "DB_SSLMODE",
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("postgres.driver", "pgx")
	v.SetDefault("postgres.maxopenconns", 4)
	v.SetDefault("postgres.maxidleconns", 1)
	v.SetDefault("postgres.connmaxlifetime", 5*time.Minute)
	v.SetDefault("postgres.credentials.sslmode", "disable")
	v.SetDefault("logfile", "log.log")
	v.SetDefault("output", "json")
	v.SetDefault("connect_attempts", 1)
	v.SetDefault("query_timeout", 30*time.Second)
}

// Load reads the configuration from v, taking the database credentials from the environment.
// The result is not validated; call Validate before using it.
func Load(v *viper.Viper) (BattstatsConfiguration, error) {
	SetDefaults(v)
	v.SetEnvPrefix("battstats")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("postgres.driver", "DB_DRIVER"); err != nil {
		return BattstatsConfiguration{}, errors.WithStack(err)
	}
	for field, env := range CredentialEnvVars {
		if err := v.BindEnv("postgres.credentials."+strings.ToLower(field), env); err != nil {
			return BattstatsConfiguration{}, errors.WithStack(err)
		}
	}

	var config BattstatsConfiguration
	if err := common.LoadConfig(v, &config, commonconfig.CustomHooks...); err != nil {
		return BattstatsConfiguration{}, &battstatserrors.ErrConfig{Message: err.Error()}
	}
	return config, nil
}

// Validate checks the configuration. Missing credentials are reported together as a single
// *battstatserrors.ErrConnection naming every missing environment variable; any other problem
// is a *battstatserrors.ErrConfig.
func (c BattstatsConfiguration) Validate() error {
	validate := validator.New()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errors.WithStack(err)
	}
	commonconfig.LogValidationErrors(validationErrors)

	var missingCredentials, invalid *multierror.Error
	for _, fieldErr := range validationErrors {
		if env, ok := CredentialEnvVars[fieldErr.Field()]; ok && strings.Contains(fieldErr.Namespace(), ".Credentials.") {
			missingCredentials = multierror.Append(missingCredentials, fmt.Errorf("%s is not set", env))
			continue
		}
		invalid = multierror.Append(invalid, fmt.Errorf("%s failed %q check", fieldErr.Namespace(), fieldErr.Tag()))
	}
	if missingCredentials != nil {
		missingCredentials.ErrorFormat = listFormat
		return errors.WithStack(&battstatserrors.ErrConnection{Message: missingCredentials.Error()})
	}
	invalid.ErrorFormat = listFormat
	return errors.WithStack(&battstatserrors.ErrConfig{Message: invalid.Error()})
}

func listFormat(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, ", ")
}
