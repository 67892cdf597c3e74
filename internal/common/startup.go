package common

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigureLogging sends all logrus output to logFile at debug level.
// The file is truncated, so each run starts with an empty log.
// The returned function closes the file and should be deferred by main.
func ConfigureLogging(logFile string) (func(), error) {
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening log file %s", logFile)
	}
	log.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
	log.SetLevel(log.DebugLevel)
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}

// LoadDotEnv copies the variables in a .env file into the process environment.
// Variables already set in the environment win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Debugf("No %s file found, using process environment only", path)
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}
	log.Debugf("Loaded environment from %s", path)
	return nil
}

// BindCommandlineArguments makes every flag in flags available to v under its own name,
// with dashes replaced by underscores (e.g. --query-timeout is read as query_timeout).
func BindCommandlineArguments(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return errors.WithStack(err)
}

// LoadConfig unmarshals everything v knows about into config.
func LoadConfig(v *viper.Viper, config interface{}, opts ...viper.DecoderConfigOption) error {
	if err := v.Unmarshal(config, opts...); err != nil {
		return errors.Wrap(err, "unmarshalling config")
	}
	return nil
}
