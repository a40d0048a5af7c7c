package logger

import (
	"fmt"
	"os"

	"github.com/dennishilgert/benchvm/pkg/configuration"
	"github.com/spf13/viper"
)

const (
	defaultJsonOutput = false
	defaultLogLevel   = "info"
	undefinedAppId    = ""
)

type Config struct {
	// AppId is the unique id of the benchvm application
	AppId string

	// LogJsonOutput defines the flag to enable JSON formatted log
	LogJsonOutput bool

	// LogLevel defines the level of logging
	LogLevel string
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		LogJsonOutput: defaultJsonOutput,
		AppId:         undefinedAppId,
		LogLevel:      defaultLogLevel,
	}
}

// LoadConfig loads the configuration from the environment.
func LoadConfig() Config {
	var config Config

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix("BENCHVM")

	// loading the values from the environment or use default values
	configuration.LoadOrDefaultWith(v, "AppId", "BENCHVM_LOG_APP_ID", DefaultConfig().AppId)
	configuration.LoadOrDefaultWith(v, "LogJsonOutput", "BENCHVM_LOG_FORMAT_JSON", DefaultConfig().LogJsonOutput)
	configuration.LoadOrDefaultWith(v, "LogLevel", "BENCHVM_LOG_LEVEL", DefaultConfig().LogLevel)

	// unmarshalling the Config struct
	if err := v.Unmarshal(&config); err != nil {
		fmt.Printf("unable to unmarshal logger config: %v\n", err)
		os.Exit(1)
	}

	return config
}

// ApplyConfigToLoggers applies the config to all registered loggers.
func ApplyConfigToLoggers(config *Config) error {
	internalLoggers := getLoggers()

	logLevel := toLogLevel(config.LogLevel)
	if logLevel == UndefinedLevel {
		return fmt.Errorf("invalid value for --log-level: %s", config.LogLevel)
	}

	// apply formatting options first
	for _, v := range internalLoggers {
		v.EnableJsonOutput(config.LogJsonOutput)

		if config.AppId != undefinedAppId {
			v.SetAppId(config.AppId)
		}
	}

	for _, v := range internalLoggers {
		v.SetLogLevel(logLevel)
	}
	return nil
}
