package logger

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type loggingFlags struct {
	Config Config
}

type parsedFlags struct {
	logFlags *loggingFlags
	flagSet  *pflag.FlagSet
}

func ParseFlags() *parsedFlags {
	var f loggingFlags

	fs := pflag.NewFlagSet("logging", pflag.ExitOnError)
	fs.SortFlags = true

	fs.StringVar(&f.Config.AppId, "log-app-id", "", "App id that should be displayed in the logs")
	fs.StringVar(&f.Config.LogLevel, "log-level", defaultLogLevel, "Log level for which the logs should be displayed")
	fs.BoolVar(&f.Config.LogJsonOutput, "log-json-out", defaultJsonOutput, "Wether the log output should be printed in json format or not")

	return &parsedFlags{
		logFlags: &f,
		flagSet:  fs,
	}
}

// ReadAndApply reads the logging flags of the command and applies them to every registered logger.
func ReadAndApply(command *cobra.Command, logger Logger) {
	cfg, err := readConfig(command.Flags())
	if err == nil {
		err = ApplyConfigToLoggers(&cfg)
	}
	if err != nil {
		logger.Fatalf("failed to apply logger configuration: %v", err)
	}
}

func readConfig(fs *pflag.FlagSet) (Config, error) {
	var cfg Config
	var errs [3]error
	cfg.AppId, errs[0] = fs.GetString("log-app-id")
	cfg.LogLevel, errs[1] = fs.GetString("log-level")
	cfg.LogJsonOutput, errs[2] = fs.GetBool("log-json-out")
	return cfg, errors.Join(errs[:]...)
}

func (p *parsedFlags) FlagSet() *pflag.FlagSet {
	return p.flagSet
}
