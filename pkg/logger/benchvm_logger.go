package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type benchvmLogger struct {
	// name is published as the scope of every entry
	name string

	entry *logrus.Entry
}

var BenchvmVersion = "unknown"

var fieldMap = logrus.FieldMap{
	logrus.FieldKeyTime:  logFieldTimeStamp,
	logrus.FieldKeyLevel: logFieldLevel,
	logrus.FieldKeyMsg:   logFieldMessage,
}

func newBenchvmLogger(name string) *benchvmLogger {
	base := logrus.New()
	base.SetOutput(os.Stdout)

	bl := &benchvmLogger{
		name: name,
		entry: base.WithFields(logrus.Fields{
			logFieldScope: name,
			logFieldType:  LogTypeLog,
		}),
	}
	bl.EnableJsonOutput(defaultJsonOutput)
	return bl
}

func newFormatter(jsonOutput bool) logrus.Formatter {
	if jsonOutput {
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano, FieldMap: fieldMap}
	}
	return &logrus.TextFormatter{TimestampFormat: time.RFC3339Nano, FieldMap: fieldMap}
}

// EnableJsonOutput switches between JSON and text output and resets the
// static fields of the entry.
func (l *benchvmLogger) EnableJsonOutput(enabled bool) {
	hostname, _ := os.Hostname()
	data := logrus.Fields{
		logFieldScope:      l.entry.Data[logFieldScope],
		logFieldType:       l.entry.Data[logFieldType],
		logFieldInstance:   hostname,
		logFieldBenchvmVer: BenchvmVersion,
	}
	if appId, ok := l.entry.Data[logFieldAppId]; ok {
		data[logFieldAppId] = appId
	}
	l.entry.Data = data
	l.entry.Logger.SetFormatter(newFormatter(enabled))
}

// derive returns a logger sharing name and output with l.
func (l *benchvmLogger) derive(entry *logrus.Entry) *benchvmLogger {
	return &benchvmLogger{name: l.name, entry: entry}
}

func (l *benchvmLogger) LogrusEntry() *logrus.Entry {
	return l.entry
}

// SetAppId sets app_id field in the log. Default value is an empty string.
func (l *benchvmLogger) SetAppId(id string) {
	if id == undefinedAppId {
		return
	}
	l.entry = l.entry.WithField(logFieldAppId, id)
}

// toLogrusLevel maps lvl to its logrus level. lvl is always one of logLevels.
func toLogrusLevel(lvl LogLevel) logrus.Level {
	l, _ := logrus.ParseLevel(string(lvl))
	return l
}

// SetLogLevel sets the log output level.
func (l *benchvmLogger) SetLogLevel(logLevel LogLevel) {
	if logLevel == UndefinedLevel {
		return
	}
	l.entry.Logger.SetLevel(toLogrusLevel(logLevel))
}

// LogLevel returns the current log level.
func (l *benchvmLogger) LogLevel() string {
	return l.entry.Logger.GetLevel().String()
}

// IsLogLevelEnabled returns true if the logger will output this LogLevel.
func (l *benchvmLogger) IsLogLevelEnabled(level LogLevel) bool {
	return l.entry.Logger.IsLevelEnabled(toLogrusLevel(level))
}

// SetOutput sets the destination for the logs.
func (l *benchvmLogger) SetOutput(dst io.Writer) {
	l.entry.Logger.SetOutput(dst)
}

// WithLogType specify the log_type field in log. Default value is LogTypeLog.
func (l *benchvmLogger) WithLogType(logType string) Logger {
	return l.derive(l.entry.WithField(logFieldType, logType))
}

// WithFields returns a logger with the added structured fields.
func (l *benchvmLogger) WithFields(fields map[string]any) Logger {
	return l.derive(l.entry.WithFields(fields))
}

// Info logs a message at level Info.
func (l *benchvmLogger) Info(args ...interface{}) {
	l.entry.Log(logrus.InfoLevel, args...)
}

// Infof logs a formatted message at level Info.
func (l *benchvmLogger) Infof(format string, args ...interface{}) {
	l.entry.Logf(logrus.InfoLevel, format, args...)
}

// Debug logs a message at level Debug.
func (l *benchvmLogger) Debug(args ...interface{}) {
	l.entry.Log(logrus.DebugLevel, args...)
}

// Debugf logs a formatted message at level Debug.
func (l *benchvmLogger) Debugf(format string, args ...interface{}) {
	l.entry.Logf(logrus.DebugLevel, format, args...)
}

// Warn logs a message at level Warn.
func (l *benchvmLogger) Warn(args ...interface{}) {
	l.entry.Log(logrus.WarnLevel, args...)
}

// Warnf logs a formatted message at level Warn.
func (l *benchvmLogger) Warnf(format string, args ...interface{}) {
	l.entry.Logf(logrus.WarnLevel, format, args...)
}

// Error logs a message at level Error.
func (l *benchvmLogger) Error(args ...interface{}) {
	l.entry.Log(logrus.ErrorLevel, args...)
}

// Errorf logs a formatted message at level Error.
func (l *benchvmLogger) Errorf(format string, args ...interface{}) {
	l.entry.Logf(logrus.ErrorLevel, format, args...)
}

// Fatal logs a message at level Fatal then the process will exit with status set to 1.
func (l *benchvmLogger) Fatal(args ...interface{}) {
	l.entry.Fatal(args...)
}

// Fatalf logs a formatted message at level Fatal then the process will exit with status set to 1.
func (l *benchvmLogger) Fatalf(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}
