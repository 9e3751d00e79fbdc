package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Log level constants
const (
	LogLevelError = 1
	LogLevelWarn  = 2
	LogLevelInfo  = 3
	LogLevelDebug = 4
)

var (
	globalLogLevel = LogLevelInfo
	logLevelMutex  sync.RWMutex
)

// SetLogLevel sets the global log level
func SetLogLevel(level int) {
	logLevelMutex.Lock()
	defer logLevelMutex.Unlock()
	if level >= LogLevelError && level <= LogLevelDebug {
		globalLogLevel = level
		zerolog.SetGlobalLevel(convertLogLevel(level))
	}
}

// GetLogLevel returns the current global log level
func GetLogLevel() int {
	logLevelMutex.RLock()
	defer logLevelMutex.RUnlock()
	return globalLogLevel
}

// Logger is a tagged zerolog logger
type Logger struct {
	tag    string
	logger zerolog.Logger
}

// New creates a new logger instance with a tag
func New(tag string) *Logger {
	var output io.Writer = os.Stdout
	if isInteractive() {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02T15:04:05.000Z"}
	}
	return &Logger{
		tag:    tag,
		logger: zerolog.New(output).With().Str("tag", tag).Timestamp().Logger(),
	}
}

// isInteractive checks if the output is going to a terminal
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func convertLogLevel(level int) zerolog.Level {
	switch level {
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) checkLogLevel(level int) bool {
	logLevelMutex.RLock()
	shouldLog := level <= globalLogLevel
	logLevelMutex.RUnlock()
	return shouldLog
}

// Error logs at ERROR level
func (l *Logger) Error(message string) {
	if !l.checkLogLevel(LogLevelError) {
		return
	}
	l.logger.Error().Msg(message)
}

// Errorf logs at ERROR level with formatting and returns the message as an
// error so call sites can both report and propagate
func (l *Logger) Errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	if l.checkLogLevel(LogLevelError) {
		l.logger.Error().Msg(err.Error())
	}
	return err
}

// Warn logs at WARN level
func (l *Logger) Warn(message string) {
	if !l.checkLogLevel(LogLevelWarn) {
		return
	}
	l.logger.Warn().Msg(message)
}

// Warnf logs at WARN level with formatting
func (l *Logger) Warnf(format string, args ...any) {
	if !l.checkLogLevel(LogLevelWarn) {
		return
	}
	l.logger.Warn().Msgf(format, args...)
}

// Info logs at INFO level
func (l *Logger) Info(message string) {
	if !l.checkLogLevel(LogLevelInfo) {
		return
	}
	l.logger.Info().Msg(message)
}

// Infof logs at INFO level with formatting
func (l *Logger) Infof(format string, args ...any) {
	if !l.checkLogLevel(LogLevelInfo) {
		return
	}
	l.logger.Info().Msgf(format, args...)
}

// Successf logs at INFO level but always shows regardless of log level
func (l *Logger) Successf(format string, args ...any) {
	successLogger := l.logger.With().Str("tag", "Success").Logger()
	successLogger.WithLevel(100).Msgf(format, args...)
}

// Debug logs at DEBUG level
func (l *Logger) Debug(message string) {
	if !l.checkLogLevel(LogLevelDebug) {
		return
	}
	l.logger.Debug().Msg(message)
}

// Debugf logs at DEBUG level with formatting
func (l *Logger) Debugf(format string, args ...any) {
	if !l.checkLogLevel(LogLevelDebug) {
		return
	}
	l.logger.Debug().Msgf(format, args...)
}

// PrintError logs an error with a title, skipping nil errors
func (l *Logger) PrintError(title string, err error) {
	if err == nil {
		return
	}
	_ = l.Errorf("%s: %v", title, err)
}
