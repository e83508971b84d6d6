// Package logging wires up the two-sink, two-level structured logger
// every binary in this repository uses: independently leveled console
// and file sinks, in the spirit of the original tool's spdlog setup but
// realized with zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Levels accepted by --log-level-console / --log-level-file, matching
// the original tool's choice list.
var validLevels = map[string]zerolog.Level{
	"off":      zerolog.Disabled,
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"critical": zerolog.FatalLevel,
}

// ParseLevel validates a --log-level-* flag value.
func ParseLevel(s string) (zerolog.Level, error) {
	lvl, ok := validLevels[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q (want off, trace, debug, info, warning, error, critical)", s)
	}
	return lvl, nil
}

// New builds a logger that writes to os.Stderr at consoleLevel and, if
// fileLevel is not "off", also to logFile at fileLevel. The returned
// closer must be called before the process exits to flush and release
// the log file handle.
func New(component, consoleLevelStr, fileLevelStr, logFile string) (zerolog.Logger, func(), error) {
	consoleLevel, err := ParseLevel(consoleLevelStr)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("--log-level-console: %w", err)
	}
	fileLevel, err := ParseLevel(fileLevelStr)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("--log-level-file: %w", err)
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	consoleLeveled := &levelFilterWriter{w: console, level: consoleLevel}

	writers := []io.Writer{consoleLeveled}
	closer := func() {}

	if fileLevel != zerolog.Disabled && logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("failed to create log file %s: %w", logFile, err)
		}
		writers = append(writers, &levelFilterWriter{w: f, level: fileLevel})
		closer = func() { f.Close() }
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Str("component", component).Logger().
		Level(zerolog.TraceLevel) // the per-writer filters below enforce the real thresholds

	return logger, closer, nil
}

// levelFilterWriter drops events below level before delegating to w,
// giving each sink (console, file) an independent threshold even though
// zerolog.MultiLevelWriter fans every event out to all writers.
type levelFilterWriter struct {
	w     io.Writer
	level zerolog.Level
}

func (lw *levelFilterWriter) Write(p []byte) (int, error) {
	return lw.w.Write(p)
}

func (lw *levelFilterWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < lw.level {
		return len(p), nil
	}
	return lw.w.Write(p)
}
