package audit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Name identifies one trail file.
type Name string

const (
	// Commands records every inbound event and command invocation.
	Commands Name = "commands"
	// Points records every committed balance change.
	Points Name = "points"
	// Errors records rejected events and external failures.
	Errors Name = "errors"
	// Debug records scheduler and reconciliation chatter.
	Debug Name = "debug"
)

// ErrUnknownTrail is returned for a trail name outside the known set.
var ErrUnknownTrail = errors.New("unknown audit trail")

var fileNames = map[Name]string{
	Commands: "command_history.txt",
	Points:   "point_history.txt",
	Errors:   "error_log.txt",
	Debug:    "debug_log.txt",
}

// TimeLayout is the timestamp prefix of every trail line.
const TimeLayout = "2006-01-02 03:04PM"

// Trail is the set of append-only audit files.
type Trail struct {
	dir     string
	loggers map[Name]*zap.SugaredLogger
	writers []*lumberjack.Logger
}

// New opens (lazily creates) the trail files under cfg.Dir.
func New(cfg Config) (*Trail, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit dir %s: %w", dir, err)
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "message",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(TimeLayout),
		ConsoleSeparator: " - ",
	}

	t := &Trail{dir: dir, loggers: make(map[Name]*zap.SugaredLogger, len(fileNames))}
	for name, file := range fileNames {
		w := &lumberjack.Logger{
			Filename:   filepath.Join(dir, file),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zapcore.DebugLevel)
		t.loggers[name] = zap.New(core).Sugar()
		t.writers = append(t.writers, w)
	}
	return t, nil
}

// Nop returns a trail that discards everything. Reads return no lines.
func Nop() *Trail {
	t := &Trail{loggers: make(map[Name]*zap.SugaredLogger, len(fileNames))}
	for name := range fileNames {
		t.loggers[name] = zap.NewNop().Sugar()
	}
	return t
}

// Command appends a line to the command history.
func (t *Trail) Command(format string, args ...any) { t.write(Commands, format, args...) }

// Point appends a line to the point history.
func (t *Trail) Point(format string, args ...any) { t.write(Points, format, args...) }

// Error appends a line to the error log.
func (t *Trail) Error(format string, args ...any) { t.write(Errors, format, args...) }

// Debug appends a line to the debug log.
func (t *Trail) Debug(format string, args ...any) { t.write(Debug, format, args...) }

func (t *Trail) write(name Name, format string, args ...any) {
	if t == nil {
		return
	}
	if l, ok := t.loggers[name]; ok {
		l.Infof(format, args...)
	}
}

// Names lists the known trails in a stable order.
func Names() []Name {
	out := make([]Name, 0, len(fileNames))
	for name := range fileNames {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Path returns the file backing a trail. A Nop trail has no files.
func (t *Trail) Path(name Name) (string, error) {
	file, ok := fileNames[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTrail, name)
	}
	if t == nil || t.dir == "" {
		return "", nil
	}
	return filepath.Join(t.dir, file), nil
}

// Close flushes and closes every trail file.
func (t *Trail) Close() error {
	var errs []error
	for _, l := range t.loggers {
		_ = l.Sync()
	}
	for _, w := range t.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
