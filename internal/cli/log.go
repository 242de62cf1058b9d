package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// logTimeFormat renders timestamps as "14:32:01.45".
const logTimeFormat = "15:04:05.00"

// newLogger returns a timestamped logger writing to w at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// stage times one step of a command. Not safe for concurrent use.
type stage struct {
	logger *log.Logger
	name   string
	start  time.Time
}

func startStage(l *log.Logger, name string) *stage {
	l.Debug("stage started", "stage", name)
	return &stage{logger: l, name: name, start: time.Now()}
}

// done logs the stage's elapsed time, rounded to milliseconds, with keyvals
// appended. A non-nil err is logged at warn level.
func (s *stage) done(err error, keyvals ...any) time.Duration {
	elapsed := time.Since(s.start).Round(time.Millisecond)
	kv := append([]any{"stage", s.name, "elapsed", elapsed}, keyvals...)
	if err != nil {
		s.logger.Warn("stage failed", append(kv, "err", err)...)
		return elapsed
	}
	s.logger.Info("stage finished", kv...)
	return elapsed
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
