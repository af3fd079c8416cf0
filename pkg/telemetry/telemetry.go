package telemetry

import (
	"context"
	"log/slog"
)

// Level is the severity of a breadcrumb.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Well known Data keys.
const (
	KeyStage   = "stage"
	KeyOutcome = "outcome"
)

// Breadcrumb is one recorded event.
type Breadcrumb struct {
	Category string
	Message  string
	Level    Level
	Data     map[string]any
}

// Sink receives breadcrumbs. Implementations must not block for long.
type Sink interface {
	Record(ctx context.Context, b Breadcrumb)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, b Breadcrumb)

func (f SinkFunc) Record(ctx context.Context, b Breadcrumb) { f(ctx, b) }

type nopSink struct{}

func (nopSink) Record(context.Context, Breadcrumb) {}

// Nop discards every breadcrumb.
func Nop() Sink { return nopSink{} }

type multiSink []Sink

func (m multiSink) Record(ctx context.Context, b Breadcrumb) {
	for _, s := range m {
		s.Record(ctx, b)
	}
}

// Multi fans a breadcrumb out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type safeSink struct {
	next Sink
	log  *slog.Logger
}

// Safe recovers panics raised by next. Recovered panics are logged to log,
// or dropped when log is nil.
func Safe(next Sink, log *slog.Logger) Sink {
	if next == nil {
		return Nop()
	}
	return safeSink{next: next, log: log}
}

func (s safeSink) Record(ctx context.Context, b Breadcrumb) {
	defer func() {
		if r := recover(); r != nil && s.log != nil {
			s.log.WarnContext(ctx, "telemetry sink panicked",
				slog.String("category", b.Category),
				slog.Any("panic", r),
			)
		}
	}()
	s.next.Record(ctx, b)
}

// LogSink writes breadcrumbs to a slog logger.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Record(ctx context.Context, b Breadcrumb) {
	attrs := make([]slog.Attr, 0, len(b.Data)+1)
	attrs = append(attrs, slog.String("category", b.Category))
	for k, v := range b.Data {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.log.LogAttrs(ctx, b.Level.slogLevel(), b.Message, attrs...)
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
