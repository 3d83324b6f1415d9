package observability

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Span times one unit of work, such as a request or a dataset load. Spans
// started from a context that already carries one share its trace.
type Span struct {
	TraceID   string
	SpanID    string
	ParentID  string
	Operation string
	Start     time.Time
	Duration  time.Duration
	Tags      map[string]string
	Status    SpanStatus
	Err       string

	finished bool
}

type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "OK"
	SpanStatusError SpanStatus = "ERROR"
)

type spanContextKey struct{}

func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		TraceID:   newID(),
		SpanID:    newID(),
		Operation: operation,
		Start:     time.Now(),
		Status:    SpanStatusOK,
		Tags:      make(map[string]string),
	}
	if parent := GetSpan(ctx); parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	}
	return context.WithValue(ctx, spanContextKey{}, span), span
}

// Finish records the duration. Later calls keep the first measurement.
func (s *Span) Finish() {
	if s.finished {
		return
	}
	s.Duration = time.Since(s.Start)
	s.finished = true
}

func (s *Span) Finished() bool {
	return s.finished
}

func (s *Span) SetTag(key, value string) {
	if s.Tags == nil {
		s.Tags = make(map[string]string)
	}
	s.Tags[key] = value
}

func (s *Span) SetError(err error) {
	s.Status = SpanStatusError
	if err != nil {
		s.Err = err.Error()
	}
}

// Log writes the span at debug level, or at warn level when it failed.
// Tags are grouped and written in key order.
func (s *Span) Log(ctx context.Context, logger *slog.Logger) {
	level := slog.LevelDebug
	if s.Status == SpanStatusError {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("trace_id", s.TraceID),
		slog.String("span_id", s.SpanID),
		slog.String("operation", s.Operation),
		slog.String("status", string(s.Status)),
	}
	if s.ParentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.ParentID))
	}
	if s.finished {
		attrs = append(attrs, slog.Duration("duration", s.Duration))
	}
	if s.Err != "" {
		attrs = append(attrs, slog.String("error", s.Err))
	}
	if len(s.Tags) > 0 {
		tags := make([]any, 0, len(s.Tags))
		for _, k := range slices.Sorted(maps.Keys(s.Tags)) {
			tags = append(tags, slog.String(k, s.Tags[k]))
		}
		attrs = append(attrs, slog.Group("tags", tags...))
	}

	logger.LogAttrs(ctx, level, "span finished", attrs...)
}

func GetSpan(ctx context.Context) *Span {
	span, _ := ctx.Value(spanContextKey{}).(*Span)
	return span
}

// newID returns 16 hex digits taken from a random UUID.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
