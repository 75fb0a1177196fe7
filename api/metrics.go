package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "taskboard-api"
	moveSpanName    = "taskboard.tasks.move"
	moveEventName   = "tasks.move.request.metrics"
	moveEventDomain = "taskboard"
	moveRoute       = "/api/tasks/:id/move"
)

// moveRequestMetrics carries the span and the structured observability event
// for the move hot path.
type moveRequestMetrics struct {
	logger     *log.Logger
	span       trace.Span
	start      time.Time
	taskID     string
	columnID   string
	position   int
	hasTarget  bool
	errorStage string
}

func newMoveRequestMetrics(ctx context.Context, logger *log.Logger) (*moveRequestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, moveSpanName)
	return &moveRequestMetrics{logger: logger, span: span, start: time.Now()}, spanCtx
}

func (m *moveRequestMetrics) SetTask(taskID, columnID string, position int) {
	m.taskID = taskID
	m.columnID = columnID
	m.position = position
	m.hasTarget = true
}

func (m *moveRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log closes the span and emits one observability event for the request.
func (m *moveRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	totalMs := durationToMillis(time.Since(m.start))

	attrs := []attribute.KeyValue{
		attribute.String("http.route", moveRoute),
		attribute.Int("http.status_code", status),
		attribute.Float64("taskboard.move.total_ms", totalMs),
	}
	if m.hasTarget {
		attrs = append(attrs,
			attribute.String("taskboard.move.task_id", m.taskID),
			attribute.String("taskboard.move.column_id", m.columnID),
			attribute.Int("taskboard.move.position", m.position),
		)
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("taskboard.move.error_stage", m.errorStage))
	}
	if m.span != nil {
		m.span.SetAttributes(attrs...)
		m.span.AddEvent("observability.event", trace.WithAttributes(attrs...))
		if err != nil || status >= 500 {
			m.span.SetStatus(codes.Error, m.errorStage)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":   moveEventName,
		"event.domain": moveEventDomain,
		"http.route":   moveRoute,
		"status":       status,
		"total_ms":     totalMs,
	}
	if m.hasTarget {
		fields["task_id"] = m.taskID
		fields["column_id"] = m.columnID
		fields["position"] = m.position
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
	}
	m.logger.WithFields(fields).Info("observability.event")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
