package livechat

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/coregx/livechat"

// Metrics holds the OpenTelemetry counters recorded by the chat services.
// A nil *Metrics records nothing.
type Metrics struct {
	messagesSent   metric.Int64Counter
	readReceipts   metric.Int64Counter
	roomsCreated   metric.Int64Counter
	roomsClosed    metric.Int64Counter
	framesRejected metric.Int64Counter
}

// NewMetrics registers the chat counters on meter.
// A nil meter uses the global meter provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	var (
		m   Metrics
		err error
	)
	if m.messagesSent, err = meter.Int64Counter("livechat_messages_sent_total",
		metric.WithDescription("Chat messages persisted and broadcast")); err != nil {
		return nil, err
	}
	if m.readReceipts, err = meter.Int64Counter("livechat_read_receipts_total",
		metric.WithDescription("Read receipts newly recorded")); err != nil {
		return nil, err
	}
	if m.roomsCreated, err = meter.Int64Counter("livechat_rooms_created_total",
		metric.WithDescription("Chat rooms opened")); err != nil {
		return nil, err
	}
	if m.roomsClosed, err = meter.Int64Counter("livechat_rooms_closed_total",
		metric.WithDescription("Chat rooms closed")); err != nil {
		return nil, err
	}
	if m.framesRejected, err = meter.Int64Counter("livechat_frames_rejected_total",
		metric.WithDescription("Inbound frames answered with an ERROR frame")); err != nil {
		return nil, err
	}
	return &m, nil
}

// defaultMetrics returns counters on the global meter, or nil if they cannot be created.
func defaultMetrics() *Metrics {
	m, err := NewMetrics(nil)
	if err != nil {
		return nil
	}
	return m
}

// MessageSent records one sent message.
func (m *Metrics) MessageSent(ctx context.Context, messageType string) {
	if m == nil {
		return
	}
	m.messagesSent.Add(ctx, 1, metric.WithAttributes(attribute.String("type", messageType)))
}

// ReadReceipts records n newly created receipts.
func (m *Metrics) ReadReceipts(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.readReceipts.Add(ctx, int64(n))
}

// RoomCreated records one opened room.
func (m *Metrics) RoomCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.roomsCreated.Add(ctx, 1)
}

// RoomClosed records one closed room.
func (m *Metrics) RoomClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.roomsClosed.Add(ctx, 1)
}

// FrameRejected records an inbound frame answered with an ERROR frame.
func (m *Metrics) FrameRejected(ctx context.Context, protocolCode string) {
	if m == nil {
		return
	}
	m.framesRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("code", protocolCode)))
}
