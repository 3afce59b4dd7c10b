package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	batches [][]kafkago.Message
	err     error
	closed  bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, msgs)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2018, 1, 1, 6, 30, 0, 0, time.UTC)

	msg, err := serializeToMessage(Command{Op: cmdPaint, Region: 6087, Color: "#ff0000"}, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("6087"), msg.Key)
	assert.JSONEq(t, `{"op":"paint","region":6087,"color":"#ff0000"}`, string(msg.Value))
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "command", msg.Headers[0].Key)
	assert.Equal(t, []byte("paint"), msg.Headers[0].Value)
	assert.Equal(t, "emitted_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2018-01-01T06:30:00Z"), msg.Headers[1].Value)
}

func TestSerializeToMessage_Resize(t *testing.T) {
	msg, err := serializeToMessage(Command{Op: cmdResize, Width: 1920, Height: 1200}, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []byte("0"), msg.Key)
	assert.JSONEq(t, `{"op":"resize","width":1920,"height":1200}`, string(msg.Value))
}

func TestPaintSink_FlushPublishesOneBatch(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	w := &mockWriter{}
	metrics := observability.NewMetricsForTesting()
	sink := newPaintSink(w, time.Second, slog.Default(), metrics)

	sink.PaintRegion(6001, domain.FallbackColor)
	sink.PaintRegion(6087, domain.NewAlertCatalog().ColorFor(0x8005))
	sink.DrawOutline(6087)
	require.NoError(t, sink.Flush())

	require.Len(t, w.batches, 1)
	batch := w.batches[0]
	require.Len(t, batch, 3)
	assert.JSONEq(t, `{"op":"paint","region":6001,"color":"#cccccc"}`, string(batch[0].Value))
	assert.JSONEq(t, `{"op":"outline","region":6087}`, string(batch[2].Value))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.SinkMessages.WithLabelValues("success")))

	require.NoError(t, sink.Flush())
	assert.Len(t, w.batches, 1, "empty flush publishes nothing")
}

func TestPaintSink_FlushErrorDropsBatch(t *testing.T) {
	w := &mockWriter{err: errors.New("leader not available")}
	metrics := observability.NewMetricsForTesting()
	sink := newPaintSink(w, time.Second, slog.Default(), metrics)

	sink.ResizeTo(960, 600)
	err := sink.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SinkMessages.WithLabelValues("error")))

	w.err = nil
	require.NoError(t, sink.Close())
	assert.Empty(t, w.batches)
	assert.True(t, w.closed)
}
