//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/storm-alert-map/internal/adapter/kafka"
	"github.com/couchcryptid/storm-alert-map/internal/config"
	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/observability"
	"github.com/couchcryptid/storm-alert-map/internal/playback"
	"github.com/couchcryptid/storm-alert-map/internal/render"
	"github.com/couchcryptid/storm-alert-map/internal/timeseries"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPaintTopic = "test-paint"

type paintMessage struct {
	Command kafka.Command
	Key     string
	Headers map[string]string
}

func readPaint(ctx context.Context, t *testing.T, consumer *kafkago.Reader) paintMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from paint topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var cmd kafka.Command
	require.NoError(t, json.Unmarshal(msg.Value, &cmd), "unmarshal paint command")
	return paintMessage{Command: cmd, Key: string(msg.Key), Headers: headers}
}

// TestPlaybackPublishesPaintCommands drives a controller over a MultiSurface
// of an in-memory canvas and the Kafka sink, then checks a consumer sees the
// same diff the canvas received.
func TestPlaybackPublishesPaintCommands(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testPaintTopic)

	cfg := &config.Config{
		KafkaBrokers:    []string{broker},
		KafkaPaintTopic: testPaintTopic,
		KafkaTimeout:    10 * time.Second,
	}
	metrics := observability.NewMetricsForTesting()
	sink := kafka.NewPaintSink(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = sink.Close() })

	start := time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)
	enc, err := timeseries.NewEncoder(start, start.Add(time.Hour), 15*time.Minute)
	require.NoError(t, err)
	require.NoError(t, enc.Add(0, 0x8005, 6087, 6001))
	require.NoError(t, enc.Add(1, 0x8005, 6087))
	buf, err := enc.Bytes()
	require.NoError(t, err)
	ts, err := timeseries.Load(buf)
	require.NoError(t, err)

	canvas := render.NewCanvas()
	catalog := domain.NewAlertCatalog()
	renderer := render.NewRenderer(render.MultiSurface{canvas, sink}, catalog.ColorFor, discardLogger(), metrics)
	ctrl := playback.New(ts, renderer, nil, playback.Options{SliderMax: 1000, InitialSpeed: 2}, discardLogger(), metrics)

	ctrl.Redraw()      // paints 6001 and 6087
	ctrl.StepForward() // only 6001 changes

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testPaintTopic,
		GroupID:     fmt.Sprintf("test-paint-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	painted := map[string]string{}
	for range 3 {
		pm := readPaint(ctx, t, consumer)
		assert.Equal(t, "paint", pm.Headers["command"])
		_, err := time.Parse(time.RFC3339, pm.Headers["emitted_at"])
		assert.NoError(t, err, "emitted_at should be valid RFC3339")
		painted[fmt.Sprintf("%s@%d", pm.Key, len(painted))] = pm.Command.Color
	}

	assert.Equal(t, 3, canvas.Paints())
	col, _ := canvas.ColorOf(6001)
	assert.Equal(t, "#cccccc", col.Hex())
	assert.Contains(t, painted, "6001@2", "the expired warning is the last command")
	assert.Equal(t, "#cccccc", painted["6001@2"])
}
