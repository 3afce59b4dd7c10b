// Package kafka publishes map paint commands so remote displays can mirror
// the rendered map.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-alert-map/internal/config"
	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/observability"
)

const (
	cmdPaint   = "paint"
	cmdOutline = "outline"
	cmdResize  = "resize"
)

// Command is one surface operation as published to the paint topic.
type Command struct {
	Op     string `json:"op"`
	Region uint16 `json:"region,omitempty"`
	Color  string `json:"color,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// PaintSink is a render.Surface that buffers commands and publishes them on
// Flush, one Kafka batch per rendered frame.
type PaintSink struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	pending []kafkago.Message
}

// NewPaintSink creates a producer for the configured paint topic.
func NewPaintSink(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *PaintSink {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaPaintTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newPaintSink(w, cfg.KafkaTimeout, logger, metrics)
}

func newPaintSink(w messageWriter, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *PaintSink {
	return &PaintSink{writer: w, timeout: timeout, logger: logger, metrics: metrics}
}

func (s *PaintSink) PaintRegion(id domain.RegionID, color domain.Color) {
	s.enqueue(Command{Op: cmdPaint, Region: uint16(id), Color: color.Hex()})
}

func (s *PaintSink) DrawOutline(id domain.RegionID) {
	s.enqueue(Command{Op: cmdOutline, Region: uint16(id)})
}

func (s *PaintSink) ResizeTo(width, height int) {
	s.enqueue(Command{Op: cmdResize, Width: width, Height: height})
}

func (s *PaintSink) enqueue(cmd Command) {
	msg, err := serializeToMessage(cmd, domain.Now())
	if err != nil {
		s.logger.Warn("paint command dropped", "error", err, "op", cmd.Op)
		s.metrics.SinkMessages.WithLabelValues("error").Inc()
		return
	}
	s.mu.Lock()
	s.pending = append(s.pending, msg)
	s.mu.Unlock()
}

// Flush publishes the buffered commands. On failure the batch is dropped;
// the next forced repaint resynchronizes consumers.
func (s *PaintSink) Flush() error {
	s.mu.Lock()
	msgs := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(msgs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		s.metrics.SinkMessages.WithLabelValues("error").Add(float64(len(msgs)))
		return fmt.Errorf("publish %d paint commands: %w", len(msgs), err)
	}
	s.metrics.SinkMessages.WithLabelValues("success").Add(float64(len(msgs)))
	return nil
}

// Close flushes what is buffered and closes the producer.
func (s *PaintSink) Close() error {
	if err := s.Flush(); err != nil {
		s.logger.Warn("final paint flush failed", "error", err)
	}
	return s.writer.Close()
}

// serializeToMessage marshals a command into a Kafka message keyed by region
// so every command for a region lands on the same partition in order.
func serializeToMessage(cmd Command, emittedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize paint command: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(int(cmd.Region))),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "command", Value: []byte(cmd.Op)},
			{Key: "emitted_at", Value: []byte(emittedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
