package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/pos-platform/pos/pkg/cloudevents"
	"github.com/pos-platform/pos/pkg/logging"
	"github.com/pos-platform/pos/pkg/metrics"
	"github.com/pos-platform/pos/pkg/tracing"
)

// EventHandler is a function that handles a CloudEvent
type EventHandler func(ctx context.Context, event *cloudevents.POSCloudEvent) error

// DeadLetter describes a message that exhausted its processing attempts
type DeadLetter struct {
	Topic         string
	Partition     int
	Offset        int64
	EventType     string
	EventID       string
	Payload       []byte
	FailureReason string
	Attempts      int
}

// DeadLetterSink stores poison messages so their offsets can be committed
type DeadLetterSink interface {
	Store(ctx context.Context, dead DeadLetter) error
}

// Consumer handles consuming messages from Kafka topics. A handler error is
// retried with backoff up to MaxHandlerAttempts; after that the message is
// handed to the dead letter sink and its offset committed. Offsets are never
// committed for messages that neither succeeded nor reached the sink, so
// delivery stays at-least-once.
type Consumer struct {
	config   *Config
	mu       sync.Mutex
	readers  map[string]*kafka.Reader           // guarded by mu
	handlers map[string]map[string]EventHandler // topic -> eventType -> handler
	sink     DeadLetterSink
	logger   *logging.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config *Config, sink DeadLetterSink, m *metrics.Metrics, logger *logging.Logger) *Consumer {
	return &Consumer{
		config:   config,
		readers:  make(map[string]*kafka.Reader),
		handlers: make(map[string]map[string]EventHandler),
		sink:     sink,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("kafka-consumer"),
	}
}

// Subscribe subscribes to a topic with a handler for a specific event type
func (c *Consumer) Subscribe(topic string, eventType string, handler EventHandler) {
	if _, exists := c.handlers[topic]; !exists {
		c.handlers[topic] = make(map[string]EventHandler)
	}
	c.handlers[topic][eventType] = handler
}

// SubscribeAll subscribes to all event types on a topic with a single handler
func (c *Consumer) SubscribeAll(topic string, handler EventHandler) {
	c.Subscribe(topic, "*", handler)
}

// getReader returns a reader for the specified topic, creating one if necessary
func (c *Consumer) getReader(topic string) *kafka.Reader {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reader, exists := c.readers[topic]; exists {
		return reader
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.config.Brokers,
		GroupID:  c.config.ConsumerGroup,
		Topic:    topic,
		MinBytes: c.config.MinBytes,
		MaxBytes: c.config.MaxBytes,
		MaxWait:  c.config.MaxWait,
		// A zero interval makes CommitMessages synchronous, so an offset
		// is only committed once its handler or the sink has succeeded.
		CommitInterval: 0,
	})

	c.readers[topic] = reader
	return reader
}

// Start starts consuming messages from all subscribed topics. Readers are
// created up front so the consume goroutines only ever read the map.
func (c *Consumer) Start(ctx context.Context) error {
	for topic := range c.handlers {
		c.getReader(topic)
	}

	for topic := range c.handlers {
		go c.consumeTopic(ctx, topic)
	}

	<-ctx.Done()
	return ctx.Err()
}

// consumeTopic consumes messages from a single topic
func (c *Consumer) consumeTopic(ctx context.Context, topic string) {
	reader := c.getReader(topic)

	c.logger.Info("Starting consumer for topic", "topic", topic, "group", c.config.ConsumerGroup)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping consumer for topic", "topic", topic)
			return
		default:
			msg, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.WithError(err).Error("Error fetching message", "topic", topic)
				continue
			}

			event, err := c.parseMessage(msg)
			if err != nil {
				// A malformed payload can never succeed; dead-letter it and move on.
				c.logger.WithError(err).Error("Error parsing message",
					"topic", topic, "partition", msg.Partition, "offset", msg.Offset)
				c.deadLetterAndCommit(ctx, reader, msg, "", "", err, 1)
				continue
			}

			if err := c.handleWithRetry(ctx, topic, msg, event); err != nil {
				c.deadLetterAndCommit(ctx, reader, msg, event.Type, event.ID, err, c.config.MaxHandlerAttempts)
				continue
			}

			if err := reader.CommitMessages(ctx, msg); err != nil {
				c.logger.WithError(err).Error("Error committing message", "topic", topic)
			}
		}
	}
}

// handleWithRetry runs the handler with bounded retries and backoff
func (c *Consumer) handleWithRetry(ctx context.Context, topic string, msg kafka.Message, event *cloudevents.POSCloudEvent) error {
	maxAttempts := c.config.MaxHandlerAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	backoff := c.config.HandlerRetryBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = c.handleEvent(ctx, topic, msg, event)
		if lastErr == nil {
			return nil
		}

		c.logger.WithError(lastErr).Warn("Event handler failed",
			"topic", topic,
			"eventType", event.Type,
			"eventId", event.ID,
			"attempt", attempt,
			"maxAttempts", maxAttempts,
		)

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return fmt.Errorf("handler failed after %d attempts: %w", maxAttempts, lastErr)
}

// deadLetterAndCommit stores a poison message and commits its offset. When the
// sink itself fails the offset is left uncommitted so the message redelivers.
func (c *Consumer) deadLetterAndCommit(ctx context.Context, reader *kafka.Reader, msg kafka.Message, eventType, eventID string, cause error, attempts int) {
	if c.sink != nil {
		dead := DeadLetter{
			Topic:         msg.Topic,
			Partition:     msg.Partition,
			Offset:        msg.Offset,
			EventType:     eventType,
			EventID:       eventID,
			Payload:       msg.Value,
			FailureReason: cause.Error(),
			Attempts:      attempts,
		}
		if err := c.sink.Store(ctx, dead); err != nil {
			c.logger.WithError(err).Error("Failed to store dead letter; message will redeliver",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			return
		}
		if c.metrics != nil {
			c.metrics.RecordDeadLetter(msg.Topic, eventType, "handler_failure")
		}
	}

	c.logger.Error("Message dead-lettered",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"eventType", eventType,
		"eventId", eventID,
		"error", cause.Error(),
	)

	if err := reader.CommitMessages(ctx, msg); err != nil {
		c.logger.WithError(err).Error("Error committing dead-lettered message", "topic", msg.Topic)
	}
}

// parseMessage parses a Kafka message into a CloudEvent
func (c *Consumer) parseMessage(msg kafka.Message) (*cloudevents.POSCloudEvent, error) {
	var event cloudevents.POSCloudEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("event envelope missing id or type")
	}

	for _, header := range msg.Headers {
		switch header.Key {
		case "ce-poscorrelationid":
			event.CorrelationID = string(header.Value)
		case "ce-posstoreid":
			event.StoreID = string(header.Value)
		case "ce-traceparent":
			event.TraceParent = string(header.Value)
		case "ce-tracestate":
			event.TraceState = string(header.Value)
		}
	}

	return &event, nil
}

// handleEvent routes an event to the appropriate handler
func (c *Consumer) handleEvent(ctx context.Context, topic string, msg kafka.Message, event *cloudevents.POSCloudEvent) error {
	handlers, exists := c.handlers[topic]
	if !exists {
		return fmt.Errorf("no handlers registered for topic %s", topic)
	}

	if event.CorrelationID != "" {
		ctx = logging.ContextWithCorrelationID(ctx, event.CorrelationID)
	}
	if event.TraceParent != "" {
		carrier := tracing.MapCarrier{"traceparent": event.TraceParent}
		if event.TraceState != "" {
			carrier["tracestate"] = event.TraceState
		}
		ctx = tracing.ExtractTraceContext(ctx, carrier)
	}

	ctx, span := c.tracer.Start(ctx, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystem("kafka"),
			semconv.MessagingDestinationName(topic),
			attribute.String("messaging.kafka.event_type", event.Type),
			attribute.String("messaging.message_id", event.ID),
			attribute.String("messaging.kafka.consumer_group", c.config.ConsumerGroup),
		),
	)
	defer span.End()

	handler, ok := handlers[event.Type]
	if !ok {
		handler, ok = handlers["*"]
	}
	if !ok {
		c.logger.Warn("No handler found for event type", "topic", topic, "eventType", event.Type)
		span.SetStatus(codes.Ok, "skipped")
		return nil
	}

	c.logger.KafkaConsume(ctx, topic, event.Type, msg.Partition, msg.Offset)

	err := handler(ctx, event)

	if c.metrics != nil {
		c.metrics.RecordKafkaConsume(topic, event.Type, err == nil)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Close closes all readers
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for topic, reader := range c.readers {
		if err := reader.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close reader for topic %s: %w", topic, err)
		}
	}
	return lastErr
}
