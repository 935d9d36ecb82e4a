package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/tiongMax/stocktracker/internal/events"
)

// Consumer reads watchlist events from every partition of a topic and logs
// them along with a per-second throughput figure.
type Consumer struct {
	consumer sarama.Consumer
	topic    string
	interval time.Duration

	mu     sync.Mutex
	counts map[events.Type]int
}

// NewConsumer connects to brokers.
func NewConsumer(brokers []string, topic string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumer(brokers, config)
	if err != nil {
		return nil, err
	}
	return NewConsumerWithClient(consumer, topic), nil
}

// NewConsumerWithClient uses an existing sarama consumer.
func NewConsumerWithClient(consumer sarama.Consumer, topic string) *Consumer {
	return &Consumer{
		consumer: consumer,
		topic:    topic,
		interval: time.Second,
		counts:   make(map[events.Type]int),
	}
}

// Start consumes until ctx is cancelled, then closes the partition consumers.
func (c *Consumer) Start(ctx context.Context) error {
	partitions, err := c.consumer.Partitions(c.topic)
	if err != nil {
		return fmt.Errorf("list partitions for %s: %w", c.topic, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages := make(chan *sarama.ConsumerMessage)
	var wg sync.WaitGroup
	for _, partition := range partitions {
		pc, err := c.consumer.ConsumePartition(c.topic, partition, sarama.OffsetNewest)
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("consume partition %d: %w", partition, err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			c.forward(ctx, partition, pc, messages)
		}()
	}

	slog.Info("Connected to Kafka, consuming topic", "topic", c.topic, "partitions", len(partitions))

	msgCount := 0
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil

		case msg := <-messages:
			if _, err := c.handleMessage(msg); err != nil {
				slog.Warn("Skipping malformed watchlist event", "partition", msg.Partition, "offset", msg.Offset, "error", err)
				continue
			}
			msgCount++

		case <-ticker.C:
			if msgCount > 0 {
				slog.Info("Throughput", "messages_per_sec", float64(msgCount)/c.interval.Seconds())
				msgCount = 0
			}
		}
	}
}

// forward copies one partition's messages into out until ctx is done or the
// partition consumer shuts its channels, then closes pc.
func (c *Consumer) forward(ctx context.Context, partition int32, pc sarama.PartitionConsumer, out chan<- *sarama.ConsumerMessage) {
	defer func() {
		if err := pc.Close(); err != nil {
			slog.Error("Error closing partition consumer", "partition", partition, "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pc.Messages():
			if !ok {
				return
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		case err, ok := <-pc.Errors():
			if !ok {
				return
			}
			slog.Error("Kafka error", "partition", partition, "error", err)
		}
	}
}

func (c *Consumer) handleMessage(msg *sarama.ConsumerMessage) (events.WatchlistEvent, error) {
	var ev events.WatchlistEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return ev, fmt.Errorf("decode watchlist event: %w", err)
	}
	if ev.Type != events.TickerAdded && ev.Type != events.TickerRemoved {
		return ev, fmt.Errorf("unknown event type %q", ev.Type)
	}

	c.mu.Lock()
	c.counts[ev.Type]++
	c.mu.Unlock()

	slog.Info("Watchlist changed", "event_id", ev.ID, "type", ev.Type, "email", ev.Email, "ticker", ev.Ticker, "at", ev.At)
	return ev, nil
}

// Counts returns how many events of each type were processed.
func (c *Consumer) Counts() map[events.Type]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[events.Type]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Close releases the underlying consumer.
func (c *Consumer) Close() error {
	return c.consumer.Close()
}
