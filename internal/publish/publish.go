// Package publish fans reconciled page views out to external subscribers.
package publish

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/segmentio/kafka-go"
)

// Message is one encoded page view.
type Message struct {
	Page       string
	Periode    string
	Generation uint64
	Body       []byte
}

// Sink delivers messages. Publish failures never affect the dashboard state.
type Sink interface {
	Name() string
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Name() string                           { return "none" }
func (Nop) Publish(context.Context, Message) error { return nil }
func (Nop) Close() error                           { return nil }

// RedisClient is the subset of *redis.Client used by RedisSink.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

// RedisSink stores the latest view of each page under a key and announces it
// on a pub/sub channel.
type RedisSink struct {
	client  RedisClient
	channel string
	ttl     time.Duration
}

// NewRedis connects to addr.
func NewRedis(addr, channel string, ttl time.Duration) *RedisSink {
	return NewRedisWith(redis.NewClient(&redis.Options{Addr: addr}), channel, ttl)
}

// NewRedisWith wraps an existing client.
func NewRedisWith(client RedisClient, channel string, ttl time.Duration) *RedisSink {
	if channel == "" {
		channel = "dashboard:views"
	}
	return &RedisSink{client: client, channel: channel, ttl: ttl}
}

func (s *RedisSink) Name() string { return "redis" }

// Key returns the redis key holding the latest view of page.
func (s *RedisSink) Key(page string) string {
	return s.channel + ":" + page
}

func (s *RedisSink) Publish(ctx context.Context, msg Message) error {
	if err := s.client.Set(ctx, s.Key(msg.Page), msg.Body, s.ttl).Err(); err != nil {
		return eris.Wrapf(err, "publish: redis set %s", msg.Page)
	}
	if err := s.client.Publish(ctx, s.channel, msg.Body).Err(); err != nil {
		return eris.Wrapf(err, "publish: redis publish %s", msg.Page)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes views to a topic keyed by page, so one partition carries
// every view of a page in order.
type KafkaSink struct {
	writer MessageWriter
}

// NewKafka creates a synchronous producer for topic.
func NewKafka(brokers []string, topic string) *KafkaSink {
	return NewKafkaWith(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	})
}

// NewKafkaWith wraps an existing writer.
func NewKafkaWith(w MessageWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Publish(ctx context.Context, msg Message) error {
	km := kafka.Message{
		Key:   []byte(msg.Page),
		Value: msg.Body,
		Headers: []kafka.Header{
			{Key: "periode", Value: []byte(msg.Periode)},
			{Key: "generation", Value: []byte(strconv.FormatUint(msg.Generation, 10))},
		},
	}
	if err := s.writer.WriteMessages(ctx, km); err != nil {
		return eris.Wrapf(err, "publish: kafka write %s", msg.Page)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// Options selects and configures a sink.
type Options struct {
	Driver       string
	RedisAddr    string
	RedisChannel string
	KafkaBrokers []string
	KafkaTopic   string
	TTL          time.Duration
}

// Open builds the sink named by opts.Driver.
func Open(opts Options) (Sink, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "none":
		return Nop{}, nil
	case "redis":
		if opts.RedisAddr == "" {
			return nil, eris.New("publish: redis driver requires an address")
		}
		return NewRedis(opts.RedisAddr, opts.RedisChannel, opts.TTL), nil
	case "kafka":
		if len(opts.KafkaBrokers) == 0 || opts.KafkaTopic == "" {
			return nil, eris.New("publish: kafka driver requires brokers and a topic")
		}
		return NewKafka(opts.KafkaBrokers, opts.KafkaTopic), nil
	default:
		return nil, eris.Errorf("publish: unknown driver %q", opts.Driver)
	}
}
