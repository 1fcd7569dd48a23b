package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	sets      map[string]any
	ttls      map[string]time.Duration
	published []string
	setErr    error
	closed    bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{sets: map[string]any{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.sets[key] = value
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Publish(_ context.Context, channel string, _ any) *redis.IntCmd {
	f.published = append(f.published, channel)
	return redis.NewIntResult(1, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestRedisSink_Publish(t *testing.T) {
	fr := newFakeRedis()
	s := NewRedisWith(fr, "", 10*time.Minute)

	err := s.Publish(context.Background(), Message{Page: "agents", Periode: "jour", Generation: 3, Body: []byte(`{"a":1}`)})
	require.NoError(t, err)

	assert.Equal(t, "redis", s.Name())
	assert.Equal(t, []byte(`{"a":1}`), fr.sets["dashboard:views:agents"])
	assert.Equal(t, 10*time.Minute, fr.ttls["dashboard:views:agents"])
	assert.Equal(t, []string{"dashboard:views"}, fr.published)

	require.NoError(t, s.Close())
	assert.True(t, fr.closed)
}

func TestRedisSink_SetError(t *testing.T) {
	fr := newFakeRedis()
	fr.setErr = errors.New("READONLY")
	s := NewRedisWith(fr, "views", 0)

	err := s.Publish(context.Background(), Message{Page: "amendes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set amendes")
	assert.Empty(t, fr.published)
}

func TestKafkaSink_Publish(t *testing.T) {
	fw := &fakeWriter{}
	s := NewKafkaWith(fw)

	err := s.Publish(context.Background(), Message{Page: "controles", Periode: "mois", Generation: 12, Body: []byte(`{}`)})
	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)

	m := fw.msgs[0]
	assert.Equal(t, "controles", string(m.Key))
	assert.Equal(t, "periode", m.Headers[0].Key)
	assert.Equal(t, "mois", string(m.Headers[0].Value))
	assert.Equal(t, "12", string(m.Headers[1].Value))
	assert.Equal(t, "kafka", s.Name())
}

func TestKafkaSink_WriteError(t *testing.T) {
	s := NewKafkaWith(&fakeWriter{err: errors.New("leader not available")})
	err := s.Publish(context.Background(), Message{Page: "agents"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka write agents")
}

func TestOpen(t *testing.T) {
	s, err := Open(Options{})
	require.NoError(t, err)
	assert.Equal(t, "none", s.Name())
	assert.NoError(t, s.Publish(context.Background(), Message{}))

	s, err = Open(Options{Driver: "Redis", RedisAddr: "localhost:6379"})
	require.NoError(t, err)
	assert.Equal(t, "redis", s.Name())

	s, err = Open(Options{Driver: "kafka", KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "views"})
	require.NoError(t, err)
	assert.Equal(t, "kafka", s.Name())

	_, err = Open(Options{Driver: "redis"})
	assert.Error(t, err)
	_, err = Open(Options{Driver: "kafka", KafkaTopic: "views"})
	assert.Error(t, err)
	_, err = Open(Options{Driver: "nats"})
	assert.Error(t, err)
}
