package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)

	// adapters are cached by name, so every test gets its own
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return mr, adapter
}

func testConfig() QueueConfig {
	return QueueConfig{
		Name:              "test:deliveries",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        2,
		VisibilityTimeout: 20 * time.Millisecond,
		PollInterval:      10 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	}
}

func TestNewQueue_RequiresName(t *testing.T) {
	_, adapter := setupTestRedis(t)
	_, err := NewQueue(adapter, QueueConfig{})
	assert.Error(t, err)
}

func TestNewQueue_ExistingGroup(t *testing.T) {
	_, adapter := setupTestRedis(t)
	_, err := NewQueue(adapter, testConfig())
	require.NoError(t, err)
	_, err = NewQueue(adapter, testConfig())
	assert.NoError(t, err)
}

func TestQueue_PublishAndPoll(t *testing.T) {
	_, adapter := setupTestRedis(t)
	q, err := NewQueue(adapter, testConfig())
	require.NoError(t, err)

	job := model.InvoiceDelivery{ID: "job-1", TransactionID: "42", InvoiceNumber: "FC-0001-00000042"}
	_, err = q.PublishJSON(context.Background(), job, map[string]string{"transaction_id": "42"})
	require.NoError(t, err)

	var got model.InvoiceDelivery
	var meta map[string]string
	q.handler = func(ctx context.Context, msg *Message) error {
		meta = msg.Metadata
		return msg.Decode(&got)
	}

	assert.Equal(t, 1, q.Poll())
	assert.Equal(t, job.InvoiceNumber, got.InvoiceNumber)
	assert.Equal(t, "42", meta["transaction_id"])

	stats, err := q.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PendingMessages)
	assert.Equal(t, 0, q.Poll())
}

func TestQueue_RetryThenDeadLetter(t *testing.T) {
	_, adapter := setupTestRedis(t)
	cfg := testConfig()
	q, err := NewQueue(adapter, cfg)
	require.NoError(t, err)

	_, err = q.Publish(context.Background(), []byte(`{}`), nil)
	require.NoError(t, err)

	var attempts []int
	q.handler = func(ctx context.Context, msg *Message) error {
		attempts = append(attempts, msg.Attempts)
		return errors.New("provider down")
	}

	require.Equal(t, 1, q.Poll())
	for i := 0; i < cfg.MaxRetries+1; i++ {
		time.Sleep(cfg.VisibilityTimeout + 10*time.Millisecond)
		q.Poll()
	}

	assert.Equal(t, []int{0, 1, 2}, attempts)
	stats, err := q.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DeadMessages)
	assert.Equal(t, int64(0), stats.PendingMessages)
}

func TestQueue_ConsumeAndStop(t *testing.T) {
	_, adapter := setupTestRedis(t)
	q, err := NewQueue(adapter, testConfig())
	require.NoError(t, err)

	assert.Error(t, q.Consume(nil))

	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan struct{})
	require.NoError(t, q.Consume(func(ctx context.Context, msg *Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen[string(msg.Data)] = true
		if len(seen) == 3 {
			close(done)
		}
		return nil
	}))

	for _, body := range []string{"a", "b", "c"} {
		_, err := q.Publish(context.Background(), []byte(body), nil)
		require.NoError(t, err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("messages not consumed")
	}
	assert.NoError(t, q.Stop(time.Second))
}
