package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/repository"
	"github.com/gfconnector/billing-console/pkg/pg"
	"github.com/gfconnector/billing-console/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// SetupTestDB opens a private in-memory sqlite database with the full schema.
func SetupTestDB(t *testing.T) *pg.DB {
	t.Helper()
	db, err := pg.CreateSqlite(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(repository.Entities()...))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// SetupTestRedis starts miniredis and connects an adapter under a name unique to the test,
// so the adapter cache never hands out a connection to another test's server.
func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)

	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return mr, adapter
}

func SeedTransactions(t *testing.T, db *pg.DB, items ...model.Transaction) {
	t.Helper()
	n, err := repository.NewTransactionRepository(db).Seed(context.Background(), items)
	require.NoError(t, err)
	require.EqualValues(t, len(items), n)
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
