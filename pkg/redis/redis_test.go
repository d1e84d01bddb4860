package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) (*miniredis.Miniredis, RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)
	a, err := NewRedisAdapter(t.Name(), "test:", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	return mr, a
}

func TestRedisAdapter_KeysArePrefixed(t *testing.T) {
	mr, a := newTestAdapter(t)

	require.NoError(t, a.Set("lock:1", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("test:lock:1"))

	ok, err := a.SetNX("lock:1", []byte("w"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := a.Get("lock:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, a.Del("lock:1"))
	_, err = a.Get("lock:1")
	assert.ErrorIs(t, err, NilError)
}

func TestRedisAdapter_DelIfEqual(t *testing.T) {
	mr, a := newTestAdapter(t)
	require.NoError(t, a.Set("lock:2", []byte("owner-b"), time.Minute))

	ok, err := a.DelIfEqual("lock:2", []byte("owner-a"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("test:lock:2"))

	ok, err = a.DelIfEqual("lock:2", []byte("owner-b"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists("test:lock:2"))

	ok, err = a.DelIfEqual("lock:2", []byte("owner-b"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisAdapter_IncrSetsTTL(t *testing.T) {
	mr, a := newTestAdapter(t)

	n, err := a.Incr("retry:job", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = a.Incr("retry:job", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, time.Hour, mr.TTL("test:retry:job"))

	exists, err := a.Exist("retry:job")
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
}

func TestRedisAdapter_Streams(t *testing.T) {
	_, a := newTestAdapter(t)
	require.NoError(t, a.Ping(context.Background()))

	require.NoError(t, a.XGroupCreateMkStream("deliveries", "workers", "0"))
	_, err := a.XAdd("deliveries", map[string]interface{}{"invoice": "FB-0003-1"})
	require.NoError(t, err)

	n, err := a.XLen("deliveries")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	msgs, err := a.XReadGroup("workers", "c1", "deliveries", ">", 10, NoBlock)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "FB-0003-1", msgs[0].Values["invoice"])

	pending, err := a.XPending("deliveries", "workers")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)

	require.NoError(t, a.XAck("deliveries", "workers", msgs[0].ID))
	pending, err = a.XPending("deliveries", "workers")
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestNewRedisAdapter_CachesByName(t *testing.T) {
	mr := miniredis.RunT(t)
	first, err := NewRedisAdapter(t.Name(), "", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	second, err := NewRedisAdapter(t.Name(), "other:", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = NewRedisAdapter(t.Name()+"-down", "", &Options{Addrs: []string{"127.0.0.1:1"}})
	assert.Error(t, err)
}
