package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hegemony/pkg/config"
)

// memBackend is an in-process backend for cache tests
type memBackend struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
	failSet bool
}

func newMem() *memBackend {
	return &memBackend{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memBackend) get(_ context.Context, key string) ([]byte, error) {
	if m.failGet {
		return nil, errors.New("connection reset")
	}
	v, ok := m.data[key]
	if !ok {
		return nil, errMiss
	}
	return v, nil
}

func (m *memBackend) set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.failSet {
		return errors.New("readonly replica")
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memBackend) del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestCache_DisabledPassesThrough(t *testing.T) {
	client, _ := New(context.Background(), config.RedisConfig{})
	cache := NewCache(client, "hegemony")
	assert.False(t, cache.Enabled())

	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return map[string]int{"n": calls}, nil
	}

	for i := 1; i <= 2; i++ {
		res, err := cache.GetOrSet(context.Background(), "k", time.Minute, fn)
		require.NoError(t, err)
		assert.Equal(t, LookupDisabled, res.Result)
		assert.NoError(t, res.Err)
		assert.NotEmpty(t, res.Data)
	}
	assert.Equal(t, 2, calls)

	_, found, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_GetOrSet(t *testing.T) {
	mem := newMem()
	cache := &Cache{b: mem, prefix: "hegemony"}
	ctx := context.Background()

	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return map[string]string{"period": "14"}, nil
	}

	res, err := cache.GetOrSet(ctx, "money-flow:14", TTLResponse, fn)
	require.NoError(t, err)
	assert.Equal(t, LookupMiss, res.Result)
	assert.JSONEq(t, `{"period":"14"}`, string(res.Data))
	assert.Equal(t, TTLResponse, mem.ttls["hegemony:cache:money-flow:14"])

	res, err = cache.GetOrSet(ctx, "money-flow:14", TTLResponse, fn)
	require.NoError(t, err)
	assert.Equal(t, LookupHit, res.Result)
	assert.JSONEq(t, `{"period":"14"}`, string(res.Data))
	assert.Equal(t, 1, calls)

	require.NoError(t, cache.Delete(ctx, "money-flow:14"))
	_, found, err := cache.Get(ctx, "money-flow:14")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_ErrorsDoNotFailRequest(t *testing.T) {
	tests := []struct {
		name    string
		failGet bool
		failSet bool
		wantMsg []string
	}{
		{name: "get fails", failGet: true, wantMsg: []string{"cache get k", "connection reset"}},
		{name: "set fails", failSet: true, wantMsg: []string{"cache set k", "readonly replica"}},
		{name: "both fail", failGet: true, failSet: true, wantMsg: []string{"connection reset", "readonly replica"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := newMem()
			mem.failGet = tt.failGet
			mem.failSet = tt.failSet
			cache := &Cache{b: mem, prefix: "hegemony"}

			res, err := cache.GetOrSet(context.Background(), "k", time.Minute, func() (interface{}, error) {
				return []int{1, 2}, nil
			})
			require.NoError(t, err)
			assert.Equal(t, "[1,2]", string(res.Data))
			assert.Equal(t, LookupError, res.Result)
			require.Error(t, res.Err)
			for _, msg := range tt.wantMsg {
				assert.Contains(t, res.Err.Error(), msg)
			}
		})
	}
}

func TestCache_GetFailsLoudlyOnDirectRead(t *testing.T) {
	mem := newMem()
	mem.failGet = true
	cache := &Cache{b: mem, prefix: "hegemony"}

	_, _, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestCache_ComputeErrorIsNotStored(t *testing.T) {
	mem := newMem()
	cache := &Cache{b: mem, prefix: "hegemony"}
	boom := errors.New("computation failed")

	_, err := cache.GetOrSet(context.Background(), "k", time.Minute, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, mem.data)
}

func TestCache_Key(t *testing.T) {
	cache := NewCache(nil, "hegemony")
	assert.Equal(t, "hegemony:cache:industries", cache.Key("industries"))
}
