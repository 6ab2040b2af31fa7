package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	srv := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Addr = srv.Addr()
	cfg.DefaultTTL = time.Minute

	m, err := NewManager(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManagerGetSet(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	val, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestManagerJSONRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	type analysis struct {
		ContentType  string   `json:"content_type"`
		MainSubjects []string `json:"main_subjects"`
	}

	in := analysis{ContentType: "product photo", MainSubjects: []string{"sneakers", "laces"}}
	require.NoError(t, m.SetJSON(ctx, "analysis:abc", in, 0))

	var out analysis
	require.NoError(t, m.GetJSON(ctx, "analysis:abc", &out))
	assert.Equal(t, in, out)

	var miss analysis
	err := m.GetJSON(ctx, "analysis:absent", &miss)
	assert.True(t, IsCacheMiss(err))
}

func TestManagerClosed(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close()) // idempotent

	_, err := m.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, IsCacheMiss(err))
	assert.Error(t, m.Set(context.Background(), "k", "v", 0))
}
