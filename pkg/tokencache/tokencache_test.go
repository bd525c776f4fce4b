package tokencache

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/acp/pkg/registry"
	"github.com/stacklok/acp/pkg/secrets"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	dir := t.TempDir()
	store, err := secrets.NewFileStore(dir)
	require.NoError(t, err)
	reg := registry.New(store, dir)
	t.Cleanup(reg.Close)
	return New(store, reg)
}

func TestCreate_GeneratesWellFormedToken(t *testing.T) {
	t.Parallel()
	c := newTestCache(t)

	token, err := c.Create(context.Background(), "ci-agent")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(token.TokenValue, "acp_"))
	assert.Len(t, token.TokenValue, len("acp_")+22)
}

func TestCreate_ThenGetByToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestCache(t)

	token, err := c.Create(ctx, "ci-agent")
	require.NoError(t, err)

	got, ok, err := c.GetByToken(ctx, token.TokenValue)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ci-agent", got.Name)
}

func TestGetByToken_Unknown(t *testing.T) {
	t.Parallel()
	c := newTestCache(t)
	_, ok, err := c.GetByToken(context.Background(), "acp_unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_RemovesToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestCache(t)

	token, err := c.Create(ctx, "ci-agent")
	require.NoError(t, err)

	deleted, err := c.Delete(ctx, token.TokenValue)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok, err := c.GetByToken(ctx, token.TokenValue)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_UnknownReturnsFalse(t *testing.T) {
	t.Parallel()
	c := newTestCache(t)
	deleted, err := c.Delete(context.Background(), "acp_nope")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGetByToken_FreshCacheSeesTokenCreatedByAnotherInstance(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store, err := secrets.NewFileStore(dir)
	require.NoError(t, err)
	reg := registry.New(store, dir)
	defer reg.Close()

	c1 := New(store, reg)
	token, err := c1.Create(context.Background(), "agent-a")
	require.NoError(t, err)

	reg2 := registry.New(store, dir)
	defer reg2.Close()
	c2 := New(store, reg2)

	got, ok, err := c2.GetByToken(context.Background(), token.TokenValue)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "agent-a", got.Name)
}
