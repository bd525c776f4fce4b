package migration

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/acp/pkg/registry"
	"github.com/stacklok/acp/pkg/secrets"
	"github.com/stacklok/acp/pkg/tokencache"
)

func newTestDeps(t *testing.T) (*secrets.FileStore, *registry.Registry) {
	t.Helper()
	dir := t.TempDir()
	store, err := secrets.NewFileStore(dir)
	require.NoError(t, err)
	reg := registry.New(store, dir)
	t.Cleanup(reg.Close)
	return store, reg
}

const exaPlugin = `
var name = "exa";
var matchPatterns = ["api.exa.ai"];
var credentialSchema = ["api_key"];
function transform(request, credentials) {
  return request;
}
`

func TestRun_BuildsRegistryFromOrphanKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, reg := newTestDeps(t)

	require.NoError(t, store.Set(ctx, secrets.TokenKey("acp_value123"), []byte("acp_value123")))
	require.NoError(t, store.Set(ctx, secrets.PluginKey("exa"), []byte(exaPlugin)))
	require.NoError(t, store.Set(ctx, secrets.CredentialKey("exa", "api_key"), []byte("secret")))

	require.NoError(t, Run(ctx, store, reg))

	tokens, err := reg.ListTokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "acp_value123", tokens[0].TokenValue)

	plugins, err := reg.ListPlugins(ctx)
	require.NoError(t, err)
	require.Len(t, plugins, 1)
	assert.Equal(t, "exa", plugins[0].Name)
	assert.Equal(t, []string{"api.exa.ai"}, plugins[0].Hosts)
	assert.Equal(t, []string{"api_key"}, plugins[0].CredentialSchema)

	creds, err := reg.ListCredentials(ctx, "")
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "exa", creds[0].Plugin)
	assert.Equal(t, "api_key", creds[0].Field)
}

func TestRun_NoOpWhenRegistryExists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, reg := newTestDeps(t)

	require.NoError(t, reg.AddToken(ctx, registry.TokenEntry{TokenValue: "acp_existing"}))
	require.NoError(t, store.Set(ctx, secrets.TokenKey("acp_other"), []byte("acp_other")))

	require.NoError(t, Run(ctx, store, reg))

	tokens, err := reg.ListTokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "acp_existing", tokens[0].TokenValue)
}

func TestMigrateOldTokenKeys_RewritesAndDeletesStaleKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, reg := newTestDeps(t)

	require.NoError(t, reg.AddToken(ctx, registry.TokenEntry{TokenValue: "placeholder"}))
	require.NoError(t, reg.RemoveToken(ctx, "placeholder"))

	oldKey := secrets.TokenKey("internal-id-42")
	require.NoError(t, store.Set(ctx, oldKey, []byte("acp_newvalue")))

	require.NoError(t, MigrateOldTokenKeys(ctx, store, reg))

	_, ok, err := store.Get(ctx, oldKey)
	require.NoError(t, err)
	assert.False(t, ok)

	newData, ok, err := store.Get(ctx, secrets.TokenKey("acp_newvalue"))
	require.NoError(t, err)
	require.True(t, ok)
	var migrated tokencache.AgentToken
	require.NoError(t, json.Unmarshal(newData, &migrated))
	assert.Equal(t, "acp_newvalue", migrated.TokenValue)

	tokens, err := reg.ListTokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "acp_newvalue", tokens[0].TokenValue)
}

func TestRun_DoesNotDuplicateRealCacheCreatedTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, reg := newTestDeps(t)

	cache := tokencache.New(store, reg)
	token, err := cache.Create(ctx, "ci-agent")
	require.NoError(t, err)

	require.NoError(t, Run(ctx, store, reg))
	require.NoError(t, Run(ctx, store, reg))

	tokens, err := reg.ListTokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, token.TokenValue, tokens[0].TokenValue)
	assert.Equal(t, "ci-agent", tokens[0].Name)

	data, ok, err := store.Get(ctx, secrets.TokenKey(token.TokenValue))
	require.NoError(t, err)
	require.True(t, ok)
	var stored tokencache.AgentToken
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, token.TokenValue, stored.TokenValue)
}

func TestRun_IsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, reg := newTestDeps(t)

	require.NoError(t, store.Set(ctx, secrets.TokenKey("acp_value123"), []byte("acp_value123")))
	require.NoError(t, Run(ctx, store, reg))
	require.NoError(t, Run(ctx, store, reg))

	tokens, err := reg.ListTokens(ctx)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}
