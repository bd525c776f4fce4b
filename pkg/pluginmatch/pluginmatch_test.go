package pluginmatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/acp/pkg/registry"
	"github.com/stacklok/acp/pkg/secrets"
)

func TestMatchHost(t *testing.T) {
	t.Parallel()

	cases := []struct {
		patterns []string
		host     string
		want     bool
	}{
		{[]string{"api.example.com"}, "api.example.com", true},
		{[]string{"api.example.com"}, "API.EXAMPLE.COM", true},
		{[]string{"*.example.com"}, "api.example.com", true},
		{[]string{"*.example.com"}, "www.api.example.com", false},
		{[]string{"*.example.com"}, "example.com", false},
		{[]string{"other.com"}, "api.example.com", false},
		{[]string{"*"}, "example", true},
		{[]string{"*"}, "a.b", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MatchHost(c.patterns, c.host), "patterns=%v host=%s", c.patterns, c.host)
	}
}

func newTestDeps(t *testing.T) (*secrets.FileStore, *registry.Registry) {
	t.Helper()
	dir := t.TempDir()
	store, err := secrets.NewFileStore(dir)
	require.NoError(t, err)
	reg := registry.New(store, dir)
	t.Cleanup(reg.Close)
	return store, reg
}

const pluginCode = `
var name = "exa-signer";
var matchPatterns = ["api.exa.ai"];
var credentialSchema = ["api_key"];
function transform(request, credentials) {
  request.headers["Authorization"] = "Bearer " + credentials["api_key"];
  return request;
}
`

func TestFindMatchingPlugin_MatchesByHost(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, reg := newTestDeps(t)

	require.NoError(t, store.Set(ctx, secrets.PluginKey("exa-signer"), []byte(pluginCode)))
	require.NoError(t, reg.AddPlugin(ctx, registry.PluginEntry{
		Name:             "exa-signer",
		Hosts:            []string{"api.exa.ai"},
		CredentialSchema: []string{"api_key"},
	}))

	plugin, err := FindMatchingPlugin(ctx, store, reg, "api.exa.ai")
	require.NoError(t, err)
	require.NotNil(t, plugin)
	assert.Equal(t, "exa-signer", plugin.Name)
}

func TestFindMatchingPlugin_NoMatchReturnsNil(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, reg := newTestDeps(t)

	require.NoError(t, store.Set(ctx, secrets.PluginKey("exa-signer"), []byte(pluginCode)))
	require.NoError(t, reg.AddPlugin(ctx, registry.PluginEntry{Name: "exa-signer", Hosts: []string{"api.exa.ai"}}))

	plugin, err := FindMatchingPlugin(ctx, store, reg, "other.example.com")
	require.NoError(t, err)
	assert.Nil(t, plugin)
}

func TestFindMatchingPlugin_SkipsMissingCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, reg := newTestDeps(t)

	require.NoError(t, reg.AddPlugin(ctx, registry.PluginEntry{Name: "ghost", Hosts: []string{"*"}}))

	plugin, err := FindMatchingPlugin(ctx, store, reg, "anything.com")
	require.NoError(t, err)
	assert.Nil(t, plugin)
}
