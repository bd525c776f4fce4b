// Package tokencache maintains an in-memory view of agent bearer tokens,
// sourced from the registry, with an invalidate-on-write policy: any Create
// or Delete through this cache drops its cached map so the next lookup
// reloads from the registry. Writes made through another cache or process
// are not seen until this cache is next invalidated.
package tokencache

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	acperrors "github.com/stacklok/acp/pkg/errors"
	"github.com/stacklok/acp/pkg/registry"
	"github.com/stacklok/acp/pkg/secrets"
)

const tokenPrefix = "acp_"

// AgentToken is a bearer credential an agent presents to the proxy's data
// plane. The token value itself is the identity; there is no separate id.
type AgentToken struct {
	TokenValue string
	Name       string
	CreatedAt  time.Time
}

// Cache serves token lookups from memory, reloading from the registry on
// first use after construction or after any write.
type Cache struct {
	mu     sync.RWMutex
	tokens map[string]*AgentToken

	store secrets.Store
	reg   *registry.Registry
}

// New returns a Cache backed by store and reg. The cache starts empty and
// loads lazily on first read.
func New(store secrets.Store, reg *registry.Registry) *Cache {
	return &Cache{store: store, reg: reg}
}

// Invalidate drops the cached token map. The next read reloads from the
// registry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = nil
}

func (c *Cache) ensureLoaded(ctx context.Context) (map[string]*AgentToken, error) {
	c.mu.RLock()
	if c.tokens != nil {
		tokens := c.tokens
		c.mu.RUnlock()
		return tokens, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens != nil {
		return c.tokens, nil
	}

	entries, err := c.reg.ListTokens(ctx)
	if err != nil {
		return nil, err
	}

	tokens := make(map[string]*AgentToken, len(entries))
	for _, e := range entries {
		tokens[e.TokenValue] = &AgentToken{
			TokenValue: e.TokenValue,
			Name:       e.Name,
			CreatedAt:  e.CreatedAt,
		}
	}
	c.tokens = tokens
	return tokens, nil
}

// GetByToken returns the AgentToken for value, or (nil, false) if it is not
// a known token.
func (c *Cache) GetByToken(ctx context.Context, value string) (*AgentToken, bool, error) {
	tokens, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, false, err
	}
	t, ok := tokens[value]
	return t, ok, nil
}

// List returns all known tokens in no particular order.
func (c *Cache) List(ctx context.Context) ([]*AgentToken, error) {
	tokens, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*AgentToken, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t)
	}
	return out, nil
}

// Create mints a new bearer token for name, persists it to the secret store
// and registry, and invalidates the cache.
func (c *Cache) Create(ctx context.Context, name string) (*AgentToken, error) {
	value, err := generateToken()
	if err != nil {
		return nil, acperrors.NewAuthError("failed to generate token", err)
	}

	token := &AgentToken{
		TokenValue: value,
		Name:       name,
		CreatedAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(token)
	if err != nil {
		return nil, acperrors.NewStorageError("failed to serialize token", err)
	}
	if err := c.store.Set(ctx, secrets.TokenKey(value), data); err != nil {
		return nil, err
	}
	if err := c.reg.AddToken(ctx, registry.TokenEntry{
		TokenValue: token.TokenValue,
		Name:       token.Name,
		CreatedAt:  token.CreatedAt,
	}); err != nil {
		return nil, err
	}

	c.Invalidate()
	return token, nil
}

// Delete removes a token by value. It reports whether the token existed.
func (c *Cache) Delete(ctx context.Context, value string) (bool, error) {
	tokens, err := c.ensureLoaded(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := tokens[value]; !ok {
		return false, nil
	}

	if err := c.store.Delete(ctx, secrets.TokenKey(value)); err != nil {
		return false, err
	}
	if err := c.reg.RemoveToken(ctx, value); err != nil {
		return false, err
	}

	c.Invalidate()
	return true, nil
}

// generateToken produces an "acp_"-prefixed token encoding 128 bits of
// entropy as 22 URL-safe base64 characters.
func generateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
