// Package migration runs the one-shot, idempotent upgrades that bring an
// older on-disk layout in line with the current registry-backed store: an
// orphan-keys scan that builds a missing registry document, and a rewrite
// of tokens stored under their old internal-id keys.
package migration

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	acperrors "github.com/stacklok/acp/pkg/errors"
	"github.com/stacklok/acp/pkg/logger"
	"github.com/stacklok/acp/pkg/registry"
	"github.com/stacklok/acp/pkg/sandbox"
	"github.com/stacklok/acp/pkg/secrets"
	"github.com/stacklok/acp/pkg/tokencache"
)

// Run executes every migration in order. It is safe to call on every
// process startup: each step first checks whether its precondition still
// holds and no-ops otherwise.
func Run(ctx context.Context, store secrets.Store, reg *registry.Registry) error {
	if err := BuildRegistryFromOrphanKeys(ctx, store, reg); err != nil {
		return err
	}
	if err := MigrateOldTokenKeys(ctx, store, reg); err != nil {
		return err
	}
	return nil
}

// BuildRegistryFromOrphanKeys reconstructs the registry document from
// standalone store keys when no document exists yet. If "_registry" is
// already present, this is a no-op.
func BuildRegistryFromOrphanKeys(ctx context.Context, store secrets.Store, reg *registry.Registry) error {
	lister, ok := store.(secrets.PrefixLister)
	if !ok {
		return nil
	}

	_, exists, err := store.Get(ctx, secrets.RegistryKey)
	if err != nil {
		return acperrors.NewStorageError("failed to check for existing registry", err)
	}
	if exists {
		return nil
	}

	tokenKeys, err := lister.ListByPrefix(ctx, secrets.TokenKeyPrefix)
	if err != nil {
		return acperrors.NewStorageError("failed to enumerate token keys", err)
	}
	for _, key := range tokenKeys {
		data, ok, err := store.Get(ctx, key)
		if err != nil {
			return acperrors.NewStorageError("failed to read token key "+key, err)
		}
		if !ok {
			continue
		}
		token := decodeStoredToken(data)
		if err := reg.AddToken(ctx, registry.TokenEntry{
			TokenValue: token.TokenValue,
			Name:       token.Name,
			CreatedAt:  token.CreatedAt,
		}); err != nil {
			return err
		}
	}

	pluginKeys, err := lister.ListByPrefix(ctx, secrets.PluginKeyPrefix)
	if err != nil {
		return acperrors.NewStorageError("failed to enumerate plugin keys", err)
	}
	for _, key := range pluginKeys {
		name := strings.TrimPrefix(key, secrets.PluginKeyPrefix)
		code, ok, err := store.Get(ctx, key)
		if err != nil {
			return acperrors.NewStorageError("failed to read plugin code for "+name, err)
		}
		if !ok {
			continue
		}

		entry, err := DerivePluginEntry(name, string(code))
		if err != nil {
			logger.Warnf("skipping orphan plugin %q during migration: %s", name, err)
			continue
		}
		if err := reg.AddPlugin(ctx, *entry); err != nil {
			return err
		}
	}

	credentialKeys, err := lister.ListByPrefix(ctx, secrets.CredentialKeyPrefix)
	if err != nil {
		return acperrors.NewStorageError("failed to enumerate credential keys", err)
	}
	for _, key := range credentialKeys {
		plugin, field, ok := splitCredentialKey(key)
		if !ok {
			logger.Warnf("skipping malformed orphan credential key %q during migration", key)
			continue
		}
		if err := reg.AddCredential(ctx, registry.CredentialEntry{Plugin: plugin, Field: field}); err != nil {
			return err
		}
	}

	return nil
}

// MigrateOldTokenKeys rewrites any token stored at a pre-C5 key
// (token:{internal_id}, where the key suffix is not the token's own value)
// to the current token:{token_value} key, adds a registry entry if one is
// not already present, and deletes the stale key. A current-format entry's
// content is a serialized AgentToken whose TokenValue matches the key
// suffix, so it is left untouched.
func MigrateOldTokenKeys(ctx context.Context, store secrets.Store, reg *registry.Registry) error {
	lister, ok := store.(secrets.PrefixLister)
	if !ok {
		return nil
	}

	tokenKeys, err := lister.ListByPrefix(ctx, secrets.TokenKeyPrefix)
	if err != nil {
		return acperrors.NewStorageError("failed to enumerate token keys", err)
	}

	existing, err := reg.ListTokens(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, t := range existing {
		known[t.TokenValue] = true
	}

	for _, key := range tokenKeys {
		suffix := strings.TrimPrefix(key, secrets.TokenKeyPrefix)
		data, ok, err := store.Get(ctx, key)
		if err != nil {
			return acperrors.NewStorageError("failed to read token key "+key, err)
		}
		if !ok {
			continue
		}

		token := decodeStoredToken(data)
		if suffix == token.TokenValue {
			continue
		}

		newKey := secrets.TokenKey(token.TokenValue)
		newData, err := json.Marshal(token)
		if err != nil {
			return acperrors.NewStorageError("failed to serialize migrated token", err)
		}
		if err := store.Set(ctx, newKey, newData); err != nil {
			return acperrors.NewStorageError("failed to rewrite token key", err)
		}
		if !known[token.TokenValue] {
			if err := reg.AddToken(ctx, registry.TokenEntry{
				TokenValue: token.TokenValue,
				Name:       token.Name,
				CreatedAt:  token.CreatedAt,
			}); err != nil {
				return err
			}
			known[token.TokenValue] = true
		}
		if err := store.Delete(ctx, key); err != nil {
			return acperrors.NewStorageError("failed to delete stale token key", err)
		}
	}

	return nil
}

// decodeStoredToken parses a token key's stored content, tolerating the
// pre-C5 format where the content was the bare token value as plain text
// (and the key suffix was an unrelated internal id, not the value itself).
func decodeStoredToken(data []byte) tokencache.AgentToken {
	var token tokencache.AgentToken
	if err := json.Unmarshal(data, &token); err == nil && token.TokenValue != "" {
		return token
	}
	return tokencache.AgentToken{TokenValue: string(data), CreatedAt: time.Now().UTC()}
}

func DerivePluginEntry(name, code string) (*registry.PluginEntry, error) {
	sb, err := sandbox.New(nil)
	if err != nil {
		return nil, err
	}
	plugin, err := sb.LoadPlugin(name, code)
	if err != nil {
		return nil, err
	}
	return &registry.PluginEntry{
		Name:             plugin.Name,
		Hosts:            plugin.MatchPatterns,
		CredentialSchema: plugin.CredentialSchema,
	}, nil
}

func splitCredentialKey(key string) (plugin, field string, ok bool) {
	rest := strings.TrimPrefix(key, secrets.CredentialKeyPrefix)
	idx := strings.Index(rest, ":")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}
