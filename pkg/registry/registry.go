package registry

import (
	"context"
	"encoding/json"
	"path/filepath"

	acperrors "github.com/stacklok/acp/pkg/errors"
	"github.com/stacklok/acp/pkg/lockfile"
	"github.com/stacklok/acp/pkg/secrets"
)

const lockFileName = "registry.lock"

// Registry wraps a secret store to provide the single-document index
// described in the system overview: every mutation is a load-modify-save of
// the whole document (§9 flags this as last-writer-wins across processes;
// within one process, an in-process mutex held together with the advisory
// file lock serializes the critical section so concurrent goroutines never
// interleave a load and a save).
type Registry struct {
	store    secrets.Store
	lock     *lockFlock
	lockPath string
}

// New returns a Registry backed by store. dataDir is used only to place the
// advisory lock file; the document itself lives at the store's "_registry"
// key.
func New(store secrets.Store, dataDir string) *Registry {
	lockPath := filepath.Join(dataDir, lockFileName)
	return &Registry{
		store:    store,
		lock:     newLockFlock(lockPath),
		lockPath: lockPath,
	}
}

// Close releases the registry's advisory lock and removes its lock file.
func (r *Registry) Close() {
	lockfile.ReleaseTrackedLock(r.lockPath, r.lock.f)
}

// Load returns the current document, or the default empty document if none
// has been saved yet.
func (r *Registry) Load(ctx context.Context) (*Document, error) {
	if err := r.lock.Lock(); err != nil {
		return nil, acperrors.NewStorageError("failed to acquire registry lock", err)
	}
	defer r.lock.Unlock()
	return r.loadLocked(ctx)
}

// Save overwrites the document.
func (r *Registry) Save(ctx context.Context, doc *Document) error {
	if err := r.lock.Lock(); err != nil {
		return acperrors.NewStorageError("failed to acquire registry lock", err)
	}
	defer r.lock.Unlock()
	return r.saveLocked(ctx, doc)
}

func (r *Registry) loadLocked(ctx context.Context) (*Document, error) {
	data, ok, err := r.store.Get(ctx, secrets.RegistryKey)
	if err != nil {
		return nil, acperrors.NewStorageError("failed to read registry document", err)
	}
	if !ok {
		return newDocument(), nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, acperrors.NewStorageError("failed to parse registry document", err)
	}
	return &doc, nil
}

func (r *Registry) saveLocked(ctx context.Context, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return acperrors.NewStorageError("failed to serialize registry document", err)
	}
	if err := r.store.Set(ctx, secrets.RegistryKey, data); err != nil {
		return acperrors.NewStorageError("failed to write registry document", err)
	}
	return nil
}

// withLock runs fn against the current document under the registry lock,
// then persists the (possibly modified) document. This is the load-modify-
// save primitive every typed CRUD method below is built from.
func (r *Registry) withLock(ctx context.Context, fn func(doc *Document) error) error {
	if err := r.lock.Lock(); err != nil {
		return acperrors.NewStorageError("failed to acquire registry lock", err)
	}
	defer r.lock.Unlock()

	doc, err := r.loadLocked(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return r.saveLocked(ctx, doc)
}

// AddToken appends a token entry. Callers must not add duplicates; add does
// not deduplicate.
func (r *Registry) AddToken(ctx context.Context, entry TokenEntry) error {
	return r.withLock(ctx, func(doc *Document) error {
		doc.Tokens = append(doc.Tokens, entry)
		return nil
	})
}

// RemoveToken drops every entry whose TokenValue equals value.
func (r *Registry) RemoveToken(ctx context.Context, value string) error {
	return r.withLock(ctx, func(doc *Document) error {
		kept := doc.Tokens[:0]
		for _, t := range doc.Tokens {
			if t.TokenValue != value {
				kept = append(kept, t)
			}
		}
		doc.Tokens = kept
		return nil
	})
}

// ListTokens returns the current token entries in stored order.
func (r *Registry) ListTokens(ctx context.Context) ([]TokenEntry, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Tokens, nil
}

// AddPlugin appends a plugin entry.
func (r *Registry) AddPlugin(ctx context.Context, entry PluginEntry) error {
	return r.withLock(ctx, func(doc *Document) error {
		doc.Plugins = append(doc.Plugins, entry)
		return nil
	})
}

// RemovePlugin drops every entry whose Name equals name.
func (r *Registry) RemovePlugin(ctx context.Context, name string) error {
	return r.withLock(ctx, func(doc *Document) error {
		kept := doc.Plugins[:0]
		for _, p := range doc.Plugins {
			if p.Name != name {
				kept = append(kept, p)
			}
		}
		doc.Plugins = kept
		return nil
	})
}

// ListPlugins returns the current plugin entries in stored order.
func (r *Registry) ListPlugins(ctx context.Context) ([]PluginEntry, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Plugins, nil
}

// AddCredential appends a credential entry.
func (r *Registry) AddCredential(ctx context.Context, entry CredentialEntry) error {
	return r.withLock(ctx, func(doc *Document) error {
		doc.Credentials = append(doc.Credentials, entry)
		return nil
	})
}

// RemoveCredential drops every entry matching (plugin, field).
func (r *Registry) RemoveCredential(ctx context.Context, plugin, field string) error {
	return r.withLock(ctx, func(doc *Document) error {
		kept := doc.Credentials[:0]
		for _, c := range doc.Credentials {
			if !(c.Plugin == plugin && c.Field == field) {
				kept = append(kept, c)
			}
		}
		doc.Credentials = kept
		return nil
	})
}

// ListCredentials returns the current credential entries in stored order,
// optionally filtered to a single plugin when plugin is non-empty.
func (r *Registry) ListCredentials(ctx context.Context, plugin string) ([]CredentialEntry, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	if plugin == "" {
		return doc.Credentials, nil
	}
	var out []CredentialEntry
	for _, c := range doc.Credentials {
		if c.Plugin == plugin {
			out = append(out, c)
		}
	}
	return out, nil
}
