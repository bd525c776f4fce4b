// Package api assembles the management HTTP surface (C7): password-gated
// initialization and CRUD over tokens/plugins/credentials. Every endpoint
// except /status authenticates the operator by the password_hash field of
// the request body; no bearer-token middleware is mounted here.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/stacklok/acp/pkg/api/errors"
	"github.com/stacklok/acp/pkg/auth"
	acperrors "github.com/stacklok/acp/pkg/errors"
	"github.com/stacklok/acp/pkg/migration"
	"github.com/stacklok/acp/pkg/registry"
	"github.com/stacklok/acp/pkg/secrets"
	"github.com/stacklok/acp/pkg/tokencache"
)

// Deps bundles the storage layers the management routes operate on.
type Deps struct {
	Store    secrets.Store
	Registry *registry.Registry
	Tokens   *tokencache.Cache
}

// Router builds the chi router for the management API.
func Router(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/status", apierrors.ErrorHandler(deps.handleStatus))
	r.Post("/init", apierrors.ErrorHandler(deps.handleInit))

	r.Post("/tokens/create", apierrors.ErrorHandler(deps.handleTokensCreate))
	r.Get("/tokens", apierrors.ErrorHandler(deps.handleTokensList))
	r.Delete("/tokens/{value}", apierrors.ErrorHandler(deps.handleTokensDelete))

	r.Get("/plugins", apierrors.ErrorHandler(deps.handlePluginsList))
	r.Post("/plugins/{name}", apierrors.ErrorHandler(deps.handlePluginsInstall))
	r.Delete("/plugins/{name}", apierrors.ErrorHandler(deps.handlePluginsDelete))

	r.Post("/credentials/{plugin}/{field}", apierrors.ErrorHandler(deps.handleCredentialsSet))
	r.Delete("/credentials/{plugin}/{field}", apierrors.ErrorHandler(deps.handleCredentialsDelete))

	return r
}

// authEnvelope is the shape every authenticated request body carries:
// password_hash plus whatever fields the specific endpoint needs.
type authEnvelope struct {
	PasswordHash string `json:"password_hash"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return acperrors.NewHTTPParseError("malformed request body", err)
	}
	return nil
}

// requireAuthenticated verifies body.PasswordHash against the stored
// password hash. Returns an auth error (401) on mismatch, and also an auth
// error when no password hash is stored yet (server not initialized).
func (d Deps) requireAuthenticated(r *http.Request, passwordHash string) error {
	ctx := r.Context()
	stored, ok, err := d.Store.Get(ctx, secrets.PasswordHashKey)
	if err != nil {
		return err
	}
	if !ok {
		return acperrors.NewAuthError("server is not initialized", nil)
	}

	valid, err := auth.VerifyPassword(string(stored), passwordHash)
	if err != nil {
		return acperrors.NewAuthError("failed to verify password", err)
	}
	if !valid {
		return acperrors.NewAuthError("invalid credentials", nil)
	}
	return nil
}

func (d Deps) handleStatus(w http.ResponseWriter, r *http.Request) error {
	_, initialized, err := d.Store.Get(r.Context(), secrets.PasswordHashKey)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]bool{"initialized": initialized})
}

type initRequest struct {
	PasswordHash string `json:"password_hash"`
}

// handleInit is the one-shot password initialization. It refuses to run a
// second time (409) once a password hash is already stored.
func (d Deps) handleInit(w http.ResponseWriter, r *http.Request) error {
	var req initRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	_, exists, err := d.Store.Get(r.Context(), secrets.PasswordHashKey)
	if err != nil {
		return err
	}
	if exists {
		return acperrors.NewConflictError("server is already initialized", nil)
	}

	hashed, err := auth.HashPassword(req.PasswordHash)
	if err != nil {
		return acperrors.NewAuthError("failed to hash password", err)
	}
	if err := d.Store.Set(r.Context(), secrets.PasswordHashKey, []byte(hashed)); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]string{"status": "initialized"})
}

type tokenCreateRequest struct {
	authEnvelope
	Name string `json:"name"`
}

func (d Deps) handleTokensCreate(w http.ResponseWriter, r *http.Request) error {
	var req tokenCreateRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if err := d.requireAuthenticated(r, req.PasswordHash); err != nil {
		return err
	}

	token, err := d.Tokens.Create(r.Context(), req.Name)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, token)
}

func (d Deps) handleTokensList(w http.ResponseWriter, r *http.Request) error {
	var req authEnvelope
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if err := d.requireAuthenticated(r, req.PasswordHash); err != nil {
		return err
	}

	tokens, err := d.Tokens.List(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, tokens)
}

func (d Deps) handleTokensDelete(w http.ResponseWriter, r *http.Request) error {
	var req authEnvelope
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if err := d.requireAuthenticated(r, req.PasswordHash); err != nil {
		return err
	}

	value := chi.URLParam(r, "value")
	deleted, err := d.Tokens.Delete(r.Context(), value)
	if err != nil {
		return err
	}
	if !deleted {
		return acperrors.NewNotFoundError("unknown token", nil)
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (d Deps) handlePluginsList(w http.ResponseWriter, r *http.Request) error {
	var req authEnvelope
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if err := d.requireAuthenticated(r, req.PasswordHash); err != nil {
		return err
	}

	plugins, err := d.Registry.ListPlugins(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, plugins)
}

type pluginInstallRequest struct {
	authEnvelope
	Code string `json:"code"`
}

// handlePluginsInstall stores the plugin's script source and registers its
// declared metadata. The code is loaded in a sandbox once here to derive
// matchPatterns/credentialSchema, mirroring the migration path's derivation.
func (d Deps) handlePluginsInstall(w http.ResponseWriter, r *http.Request) error {
	var req pluginInstallRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if err := d.requireAuthenticated(r, req.PasswordHash); err != nil {
		return err
	}

	name := chi.URLParam(r, "name")
	entry, err := migration.DerivePluginEntry(name, req.Code)
	if err != nil {
		return err
	}

	if err := d.Store.Set(r.Context(), secrets.PluginKey(name), []byte(req.Code)); err != nil {
		return err
	}
	if err := d.Registry.RemovePlugin(r.Context(), entry.Name); err != nil {
		return err
	}
	if err := d.Registry.AddPlugin(r.Context(), *entry); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, entry)
}

func (d Deps) handlePluginsDelete(w http.ResponseWriter, r *http.Request) error {
	var req authEnvelope
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if err := d.requireAuthenticated(r, req.PasswordHash); err != nil {
		return err
	}

	name := chi.URLParam(r, "name")
	if err := d.Store.Delete(r.Context(), secrets.PluginKey(name)); err != nil {
		return err
	}
	if err := d.Registry.RemovePlugin(r.Context(), name); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type credentialSetRequest struct {
	authEnvelope
	Value string `json:"value"`
}

func (d Deps) handleCredentialsSet(w http.ResponseWriter, r *http.Request) error {
	var req credentialSetRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if err := d.requireAuthenticated(r, req.PasswordHash); err != nil {
		return err
	}

	plugin := chi.URLParam(r, "plugin")
	field := chi.URLParam(r, "field")

	if err := d.Store.Set(r.Context(), secrets.CredentialKey(plugin, field), []byte(req.Value)); err != nil {
		return err
	}
	if err := d.Registry.AddCredential(r.Context(), registry.CredentialEntry{Plugin: plugin, Field: field}); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "set"})
}

func (d Deps) handleCredentialsDelete(w http.ResponseWriter, r *http.Request) error {
	var req authEnvelope
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if err := d.requireAuthenticated(r, req.PasswordHash); err != nil {
		return err
	}

	plugin := chi.URLParam(r, "plugin")
	field := chi.URLParam(r, "field")

	if err := d.Store.Delete(r.Context(), secrets.CredentialKey(plugin, field)); err != nil {
		return err
	}
	if err := d.Registry.RemoveCredential(r.Context(), plugin, field); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
