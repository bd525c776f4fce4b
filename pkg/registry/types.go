// Package registry implements the single-document index (C2) that gives
// uniform enumeration semantics over secret store backends, such as the OS
// keychain, that cannot portably list their own contents.
package registry

import "time"

// DocumentVersion is the current registry document schema version.
const DocumentVersion = 1

// TokenEntry is the registry's metadata row for an AgentToken. The token
// value itself is the row's identity; there is no separate id.
type TokenEntry struct {
	TokenValue string    `json:"token_value"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// PluginEntry is the registry's metadata row for a Plugin. The script source
// is opaque to the registry and lives at its own store key.
type PluginEntry struct {
	Name             string   `json:"name"`
	Hosts            []string `json:"hosts"`
	CredentialSchema []string `json:"credential_schema"`
}

// CredentialEntry is the registry's metadata row for a Credential. The value
// bytes live at their own store key; the registry only records that the pair
// exists.
type CredentialEntry struct {
	Plugin string `json:"plugin"`
	Field  string `json:"field"`
}

// Document is the single canonical JSON document serialized at the store key
// "_registry". Readers must accept unknown trailing fields for forward
// compatibility, which encoding/json does by default.
type Document struct {
	Version     int               `json:"version"`
	Tokens      []TokenEntry      `json:"tokens"`
	Plugins     []PluginEntry     `json:"plugins"`
	Credentials []CredentialEntry `json:"credentials"`
}

// newDocument returns the default empty document used when no registry has
// been saved yet.
func newDocument() *Document {
	return &Document{
		Version:     DocumentVersion,
		Tokens:      []TokenEntry{},
		Plugins:     []PluginEntry{},
		Credentials: []CredentialEntry{},
	}
}
