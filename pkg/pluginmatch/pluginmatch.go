// Package pluginmatch selects the plugin responsible for transforming a
// request to a given host. Matching requires executing each candidate
// plugin's code, since match patterns are a property of the running script,
// not of registry metadata.
package pluginmatch

import (
	"context"
	"strings"
	"time"

	acperrors "github.com/stacklok/acp/pkg/errors"
	"github.com/stacklok/acp/pkg/logger"
	"github.com/stacklok/acp/pkg/registry"
	"github.com/stacklok/acp/pkg/sandbox"
	"github.com/stacklok/acp/pkg/secrets"
)

// MatchHost reports whether host satisfies any of the given glob patterns.
// A pattern is matched label by label, case-insensitively; "*" matches
// exactly one DNS label. Patterns and host must have the same number of
// labels to match.
func MatchHost(patterns []string, host string) bool {
	hostLabels := strings.Split(strings.ToLower(host), ".")
	for _, pattern := range patterns {
		if matchPattern(strings.ToLower(pattern), hostLabels) {
			return true
		}
	}
	return false
}

func matchPattern(pattern string, hostLabels []string) bool {
	patternLabels := strings.Split(pattern, ".")
	if len(patternLabels) != len(hostLabels) {
		return false
	}
	for i, label := range patternLabels {
		if label == "*" {
			continue
		}
		if label != hostLabels[i] {
			return false
		}
	}
	return true
}

// MatchedPlugin names the plugin selected for a request together with its
// stored script source. It deliberately does not carry a loaded
// *sandbox.Plugin: the sandbox that matching builds to read a candidate's
// live matchPatterns is dropped at the end of this function, before
// credentials are loaded. The pipeline loads a fresh sandbox from Code once
// credential loading has succeeded, so no runtime is held live across that
// step.
type MatchedPlugin struct {
	Name string
	Code string
}

// FindMatchingPlugin enumerates registry plugin metadata in stored order;
// for each entry, it loads the plugin's code from store, runs it in a fresh
// sandbox to obtain its live matchPatterns, and returns the first plugin
// whose patterns admit host. It returns (nil, nil) when no plugin matches,
// which callers treat as "pass the request through unmodified".
func FindMatchingPlugin(ctx context.Context, store secrets.Store, reg *registry.Registry, host string) (*MatchedPlugin, error) {
	entries, err := reg.ListPlugins(ctx)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		code, ok, err := store.Get(ctx, secrets.PluginKey(entry.Name))
		if err != nil {
			return nil, acperrors.NewStorageError("failed to read plugin code for "+entry.Name, err)
		}
		if !ok {
			logger.Warnf("plugin %q is registered but has no stored code; skipping", entry.Name)
			continue
		}

		sb, err := sandbox.New(time.Now)
		if err != nil {
			return nil, err
		}
		plugin, err := sb.LoadPlugin(entry.Name, string(code))
		if err != nil {
			logger.Warnf("plugin %q failed to load; skipping: %s", entry.Name, err)
			continue
		}

		if MatchHost(plugin.MatchPatterns, host) {
			return &MatchedPlugin{Name: entry.Name, Code: string(code)}, nil
		}
	}

	return nil, nil
}
