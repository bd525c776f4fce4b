// Package pipeline implements the request transform pipeline (the proxy's
// data plane): parse the intercepted request, find the plugin responsible
// for its destination host, gather that plugin's configured credentials,
// run the transform, and serialize the result back to wire form.
//
// Plugin execution is confined to one synchronous region: everything that
// can block (reading plugin code, reading credentials) happens before a
// sandbox is constructed, so the goja runtime and the plugin it loads never
// need to survive a suspension point.
package pipeline

import (
	"context"
	"time"

	acperrors "github.com/stacklok/acp/pkg/errors"
	"github.com/stacklok/acp/pkg/httpmsg"
	"github.com/stacklok/acp/pkg/logger"
	"github.com/stacklok/acp/pkg/metrics"
	"github.com/stacklok/acp/pkg/pluginmatch"
	"github.com/stacklok/acp/pkg/registry"
	"github.com/stacklok/acp/pkg/sandbox"
	"github.com/stacklok/acp/pkg/secrets"
)

// Pipeline wires the secret store and registry a running proxy needs to
// resolve plugins and credentials for each request it intercepts.
type Pipeline struct {
	store secrets.Store
	reg   *registry.Registry
}

// New returns a Pipeline backed by store and reg.
func New(store secrets.Store, reg *registry.Registry) *Pipeline {
	return &Pipeline{store: store, reg: reg}
}

// Result describes what the pipeline did with a request.
type Result struct {
	// Bytes is the (possibly unmodified) serialized request to forward.
	Bytes []byte
	// PluginName is empty when no plugin matched and the request passed
	// through unmodified.
	PluginName string
}

// Process runs one request through parse -> match -> credential-load ->
// transform -> serialize. host is the destination the agent is connecting
// to (from the CONNECT target or request URL), used to select a plugin.
func (p *Pipeline) Process(ctx context.Context, host string, requestBytes []byte) (*Result, error) {
	req, err := httpmsg.Parse(requestBytes)
	if err != nil {
		return nil, err
	}

	matched, err := pluginmatch.FindMatchingPlugin(ctx, p.store, p.reg, host)
	if err != nil {
		return nil, err
	}
	if matched == nil {
		logger.Debugf("no plugin matches host %q; passing request through unmodified", host)
		metrics.ObservePassthrough("no_match")
		return &Result{Bytes: requestBytes}, nil
	}

	credentials, err := p.loadCredentials(ctx, matched.Name)
	if err != nil {
		metrics.ObservePipelineError()
		return nil, err
	}
	if len(credentials) == 0 {
		logger.Warnf("plugin %q matched host %q but has no configured credentials; passing request through unmodified", matched.Name, host)
		metrics.ObservePassthrough("no_credentials")
		return &Result{Bytes: requestBytes}, nil
	}

	// The sandbox is constructed only now, after credential loading has
	// already completed, and dropped at the end of this function: nothing
	// that can suspend happens while it is alive.
	sb, err := sandbox.New(time.Now)
	if err != nil {
		metrics.ObservePipelineError()
		return nil, err
	}
	plugin, err := sb.LoadPlugin(matched.Name, matched.Code)
	if err != nil {
		metrics.ObservePipelineError()
		return nil, err
	}

	transformed, err := plugin.Transform(req, credentials)
	if err != nil {
		metrics.ObservePipelineError()
		return nil, err
	}

	out, err := httpmsg.Serialize(transformed)
	if err != nil {
		metrics.ObservePipelineError()
		return nil, err
	}

	metrics.ObservePluginMatch(matched.Name)
	return &Result{Bytes: out, PluginName: matched.Name}, nil
}

// loadCredentials enumerates the registry's credential entries for pluginName
// and loads each one's value from the store, building a field -> value
// mapping. An entry the registry lists but the store has lost (a broken
// invariant, not an expected case) is skipped with a warning rather than
// failing the whole request, matching how the pipeline treats other
// unexpectedly-missing stored items.
func (p *Pipeline) loadCredentials(ctx context.Context, pluginName string) (map[string]string, error) {
	entries, err := p.reg.ListCredentials(ctx, pluginName)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		data, ok, err := p.store.Get(ctx, secrets.CredentialKey(entry.Plugin, entry.Field))
		if err != nil {
			return nil, acperrors.NewStorageError("failed to read credential "+entry.Plugin+"/"+entry.Field, err)
		}
		if !ok {
			logger.Warnf("registry lists credential %q/%q but the store has no value for it; skipping", entry.Plugin, entry.Field)
			continue
		}
		out[entry.Field] = string(data)
	}
	return out, nil
}
