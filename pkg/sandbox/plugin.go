package sandbox

import (
	"fmt"
	"net/http"

	"github.com/dop251/goja"

	acperrors "github.com/stacklok/acp/pkg/errors"
	"github.com/stacklok/acp/pkg/httpmsg"
)

// Plugin is a loaded, ready-to-run transform script together with the
// metadata it declared about itself.
type Plugin struct {
	Name             string
	MatchPatterns    []string
	CredentialSchema []string

	rt          *goja.Runtime
	transformFn goja.Callable
}

// LoadPlugin compiles and runs code against a fresh global scope, then reads
// the plugin's required top-level bindings: name (string), matchPatterns
// (string array), credentialSchema (string array), and transform (function).
// A plugin missing any of these, or declaring transform as a non-function,
// is a plugin load error.
func (s *Sandbox) LoadPlugin(name, code string) (*Plugin, error) {
	prog, err := goja.Compile(name, code, true)
	if err != nil {
		return nil, acperrors.NewPluginError(fmt.Sprintf("plugin %q failed to compile", name), err)
	}

	if _, err := s.rt.RunProgram(prog); err != nil {
		return nil, acperrors.NewPluginError(fmt.Sprintf("plugin %q failed during load", name), err)
	}

	global := s.rt.GlobalObject()

	declaredName, ok := global.Get("name").Export().(string)
	if !ok || declaredName == "" {
		return nil, acperrors.NewPluginError(fmt.Sprintf("plugin %q does not declare a string name", name), nil)
	}

	patterns, err := exportStringArray(global.Get("matchPatterns"))
	if err != nil {
		return nil, acperrors.NewPluginError(fmt.Sprintf("plugin %q has invalid matchPatterns: %s", name, err), nil)
	}

	schema, err := exportStringArray(global.Get("credentialSchema"))
	if err != nil {
		return nil, acperrors.NewPluginError(fmt.Sprintf("plugin %q has invalid credentialSchema: %s", name, err), nil)
	}

	transformVal := global.Get("transform")
	transformFn, ok := goja.AssertFunction(transformVal)
	if !ok {
		return nil, acperrors.NewPluginError(fmt.Sprintf("plugin %q does not declare a transform function", name), nil)
	}

	return &Plugin{
		Name:             declaredName,
		MatchPatterns:    patterns,
		CredentialSchema: schema,
		rt:               s.rt,
		transformFn:      transformFn,
	}, nil
}

func exportStringArray(v goja.Value) ([]string, error) {
	if v == nil || goja.IsUndefined(v) {
		return nil, fmt.Errorf("not declared")
	}
	exported := v.Export()
	raw, ok := exported.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an array")
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected an array of strings")
		}
		out = append(out, s)
	}
	return out, nil
}

// Transform invokes the plugin's transform(request, credentials) function
// and returns the rewritten request. request and the returned value are
// marshaled to/from plain JS objects; a script throw or a malformed return
// value is reported as a plugin error.
func (p *Plugin) Transform(req *httpmsg.Request, credentials map[string]string) (*httpmsg.Request, error) {
	jsReq, err := requestToJS(p.rt, req)
	if err != nil {
		return nil, acperrors.NewPluginError("failed to marshal request for plugin", err)
	}
	jsCreds := p.rt.ToValue(credentials)

	result, err := p.transformFn(goja.Undefined(), jsReq, jsCreds)
	if err != nil {
		return nil, acperrors.NewPluginError(fmt.Sprintf("plugin %q transform threw", p.Name), err)
	}

	out, err := jsToRequest(p.rt, result)
	if err != nil {
		return nil, acperrors.NewPluginError(fmt.Sprintf("plugin %q returned an invalid request", p.Name), err)
	}
	return out, nil
}

func requestToJS(rt *goja.Runtime, req *httpmsg.Request) (goja.Value, error) {
	headers := make(map[string]interface{}, len(req.Header))
	for k, v := range req.Header {
		if len(v) == 1 {
			headers[k] = v[0]
		} else {
			headers[k] = v
		}
	}

	obj := map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL,
		"headers": headers,
		"body":    string(req.Body),
	}
	return rt.ToValue(obj), nil
}

func jsToRequest(rt *goja.Runtime, v goja.Value) (*httpmsg.Request, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, fmt.Errorf("transform returned no request")
	}
	obj := v.ToObject(rt)

	method, _ := obj.Get("method").Export().(string)
	if method == "" {
		return nil, fmt.Errorf("transformed request missing method")
	}
	url, _ := obj.Get("url").Export().(string)
	if url == "" {
		return nil, fmt.Errorf("transformed request missing url")
	}

	header := http.Header{}
	if hv := obj.Get("headers"); hv != nil && !goja.IsUndefined(hv) {
		hObj := hv.ToObject(rt)
		for _, key := range hObj.Keys() {
			val := hObj.Get(key)
			switch exported := val.Export().(type) {
			case string:
				header.Set(key, exported)
			case []interface{}:
				for _, item := range exported {
					if s, ok := item.(string); ok {
						header.Add(key, s)
					}
				}
			}
		}
	}

	var body []byte
	if bv := obj.Get("body"); bv != nil && !goja.IsUndefined(bv) && !goja.IsNull(bv) {
		b, err := toBytes(rt, bv)
		if err != nil {
			return nil, fmt.Errorf("invalid body: %w", err)
		}
		body = b
	}

	return &httpmsg.Request{
		Method: method,
		URL:    url,
		Header: header,
		Body:   body,
	}, nil
}
