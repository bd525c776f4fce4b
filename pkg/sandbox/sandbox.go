// Package sandbox runs untrusted plugin transform scripts inside an
// isolated JavaScript engine (goja). Each Sandbox instance is single-use and
// non-transferable: construction, script load, and every transform call
// against it must happen within one synchronous call stack with no
// intervening suspension point, so the engine state it wraps never needs to
// cross a goroutine boundary.
package sandbox

import (
	"time"

	"github.com/dop251/goja"

	acperrors "github.com/stacklok/acp/pkg/errors"
)

// Sandbox is a freshly constructed goja runtime pre-wired with the ACP.crypto
// and ACP.util primitive namespaces, TextEncoder/TextDecoder, and with
// network/eval/WebAssembly globals neutralized.
type Sandbox struct {
	rt *goja.Runtime
}

// New constructs a Sandbox ready to load one plugin script. clock lets
// tests pin ACP.util.now(); pass nil to use time.Now.
func New(clock func() time.Time) (*Sandbox, error) {
	if clock == nil {
		clock = time.Now
	}

	rt := goja.New()

	acp := rt.NewObject()
	cryptoObj := rt.NewObject()
	utilObj := rt.NewObject()

	if err := installCrypto(rt, cryptoObj); err != nil {
		return nil, acperrors.NewPluginError("failed to install ACP.crypto", err)
	}
	if err := installUtil(rt, utilObj, clock); err != nil {
		return nil, acperrors.NewPluginError("failed to install ACP.util", err)
	}
	if err := acp.Set("crypto", cryptoObj); err != nil {
		return nil, acperrors.NewPluginError("failed to install ACP namespace", err)
	}
	if err := acp.Set("util", utilObj); err != nil {
		return nil, acperrors.NewPluginError("failed to install ACP namespace", err)
	}
	if err := rt.Set("ACP", acp); err != nil {
		return nil, acperrors.NewPluginError("failed to install ACP namespace", err)
	}

	if err := installTextCodecs(rt); err != nil {
		return nil, acperrors.NewPluginError("failed to install text codecs", err)
	}

	if err := restrict(rt); err != nil {
		return nil, acperrors.NewPluginError("failed to restrict sandbox globals", err)
	}

	return &Sandbox{rt: rt}, nil
}
