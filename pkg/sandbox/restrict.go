package sandbox

import "github.com/dop251/goja"

// restrict neutralizes globals that would let a plugin script escape the
// pure-function transform contract: no network access, no dynamic code
// evaluation, no WebAssembly.
func restrict(rt *goja.Runtime) error {
	throwing := func(name string) func(goja.FunctionCall) goja.Value {
		return func(goja.FunctionCall) goja.Value {
			panic(rt.NewTypeError(name + " is not available in plugin scripts"))
		}
	}

	for _, name := range []string{"fetch", "XMLHttpRequest", "eval", "Function"} {
		if err := rt.Set(name, throwing(name)); err != nil {
			return err
		}
	}

	if err := rt.Set("WebAssembly", goja.Undefined()); err != nil {
		return err
	}
	return nil
}
