package sandbox

import (
	"fmt"

	"github.com/dop251/goja"
)

// toBytes coerces a JS value into a byte slice. Strings are taken as UTF-8;
// array-likes (Array, Uint8Array-shaped plain objects) are read element by
// element, each element reduced mod 256. Anything else is a script error.
func toBytes(rt *goja.Runtime, v goja.Value) ([]byte, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, fmt.Errorf("expected string or byte array, got %s", v)
	}

	if s, ok := v.Export().(string); ok {
		return []byte(s), nil
	}

	obj := v.ToObject(rt)
	lengthVal := obj.Get("length")
	if lengthVal == nil || goja.IsUndefined(lengthVal) {
		return nil, fmt.Errorf("expected string or byte array, got non-array-like value")
	}
	length := int(lengthVal.ToInteger())
	if length < 0 {
		return nil, fmt.Errorf("invalid array length %d", length)
	}

	out := make([]byte, length)
	for i := 0; i < length; i++ {
		elem := obj.Get(fmt.Sprintf("%d", i))
		if elem == nil {
			return nil, fmt.Errorf("array element %d is missing", i)
		}
		n := elem.ToInteger()
		out[i] = byte(((n % 256) + 256) % 256)
	}
	return out, nil
}

// bytesToJSArray exposes b to script code as a plain JS array of integers
// 0-255, mirroring how the sandbox accepts byte arrays from toBytes.
func bytesToJSArray(rt *goja.Runtime, b []byte) goja.Value {
	items := make([]interface{}, len(b))
	for i, v := range b {
		items[i] = int(v)
	}
	return rt.NewArray(items...)
}
