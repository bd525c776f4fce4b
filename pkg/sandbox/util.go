package sandbox

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// installUtil binds ACP.util.base64 / hex / now / isoDate / amzDate onto
// target. now/isoDate/amzDate all operate on millisecond Unix timestamps,
// matching the AWS SigV4 date formats plugins need to compute.
func installUtil(rt *goja.Runtime, target *goja.Object, clock func() time.Time) error {
	if err := target.Set("base64", utilBase64(rt)); err != nil {
		return err
	}
	if err := target.Set("hex", utilHex(rt)); err != nil {
		return err
	}
	if err := target.Set("now", utilNow(rt, clock)); err != nil {
		return err
	}
	if err := target.Set("isoDate", utilIsoDate(rt)); err != nil {
		return err
	}
	if err := target.Set("amzDate", utilAmzDate(rt)); err != nil {
		return err
	}
	return nil
}

// utilBase64(data, decode=false): encodes data to a base64 string, or when
// decode is true, decodes a base64 string argument back to a byte array.
func utilBase64(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		decode := false
		if v := argOrUndefined(call, 1); !goja.IsUndefined(v) {
			decode = v.ToBoolean()
		}

		if decode {
			s, ok := argOrUndefined(call, 0).Export().(string)
			if !ok {
				panic(rt.NewTypeError("base64 decode expects a string argument"))
			}
			data, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				panic(rt.NewTypeError(fmt.Sprintf("invalid base64: %s", err)))
			}
			return bytesToJSArray(rt, data)
		}

		data, err := toBytes(rt, argOrUndefined(call, 0))
		if err != nil {
			panic(rt.NewTypeError(err.Error()))
		}
		return rt.ToValue(base64.StdEncoding.EncodeToString(data))
	}
}

// utilHex(data, decode=false): mirrors utilBase64 for hex encoding.
func utilHex(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		decode := false
		if v := argOrUndefined(call, 1); !goja.IsUndefined(v) {
			decode = v.ToBoolean()
		}

		if decode {
			s, ok := argOrUndefined(call, 0).Export().(string)
			if !ok {
				panic(rt.NewTypeError("hex decode expects a string argument"))
			}
			data, err := hex.DecodeString(s)
			if err != nil {
				panic(rt.NewTypeError(fmt.Sprintf("invalid hex: %s", err)))
			}
			return bytesToJSArray(rt, data)
		}

		data, err := toBytes(rt, argOrUndefined(call, 0))
		if err != nil {
			panic(rt.NewTypeError(err.Error()))
		}
		return rt.ToValue(hex.EncodeToString(data))
	}
}

func utilNow(rt *goja.Runtime, clock func() time.Time) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		return rt.ToValue(clock().UnixMilli())
	}
}

// utilIsoDate formats a millisecond Unix timestamp as
// "YYYY-MM-DDTHH:MM:SS.sssZ".
func utilIsoDate(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		ms := argOrUndefined(call, 0).ToInteger()
		t := time.UnixMilli(ms).UTC()
		return rt.ToValue(t.Format("2006-01-02T15:04:05.000Z"))
	}
}

// utilAmzDate formats a millisecond Unix timestamp as "YYYYMMDDTHHMMSSZ",
// the date format SigV4 string-to-sign construction requires.
func utilAmzDate(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		ms := argOrUndefined(call, 0).ToInteger()
		t := time.UnixMilli(ms).UTC()
		return rt.ToValue(t.Format("20060102T150405Z"))
	}
}
