package sandbox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/dop251/goja"
)

// installCrypto binds ACP.crypto.sha256 / sha256Hex / hmac onto target.
func installCrypto(rt *goja.Runtime, target *goja.Object) error {
	if err := target.Set("sha256", cryptoSha256(rt)); err != nil {
		return err
	}
	if err := target.Set("sha256Hex", cryptoSha256Hex(rt)); err != nil {
		return err
	}
	if err := target.Set("hmac", cryptoHmac(rt)); err != nil {
		return err
	}
	return nil
}

func cryptoSha256(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		data, err := toBytes(rt, argOrUndefined(call, 0))
		if err != nil {
			panic(rt.NewTypeError(err.Error()))
		}
		sum := sha256.Sum256(data)
		return bytesToJSArray(rt, sum[:])
	}
}

func cryptoSha256Hex(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		data, err := toBytes(rt, argOrUndefined(call, 0))
		if err != nil {
			panic(rt.NewTypeError(err.Error()))
		}
		sum := sha256.Sum256(data)
		return rt.ToValue(hex.EncodeToString(sum[:]))
	}
}

// cryptoHmac computes HMAC-SHA256(key, data) and encodes the result per the
// optional third "encoding" argument: "hex" (default), "base64", or any
// other value to receive the raw byte array.
func cryptoHmac(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		key, err := toBytes(rt, argOrUndefined(call, 0))
		if err != nil {
			panic(rt.NewTypeError(err.Error()))
		}
		data, err := toBytes(rt, argOrUndefined(call, 1))
		if err != nil {
			panic(rt.NewTypeError(err.Error()))
		}

		mac := hmac.New(sha256.New, key)
		mac.Write(data)
		sum := mac.Sum(nil)

		encoding := "hex"
		if enc := argOrUndefined(call, 2); !goja.IsUndefined(enc) {
			encoding = enc.String()
		}

		switch encoding {
		case "hex":
			return rt.ToValue(hex.EncodeToString(sum))
		case "base64":
			return rt.ToValue(base64.StdEncoding.EncodeToString(sum))
		default:
			return bytesToJSArray(rt, sum)
		}
	}
}

func argOrUndefined(call goja.FunctionCall, i int) goja.Value {
	if i < len(call.Arguments) {
		return call.Arguments[i]
	}
	return goja.Undefined()
}
