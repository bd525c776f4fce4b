package sandbox

import (
	"unicode/utf8"

	"github.com/dop251/goja"
)

// installTextCodecs registers global TextEncoder/TextDecoder constructors,
// the minimal subset of the web platform API that the AWS/HMAC-signing
// style plugins in the wild lean on to move between strings and byte
// arrays.
func installTextCodecs(rt *goja.Runtime) error {
	if err := rt.Set("TextEncoder", newTextEncoderConstructor(rt)); err != nil {
		return err
	}
	if err := rt.Set("TextDecoder", newTextDecoderConstructor(rt)); err != nil {
		return err
	}
	return nil
}

func newTextEncoderConstructor(rt *goja.Runtime) func(goja.ConstructorCall) *goja.Object {
	return func(call goja.ConstructorCall) *goja.Object {
		encode := func(inner goja.FunctionCall) goja.Value {
			s, _ := argOrUndefined(inner, 0).Export().(string)
			return bytesToJSArray(rt, []byte(s))
		}
		if err := call.This.Set("encode", encode); err != nil {
			panic(rt.NewGoError(err))
		}
		return call.This
	}
}

func newTextDecoderConstructor(rt *goja.Runtime) func(goja.ConstructorCall) *goja.Object {
	return func(call goja.ConstructorCall) *goja.Object {
		decode := func(inner goja.FunctionCall) goja.Value {
			data, err := toBytes(rt, argOrUndefined(inner, 0))
			if err != nil {
				panic(rt.NewTypeError(err.Error()))
			}
			if !utf8.Valid(data) {
				panic(rt.NewTypeError("invalid UTF-8 sequence"))
			}
			return rt.ToValue(string(data))
		}
		if err := call.This.Set("decode", decode); err != nil {
			panic(rt.NewGoError(err))
		}
		return call.This
	}
}
