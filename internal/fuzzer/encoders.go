package fuzzer

import (
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"strings"
)

// EncoderFactory builds a named Encoder with an optional parameter and
// scope regex, resolved by name through BuildEncoder (encoders are not
// part of the Registry in registry.go).
// Encoding itself is delegated to stdlib primitives (base64, hex,
// url.QueryEscape): no example repo in the corpus reaches for a
// third-party base64/hex/urlencode library, they all call these
// packages directly — see SPEC_FULL.md §2.
type EncoderFactory func(param string, scope EncoderScope) Encoder

var builtinEncoders = map[string]EncoderFactory{
	"base64": func(param string, scope EncoderScope) Encoder {
		return Encoder{Name: "base64", Param: param, Scope: scope, Apply: func(s, _ string) string {
			return base64.StdEncoding.EncodeToString([]byte(s))
		}}
	},
	"url": func(param string, scope EncoderScope) Encoder {
		return Encoder{Name: "url", Param: param, Scope: scope, Apply: func(s, _ string) string {
			return url.QueryEscape(s)
		}}
	},
	"hex": func(param string, scope EncoderScope) Encoder {
		return Encoder{Name: "hex", Param: param, Scope: scope, Apply: func(s, _ string) string {
			return hex.EncodeToString([]byte(s))
		}}
	},
	"html": func(param string, scope EncoderScope) Encoder {
		return Encoder{Name: "html", Param: param, Scope: scope, Apply: func(s, _ string) string {
			var b strings.Builder
			for _, r := range s {
				b.WriteString("&#")
				b.WriteString(itoa(int(r)))
				b.WriteByte(';')
			}
			return b.String()
		}}
	},
	"upper": func(param string, scope EncoderScope) Encoder {
		return Encoder{Name: "upper", Param: param, Scope: scope, Apply: func(s, _ string) string {
			return strings.ToUpper(s)
		}}
	},
	"double-url": func(param string, scope EncoderScope) Encoder {
		return Encoder{Name: "double-url", Param: param, Scope: scope, Apply: func(s, _ string) string {
			return url.QueryEscape(url.QueryEscape(s))
		}}
	},
}

// BuildEncoder resolves name (case-insensitive) into an Encoder.
func BuildEncoder(name, param string, scope EncoderScope) (Encoder, bool) {
	factory, ok := builtinEncoders[strings.ToLower(name)]
	if !ok {
		return Encoder{}, false
	}
	return factory(param, scope), true
}

// EncoderNames lists the built-in encoder names, for error messages
// that list available plugins (spec.md §9 DESIGN NOTES: reject
// unknowns with a precise error listing available plugins).
func EncoderNames() []string {
	names := make([]string, 0, len(builtinEncoders))
	for name := range builtinEncoders {
		names = append(names, name)
	}
	return names
}
