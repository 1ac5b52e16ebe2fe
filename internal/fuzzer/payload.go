package fuzzer

import (
	"regexp"
	"strings"
)

// Payload is a single concrete string substituted into a request
// template. Final differs from Raw only when at least one transform
// (case fold, prefix/suffix, encoder) was applied; a transform that
// changes nothing (e.g. lowercasing an already-lowercase entry) leaves
// Final equal to Raw.
type Payload struct {
	Raw       string
	Final     string
	Encoders  []string
	Transform []string
}

func (p Payload) String() string {
	return p.Final
}

// CaseMode selects at most one of lowercase/uppercase/capitalize.
type CaseMode int

const (
	CaseNone CaseMode = iota
	CaseLower
	CaseUpper
	CaseCapitalize
)

// EncoderScope restricts an encoder to the substrings of the payload
// matched by Regex; when Regex is nil the whole payload is encoded.
type EncoderScope struct {
	Regex *regexp.Regexp
}

// Encoder transforms a string, honoring an optional scope regex: only
// the regex's matches are encoded, the rest of the string passes
// through unchanged.
type Encoder struct {
	Name  string
	Param string
	Scope EncoderScope
	Apply func(s, param string) string
}

func (e Encoder) encode(s string) string {
	if e.Scope.Regex == nil {
		return e.Apply(s, e.Param)
	}
	return e.Scope.Regex.ReplaceAllStringFunc(s, func(m string) string {
		return e.Apply(m, e.Param)
	})
}

// EncoderChain is a sequential composition of encoders: its output is
// a single payload produced by applying each encoder in order.
type EncoderChain []Encoder

func (c EncoderChain) apply(s string) string {
	for _, e := range c {
		s = e.encode(s)
	}
	return s
}

// PayloadTransform is the value-type replacement for the teacher
// corpus's global "Payloader" singleton (see DESIGN NOTES in
// spec.md §9): case fold, prefix/suffix cross-product, and the
// default encoder set plus chains, owned by whoever builds a
// Dictionary instead of living as process-global state.
type PayloadTransform struct {
	Case     CaseMode
	Prefixes []string
	Suffixes []string
	Default  []Encoder
	Chains   []EncoderChain
}

// Expand turns one raw wordlist entry into its final payload sequence.
// With no encoders configured it yields exactly one payload per
// prefix/suffix combination; otherwise it yields len(Default)+len(Chains)
// payloads per combination.
func (t PayloadTransform) Expand(raw string) []Payload {
	cased := t.foldCase(raw)

	prefixes := t.Prefixes
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	suffixes := t.Suffixes
	if len(suffixes) == 0 {
		suffixes = []string{""}
	}

	var wrapped []string
	var transformFlags [][]string
	for _, pre := range prefixes {
		for _, suf := range suffixes {
			flags := caseFlags(t.Case)
			if pre != "" {
				flags = append(flags, "prefix")
			}
			if suf != "" {
				flags = append(flags, "suffix")
			}
			wrapped = append(wrapped, pre+cased+suf)
			transformFlags = append(transformFlags, flags)
		}
	}

	var out []Payload
	for i, w := range wrapped {
		flags := transformFlags[i]
		if len(t.Default) == 0 && len(t.Chains) == 0 {
			out = append(out, t.finalize(raw, w, nil, flags))
			continue
		}
		for _, enc := range t.Default {
			final := enc.encode(w)
			out = append(out, t.finalize(raw, final, []string{enc.Name}, flags))
		}
		for _, chain := range t.Chains {
			final := chain.apply(w)
			out = append(out, t.finalize(raw, final, chainNames(chain), flags))
		}
	}
	return out
}

func (t PayloadTransform) finalize(raw, final string, encoders, transformFlags []string) Payload {
	flags := append([]string{}, transformFlags...)
	return Payload{
		Raw:       raw,
		Final:     final,
		Encoders:  encoders,
		Transform: flags,
	}
}

func (t PayloadTransform) foldCase(s string) string {
	switch t.Case {
	case CaseLower:
		return strings.ToLower(s)
	case CaseUpper:
		return strings.ToUpper(s)
	case CaseCapitalize:
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	default:
		return s
	}
}

func caseFlags(c CaseMode) []string {
	switch c {
	case CaseLower:
		return []string{"lower"}
	case CaseUpper:
		return []string{"upper"}
	case CaseCapitalize:
		return []string{"capitalize"}
	default:
		return nil
	}
}

func chainNames(c EncoderChain) []string {
	names := make([]string, len(c))
	for i, e := range c {
		names[i] = e.Name
	}
	return names
}
