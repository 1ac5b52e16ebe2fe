package fuzzer_test

import (
	"testing"

	"fuzzer/internal/fuzzer"
)

func TestExpandNoTransform(t *testing.T) {
	transform := fuzzer.PayloadTransform{}
	payloads := transform.Expand("admin")
	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
	if payloads[0].Final != "admin" {
		t.Fatalf("final = %q, want %q", payloads[0].Final, "admin")
	}
	if payloads[0].Final != payloads[0].Raw {
		t.Fatalf("expected final == raw with no transform")
	}
}

func TestExpandPrefixSuffixCrossProduct(t *testing.T) {
	transform := fuzzer.PayloadTransform{
		Prefixes: []string{"a", "b"},
		Suffixes: []string{"1", "2"},
	}
	payloads := transform.Expand("x")
	if len(payloads) != 4 {
		t.Fatalf("expected 4 payloads (2x2 cross product), got %d", len(payloads))
	}
	want := map[string]bool{"ax1": true, "ax2": true, "bx1": true, "bx2": true}
	for _, p := range payloads {
		if !want[p.Final] {
			t.Errorf("unexpected payload %q", p.Final)
		}
		delete(want, p.Final)
	}
	if len(want) != 0 {
		t.Fatalf("missing payloads: %v", want)
	}
}

func TestExpandCaseCapitalizeEmptyString(t *testing.T) {
	transform := fuzzer.PayloadTransform{Case: fuzzer.CaseCapitalize}
	payloads := transform.Expand("")
	if len(payloads) != 1 || payloads[0].Final != "" {
		t.Fatalf("capitalize on empty string should not panic and yield empty final, got %+v", payloads)
	}
}

func TestExpandDefaultEncoderSet(t *testing.T) {
	base64Enc, ok := fuzzer.BuildEncoder("base64", "", fuzzer.EncoderScope{})
	if !ok {
		t.Fatal("base64 encoder should be registered")
	}
	urlEnc, ok := fuzzer.BuildEncoder("url", "", fuzzer.EncoderScope{})
	if !ok {
		t.Fatal("url encoder should be registered")
	}
	transform := fuzzer.PayloadTransform{Default: []fuzzer.Encoder{base64Enc, urlEnc}}
	payloads := transform.Expand("a b")
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads (one per default-set encoder), got %d", len(payloads))
	}
}

// Scenario 6 from spec.md §8: "-e b64,url" as a single chain yields one
// final payload equal to urlencode(base64("a b")); two separate -e
// flags yield two final payloads.
func TestExpandEncoderChainVsSeparateFlags(t *testing.T) {
	base64Enc, _ := fuzzer.BuildEncoder("base64", "", fuzzer.EncoderScope{})
	urlEnc, _ := fuzzer.BuildEncoder("url", "", fuzzer.EncoderScope{})

	chained := fuzzer.PayloadTransform{Chains: []fuzzer.EncoderChain{{base64Enc, urlEnc}}}
	chainedPayloads := chained.Expand("a b")
	if len(chainedPayloads) != 1 {
		t.Fatalf("chained encoders should yield 1 payload, got %d", len(chainedPayloads))
	}

	separate := fuzzer.PayloadTransform{Default: []fuzzer.Encoder{base64Enc, urlEnc}}
	separatePayloads := separate.Expand("a b")
	if len(separatePayloads) != 2 {
		t.Fatalf("separate encoders should yield 2 payloads, got %d", len(separatePayloads))
	}
}

func TestEncoderScopeRegexRestrictsEncoding(t *testing.T) {
	scope := fuzzer.EncoderScope{Regex: mustCompile(t, `\d+`)}
	enc, ok := fuzzer.BuildEncoder("upper", "", scope)
	if !ok {
		t.Fatal("upper encoder should be registered")
	}
	chain := fuzzer.EncoderChain{enc}
	transform := fuzzer.PayloadTransform{Chains: []fuzzer.EncoderChain{chain}}
	payloads := transform.Expand("id123abc")
	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
	if payloads[0].Final != "id123abc" {
		t.Fatalf("scope regex matched digits only, upper-casing digits is a no-op: got %q", payloads[0].Final)
	}
}
