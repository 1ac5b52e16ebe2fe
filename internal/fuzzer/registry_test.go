package fuzzer_test

import (
	"testing"

	"fuzzer/internal/fuzzer"
)

func TestRegistryResolvesBuiltinScannersCaseInsensitively(t *testing.T) {
	r := fuzzer.NewRegistry()
	if !r.HasScanner("Path") {
		t.Fatal("HasScanner should match case-insensitively")
	}
	scanner, err := r.ResolveScanner("PATH", "", nil)
	if err != nil {
		t.Fatalf("ResolveScanner() error: %v", err)
	}
	if _, ok := scanner.(fuzzer.PathScanner); !ok {
		t.Fatalf("ResolveScanner(PATH) = %T, want fuzzer.PathScanner", scanner)
	}
}

func TestRegistryUnknownScannerIsAnError(t *testing.T) {
	r := fuzzer.NewRegistry()
	if _, err := r.ResolveScanner("does-not-exist", "", nil); err == nil {
		t.Fatal("expected an error resolving an unregistered scanner name")
	}
	if r.HasScanner("does-not-exist") {
		t.Fatal("HasScanner should be false for an unregistered name")
	}
}

func TestRegistrySubstitutesTargetHostMetavar(t *testing.T) {
	r := fuzzer.NewRegistry()
	var gotParam string
	r.RegisterScanner("host-echo", func(param string) (fuzzer.Scanner, error) {
		gotParam = param
		return fuzzer.PathScanner{}, nil
	}, fuzzer.ParamDescriptor{Metavar: "TARGET_HOST"})

	target := fuzzer.NewTarget("http://example.com/$", nil, nil, "", "")
	if _, err := r.ResolveScanner("host-echo", "", target); err != nil {
		t.Fatalf("ResolveScanner() error: %v", err)
	}
	if gotParam != "example.com" {
		t.Fatalf("param = %q, want example.com", gotParam)
	}
}

func TestRegistrySubstitutesTargetURLMetavar(t *testing.T) {
	r := fuzzer.NewRegistry()
	var gotParam string
	r.RegisterScanner("url-echo", func(param string) (fuzzer.Scanner, error) {
		gotParam = param
		return fuzzer.PathScanner{}, nil
	}, fuzzer.ParamDescriptor{Metavar: "TARGET_URL"})

	target := fuzzer.NewTarget("http://example.com/$/admin", nil, nil, "", "")
	if _, err := r.ResolveScanner("url-echo", "", target); err != nil {
		t.Fatalf("ResolveScanner() error: %v", err)
	}
	if gotParam != "http://example.com//admin" {
		t.Fatalf("param = %q, want http://example.com//admin", gotParam)
	}
}

func TestRegistryExplicitParamOverridesSubstitution(t *testing.T) {
	r := fuzzer.NewRegistry()
	var gotParam string
	r.RegisterScanner("host-echo", func(param string) (fuzzer.Scanner, error) {
		gotParam = param
		return fuzzer.PathScanner{}, nil
	}, fuzzer.ParamDescriptor{Metavar: "TARGET_HOST"})

	target := fuzzer.NewTarget("http://example.com/$", nil, nil, "", "")
	if _, err := r.ResolveScanner("host-echo", "explicit", target); err != nil {
		t.Fatalf("ResolveScanner() error: %v", err)
	}
	if gotParam != "explicit" {
		t.Fatalf("param = %q, want explicit to win over substitution", gotParam)
	}
}
