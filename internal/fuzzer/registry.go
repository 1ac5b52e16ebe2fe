package fuzzer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParamDescriptor documents a plugin's single constructor parameter —
// the Go equivalent of the original tool's class-level __params__ dict
// (metavar/type/default), loaded from a YAML sidecar so a plugin can
// be described without recompiling the registry.
type ParamDescriptor struct {
	Metavar string `yaml:"metavar"`
	Type    string `yaml:"type"`
	Default string `yaml:"default"`
}

// ScannerFactory builds a Scanner from its (possibly empty) parameter
// string, already resolved against TARGET_HOST/TARGET_URL if the
// descriptor asked for it.
type ScannerFactory func(param string) (Scanner, error)

// scannerPlugin pairs a factory with the descriptor used to resolve
// its parameter before the factory is invoked.
type scannerPlugin struct {
	factory ScannerFactory
	params  ParamDescriptor
}

// Registry resolves scanner plugin names case-insensitively, mirroring
// PluginFactory's name lookup in original_source. It holds scanners
// only: encoders are resolved by BuildEncoder, and there are no
// wordlist plugins.
type Registry struct {
	scanners map[string]scannerPlugin
}

// NewRegistry returns a Registry pre-populated with the built-in
// per-mode scanners under their mode names.
func NewRegistry() *Registry {
	r := &Registry{scanners: make(map[string]scannerPlugin)}
	r.RegisterScanner("path", func(string) (Scanner, error) { return PathScanner{}, nil }, ParamDescriptor{})
	r.RegisterScanner("subdomain", func(string) (Scanner, error) { return SubdomainScanner{}, nil }, ParamDescriptor{})
	r.RegisterScanner("method", func(string) (Scanner, error) { return MethodScanner{}, nil }, ParamDescriptor{})
	r.RegisterScanner("data", func(string) (Scanner, error) { return DataScanner{}, nil }, ParamDescriptor{})
	return r
}

// RegisterScanner adds or replaces a named scanner factory. Names are
// matched case-insensitively on Resolve.
func (r *Registry) RegisterScanner(name string, factory ScannerFactory, params ParamDescriptor) {
	r.scanners[strings.ToLower(name)] = scannerPlugin{factory: factory, params: params}
}

// LoadScannerManifest reads a YAML sidecar describing a single
// scanner's __params__ block and updates the descriptor already
// registered under name — used when a plugin's default parameter is
// supplied out-of-band rather than hardcoded (SPEC_FULL.md §2).
//
//	name: subdomain
//	metavar: TARGET_HOST
//	type: string
//	default: ""
func (r *Registry) LoadScannerManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var manifest struct {
		Name    string `yaml:"name"`
		Metavar string `yaml:"metavar"`
		Type    string `yaml:"type"`
		Default string `yaml:"default"`
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parse scanner manifest %s: %w", path, err)
	}
	key := strings.ToLower(manifest.Name)
	plugin, ok := r.scanners[key]
	if !ok {
		return fmt.Errorf("unknown scanner plugin %q referenced in manifest %s", manifest.Name, path)
	}
	plugin.params = ParamDescriptor{Metavar: manifest.Metavar, Type: manifest.Type, Default: manifest.Default}
	r.scanners[key] = plugin
	return nil
}

// ResolveScanner builds the named scanner. If param is empty and the
// plugin's descriptor asks for TARGET_HOST or TARGET_URL, it is filled
// in from target before the factory runs — the same substitution
// WordlistFactory.creator performs for wordlist plugins in
// original_source.
func (r *Registry) ResolveScanner(name, param string, target *Target) (Scanner, error) {
	plugin, ok := r.scanners[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown scanner plugin: %s", name)
	}
	if param == "" && target != nil {
		switch plugin.params.Metavar {
		case "TARGET_HOST":
			param = Host(target.PureURL())
		case "TARGET_URL":
			param = target.PureURL()
		}
	}
	if param == "" {
		param = plugin.params.Default
	}
	return plugin.factory(param)
}

// HasScanner reports whether name is a registered scanner plugin.
func (r *Registry) HasScanner(name string) bool {
	_, ok := r.scanners[strings.ToLower(name)]
	return ok
}
