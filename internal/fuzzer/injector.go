package fuzzer

import (
	"net/http"
	"strings"
)

// Injector produces a concrete request from a Target and a Payload,
// substituting the marker verbatim at every occurrence appropriate to
// the detected Mode (spec.md §4.3).
type Injector struct {
	Target *Target
	Mode   Mode
}

// NewInjector detects the Target's mode once and keeps it for every
// subsequent payload — the mode never changes within one run.
func NewInjector(t *Target) *Injector {
	return &Injector{Target: t, Mode: t.DetectMode()}
}

// Inject builds *http.Request by substituting payload.Final for every
// marker occurrence appropriate to the mode.
func (inj *Injector) Inject(payload Payload) (*http.Request, error) {
	t := inj.Target
	value := payload.Final

	method := t.Methods[0]
	rawURL := t.RawURL
	body := t.Body
	headers := make(map[string]string, len(t.Headers))
	for k, v := range t.Headers {
		headers[k] = v
	}

	switch inj.Mode {
	case MethodFuzzing:
		method = value
		rawURL = strings.ReplaceAll(rawURL, t.Marker, "")
	case SubdomainFuzzing, PathFuzzing:
		rawURL = strings.ReplaceAll(rawURL, t.Marker, value)
	case DataFuzzing:
		rawURL = strings.ReplaceAll(rawURL, t.Marker, "")
		body = strings.ReplaceAll(body, t.Marker, value)
		for k, v := range headers {
			headers[k] = strings.ReplaceAll(v, t.Marker, value)
		}
	}

	var bodyReader *strings.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequest(method, rawURL, bodyReader)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// InjectedHost resolves the hostname a SubdomainFuzzing payload would
// produce, without building a full request — used by SubdomainRequester
// to drive DNS resolution ahead of the HTTP call.
func (inj *Injector) InjectedHost(payload Payload) string {
	injected := strings.ReplaceAll(inj.Target.RawURL, inj.Target.Marker, payload.Final)
	return Host(injected)
}
