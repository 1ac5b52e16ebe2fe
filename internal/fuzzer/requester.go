package fuzzer

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/projectdiscovery/retryablehttp-go"
	"github.com/projectdiscovery/useragent"
)

// Requester executes a concrete request, measuring round-trip time.
// RequestException/InvalidHostname are returned as errors rather than
// panics so the Fuzzer can route them to the right callback.
type Requester interface {
	Request(ctx context.Context, payload Payload) (*Result, error)
	TestConnection(ctx context.Context) error
}

// RequesterConfig carries the per-run HTTP settings the base
// Requester and SubdomainRequester share: timeout, proxy (single or
// rotating list), redirect-following and cookie, mirroring the
// teacher's http.Client setup in fuzzer.go.
type RequesterConfig struct {
	Timeout         time.Duration
	Proxies         []string
	FollowRedirects bool
	Cookie          string
	BaselinePayload string
}

// BaseRequester is the PathFuzzing/MethodFuzzing/DataFuzzing requester.
type BaseRequester struct {
	target   *Target
	injector *Injector
	config   RequesterConfig
	client   *retryablehttp.Client

	proxyMu   sync.Mutex
	proxyNext int
}

// NewBaseRequester builds the retryablehttp client the way the
// teacher's fuzzer.go configures its http.Client (timeout, redirect
// policy), swapping the transport for projectdiscovery/retryablehttp-go
// per SPEC_FULL.md §2. There is no cookie jar: the configured cookie is
// sent as a Cookie header on every request.
func NewBaseRequester(target *Target, config RequesterConfig) *BaseRequester {
	options := retryablehttp.DefaultOptionsSingle
	options.Timeout = config.Timeout
	options.RetryMax = 0
	client := retryablehttp.NewClient(options)
	if !config.FollowRedirects {
		client.HTTPClient.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &BaseRequester{
		target:   target,
		injector: NewInjector(target),
		config:   config,
		client:   client,
	}
}

func (r *BaseRequester) nextProxy() string {
	if len(r.config.Proxies) == 0 {
		return ""
	}
	if len(r.config.Proxies) == 1 {
		return r.config.Proxies[0]
	}
	r.proxyMu.Lock()
	defer r.proxyMu.Unlock()
	p := r.config.Proxies[r.proxyNext%len(r.config.Proxies)]
	r.proxyNext++
	return p
}

func (r *BaseRequester) applyProxy(req *http.Request) {
	proxyStr := r.nextProxy()
	if proxyStr == "" {
		r.client.HTTPClient.Transport = nil
		return
	}
	if !strings.Contains(proxyStr, "://") {
		proxyStr = "http://" + proxyStr
	}
	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		return
	}
	transport, ok := r.client.HTTPClient.Transport.(*http.Transport)
	if !ok || transport == nil {
		transport = &http.Transport{}
	}
	transport.Proxy = http.ProxyURL(proxyURL)
	r.client.HTTPClient.Transport = transport
}

// doRequest injects the payload, sends it, and returns the raw
// components a Result is built from. It does not allocate a Result
// index — that is the Fuzzer's job at dispatch time (spec.md §4.9).
func (r *BaseRequester) doRequest(ctx context.Context, payload Payload) (method, finalURL string, status int, body string, rtt time.Duration, err error) {
	httpReq, buildErr := r.injector.Inject(payload)
	if buildErr != nil {
		return "", "", 0, "", 0, NewRequestException(r.target.PureURL(), buildErr)
	}
	httpReq = httpReq.WithContext(ctx)
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", useragent.PickRandom().Raw)
	}
	if r.config.Cookie != "" {
		httpReq.Header.Set("Cookie", r.config.Cookie)
	}
	r.applyProxy(httpReq)

	retryableReq, buildErr := retryablehttp.FromRequest(httpReq)
	if buildErr != nil {
		return "", "", 0, "", 0, NewRequestException(httpReq.URL.String(), buildErr)
	}

	start := time.Now()
	resp, doErr := r.client.Do(retryableReq)
	if doErr != nil {
		return "", "", 0, "", 0, NewRequestException(httpReq.URL.String(), doErr)
	}
	defer resp.Body.Close()
	rtt = time.Since(start)

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return "", "", 0, "", 0, NewRequestException(httpReq.URL.String(), readErr)
	}

	return httpReq.Method, httpReq.URL.String(), resp.StatusCode, string(raw), rtt, nil
}

// Request implements Requester for the non-subdomain modes.
func (r *BaseRequester) Request(ctx context.Context, payload Payload) (*Result, error) {
	method, finalURL, status, body, rtt, err := r.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	return NewResult(0, finalURL, method, status, body, rtt, payload, nil), nil
}

// TestConnection sends a single request with an empty (or configured
// baseline) payload to verify reachability; the caller decides whether
// to continue or abort on failure (spec.md §4.4).
func (r *BaseRequester) TestConnection(ctx context.Context) error {
	baseline := r.config.BaselinePayload
	payload := Payload{Raw: baseline, Final: baseline}
	_, err := r.Request(ctx, payload)
	return err
}

// HostResolver resolves a hostname to an IP, used by SubdomainRequester.
// It's a function value so tests can substitute deterministic
// resolution (spec.md §8 scenario 2) without a real DNS round trip.
type HostResolver func(ctx context.Context, host string) (string, error)

// DefaultResolver resolves via the stdlib resolver — no example repo
// in the corpus imports a DNS client library for plain forward
// resolution, so this stays on net.DefaultResolver (SPEC_FULL.md §2).
func DefaultResolver(ctx context.Context, host string) (string, error) {
	ips, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errNoAddresses
	}
	return ips[0], nil
}

var errNoAddresses = newSentinel("no addresses found for host")

// SubdomainRequester specializes Request: it resolves the injected
// host to an IP first, then performs the HTTP request, returning
// custom={"ip": <resolved>}. Resolution failure maps to
// InvalidHostname and never stops the run.
type SubdomainRequester struct {
	*BaseRequester
	resolve HostResolver
}

func NewSubdomainRequester(target *Target, config RequesterConfig, resolve HostResolver) *SubdomainRequester {
	if resolve == nil {
		resolve = DefaultResolver
	}
	return &SubdomainRequester{BaseRequester: NewBaseRequester(target, config), resolve: resolve}
}

func (r *SubdomainRequester) Request(ctx context.Context, payload Payload) (*Result, error) {
	host := r.injector.InjectedHost(payload)
	ip, err := r.resolve(ctx, host)
	if err != nil {
		return nil, NewInvalidHostname(host, err)
	}
	method, finalURL, status, body, rtt, reqErr := r.doRequest(ctx, payload)
	if reqErr != nil {
		return nil, reqErr
	}
	return NewResult(0, finalURL, method, status, body, rtt, payload, map[string]interface{}{"ip": ip}), nil
}
