package catalog

import (
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"

	"github.com/ppiankov/foodguard/internal/model"
)

const maxRedirects = 3

// newHTTPClient builds the catalog HTTP client. Explicit proxy settings override
// HTTP_PROXY, HTTPS_PROXY and NO_PROXY from the environment.
func newHTTPClient(cfg model.HTTPConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxyFunc(cfg)

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

func proxyFunc(cfg model.HTTPConfig) func(*http.Request) (*url.URL, error) {
	proxyCfg := httpproxy.FromEnvironment()
	if cfg.HTTPProxy != "" {
		proxyCfg.HTTPProxy = cfg.HTTPProxy
	}
	if cfg.HTTPSProxy != "" {
		proxyCfg.HTTPSProxy = cfg.HTTPSProxy
	}
	if cfg.NoProxy != "" {
		proxyCfg.NoProxy = cfg.NoProxy
	}

	resolve := proxyCfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return resolve(req.URL)
	}
}
