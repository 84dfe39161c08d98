//go:build !windows

package fetch

import (
	"fmt"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// proxyConfig is a function variable to allow overriding in tests.
var proxyConfig = httpproxy.FromEnvironment

// DiscoverProxy returns the system proxy for target, or "" when none is
// configured. Outside Windows the HTTPS_PROXY/HTTP_PROXY/NO_PROXY
// environment is the system setting.
func DiscoverProxy(target *url.URL) (string, error) {
	u, err := proxyConfig().ProxyFunc()(target)
	if err != nil {
		return "", fmt.Errorf("resolve proxy from environment: %w", err)
	}
	if u == nil {
		return "", nil
	}
	return u.String(), nil
}
