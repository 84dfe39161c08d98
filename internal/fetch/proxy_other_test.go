//go:build !windows

package fetch

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http/httpproxy"
)

func TestDiscoverProxyFromEnvironment(t *testing.T) {
	orig := proxyConfig
	t.Cleanup(func() { proxyConfig = orig })

	target, err := url.Parse("https://gitforwindows.org/latest-tag.txt")
	require.NoError(t, err)

	proxyConfig = func() *httpproxy.Config {
		return &httpproxy.Config{HTTPSProxy: "http://proxy.corp:3128"}
	}
	got, err := DiscoverProxy(target)
	require.NoError(t, err)
	assert.Equal(t, "http://proxy.corp:3128", got)

	proxyConfig = func() *httpproxy.Config {
		return &httpproxy.Config{HTTPSProxy: "http://proxy.corp:3128", NoProxy: "gitforwindows.org"}
	}
	got, err = DiscoverProxy(target)
	require.NoError(t, err)
	assert.Empty(t, got)

	proxyConfig = func() *httpproxy.Config { return &httpproxy.Config{} }
	got, err = DiscoverProxy(target)
	require.NoError(t, err)
	assert.Empty(t, got)
}
