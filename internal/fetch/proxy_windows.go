//go:build windows

package fetch

import (
	"fmt"
	"net/url"

	"golang.org/x/sys/windows/registry"
)

const internetSettingsKey = `Software\Microsoft\Windows\CurrentVersion\Internet Settings`

// DiscoverProxy returns the system proxy for target, or "" when none is
// configured. On Windows this is the per-user Internet Settings proxy.
func DiscoverProxy(target *url.URL) (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, internetSettingsKey, registry.QUERY_VALUE)
	if err != nil {
		if err == registry.ErrNotExist {
			return "", nil
		}
		return "", fmt.Errorf("open internet settings: %w", err)
	}
	defer func() { _ = k.Close() }()

	enabled, _, err := k.GetIntegerValue("ProxyEnable")
	if err != nil || enabled == 0 {
		return "", nil
	}
	server, _, err := k.GetStringValue("ProxyServer")
	if err != nil {
		if err == registry.ErrNotExist {
			return "", nil
		}
		return "", fmt.Errorf("read ProxyServer: %w", err)
	}
	return pickProxyServer(server, target.Scheme), nil
}
