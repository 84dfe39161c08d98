package fetch

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseProxy parses a proxy setting as stored in configuration. Bare
// "host:port" values are treated as http proxies.
func ParseProxy(s string) (*url.URL, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty proxy")
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", s, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy %q has no host", s)
	}
	return u, nil
}

// pickProxyServer chooses an entry from a Windows ProxyServer value.
// The value is either a single "host:port" used for every scheme or a
// list such as "http=host:80;https=host:443". The entry for scheme wins,
// then the http entry.
func pickProxyServer(value, scheme string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if !strings.Contains(value, "=") {
		return value
	}

	entries := map[string]string{}
	for _, part := range strings.Split(value, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		entries[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	if v := entries[strings.ToLower(scheme)]; v != "" {
		return v
	}
	return entries["http"]
}
