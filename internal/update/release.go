package update

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"gitupdate/internal/version"
)

// ReleaseAsset represents a downloadable file attached to a release.
type ReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
	Size               int64  `json:"size"`
}

// ReleaseInfo contains information about a GitHub release.
type ReleaseInfo struct {
	TagName     string         `json:"tag_name"`
	Name        string         `json:"name"`
	Body        string         `json:"body"`
	HTMLURL     string         `json:"html_url"`
	PublishedAt time.Time      `json:"published_at"`
	Prerelease  bool           `json:"prerelease"`
	Assets      []ReleaseAsset `json:"assets"`
}

// Version returns the release's tag as a version string.
func (r ReleaseInfo) Version() string {
	return version.FromTag(r.TagName)
}

// ParseRelease decodes a GitHub "latest release" response.
func ParseRelease(data []byte) (*ReleaseInfo, error) {
	var release ReleaseInfo
	if err := json.Unmarshal(data, &release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	return &release, nil
}

// BitnessMarker returns the part of an installer name that identifies the
// architecture, e.g. "64-bit" in "Git-2.42.0-64-bit.exe". It returns ""
// for architectures without installers.
func BitnessMarker(arch string) string {
	switch arch {
	case "amd64":
		return "64-bit"
	case "386":
		return "32-bit"
	case "arm64":
		return "arm64"
	default:
		return ""
	}
}

// SelectAsset returns the installer for arch (runtime.GOARCH when empty),
// or nil when the release has none. Portable and archive builds are never
// selected.
func SelectAsset(assets []ReleaseAsset, arch string) *ReleaseAsset {
	if arch == "" {
		arch = runtime.GOARCH
	}
	marker := BitnessMarker(arch)
	if marker == "" {
		return nil
	}
	suffix := "-" + marker + ".exe"
	for i := range assets {
		if strings.HasSuffix(strings.ToLower(assets[i].Name), suffix) {
			return &assets[i]
		}
	}
	return nil
}
