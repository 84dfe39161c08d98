// Package version orders host application version strings.
//
// Versions are opaque strings such as "2.41.0.windows.1" or "2.41.0.rc1".
// They are never parsed into a fixed shape; Compare walks both strings left
// to right, comparing digit runs numerically and everything else
// character by character.
package version

import (
	"fmt"
	"regexp"
	"strings"
)

// rcMarker matches a release-candidate suffix such as ".rc1" or "-rc2".
var rcMarker = regexp.MustCompile(`[.-]rc[0-9]`)

// Compare compares two version strings.
// Returns:
//
//	-1 if a < b
//	 0 if a == b
//	 1 if a > b
//
// A release candidate sorts before the build it leads up to, so
// "2.41.0.rc1" < "2.41.0", and a shorter version sorts before a longer one
// sharing its prefix, so "2.41" < "2.41.0".
func Compare(a, b string) int {
	i, j := 0, 0
	for {
		da := digitRun(a, i)
		db := digitRun(b, j)
		switch {
		case da == "" && db == "":
			// Both sides sit on a separator; treat the missing runs as zero.
		case da == "":
			return -1
		case db == "":
			return 1
		default:
			if c := compareDigits(da, db); c != 0 {
				return c
			}
		}
		i += len(da)
		j += len(db)

		rcA := startsWithRC(a[i:])
		rcB := startsWithRC(b[j:])
		if rcA != rcB {
			if rcA {
				return -1
			}
			return 1
		}

		endA := i >= len(a)
		endB := j >= len(b)
		switch {
		case endA && endB:
			return 0
		case endA:
			return -1
		case endB:
			return 1
		}

		ca, cb := a[i], b[j]
		i++
		j++
		if ca != cb {
			switch {
			case ca == '.':
				return -1
			case cb == '.':
				return 1
			case ca < cb:
				return -1
			default:
				return 1
			}
		}

		// "2.41." names the same release line as "2.41.0".
		if ca == '.' && (i >= len(a) || j >= len(b)) {
			return 0
		}
	}
}

// Less reports whether a sorts strictly before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// IsReleaseCandidate reports whether v carries a release-candidate marker.
func IsReleaseCandidate(v string) bool {
	return rcMarker.MatchString(v)
}

// ReleaseBase returns the part of v before its release-candidate marker,
// e.g. "2.41.0" for "2.41.0.rc1". Versions without a marker are returned
// unchanged.
func ReleaseBase(v string) string {
	loc := rcMarker.FindStringIndex(v)
	if loc == nil {
		return v
	}
	return v[:loc[0]]
}

// FromTag normalizes a release tag into a version: surrounding whitespace
// and a leading 'v' are removed.
func FromTag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "v")
}

// FromHostOutput extracts the version from the output of the host's
// version command, e.g. "git version 2.41.0.windows.1\n" with prefix
// "git version ".
func FromHostOutput(out, prefix string) (string, error) {
	line := strings.TrimSpace(out)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if prefix != "" {
		if !strings.HasPrefix(line, prefix) {
			return "", fmt.Errorf("unexpected version output: %q", line)
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, prefix))
	}
	if line == "" {
		return "", fmt.Errorf("empty version string")
	}
	return line, nil
}

func digitRun(s string, from int) string {
	end := from
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[from:end]
}

// compareDigits compares two decimal strings of any length numerically.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func startsWithRC(rest string) bool {
	loc := rcMarker.FindStringIndex(rest)
	return loc != nil && loc[0] == 0
}
