// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

package missionzip

import (
	"path"
	"strings"
)

// NormalizeDependency converts a declared mission dependency to canonical
// form: trimmed, slash-separated, cleaned of "." and ".." segments, lower
// case. Canonical paths are the deduplication keys of a combine operation
// and the entry names of the combined archive.
func NormalizeDependency(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, `\`, "/")
	raw = strings.TrimPrefix(raw, "./")
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.ToLower(strings.TrimSuffix(raw, "/"))
}

// canonicalDependency returns the canonical archive path for one declared
// dependency, applying the mission's normalization override when present.
func canonicalDependency(m *Mission, dep string) string {
	if m.Normalize != nil {
		return NormalizeDependency(m.Normalize(dep))
	}

	return NormalizeDependency(dep)
}
