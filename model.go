// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

package missionzip

import (
	"io"

	"github.com/woozymasta/pathrules"
)

// ZIP record signatures and fixed record sizes used by the combiner.
const (
	localHeaderSignature     = 0x04034b50
	centralHeaderSignature   = 0x02014b50
	endOfCentralDirSignature = 0x06054b50

	localHeaderLen     = 30 // + file name + extra field
	centralHeaderLen   = 46 // + file name + extra field + comment
	endOfCentralDirLen = 22 // + comment

	// maxArchiveSize is the classic ZIP ceiling for 32-bit offset and size
	// fields. Zip64 extensions are outside this package's contract.
	maxArchiveSize = int64(^uint32(0))

	// maxArchiveEntries is the classic ZIP ceiling for 16-bit entry counts.
	maxArchiveEntries = int(^uint16(0))
)

// chooseYieldInterval is how many missions the selection walk covers between
// cancellation checks.
const chooseYieldInterval = 100

// Mission is a read-only description of one level's declared file set.
// Mission lifecycle is owned by the surrounding level-management system;
// this package only walks missions handed to it.
type Mission struct {
	// Normalize overrides default dependency canonicalization when set.
	// Its output is canonicalized again, so implementations may return
	// mixed-case or backslash-separated paths.
	Normalize func(dep string) string
	// FindPath resolves a declared dependency to an absolute file path.
	// Empty string marks the file as missing on disk; missing files are
	// silently dropped from the combined output.
	FindPath func(dep string) string
	// ID identifies the mission in error context.
	ID string
	// Dependencies lists declared relative paths in declaration order.
	Dependencies []string
	// FileSizes holds uncompressed byte sizes positionally aligned with
	// Dependencies. Missions with incomplete size metadata are skipped by
	// both Estimate and the Combiner.
	FileSizes []int64
}

// Entry describes one named byte payload handed to an ArchiveBuilder.
type Entry struct {
	// Open returns the raw source stream for this entry.
	Open func() (io.ReadCloser, error)
	// Path is the canonical archive path for this entry.
	Path string
	// Size is the expected uncompressed payload size in bytes.
	// A negative size disables the payload size consistency check.
	Size int64
}

// ExclusionMode selects a preset of files assumed to already exist in the
// target game installation. Matching files are silently omitted from output.
type ExclusionMode string

// Supported exclusion modes.
const (
	// ExclusionNone keeps every resolvable dependency.
	ExclusionNone ExclusionMode = "none"
	// ExclusionBaseGame omits files shipped with the retail base game.
	ExclusionBaseGame ExclusionMode = "base_game"
	// ExclusionPlatinumQuest omits files shipped with a PlatinumQuest install.
	ExclusionPlatinumQuest ExclusionMode = "platinum_quest"
)

// CombineOptions configures one combine or estimate operation.
type CombineOptions struct {
	// Builder overrides the default store-only archive builder.
	Builder ArchiveBuilder
	// Exclusion selects the preset excluded-path rule list.
	Exclusion ExclusionMode
	// ExcludeRules overrides the preset rule list when non-nil.
	ExcludeRules []pathrules.Rule
	// ExcludeMatcherOptions control exclusion rule matching.
	ExcludeMatcherOptions pathrules.MatcherOptions
}

// applyDefaults fills zero-valued combine options with defaults.
func (opts *CombineOptions) applyDefaults() {
	if opts.Exclusion == "" {
		opts.Exclusion = ExclusionNone
	}

	if opts.ExcludeMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.ExcludeMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionInclude,
		}
	}

	if opts.ExcludeMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.ExcludeMatcherOptions.DefaultAction = pathrules.ActionInclude
	}

	if opts.Builder == nil {
		opts.Builder = storeBuilder{}
	}
}

// UsableMission reports whether the mission carries complete cached size
// metadata and can participate in estimation and combination.
func UsableMission(m *Mission) bool {
	if m == nil || len(m.Dependencies) != len(m.FileSizes) {
		return false
	}

	for _, size := range m.FileSizes {
		if size < 0 {
			return false
		}
	}

	return true
}

// usableMissions filters out missions lacking cached size metadata.
func usableMissions(missions []Mission) []Mission {
	out := make([]Mission, 0, len(missions))
	for i := range missions {
		if UsableMission(&missions[i]) {
			out = append(out, missions[i])
		}
	}

	return out
}
