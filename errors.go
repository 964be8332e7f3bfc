// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

package missionzip

import "errors"

// Sentinel errors for combine operations. Use errors.Is in callers.
var (
	// ErrNilWriter means the destination writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrNilCombiner means the combiner is nil.
	ErrNilCombiner = errors.New("combiner is nil")
	// ErrNoEndOfCentralDirectory means a sub-archive lacks the end of central
	// directory signature. The archive builder broke its output contract.
	ErrNoEndOfCentralDirectory = errors.New("end of central directory signature not found")
	// ErrMalformedCentralDirectory means a sub-archive central directory
	// cannot be walked entry by entry.
	ErrMalformedCentralDirectory = errors.New("malformed central directory")
	// ErrSizeOverflow means a size, offset, or entry count exceeds the
	// classic 32-bit ZIP format limits.
	ErrSizeOverflow = errors.New("size exceeds classic ZIP format limits")
	// ErrInvalidExcludeRules means one or more exclusion rules are invalid.
	ErrInvalidExcludeRules = errors.New("invalid exclusion rules")
	// ErrUnknownExclusionMode means the exclusion mode has no preset rule list.
	ErrUnknownExclusionMode = errors.New("unknown exclusion mode")
	// ErrEntrySizeChanged means an entry payload no longer matches its cached
	// size, which would break the declared content length.
	ErrEntrySizeChanged = errors.New("entry payload size changed on disk")
	// ErrDuplicateEntryPath means two builder entries resolve to the same
	// path (case-insensitive).
	ErrDuplicateEntryPath = errors.New("duplicate entry path")
	// ErrLengthMismatch means materialized output diverged from the estimate.
	ErrLengthMismatch = errors.New("combined output length diverged from estimate")
)
