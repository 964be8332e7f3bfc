// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

package missionzip

import "context"

// Estimate computes the exact byte length a Combiner built from the same
// arguments will produce, without building any archives. It replays the same
// selection walk (deduplication, exclusion, missing-file drops) and sums
// per-file sizes plus fixed record overhead: each included file costs its
// uncompressed size, the local and central header fixed sizes, and twice its
// canonical name (the name appears in both headers). Equality with the
// materialized output is a correctness invariant, not an approximation.
//
// The walk performs no payload I/O. Path resolution goes through each
// mission's FindPath hook, which is expected to be backed by the shared
// directory-listing cache.
func Estimate(ctx context.Context, missions []Mission, opts CombineOptions) (int64, error) {
	opts.applyDefaults()

	exclude, err := newCombineFilter(opts)
	if err != nil {
		return 0, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	chosen, err := chooseFiles(ctx, usableMissions(missions), exclude)
	if err != nil {
		return 0, err
	}

	var localBytes, dirBytes int64
	for name, file := range chosen {
		nameLen := int64(len(name))
		localBytes += localHeaderLen + nameLen + file.size
		dirBytes += centralHeaderLen + nameLen
	}

	// Mirror the combiner's classic-ZIP limit checks so both operations fail
	// on the same inputs.
	if _, err := endOfCentralDirectory(len(chosen), dirBytes, localBytes); err != nil {
		return 0, err
	}

	return localBytes + dirBytes + endOfCentralDirLen, nil
}
