// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

/*
Package missionzip synthesizes a single streamed ZIP archive from many
independently zippable mission file sets, with cross-archive deduplication,
override semantics, and conditional exclusion of files already shipped with
the target game install. It reports the exact combined byte length before
producing the first byte, so HTTP responses can declare Content-Length
up front.

The combiner never holds the whole output in memory: each mission is packed
into a transient sub-archive, stripped down to its local-entry region and
emitted, while its central directory is offset-corrected and held back until
all missions are processed. One synthesized end record closes the stream.

# Combining

Describe missions and pull chunks:

	resolver := &missionzip.DirResolver{Root: "/srv/marbleland/data"}
	missions := []missionzip.Mission{{
	    ID:           "mission-42",
	    Dependencies: deps,
	    FileSizes:    sizes,
	    Normalize:    resolver.Normalize,
	    FindPath:     resolver.FindPath,
	}}

	combiner, err := missionzip.NewCombiner(missions, missionzip.CombineOptions{
	    Exclusion: missionzip.ExclusionBaseGame,
	})
	if err != nil {
	    return err
	}
	for {
	    chunk, err := combiner.Next(ctx)
	    if err == io.EOF {
	        break
	    }
	    if err != nil {
	        return err
	    }
	    // forward chunk
	}

Mission order defines override priority: when several missions declare the
same canonical path, the mission earliest in the slice wins and later
duplicates are skipped.

# Sizing

Estimate returns the exact length of the combined output for the same
arguments, without building archives:

	size, err := missionzip.Estimate(ctx, missions, opts)

Equality between the estimate and the materialized stream is a package
invariant. It holds because the default builder writes stored payloads with
a fixed, descriptor-free record layout; pairing Estimate with a custom
builder that emits descriptors, extra fields, or comments breaks it.

# Serving

ServeArchive wires both together for a download response:

	err := missionzip.ServeArchive(w, r, "levels.zip", missions, missionzip.CombineOptions{
	    Exclusion: missionzip.ExclusionPlatinumQuest,
	})

# Exclusion rules

Preset rule lists ship for the supported installs; custom sets can be loaded
from an installed-file manifest:

	rules, err := missionzip.ParseExclusionList(manifest)
	if err != nil {
	    return err
	}
	opts := missionzip.CombineOptions{ExcludeRules: rules}

# Limitations

The output uses classic 32-bit ZIP records. Combined archives whose offsets,
directory size, or entry count exceed those limits fail with ErrSizeOverflow;
Zip64 is not produced or consumed. The backward end-record scan takes the
rightmost signature match and assumes builder output never hides the
signature bytes inside an archive comment.
*/
package missionzip
