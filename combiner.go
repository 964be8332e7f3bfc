// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

package missionzip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// combinerState tracks which output region the combiner is producing.
type combinerState uint8

const (
	// stateMissions emits per-mission local-entry regions.
	stateMissions combinerState = iota
	// stateCentralDirs emits corrected central directory buffers.
	stateCentralDirs
	// stateEndRecord emits the synthesized end of central directory record.
	stateEndRecord
	// stateDone terminates the chunk sequence.
	stateDone
)

// chosenFile records one canonical path with its resolved byte source.
type chosenFile struct {
	path    string
	size    int64
	mission int
}

// Combiner lazily produces one combined ZIP archive as an ordered chunk
// sequence. Sub-archives are built in reverse caller order; when several
// missions declare the same canonical path, the mission earliest in the
// caller-supplied list supplies the file. The list follows display order
// (newest addition first), so the override semantic is "last added wins".
//
// A Combiner is single-use: after io.EOF or any error it cannot be
// restarted, a fresh one must be created.
type Combiner struct {
	builder ArchiveBuilder
	exclude *excludeMatcher
	// chosen is the Included-File Set keyed by canonical path, resolved
	// lazily on the first Next call.
	chosen map[string]chosenFile
	// included holds canonical paths already placed into the output.
	included map[string]struct{}
	err      error
	missions []Mission
	// pendingDirs are corrected central directory buffers awaiting emission.
	pendingDirs [][]byte
	// priorLocalBytes is the cumulative length of emitted local-entry regions.
	priorLocalBytes int64
	dirSize         int64
	next            int
	dirIndex        int
	state           combinerState
}

// NewCombiner prepares a combine operation over the given missions.
// Missions lacking complete size metadata are skipped entirely. No work
// happens until the consumer pulls the first chunk.
func NewCombiner(missions []Mission, opts CombineOptions) (*Combiner, error) {
	opts.applyDefaults()

	exclude, err := newCombineFilter(opts)
	if err != nil {
		return nil, err
	}

	usable := usableMissions(missions)

	return &Combiner{
		builder:  opts.Builder,
		exclude:  exclude,
		included: make(map[string]struct{}),
		missions: usable,
		next:     len(usable) - 1,
	}, nil
}

// chooseFiles walks missions in caller (priority) order and picks, for every
// canonical path, the earliest mission that both declares and resolves it.
// Exclusion and missing-file drops happen here; the result is exactly the
// Included-File Set of the operation. Only metadata and cached directory
// lookups are touched, no payload I/O.
func chooseFiles(ctx context.Context, missions []Mission, exclude *excludeMatcher) (map[string]chosenFile, error) {
	chosen := make(map[string]chosenFile)

	for i := range missions {
		// Long walks over thousands of missions stay cancelable.
		if i%chooseYieldInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		m := &missions[i]
		if m.FindPath == nil {
			continue
		}

		for d, dep := range m.Dependencies {
			name := canonicalDependency(m, dep)
			if name == "" {
				continue
			}

			if _, ok := chosen[name]; ok {
				continue
			}

			if exclude.Excluded(name) {
				continue
			}

			filePath := m.FindPath(dep)
			if filePath == "" {
				// Missing on disk: dropped silently, the combined archive is
				// a best-effort union of what exists.
				continue
			}

			chosen[name] = chosenFile{mission: i, path: filePath, size: m.FileSizes[d]}
		}
	}

	return chosen, nil
}

// Next returns the next output chunk, or io.EOF after the end record.
// Chunks concatenate to a single valid ZIP archive. A failed call poisons
// the combiner and every later call returns the same error.
func (c *Combiner) Next(ctx context.Context) ([]byte, error) {
	if c == nil {
		return nil, ErrNilCombiner
	}
	if c.err != nil {
		return nil, c.err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if c.chosen == nil {
		chosen, err := chooseFiles(ctx, c.missions, c.exclude)
		if err != nil {
			return nil, c.fail(err)
		}

		c.chosen = chosen
	}

	for {
		switch c.state {
		case stateMissions:
			if c.next < 0 {
				c.state = stateCentralDirs
				continue
			}

			if err := ctx.Err(); err != nil {
				return nil, c.fail(err)
			}

			idx := c.next
			c.next--

			chunk, err := c.processMission(ctx, idx)
			if err != nil {
				return nil, c.fail(err)
			}
			if chunk == nil {
				// Nothing to contribute: fully excluded, duplicated, or missing.
				continue
			}

			return chunk, nil

		case stateCentralDirs:
			if c.dirIndex >= len(c.pendingDirs) {
				c.state = stateEndRecord
				continue
			}

			dir := c.pendingDirs[c.dirIndex]
			c.pendingDirs[c.dirIndex] = nil
			c.dirIndex++

			return dir, nil

		case stateEndRecord:
			c.state = stateDone
			record, err := endOfCentralDirectory(len(c.included), c.dirSize, c.priorLocalBytes)
			if err != nil {
				return nil, c.fail(err)
			}

			return record, nil

		default:
			return nil, io.EOF
		}
	}
}

// fail records a fatal error and terminates the chunk sequence.
func (c *Combiner) fail(err error) error {
	c.err = err
	c.state = stateDone

	return err
}

// processMission builds the sub-archive for one mission, returns its
// local-entry region, and queues its offset-corrected central directory.
// A nil chunk with nil error means the mission contributed nothing.
func (c *Combiner) processMission(ctx context.Context, idx int) ([]byte, error) {
	m := &c.missions[idx]

	entries := c.collectEntries(m, idx)
	if len(entries) == 0 {
		return nil, nil
	}

	archive, err := c.builder.Build(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("build sub-archive for mission %s: %w", m.ID, err)
	}

	mainPart, centralDir, err := splitSubArchive(archive)
	if err != nil {
		return nil, fmt.Errorf("mission %s: %w", m.ID, err)
	}

	// Copy before patching: the pending list must not pin whole sub-archive
	// buffers until the directory emission phase.
	dir := append([]byte(nil), centralDir...)
	count, err := shiftCentralDirectory(dir, c.priorLocalBytes)
	if err != nil {
		return nil, fmt.Errorf("mission %s: %w", m.ID, err)
	}
	if count != len(entries) {
		return nil, fmt.Errorf("%w: mission %s directory has %d entries, built %d",
			ErrMalformedCentralDirectory, m.ID, count, len(entries))
	}

	c.pendingDirs = append(c.pendingDirs, dir)
	c.dirSize += int64(len(dir))
	c.priorLocalBytes += int64(len(mainPart))
	if c.priorLocalBytes > maxArchiveSize {
		return nil, fmt.Errorf("%w: local regions reach %d bytes", ErrSizeOverflow, c.priorLocalBytes)
	}

	return mainPart, nil
}

// collectEntries gathers the builder entries this mission supplies: every
// declared dependency whose canonical path was chosen from this mission and
// not yet placed into the output.
func (c *Combiner) collectEntries(m *Mission, idx int) []Entry {
	var entries []Entry
	for _, dep := range m.Dependencies {
		name := canonicalDependency(m, dep)

		file, ok := c.chosen[name]
		if !ok || file.mission != idx {
			continue
		}

		if _, ok := c.included[name]; ok {
			continue
		}

		c.included[name] = struct{}{}

		filePath := file.path
		entries = append(entries, Entry{
			Path: name,
			Size: file.size,
			Open: func() (io.ReadCloser, error) { return os.Open(filePath) },
		})
	}

	return entries
}

// Combine materializes the full combined archive for missions. It exists for
// callers that need the whole buffer; streaming consumers should pull from a
// Combiner or use WriteArchive instead.
func Combine(ctx context.Context, missions []Mission, opts CombineOptions) ([]byte, error) {
	combiner, err := NewCombiner(missions, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for {
		chunk, err := combiner.Next(ctx)
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}

		buf.Write(chunk)
	}
}
