// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

package missionzip

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ArchiveBuilder produces one complete ZIP buffer from named entries.
//
// The combiner relies on the documented output shape: one local file header
// plus payload per entry, a central directory, a single end record with an
// empty comment, and no directory-only entries. Implementations that emit
// data descriptors, extra fields, or comments break the size estimator's
// exactness and must not be paired with it.
type ArchiveBuilder interface {
	// Build returns a well-formed ZIP containing exactly the given entries.
	Build(ctx context.Context, entries []Entry) ([]byte, error)
}

// storeBuilder writes entries uncompressed with a fixed, descriptor-free
// record layout: 30+name bytes of local header, raw payload, 46+name bytes
// of central directory entry. This determinism is what lets Estimate predict
// the combined output length byte-exactly.
type storeBuilder struct{}

// Build packs entries into an in-memory ZIP using stored (uncompressed) payloads.
func (storeBuilder) Build(ctx context.Context, entries []Entry) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := validateUniqueEntryPaths(entries); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := readEntryPayload(entries[i])
		if err != nil {
			return nil, err
		}

		header := &zip.FileHeader{
			Name:               entries[i].Path,
			Method:             zip.Store,
			CRC32:              crc32.ChecksumIEEE(data),
			CompressedSize64:   uint64(len(data)),
			UncompressedSize64: uint64(len(data)),
		}

		// CreateRaw keeps the writer from setting the streaming flag, so no
		// data descriptor follows the payload.
		w, err := zw.CreateRaw(header)
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", entries[i].Path, err)
		}

		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", entries[i].Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	return buf.Bytes(), nil
}

// readEntryPayload reads one entry payload fully and verifies it still
// matches the cached size the estimator already accounted for.
func readEntryPayload(entry Entry) ([]byte, error) {
	if entry.Open == nil {
		return nil, fmt.Errorf("entry %s: Open is nil", entry.Path)
	}

	if entry.Size > maxArchiveSize {
		return nil, fmt.Errorf("%w: entry %s size %d", ErrSizeOverflow, entry.Path, entry.Size)
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", entry.Path, err)
	}

	data, readErr := io.ReadAll(rc)
	closeErr := rc.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read entry %s: %w", entry.Path, readErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close entry %s: %w", entry.Path, closeErr)
	}

	if entry.Size >= 0 && int64(len(data)) != entry.Size {
		return nil, fmt.Errorf("%w: entry %s has %d bytes, cached size %d",
			ErrEntrySizeChanged, entry.Path, len(data), entry.Size)
	}

	return data, nil
}

// validateUniqueEntryPaths ensures there are no duplicate logical entry paths.
func validateUniqueEntryPaths(entries []Entry) error {
	seen := make(map[string]string, len(entries))
	for i := range entries {
		key := strings.ToLower(entries[i].Path)
		if existing, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q conflicts with %q", ErrDuplicateEntryPath, entries[i].Path, existing)
		}

		seen[key] = entries[i].Path
	}

	return nil
}
