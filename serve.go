// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

package missionzip

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// WriteArchive pumps the combined archive for missions into w and returns
// the number of bytes written. The pump forwards one chunk at a time and
// releases it once written, so memory stays bounded by the largest
// per-mission local region. A write failure stops production immediately;
// nothing is retried.
func WriteArchive(ctx context.Context, w io.Writer, missions []Mission, opts CombineOptions) (int64, error) {
	if w == nil {
		return 0, ErrNilWriter
	}

	combiner, err := NewCombiner(missions, opts)
	if err != nil {
		return 0, err
	}

	var written int64
	for {
		chunk, err := combiner.Next(ctx)
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}

		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write archive chunk: %w", err)
		}
		if n != len(chunk) {
			return written, io.ErrShortWrite
		}
	}
}

// ServeArchive streams the combined archive for missions as a download on w.
// It runs the size estimator first so the response declares an exact
// Content-Length before the first byte flows, then pulls chunks from a
// fresh combiner. Client disconnects surface as write errors or request
// context cancellation and stop production; a response truncated mid-stream
// is detectable by the client against the declared length.
func ServeArchive(w http.ResponseWriter, r *http.Request, filename string, missions []Mission, opts CombineOptions) error {
	ctx := r.Context()

	size, err := Estimate(ctx, missions, opts)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))

	written, err := WriteArchive(ctx, w, missions, opts)
	if err != nil {
		return err
	}

	if written != size {
		return fmt.Errorf("%w: wrote %d of %d declared bytes", ErrLengthMismatch, written, size)
	}

	return nil
}
