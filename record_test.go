// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

package missionzip

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// buildTestArchive packs in-memory payloads with the default store builder.
func buildTestArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	entries := make([]Entry, 0, len(files))
	for name, content := range files {
		content := content
		entries = append(entries, Entry{
			Path: name,
			Size: int64(len(content)),
			Open: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader([]byte(content))), nil
			},
		})
	}

	archive, err := storeBuilder{}.Build(context.Background(), entries)
	if err != nil {
		t.Fatalf("build archive: %v", err)
	}

	return archive
}

func TestFindEndOfCentralDirectory(t *testing.T) {
	t.Parallel()

	t.Run("too short", func(t *testing.T) {
		t.Parallel()

		if _, err := findEndOfCentralDirectory(make([]byte, endOfCentralDirLen-1)); !errors.Is(err, ErrNoEndOfCentralDirectory) {
			t.Fatalf("expected ErrNoEndOfCentralDirectory, got %v", err)
		}
	})

	t.Run("signature absent", func(t *testing.T) {
		t.Parallel()

		if _, err := findEndOfCentralDirectory(make([]byte, 64)); !errors.Is(err, ErrNoEndOfCentralDirectory) {
			t.Fatalf("expected ErrNoEndOfCentralDirectory, got %v", err)
		}
	})

	t.Run("record at end", func(t *testing.T) {
		t.Parallel()

		record, err := endOfCentralDirectory(0, 0, 0)
		if err != nil {
			t.Fatalf("endOfCentralDirectory: %v", err)
		}

		archive := append(make([]byte, 100), record...)
		offset, err := findEndOfCentralDirectory(archive)
		if err != nil {
			t.Fatalf("findEndOfCentralDirectory: %v", err)
		}
		if offset != 100 {
			t.Fatalf("offset=%d, want 100", offset)
		}
	})

	t.Run("rightmost match wins", func(t *testing.T) {
		t.Parallel()

		record, err := endOfCentralDirectory(0, 0, 0)
		if err != nil {
			t.Fatalf("endOfCentralDirectory: %v", err)
		}

		// A payload can legally contain the signature bytes; the scan must
		// still land on the true trailing record.
		decoy := make([]byte, 4)
		binary.LittleEndian.PutUint32(decoy, endOfCentralDirSignature)

		archive := append(append(append([]byte(nil), decoy...), make([]byte, 50)...), record...)
		offset, err := findEndOfCentralDirectory(archive)
		if err != nil {
			t.Fatalf("findEndOfCentralDirectory: %v", err)
		}
		if offset != 54 {
			t.Fatalf("offset=%d, want 54", offset)
		}
	})
}

func TestSplitSubArchive(t *testing.T) {
	t.Parallel()

	archive := buildTestArchive(t, map[string]string{
		"data/a.txt": "alpha",
		"data/b.txt": "bravo",
	})

	mainPart, centralDir, err := splitSubArchive(archive)
	if err != nil {
		t.Fatalf("splitSubArchive: %v", err)
	}

	if len(mainPart)+len(centralDir)+endOfCentralDirLen != len(archive) {
		t.Fatalf("regions %d+%d+%d do not cover archive of %d bytes",
			len(mainPart), len(centralDir), endOfCentralDirLen, len(archive))
	}

	if binary.LittleEndian.Uint32(mainPart[:4]) != localHeaderSignature {
		t.Fatal("main part must start with a local file header")
	}
	if binary.LittleEndian.Uint32(centralDir[:4]) != centralHeaderSignature {
		t.Fatal("central directory must start with a central header")
	}
}

func TestSplitSubArchive_Garbage(t *testing.T) {
	t.Parallel()

	if _, _, err := splitSubArchive(bytes.Repeat([]byte{0xaa}, 128)); !errors.Is(err, ErrNoEndOfCentralDirectory) {
		t.Fatalf("expected ErrNoEndOfCentralDirectory, got %v", err)
	}
}

func TestShiftCentralDirectory(t *testing.T) {
	t.Parallel()

	archive := buildTestArchive(t, map[string]string{
		"data/a.txt": "alpha",
		"data/b.txt": "bravo",
	})

	_, centralDir, err := splitSubArchive(archive)
	if err != nil {
		t.Fatalf("splitSubArchive: %v", err)
	}

	original := append([]byte(nil), centralDir...)
	shifted := append([]byte(nil), centralDir...)

	const delta = 12345
	count, err := shiftCentralDirectory(shifted, delta)
	if err != nil {
		t.Fatalf("shiftCentralDirectory: %v", err)
	}
	if count != 2 {
		t.Fatalf("count=%d, want 2", count)
	}

	// Walk both copies in lockstep and compare the offset fields.
	offset := 0
	for offset < len(original) {
		before := binary.LittleEndian.Uint32(original[offset+42 : offset+46])
		after := binary.LittleEndian.Uint32(shifted[offset+42 : offset+46])
		if int64(after) != int64(before)+delta {
			t.Fatalf("offset at %d shifted to %d, want %d", offset, after, int64(before)+delta)
		}

		nameLen := int(binary.LittleEndian.Uint16(original[offset+28 : offset+30]))
		extraLen := int(binary.LittleEndian.Uint16(original[offset+30 : offset+32]))
		commentLen := int(binary.LittleEndian.Uint16(original[offset+32 : offset+34]))
		offset += centralHeaderLen + nameLen + extraLen + commentLen
	}
}

func TestShiftCentralDirectory_Malformed(t *testing.T) {
	t.Parallel()

	t.Run("bad signature", func(t *testing.T) {
		t.Parallel()

		dir := make([]byte, centralHeaderLen)
		if _, err := shiftCentralDirectory(dir, 0); !errors.Is(err, ErrMalformedCentralDirectory) {
			t.Fatalf("expected ErrMalformedCentralDirectory, got %v", err)
		}
	})

	t.Run("truncated entry", func(t *testing.T) {
		t.Parallel()

		dir := make([]byte, centralHeaderLen-10)
		binary.LittleEndian.PutUint32(dir, centralHeaderSignature)
		if _, err := shiftCentralDirectory(dir, 0); !errors.Is(err, ErrMalformedCentralDirectory) {
			t.Fatalf("expected ErrMalformedCentralDirectory, got %v", err)
		}
	})

	t.Run("offset overflow", func(t *testing.T) {
		t.Parallel()

		archive := buildTestArchive(t, map[string]string{"a.txt": "x"})
		_, centralDir, err := splitSubArchive(archive)
		if err != nil {
			t.Fatalf("splitSubArchive: %v", err)
		}

		dir := append([]byte(nil), centralDir...)
		if _, err := shiftCentralDirectory(dir, maxArchiveSize+1); !errors.Is(err, ErrSizeOverflow) {
			t.Fatalf("expected ErrSizeOverflow, got %v", err)
		}
	})
}

func TestEndOfCentralDirectory(t *testing.T) {
	t.Parallel()

	record, err := endOfCentralDirectory(3, 150, 4096)
	if err != nil {
		t.Fatalf("endOfCentralDirectory: %v", err)
	}

	if len(record) != endOfCentralDirLen {
		t.Fatalf("record length=%d, want %d", len(record), endOfCentralDirLen)
	}
	if binary.LittleEndian.Uint32(record[0:4]) != endOfCentralDirSignature {
		t.Fatal("bad signature")
	}
	if binary.LittleEndian.Uint16(record[8:10]) != 3 || binary.LittleEndian.Uint16(record[10:12]) != 3 {
		t.Fatal("entry counts must both equal 3")
	}
	if binary.LittleEndian.Uint32(record[12:16]) != 150 {
		t.Fatal("bad directory size")
	}
	if binary.LittleEndian.Uint32(record[16:20]) != 4096 {
		t.Fatal("bad directory offset")
	}
	if binary.LittleEndian.Uint16(record[20:22]) != 0 {
		t.Fatal("comment length must be zero")
	}
}

func TestEndOfCentralDirectory_Limits(t *testing.T) {
	t.Parallel()

	if _, err := endOfCentralDirectory(maxArchiveEntries+1, 0, 0); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("expected ErrSizeOverflow for entry count, got %v", err)
	}
	if _, err := endOfCentralDirectory(1, maxArchiveSize+1, 0); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("expected ErrSizeOverflow for directory size, got %v", err)
	}
	if _, err := endOfCentralDirectory(1, 0, maxArchiveSize+1); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("expected ErrSizeOverflow for directory offset, got %v", err)
	}
}
