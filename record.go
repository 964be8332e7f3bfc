// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

package missionzip

import (
	"encoding/binary"
	"fmt"
)

// findEndOfCentralDirectory returns the offset of the end of central
// directory record inside archive. The record is fixed-size but trailed by a
// variable-length comment, so it is located by scanning backward from the
// end and taking the rightmost signature match.
func findEndOfCentralDirectory(archive []byte) (int, error) {
	if len(archive) < endOfCentralDirLen {
		return 0, ErrNoEndOfCentralDirectory
	}

	for offset := len(archive) - endOfCentralDirLen; offset >= 0; offset-- {
		if binary.LittleEndian.Uint32(archive[offset:offset+4]) == endOfCentralDirSignature {
			return offset, nil
		}
	}

	return 0, ErrNoEndOfCentralDirectory
}

// splitSubArchive splits a builder-produced archive into its local-entry
// region and central directory region. The end record is dropped; the
// combiner synthesizes a single one for the whole output.
func splitSubArchive(archive []byte) (mainPart, centralDir []byte, err error) {
	endOffset, err := findEndOfCentralDirectory(archive)
	if err != nil {
		return nil, nil, err
	}

	dirOffset := int64(binary.LittleEndian.Uint32(archive[endOffset+16 : endOffset+20]))
	if dirOffset > int64(endOffset) {
		return nil, nil, fmt.Errorf("%w: directory offset %d beyond end record at %d",
			ErrMalformedCentralDirectory, dirOffset, endOffset)
	}

	return archive[:dirOffset], archive[dirOffset:endOffset], nil
}

// shiftCentralDirectory walks dir entry by entry and adds delta to every
// local-header-offset field in place. It returns the number of entries seen.
func shiftCentralDirectory(dir []byte, delta int64) (int, error) {
	entries := 0
	offset := 0

	for offset < len(dir) {
		if len(dir)-offset < centralHeaderLen {
			return 0, fmt.Errorf("%w: truncated entry at %d", ErrMalformedCentralDirectory, offset)
		}

		if binary.LittleEndian.Uint32(dir[offset:offset+4]) != centralHeaderSignature {
			return 0, fmt.Errorf("%w: bad signature at %d", ErrMalformedCentralDirectory, offset)
		}

		nameLen := int(binary.LittleEndian.Uint16(dir[offset+28 : offset+30]))
		extraLen := int(binary.LittleEndian.Uint16(dir[offset+30 : offset+32]))
		commentLen := int(binary.LittleEndian.Uint16(dir[offset+32 : offset+34]))

		localOffset := int64(binary.LittleEndian.Uint32(dir[offset+42:offset+46])) + delta
		if localOffset > maxArchiveSize {
			return 0, fmt.Errorf("%w: local header offset %d", ErrSizeOverflow, localOffset)
		}

		binary.LittleEndian.PutUint32(dir[offset+42:offset+46], uint32(localOffset))

		offset += centralHeaderLen + nameLen + extraLen + commentLen
		entries++
	}

	if offset != len(dir) {
		return 0, fmt.Errorf("%w: entry lengths overrun directory by %d bytes",
			ErrMalformedCentralDirectory, offset-len(dir))
	}

	return entries, nil
}

// endOfCentralDirectory synthesizes the trailing record for the combined
// archive: single-disk fields, matching entry counts, empty comment.
func endOfCentralDirectory(entries int, dirSize, dirOffset int64) ([]byte, error) {
	if entries > maxArchiveEntries {
		return nil, fmt.Errorf("%w: %d entries", ErrSizeOverflow, entries)
	}
	if dirSize > maxArchiveSize || dirOffset > maxArchiveSize {
		return nil, fmt.Errorf("%w: directory size %d at offset %d", ErrSizeOverflow, dirSize, dirOffset)
	}

	record := make([]byte, endOfCentralDirLen)
	binary.LittleEndian.PutUint32(record[0:4], endOfCentralDirSignature)
	binary.LittleEndian.PutUint16(record[8:10], uint16(entries))
	binary.LittleEndian.PutUint16(record[10:12], uint16(entries))
	binary.LittleEndian.PutUint32(record[12:16], uint32(dirSize))
	binary.LittleEndian.PutUint32(record[16:20], uint32(dirOffset))

	return record, nil
}
