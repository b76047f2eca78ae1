// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cpack

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"
)

// ErrPayloadTruncated indicates a payload ended before a length-prefixed
// field could be fully read.
var ErrPayloadTruncated = errors.New("cpack payload truncated")

// PayloadFile is one file entry inside a CPACK payload.
type PayloadFile struct {
	Path    string
	Content []byte
}

// EncodePayload lays out manifestJSON and files (which must already be
// sorted by Path) into the deterministic pre-compression byte sequence:
// a length-prefixed manifest, a file count, then each file as a
// length-prefixed path followed by a length-prefixed content block.
func EncodePayload(manifestJSON []byte, files []PayloadFile) []byte {
	size := 4 + len(manifestJSON) + 4
	for _, f := range files {
		size += 4 + len(f.Path) + 8 + len(f.Content)
	}
	buf := make([]byte, 0, size)

	var lenBuf [8]byte
	binary.LittleEndian.PutUint32(lenBuf[:4], uint32(len(manifestJSON)))
	buf = append(buf, lenBuf[:4]...)
	buf = append(buf, manifestJSON...)

	binary.LittleEndian.PutUint32(lenBuf[:4], uint32(len(files)))
	buf = append(buf, lenBuf[:4]...)

	for _, f := range files {
		binary.LittleEndian.PutUint32(lenBuf[:4], uint32(len(f.Path)))
		buf = append(buf, lenBuf[:4]...)
		buf = append(buf, f.Path...)

		binary.LittleEndian.PutUint64(lenBuf[:8], uint64(len(f.Content)))
		buf = append(buf, lenBuf[:8]...)
		buf = append(buf, f.Content...)
	}
	return buf
}

// DecodePayload reverses EncodePayload.
func DecodePayload(data []byte) ([]byte, []PayloadFile, error) {
	pos := 0

	if len(data) < pos+4 {
		return nil, nil, ErrPayloadTruncated
	}
	mlen := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if len(data) < pos+mlen {
		return nil, nil, ErrPayloadTruncated
	}
	manifestJSON := append([]byte(nil), data[pos:pos+mlen]...)
	pos += mlen

	if len(data) < pos+4 {
		return nil, nil, ErrPayloadTruncated
	}
	fcount := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4

	files := make([]PayloadFile, 0, fcount)
	for i := 0; i < fcount; i++ {
		if len(data) < pos+4 {
			return nil, nil, ErrPayloadTruncated
		}
		plen := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if len(data) < pos+plen {
			return nil, nil, ErrPayloadTruncated
		}
		path := string(data[pos : pos+plen])
		pos += plen

		if len(data) < pos+8 {
			return nil, nil, ErrPayloadTruncated
		}
		clen := int(binary.LittleEndian.Uint64(data[pos : pos+8]))
		pos += 8
		if len(data) < pos+clen {
			return nil, nil, ErrPayloadTruncated
		}
		content := append([]byte(nil), data[pos:pos+clen]...)
		pos += clen

		files = append(files, PayloadFile{Path: path, Content: content})
	}
	return manifestJSON, files, nil
}

// SortFiles sorts files by Path in place, matching the ordering EncodePayload
// requires its caller to have already established.
func SortFiles(files []PayloadFile) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}
