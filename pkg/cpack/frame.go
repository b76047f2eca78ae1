// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package cpack implements the CPACK container: a single-file,
// zstd-compressed, integrity-checked encoding of a DPACK's manifest and
// data files.
package cpack

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Magic identifies a CPACK file.
var Magic = [4]byte{'C', 'P', 'C', 'K'}

// Version is the only CPACK format version this implementation emits or
// accepts.
const Version byte = 1

// CompressZstd is the only compression method this implementation emits or
// accepts.
const CompressZstd byte = 1

// HeaderSize is the fixed on-disk size of a Header.
const HeaderSize = 48

// ErrHeaderTooShort indicates fewer than HeaderSize bytes were supplied.
var ErrHeaderTooShort = errors.New("cpack header too short")

// ErrBadMagic indicates the leading 4 bytes are not "CPCK".
var ErrBadMagic = errors.New("cpack bad magic bytes")

// ErrUnsupportedVersion indicates an unrecognized format version byte.
var ErrUnsupportedVersion = errors.New("unsupported cpack version")

// ErrUnsupportedCompression indicates an unrecognized compression method byte.
var ErrUnsupportedCompression = errors.New("unsupported cpack compression method")

// Header is the 48-byte CPACK frame header: magic, version, compression
// method, a reserved pad, the SHA-256 of the uncompressed payload, and the
// compressed payload's length.
type Header struct {
	Version           byte
	CompressionMethod byte
	PayloadSHA256     [32]byte
	CompressedSize    uint64
}

// ToBytes serializes h to its HeaderSize-byte wire form.
func (h Header) ToBytes() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic[:])
	buf[4] = h.Version
	buf[5] = h.CompressionMethod
	// buf[6:8] left zero: reserved
	copy(buf[8:40], h.PayloadSHA256[:])
	binary.LittleEndian.PutUint64(buf[40:48], h.CompressedSize)
	return buf
}

// HeaderFromBytes parses a Header from the leading HeaderSize bytes of data.
func HeaderFromBytes(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errors.Wrapf(ErrHeaderTooShort, "got %d, need %d", len(data), HeaderSize)
	}
	if string(data[0:4]) != string(Magic[:]) {
		return Header{}, ErrBadMagic
	}
	version := data[4]
	if version != Version {
		return Header{}, errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
	}
	method := data[5]
	if method != CompressZstd {
		return Header{}, errors.Wrapf(ErrUnsupportedCompression, "method %d", method)
	}
	var h Header
	h.Version = version
	h.CompressionMethod = method
	copy(h.PayloadSHA256[:], data[8:40])
	h.CompressedSize = binary.LittleEndian.Uint64(data[40:48])
	return h, nil
}
