// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cpack

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/denotum/dpack/internal/atomicfile"
	"github.com/denotum/dpack/pkg/hashutil"
	"github.com/denotum/dpack/pkg/manifest"
)

// ErrIntegrityMismatch indicates the decompressed payload's SHA-256 does not
// match the header's recorded hash.
var ErrIntegrityMismatch = errors.New("cpack payload sha256 mismatch")

// zstdLevel pins the encoder to level 3 (klauspost's SpeedDefault), matching
// the reference implementation's choice, so two machines compressing the
// same payload produce byte-identical output. Encoder output is tied to the
// klauspost/compress version pinned in go.mod (v1.16.7).
const zstdLevel = zstd.SpeedDefault

// Compress reads dpackDir's manifest.json and data/ tree, encodes them as a
// CPACK payload, and writes outputPath as a framed, zstd-compressed file.
// It returns the hex SHA-256 of the uncompressed payload.
func Compress(dpackDir, outputPath string) (string, error) {
	rawManifest, err := os.ReadFile(filepath.Join(dpackDir, "manifest.json"))
	if err != nil {
		return "", errors.Wrap(err, "reading manifest.json")
	}
	// Parse and re-serialize canonically: the payload hash must be stable
	// across implementations whose on-disk manifest.json whitespace may
	// differ, so the bytes that enter the payload are always this
	// implementation's own canonical form, never whatever happens to be
	// on disk.
	m, err := manifest.Parse(rawManifest)
	if err != nil {
		return "", errors.Wrap(err, "parsing manifest.json")
	}
	manifestJSON, err := m.MarshalCanonicalJSON()
	if err != nil {
		return "", errors.Wrap(err, "re-serializing manifest canonically")
	}

	dataDir := filepath.Join(dpackDir, "data")
	var files []PayloadFile
	if _, err := os.Stat(dataDir); err == nil {
		err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(dataDir, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			content, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "reading %s", rel)
			}
			files = append(files, PayloadFile{Path: rel, Content: content})
			return nil
		})
		if err != nil {
			return "", errors.Wrap(err, "walking data directory")
		}
	} else if !os.IsNotExist(err) {
		return "", errors.Wrap(err, "statting data directory")
	}
	SortFiles(files)

	payload := EncodePayload(manifestJSON, files)
	payloadHash := hashutil.SHA256Bytes(payload)

	compressed, err := compressZstd(payload)
	if err != nil {
		return "", errors.Wrap(err, "compressing payload")
	}

	header := Header{
		Version:           Version,
		CompressionMethod: CompressZstd,
		PayloadSHA256:     payloadHash,
		CompressedSize:    uint64(len(compressed)),
	}
	out := append(header.ToBytes(), compressed...)
	if err := atomicfile.Write(outputPath, out, 0o644); err != nil {
		return "", errors.Wrap(err, "writing cpack file")
	}
	return hashutil.SHA256Hex(payload), nil
}

// Decompress reads cpackPath, verifies its framing and payload integrity,
// and reconstructs manifest.json and data/ under outputDir. It returns the
// hex SHA-256 of the verified payload. Nothing is written under outputDir
// until the payload has been decompressed and its hash checked, so a
// corrupted or truncated CPACK file never produces a partial DPACK.
func Decompress(cpackPath, outputDir string) (string, error) {
	raw, err := os.ReadFile(cpackPath)
	if err != nil {
		return "", errors.Wrap(err, "reading cpack file")
	}
	if len(raw) < HeaderSize {
		return "", errors.Wrapf(ErrHeaderTooShort, "got %d, need %d", len(raw), HeaderSize)
	}

	header, err := HeaderFromBytes(raw)
	if err != nil {
		return "", err
	}

	compressed := raw[HeaderSize:]
	if uint64(len(compressed)) != header.CompressedSize {
		return "", ErrPayloadTruncated
	}

	payload, err := decompressZstd(compressed)
	if err != nil {
		return "", errors.Wrap(err, "decompressing payload")
	}

	actualHash := hashutil.SHA256Bytes(payload)
	if actualHash != header.PayloadSHA256 {
		return "", ErrIntegrityMismatch
	}

	manifestJSON, files, err := DecodePayload(payload)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating output directory")
	}
	if err := os.WriteFile(filepath.Join(outputDir, "manifest.json"), manifestJSON, 0o644); err != nil {
		return "", errors.Wrap(err, "writing manifest.json")
	}

	dataDir := filepath.Join(outputDir, "data")
	for _, f := range files {
		dest := filepath.Join(dataDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return "", errors.Wrapf(err, "creating directory for %s", f.Path)
		}
		if err := os.WriteFile(dest, f.Content, 0o644); err != nil {
			return "", errors.Wrapf(err, "writing %s", f.Path)
		}
	}

	return hashutil.SHA256Hex(payload), nil
}

func compressZstd(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel))
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd encoder")
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd decoder")
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
