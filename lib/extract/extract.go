// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package extract decodes verified rootfs archives into a directory
// tree. The compression envelope (gzip, xz, zstd) selects the decoder
// by filename; the tar traversal is done here and rejects entries
// that would escape the target directory.
//
// Extraction performs no digest check (verification is the cache
// manager's responsibility) and is not transactional: a failure
// mid-extraction leaves the target in a partial state.
package extract

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Format identifies an archive's compression envelope.
type Format int

const (
	// TarGz is a gzip-compressed tar archive (.tar.gz, .tgz).
	TarGz Format = iota
	// TarXz is an xz-compressed tar archive (.tar.xz, .txz).
	TarXz
	// TarZst is a zstd-compressed tar archive (.tar.zst).
	TarZst
)

// String returns the conventional extension for the format.
func (f Format) String() string {
	switch f {
	case TarGz:
		return "tar.gz"
	case TarXz:
		return "tar.xz"
	case TarZst:
		return "tar.zst"
	default:
		return fmt.Sprintf("unknown(%d)", f)
	}
}

// UnsupportedFormatError reports an archive filename with no known
// compression envelope.
type UnsupportedFormatError struct {
	// Name is the archive's basename.
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported archive format: %q", e.Name)
}

// UnsafeEntryError reports a tar entry whose path would escape the
// extraction target.
type UnsafeEntryError struct {
	// Path is the offending entry path as stored in the archive.
	Path string
}

func (e *UnsafeEntryError) Error() string {
	return fmt.Sprintf("unsafe archive entry path: %q", e.Path)
}

// Detect determines the format from the archive's filename.
func Detect(path string) (Format, error) {
	name := filepath.Base(path)
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return TarGz, nil
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return TarXz, nil
	case strings.HasSuffix(name, ".tar.zst"):
		return TarZst, nil
	default:
		return 0, &UnsupportedFormatError{Name: name}
	}
}

// Extract decodes the archive at archivePath into target, creating
// target if absent. Entry paths are validated before anything is
// written: absolute paths and paths containing a ".." segment fail
// the whole extraction with an UnsafeEntryError.
func Extract(archivePath, target string) error {
	format, err := Detect(archivePath)
	if err != nil {
		return err
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	var decoder io.Reader
	switch format {
	case TarGz:
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		defer gzReader.Close()
		decoder = gzReader
	case TarXz:
		xzReader, err := xz.NewReader(file)
		if err != nil {
			return fmt.Errorf("xz: %w", err)
		}
		decoder = xzReader
	case TarZst:
		zstReader, err := zstd.NewReader(file)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		defer zstReader.Close()
		decoder = zstReader
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}

	return unpack(tar.NewReader(decoder), target)
}

// unpack streams tar entries into target.
func unpack(reader *tar.Reader, target string) error {
	for {
		header, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		cleaned, err := safePath(header.Name)
		if err != nil {
			return err
		}
		if cleaned == "." {
			continue // archive root entry
		}
		path := filepath.Join(target, cleaned)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, os.FileMode(header.Mode)&0o777); err != nil {
				return fmt.Errorf("creating directory %s: %w", cleaned, err)
			}

		case tar.TypeReg:
			if err := writeFile(path, reader, os.FileMode(header.Mode)&0o777); err != nil {
				return fmt.Errorf("writing %s: %w", cleaned, err)
			}

		case tar.TypeSymlink:
			if err := ensureParent(path); err != nil {
				return err
			}
			// Link targets are stored as-is: a rootfs legitimately
			// contains absolute symlinks (/bin/sh -> /bin/busybox)
			// that only resolve once the tree is used as a root.
			if err := os.Symlink(header.Linkname, path); err != nil {
				return fmt.Errorf("creating symlink %s: %w", cleaned, err)
			}

		case tar.TypeLink:
			linkTarget, err := safePath(header.Linkname)
			if err != nil {
				return err
			}
			if err := ensureParent(path); err != nil {
				return err
			}
			if err := os.Link(filepath.Join(target, linkTarget), path); err != nil {
				return fmt.Errorf("creating hardlink %s: %w", cleaned, err)
			}

		default:
			// Character/block devices and FIFOs need privileges the
			// extractor does not assume; skip them.
			continue
		}
	}
}

// safePath validates and cleans an archive entry path. Absolute paths
// and any path containing a parent-directory segment are rejected.
func safePath(name string) (string, error) {
	if strings.HasPrefix(name, "/") {
		return "", &UnsafeEntryError{Path: name}
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == ".." {
			return "", &UnsafeEntryError{Path: name}
		}
	}
	return filepath.Clean(name), nil
}

func ensureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}
	return nil
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
