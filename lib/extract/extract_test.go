// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"rootfs.tar.gz", TarGz},
		{"alpine-minirootfs-3.21-x86_64.tgz", TarGz},
		{"rootfs.tar.xz", TarXz},
		{"debian-bookworm.txz", TarXz},
		{"arch-bootstrap.tar.zst", TarZst},
		{"/cache/alpine/3.21/x86_64/rootfs.tar.xz", TarXz},
	}
	for _, tt := range tests {
		got, err := Detect(tt.path)
		if err != nil {
			t.Errorf("Detect(%q) failed: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDetectUnsupported(t *testing.T) {
	for _, path := range []string{"rootfs.tar.bz2", "rootfs.zip", "rootfs.tar", "rootfs"} {
		_, err := Detect(path)
		var unsupported *UnsupportedFormatError
		if !errors.As(err, &unsupported) {
			t.Errorf("Detect(%q) error = %v, want UnsupportedFormatError", path, err)
		}
	}
}

// entry describes a tar entry for test archive construction.
type entry struct {
	name     string
	typeflag byte
	mode     int64
	body     string
	linkname string
}

func buildArchive(t *testing.T, path string, entries []entry) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	var compressor io.WriteCloser
	switch {
	case filepath.Ext(path) == ".gz":
		compressor = gzip.NewWriter(file)
	case filepath.Ext(path) == ".xz":
		w, err := xz.NewWriter(file)
		if err != nil {
			t.Fatal(err)
		}
		compressor = w
	case filepath.Ext(path) == ".zst":
		w, err := zstd.NewWriter(file)
		if err != nil {
			t.Fatal(err)
		}
		compressor = w
	default:
		t.Fatalf("no compressor for %s", path)
	}

	writer := tar.NewWriter(compressor)
	for _, e := range entries {
		header := &tar.Header{
			Name:     e.name,
			Typeflag: e.typeflag,
			Mode:     e.mode,
			Linkname: e.linkname,
			Size:     int64(len(e.body)),
		}
		if err := writer.WriteHeader(header); err != nil {
			t.Fatal(err)
		}
		if e.body != "" {
			if _, err := writer.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	if err := compressor.Close(); err != nil {
		t.Fatal(err)
	}
}

var rootfsEntries = []entry{
	{name: "./", typeflag: tar.TypeDir, mode: 0o755},
	{name: "etc/", typeflag: tar.TypeDir, mode: 0o755},
	{name: "etc/os-release", typeflag: tar.TypeReg, mode: 0o644, body: "ID=alpine\n"},
	{name: "bin/", typeflag: tar.TypeDir, mode: 0o755},
	{name: "bin/busybox", typeflag: tar.TypeReg, mode: 0o755, body: "#!/fake\n"},
	{name: "bin/sh", typeflag: tar.TypeSymlink, mode: 0o777, linkname: "/bin/busybox"},
	{name: "bin/ash", typeflag: tar.TypeLink, mode: 0o755, linkname: "bin/busybox"},
}

func verifyRootfs(t *testing.T, target string) {
	t.Helper()

	osRelease, err := os.ReadFile(filepath.Join(target, "etc/os-release"))
	if err != nil {
		t.Fatalf("etc/os-release: %v", err)
	}
	if string(osRelease) != "ID=alpine\n" {
		t.Errorf("etc/os-release = %q", osRelease)
	}

	info, err := os.Stat(filepath.Join(target, "bin/busybox"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("bin/busybox mode = %v, want 0755", info.Mode().Perm())
	}

	link, err := os.Readlink(filepath.Join(target, "bin/sh"))
	if err != nil {
		t.Fatal(err)
	}
	if link != "/bin/busybox" {
		t.Errorf("bin/sh -> %q, want /bin/busybox", link)
	}

	ash, err := os.ReadFile(filepath.Join(target, "bin/ash"))
	if err != nil {
		t.Fatalf("bin/ash hardlink: %v", err)
	}
	if string(ash) != "#!/fake\n" {
		t.Errorf("bin/ash content = %q", ash)
	}
}

func TestExtractRoundtrip(t *testing.T) {
	for _, ext := range []string{"tar.gz", "tar.xz", "tar.zst"} {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "rootfs."+ext)
			buildArchive(t, archive, rootfsEntries)

			target := filepath.Join(dir, "root")
			if err := Extract(archive, target); err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			verifyRootfs(t, target)
		})
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	tests := []struct {
		name    string
		entries []entry
	}{
		{
			name: "dotdot path",
			entries: []entry{
				{name: "../../etc/passwd", typeflag: tar.TypeReg, mode: 0o644, body: "root::0:0::/:/bin/sh\n"},
			},
		},
		{
			name: "absolute path",
			entries: []entry{
				{name: "/etc/passwd", typeflag: tar.TypeReg, mode: 0o644, body: "root::0:0::/:/bin/sh\n"},
			},
		},
		{
			name: "dotdot mid-path",
			entries: []entry{
				{name: "etc/../../escape", typeflag: tar.TypeReg, mode: 0o644, body: "x"},
			},
		},
		{
			name: "hardlink escape",
			entries: []entry{
				{name: "passwd", typeflag: tar.TypeLink, mode: 0o644, linkname: "../outside"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "evil.tar.gz")
			buildArchive(t, archive, tt.entries)

			err := Extract(archive, filepath.Join(dir, "root"))
			var unsafe *UnsafeEntryError
			if !errors.As(err, &unsafe) {
				t.Fatalf("error = %v, want UnsafeEntryError", err)
			}
		})
	}
}

func TestExtractCreatesTarget(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "rootfs.tar.gz")
	buildArchive(t, archive, rootfsEntries)

	// Target does not exist and its parent does not either.
	target := filepath.Join(dir, "nested", "root")
	if err := Extract(archive, target); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, "etc/os-release")); err != nil {
		t.Error(err)
	}
}
