// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rootfscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/rootfs/lib/clock"
	"github.com/bureau-foundation/rootfs/lib/distro"
	"github.com/bureau-foundation/rootfs/lib/download"
	"github.com/bureau-foundation/rootfs/lib/extract"
	"github.com/bureau-foundation/rootfs/lib/mirror"
)

const (
	metadataFile = "metadata.json"
	locksDir     = ".locks"
	partialDir   = ".partial"
)

// Metadata is the sidecar record certifying a cache entry. It is
// written by rename after the archive, so a parseable metadata.json
// implies the entry completed.
type Metadata struct {
	Distro       string    `json:"distro"`
	Version      string    `json:"version"`
	Architecture string    `json:"architecture"`
	SHA256       string    `json:"sha256"`
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// CachedRootfs is a handle to a complete cache entry.
type CachedRootfs struct {
	// ArchivePath is the absolute path of the cached archive.
	ArchivePath string
	// Metadata is the entry's sidecar record.
	Metadata Metadata
}

// VerifyIntegrity re-hashes the archive and compares it against the
// recorded digest. A missing archive reports false, not an error.
func (c *CachedRootfs) VerifyIntegrity() (bool, error) {
	ok, err := fileMatchesDigest(c.ArchivePath, c.Metadata.SHA256)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return ok, err
}

// ExtractTo unpacks the cached archive into target.
func (c *CachedRootfs) ExtractTo(target string) error {
	return extract.Extract(c.ArchivePath, target)
}

// Config configures a Manager. Root is required; the rest default to
// a zero-value pipeline, the real clock, and slog.Default().
type Config struct {
	// Root is the cache root directory, created if absent.
	Root string
	// Pipeline performs downloads.
	Pipeline *download.Pipeline
	// Clock supplies fetch timestamps.
	Clock clock.Clock
	// Logger receives cache events.
	Logger *slog.Logger
}

// Manager owns a cache root and serializes all mutation of it.
type Manager struct {
	root     string
	pipeline *download.Pipeline
	clock    clock.Clock
	logger   *slog.Logger
}

// NewManager creates the cache root and its bookkeeping directories.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Root == "" {
		return nil, errors.New("cache root is required")
	}
	for _, dir := range []string{cfg.Root, filepath.Join(cfg.Root, locksDir), filepath.Join(cfg.Root, partialDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	m := &Manager{
		root:     cfg.Root,
		pipeline: cfg.Pipeline,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
	if m.pipeline == nil {
		m.pipeline = &download.Pipeline{}
	}
	if m.clock == nil {
		m.clock = clock.Real()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m, nil
}

// Root returns the cache root directory.
func (m *Manager) Root() string { return m.root }

// DefaultRoot returns the conventional cache location:
// $XDG_DATA_HOME/bureau/rootfs, falling back to
// ~/.local/share/bureau/rootfs.
func DefaultRoot() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "bureau", "rootfs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "bureau", "rootfs"), nil
}

func (m *Manager) entryDir(d distro.Distro, v distro.Version, a distro.Architecture) string {
	return filepath.Join(m.root, string(d), string(v), string(a))
}

// Ensure returns a verified cache entry for the triple, downloading
// from the mirror's image server on miss. A hit is decided by
// re-hashing the cached archive against its metadata digest, so a
// corrupted entry is refetched rather than returned. The whole
// operation holds an exclusive per-entry flock: a concurrent Ensure
// for the same triple blocks and then takes the hit path.
func (m *Manager) Ensure(ctx context.Context, d distro.Distro, v distro.Version, a distro.Architecture, mr mirror.Mirror, progress download.Progress) (*CachedRootfs, error) {
	return m.ensure(ctx, d, v, a, func(ctx context.Context, dst io.Writer) (*download.Result, error) {
		return m.pipeline.FromImageServer(ctx, d, v, a, mr, dst, progress)
	})
}

// EnsureOfficial is Ensure fetching from the distribution's official
// mirror instead of an image server. The cache entry is keyed by the
// triple alone, so an entry fetched officially satisfies later
// image-server Ensures and vice versa.
func (m *Manager) EnsureOfficial(ctx context.Context, d distro.Distro, v distro.Version, a distro.Architecture, progress download.Progress) (*CachedRootfs, error) {
	return m.ensure(ctx, d, v, a, func(ctx context.Context, dst io.Writer) (*download.Result, error) {
		return m.pipeline.FromOfficial(ctx, d, v, a, dst, progress)
	})
}

type fetchFunc func(ctx context.Context, dst io.Writer) (*download.Result, error)

func (m *Manager) ensure(ctx context.Context, d distro.Distro, v distro.Version, a distro.Architecture, fetch fetchFunc) (*CachedRootfs, error) {
	lock, err := m.lockEntry(d, v, a)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	dir := m.entryDir(d, v, a)
	if cached, ok := m.verifiedEntry(dir); ok {
		m.logger.Info("cache hit", "distro", d.String(), "version", string(v), "arch", string(a))
		return cached, nil
	}

	// Anything at the entry path is incomplete or corrupt.
	if _, err := os.Stat(dir); err == nil {
		m.logger.Warn("removing corrupt cache entry", "path", dir)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("removing corrupt entry: %w", err)
		}
	}

	staging, err := os.CreateTemp(filepath.Join(m.root, partialDir), fmt.Sprintf("%s-%s-%s-*", d, v, a))
	if err != nil {
		return nil, fmt.Errorf("creating staging file: %w", err)
	}
	defer func() {
		staging.Close()
		os.Remove(staging.Name())
	}()

	result, err := fetch(ctx, staging)
	if err != nil {
		return nil, err
	}
	if err := staging.Sync(); err != nil {
		return nil, fmt.Errorf("syncing staging file: %w", err)
	}
	if err := staging.Close(); err != nil {
		return nil, fmt.Errorf("closing staging file: %w", err)
	}

	metadata := Metadata{
		Distro:       string(d),
		Version:      string(v),
		Architecture: string(a),
		SHA256:       result.SHA256,
		Filename:     result.Filename,
		Size:         result.Size,
		FetchedAt:    m.clock.Now().UTC(),
	}
	if err := m.commit(dir, staging.Name(), metadata); err != nil {
		return nil, err
	}

	m.logger.Info("cached rootfs", "path", dir, "sha256", result.SHA256, "size", result.Size)
	return &CachedRootfs{ArchivePath: filepath.Join(dir, metadata.Filename), Metadata: metadata}, nil
}

// commit moves a verified staging file into the entry directory. The
// archive renames in first; metadata.json renames in last so a crash
// between the two leaves a detectable incomplete entry.
func (m *Manager) commit(dir, stagingPath string, metadata Metadata) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating entry directory: %w", err)
	}
	if err := os.Rename(stagingPath, filepath.Join(dir, metadata.Filename)); err != nil {
		return fmt.Errorf("committing archive: %w", err)
	}

	encoded, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	temp := filepath.Join(dir, "."+metadataFile+".tmp")
	if err := os.WriteFile(temp, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := os.Rename(temp, filepath.Join(dir, metadataFile)); err != nil {
		return fmt.Errorf("committing metadata: %w", err)
	}
	return nil
}

// verifiedEntry loads and re-hashes the entry at dir. Any defect
// (missing files, unparseable metadata, digest mismatch) reports a
// miss.
func (m *Manager) verifiedEntry(dir string) (*CachedRootfs, bool) {
	metadata, err := readMetadata(dir)
	if err != nil {
		return nil, false
	}
	archivePath := filepath.Join(dir, metadata.Filename)
	ok, err := fileMatchesDigest(archivePath, metadata.SHA256)
	if err != nil || !ok {
		return nil, false
	}
	return &CachedRootfs{ArchivePath: archivePath, Metadata: *metadata}, true
}

func readMetadata(dir string) (*Metadata, error) {
	raw, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}
	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", metadataFile, err)
	}
	if metadata.Filename == "" || metadata.SHA256 == "" {
		return nil, fmt.Errorf("incomplete %s", metadataFile)
	}
	return &metadata, nil
}

// fileMatchesDigest streams the file through SHA-256 in 8 KiB chunks
// and compares against expected, case-insensitively.
func fileMatchesDigest(path, expected string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	hasher := sha256.New()
	buffer := make([]byte, 8*1024)
	if _, err := io.CopyBuffer(hasher, file, buffer); err != nil {
		return false, fmt.Errorf("hashing %s: %w", path, err)
	}
	return strings.EqualFold(hex.EncodeToString(hasher.Sum(nil)), expected), nil
}

// ListCached walks the cache root and returns every complete entry,
// sorted by path. Metadata is trusted as-is: no archives are hashed.
// Entries with unreadable or unparseable metadata are skipped.
func (m *Manager) ListCached() ([]*CachedRootfs, error) {
	var entries []*CachedRootfs
	distros, err := os.ReadDir(m.root)
	if err != nil {
		return nil, fmt.Errorf("reading cache root: %w", err)
	}
	for _, distroDir := range distros {
		if !distroDir.IsDir() || strings.HasPrefix(distroDir.Name(), ".") {
			continue
		}
		versions, err := os.ReadDir(filepath.Join(m.root, distroDir.Name()))
		if err != nil {
			continue
		}
		for _, versionDir := range versions {
			if !versionDir.IsDir() {
				continue
			}
			arches, err := os.ReadDir(filepath.Join(m.root, distroDir.Name(), versionDir.Name()))
			if err != nil {
				continue
			}
			for _, archDir := range arches {
				if !archDir.IsDir() {
					continue
				}
				dir := filepath.Join(m.root, distroDir.Name(), versionDir.Name(), archDir.Name())
				metadata, err := readMetadata(dir)
				if err != nil {
					m.logger.Debug("skipping cache entry", "path", dir, "error", err)
					continue
				}
				archivePath := filepath.Join(dir, metadata.Filename)
				if _, err := os.Stat(archivePath); err != nil {
					continue
				}
				entries = append(entries, &CachedRootfs{ArchivePath: archivePath, Metadata: *metadata})
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ArchivePath < entries[j].ArchivePath
	})
	return entries, nil
}

// Prune deletes all but the keepPerDistro most recently fetched
// entries of each distribution and returns the bytes freed. Per-entry
// deletion failures are collected rather than aborting the pass.
func (m *Manager) Prune(keepPerDistro int) (int64, error) {
	if keepPerDistro < 0 {
		return 0, fmt.Errorf("keep count must be non-negative, got %d", keepPerDistro)
	}
	entries, err := m.ListCached()
	if err != nil {
		return 0, err
	}

	byDistro := make(map[string][]*CachedRootfs)
	for _, entry := range entries {
		byDistro[entry.Metadata.Distro] = append(byDistro[entry.Metadata.Distro], entry)
	}

	var freed int64
	var failures []error
	for _, group := range byDistro {
		sort.Slice(group, func(i, j int) bool {
			return group[i].Metadata.FetchedAt.After(group[j].Metadata.FetchedAt)
		})
		for _, victim := range group[min(keepPerDistro, len(group)):] {
			dir := filepath.Dir(victim.ArchivePath)
			if err := os.RemoveAll(dir); err != nil {
				failures = append(failures, fmt.Errorf("pruning %s: %w", dir, err))
				continue
			}
			m.logger.Info("pruned cache entry", "path", dir, "size", victim.Metadata.Size)
			freed += victim.Metadata.Size
		}
	}
	return freed, errors.Join(failures...)
}

// entryLock is a held advisory lock; release closes the descriptor,
// dropping the flock.
type entryLock struct {
	file *os.File
}

func (l *entryLock) release() { l.file.Close() }

// lockEntry takes the exclusive per-entry flock, blocking until any
// concurrent holder releases it. Lock files are never deleted; they
// are empty and one exists per triple ever ensured.
func (m *Manager) lockEntry(d distro.Distro, v distro.Version, a distro.Architecture) (*entryLock, error) {
	name := fmt.Sprintf("%s-%s-%s.lock", d, v, a)
	file, err := os.OpenFile(filepath.Join(m.root, locksDir, name), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX); err != nil {
		file.Close()
		return nil, fmt.Errorf("locking cache entry: %w", err)
	}
	return &entryLock{file: file}, nil
}
