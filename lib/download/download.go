// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package download streams rootfs archives from an image server or an
// official distribution mirror while verifying their digests.
//
// The pipeline never buffers an archive in memory: response bodies are
// read in fixed 8 KiB chunks, each chunk feeding a running hash and a
// caller-supplied destination writer, with a synchronous progress
// callback after every chunk. Digest comparison happens only after the
// final chunk; on mismatch the destination's contents are garbage and
// the caller must discard them (the cache manager stages downloads in
// an unlinked-on-failure partial file for exactly this reason).
//
// Every operation makes exactly one network attempt. There is no
// retry, no backoff, and no built-in deadline: callers own retry
// policy and bound execution through the context.
package download

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bureau-foundation/rootfs/lib/distro"
	"github.com/bureau-foundation/rootfs/lib/mirror"
	"github.com/bureau-foundation/rootfs/lib/provider"
	"github.com/bureau-foundation/rootfs/lib/simplestreams"
)

// chunkSize is the read granularity: hash updates and progress
// callbacks happen per chunk.
const chunkSize = 8 * 1024

// UnknownTotal is the total passed to progress callbacks when the
// transport provides no length hint. 0 is not used as the sentinel
// because a zero-byte response is representable.
const UnknownTotal int64 = -1

// Progress is called synchronously after each chunk with the bytes
// received so far (strictly monotonic) and the expected total, or
// UnknownTotal. It runs on the downloading goroutine and must not
// block.
type Progress func(downloaded, total int64)

// ChecksumMismatchError reports that downloaded bytes hash to a
// different digest than the source declared.
type ChecksumMismatchError struct {
	// Expected is the digest declared by the index or manifest.
	Expected string
	// Actual is the digest computed from the downloaded bytes.
	Actual string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// ErrUnsupportedSource is returned by FromOfficial for distributions
// that have no official mirror template.
var ErrUnsupportedSource = errors.New("no official mirror for this distribution")

// Result describes a completed, verified download.
type Result struct {
	// SHA256 is the hex digest of the downloaded bytes.
	SHA256 string
	// Size is the number of bytes downloaded.
	Size int64
	// Filename is the archive's basename from the source URL.
	Filename string
}

// Pipeline downloads and verifies archives. The zero value is usable;
// HTTPClient defaults to http.DefaultClient and Logger to
// slog.Default().
type Pipeline struct {
	// HTTPClient is used for all requests.
	HTTPClient *http.Client
	// Logger receives structured progress and verification events.
	Logger *slog.Logger
}

func (p *Pipeline) httpClient() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// FromImageServer resolves the triple through the mirror's
// Simplestreams index and streams the archive into dst, verifying the
// index-declared SHA-256. On mismatch, dst has received unverified
// bytes and must be discarded by the caller.
func (p *Pipeline) FromImageServer(ctx context.Context, d distro.Distro, v distro.Version, a distro.Architecture, m mirror.Mirror, dst io.Writer, progress Progress) (*Result, error) {
	client := simplestreams.NewClient(m, p.httpClient(), p.logger())
	resolved, err := client.Resolve(ctx, d, v, a)
	if err != nil {
		return nil, err
	}
	return p.FromResolved(ctx, resolved, dst, progress)
}

// FromResolved streams a previously resolved image into dst,
// verifying the resolved digest. Callers that resolved many images
// against one index use this to skip the per-download index fetch.
func (p *Pipeline) FromResolved(ctx context.Context, image *simplestreams.ResolvedImage, dst io.Writer, progress Progress) (*Result, error) {
	p.logger().Info("downloading rootfs archive", "url", image.URL, "declared_size", image.Size)

	hasher := sha256.New()
	size, err := p.stream(ctx, image.URL, io.MultiWriter(dst, hasher), progress)
	if err != nil {
		return nil, err
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actual, image.SHA256) {
		return nil, &ChecksumMismatchError{Expected: strings.ToLower(image.SHA256), Actual: actual}
	}

	p.logger().Info("sha256 verified", "sha256", actual, "size", size)
	return &Result{SHA256: actual, Size: size, Filename: image.Filename}, nil
}

// FromOfficial downloads from the distribution's official mirror,
// verifying against its published checksum manifest. The manifest is
// fetched separately, parsed per the distribution's format, and the
// digest for the exact target filename is compared using the
// distribution's hash algorithm (SHA-256, or SHA-512 for Debian). A
// SHA-256 of the archive is always computed for the Result regardless
// of the manifest algorithm.
//
// Only distributions with an official template are supported; others
// return ErrUnsupportedSource.
func (p *Pipeline) FromOfficial(ctx context.Context, d distro.Distro, v distro.Version, a distro.Architecture, dst io.Writer, progress Progress) (*Result, error) {
	official, ok := provider.Official(d)
	if !ok {
		return nil, fmt.Errorf("%s: %w", d, ErrUnsupportedSource)
	}

	url := official.RootfsURL(v, a)
	filename := url[strings.LastIndex(url, "/")+1:]

	// Fetch the manifest first: a missing or malformed manifest
	// aborts before any archive bytes are transferred.
	checksumURL, hasManifest := official.ChecksumURL(v, a)
	var expected string
	if hasManifest {
		manifest, err := p.fetchManifest(ctx, checksumURL)
		if err != nil {
			return nil, err
		}
		expected, err = official.ParseChecksum(manifest, filename)
		if err != nil {
			return nil, err
		}
	}

	p.logger().Info("downloading from official mirror", "distro", d.String(), "url", url)

	sha256Hasher := sha256.New()
	var manifestHasher hash.Hash
	writer := io.MultiWriter(dst, sha256Hasher)
	if hasManifest && official.HashAlgorithm() == provider.SHA512 {
		manifestHasher = sha512.New()
		writer = io.MultiWriter(dst, sha256Hasher, manifestHasher)
	}

	size, err := p.stream(ctx, url, writer, progress)
	if err != nil {
		return nil, err
	}

	actualSHA256 := hex.EncodeToString(sha256Hasher.Sum(nil))
	if hasManifest {
		actual := actualSHA256
		if manifestHasher != nil {
			actual = hex.EncodeToString(manifestHasher.Sum(nil))
		}
		if !strings.EqualFold(actual, expected) {
			return nil, &ChecksumMismatchError{Expected: strings.ToLower(expected), Actual: actual}
		}
		p.logger().Info("manifest checksum verified", "url", checksumURL)
	}

	return &Result{SHA256: actualSHA256, Size: size, Filename: filename}, nil
}

// stream GETs url and copies the body into w in 8 KiB chunks,
// invoking progress after each chunk. Returns the byte count.
func (p *Pipeline) stream(ctx context.Context, url string, w io.Writer, progress Progress) (int64, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("building request for %s: %w", url, err)
	}
	response, err := p.httpClient().Do(request)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return 0, fmt.Errorf("fetching %s: HTTP %d", url, response.StatusCode)
	}

	total := response.ContentLength
	if total < 0 {
		total = UnknownTotal
	}

	var downloaded int64
	buffer := make([]byte, chunkSize)
	for {
		n, readErr := response.Body.Read(buffer)
		if n > 0 {
			if _, err := w.Write(buffer[:n]); err != nil {
				return downloaded, fmt.Errorf("writing archive bytes: %w", err)
			}
			downloaded += int64(n)
			if progress != nil {
				progress(downloaded, total)
			}
		}
		if readErr == io.EOF {
			return downloaded, nil
		}
		if readErr != nil {
			return downloaded, fmt.Errorf("reading %s: %w", url, readErr)
		}
	}
}

// fetchManifest GETs a checksum manifest as text.
func (p *Pipeline) fetchManifest(ctx context.Context, url string) (string, error) {
	var manifest strings.Builder
	if _, err := p.stream(ctx, url, &manifest, nil); err != nil {
		return "", fmt.Errorf("fetching checksum manifest: %w", err)
	}
	return manifest.String(), nil
}
