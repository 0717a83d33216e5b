// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package download

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bureau-foundation/rootfs/lib/distro"
	"github.com/bureau-foundation/rootfs/lib/simplestreams"
)

func randomArchive(t *testing.T, size int) ([]byte, string) {
	t.Helper()
	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		t.Fatal(err)
	}
	digest := sha256.Sum256(data)
	return data, hex.EncodeToString(digest[:])
}

func TestFromResolved(t *testing.T) {
	// Three full chunks plus a partial one.
	data, digest := randomArchive(t, 3*8192+100)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer server.Close()

	var calls []int64
	var lastTotal int64
	progress := func(downloaded, total int64) {
		calls = append(calls, downloaded)
		lastTotal = total
	}

	var dst bytes.Buffer
	pipeline := &Pipeline{}
	result, err := pipeline.FromResolved(context.Background(), &simplestreams.ResolvedImage{
		URL:      server.URL + "/rootfs.tar.xz",
		SHA256:   strings.ToUpper(digest), // comparison is case-insensitive
		Size:     int64(len(data)),
		Filename: "rootfs.tar.xz",
	}, &dst, progress)
	if err != nil {
		t.Fatalf("FromResolved failed: %v", err)
	}

	if result.SHA256 != digest {
		t.Errorf("result sha256 = %s, want %s", result.SHA256, digest)
	}
	if result.Size != int64(len(data)) {
		t.Errorf("result size = %d, want %d", result.Size, len(data))
	}
	if !bytes.Equal(dst.Bytes(), data) {
		t.Error("destination bytes differ from source")
	}

	// Progress is strictly monotonic and ends at the full size.
	if len(calls) == 0 {
		t.Fatal("progress was never called")
	}
	for i := 1; i < len(calls); i++ {
		if calls[i] <= calls[i-1] {
			t.Fatalf("progress not strictly monotonic: %v", calls)
		}
	}
	if calls[len(calls)-1] != int64(len(data)) {
		t.Errorf("final progress = %d, want %d", calls[len(calls)-1], len(data))
	}
	if lastTotal != int64(len(data)) {
		t.Errorf("total = %d, want Content-Length %d", lastTotal, len(data))
	}
}

func TestFromResolvedUnknownTotal(t *testing.T) {
	data, digest := randomArchive(t, 20000)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flushing before the body is fully written forces chunked
		// encoding, so the client sees no Content-Length.
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		w.Write(data)
	}))
	defer server.Close()

	var sawUnknown bool
	progress := func(downloaded, total int64) {
		if total == UnknownTotal {
			sawUnknown = true
		}
	}

	var dst bytes.Buffer
	pipeline := &Pipeline{}
	if _, err := pipeline.FromResolved(context.Background(), &simplestreams.ResolvedImage{
		URL:    server.URL,
		SHA256: digest,
	}, &dst, progress); err != nil {
		t.Fatalf("FromResolved failed: %v", err)
	}
	if !sawUnknown {
		t.Error("progress never received the UnknownTotal sentinel")
	}
}

func TestFromResolvedChecksumMismatch(t *testing.T) {
	data, _ := randomArchive(t, 4096)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer server.Close()

	var dst bytes.Buffer
	pipeline := &Pipeline{}
	_, err := pipeline.FromResolved(context.Background(), &simplestreams.ResolvedImage{
		URL:    server.URL,
		SHA256: strings.Repeat("ab", 32),
	}, &dst, nil)

	var mismatch *ChecksumMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want ChecksumMismatchError", err)
	}
	if mismatch.Expected != strings.Repeat("ab", 32) {
		t.Errorf("expected digest = %s", mismatch.Expected)
	}
	if len(mismatch.Actual) != 64 {
		t.Errorf("actual digest %q is not 64 hex chars", mismatch.Actual)
	}
}

func TestFromResolvedHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	var dst bytes.Buffer
	pipeline := &Pipeline{}
	_, err := pipeline.FromResolved(context.Background(), &simplestreams.ResolvedImage{
		URL:    server.URL,
		SHA256: strings.Repeat("00", 32),
	}, &dst, nil)
	if err == nil || !strings.Contains(err.Error(), "HTTP 404") {
		t.Errorf("error = %v, want HTTP 404", err)
	}
}

func TestFromResolvedCancellation(t *testing.T) {
	data, digest := randomArchive(t, 1<<20)
	ctx, cancel := context.WithCancel(context.Background())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer server.Close()

	// Cancel from the first progress callback; the next network read
	// observes the canceled context.
	progress := func(downloaded, total int64) { cancel() }

	var dst bytes.Buffer
	pipeline := &Pipeline{}
	_, err := pipeline.FromResolved(ctx, &simplestreams.ResolvedImage{
		URL:    server.URL,
		SHA256: digest,
	}, &dst, progress)
	if err == nil {
		t.Fatal("canceled download should fail")
	}
	if !errors.Is(err, context.Canceled) && !strings.Contains(err.Error(), "context canceled") {
		t.Errorf("error = %v, want context cancellation", err)
	}
}

func TestFromOfficialUnsupported(t *testing.T) {
	pipeline := &Pipeline{}
	var dst bytes.Buffer
	_, err := pipeline.FromOfficial(context.Background(), distro.Gentoo, "current", distro.X86_64, &dst, nil)
	if !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("error = %v, want ErrUnsupportedSource", err)
	}
}

// officialTransport rewrites official-mirror hosts to a test server so
// FromOfficial's URL construction stays untouched under test.
type officialTransport struct {
	server *httptest.Server
}

func (t *officialTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	rewritten := *r
	url := *r.URL
	url.Scheme = "http"
	url.Host = strings.TrimPrefix(t.server.URL, "http://")
	rewritten.URL = &url
	return http.DefaultTransport.RoundTrip(&rewritten)
}

func TestFromOfficialVerifies(t *testing.T) {
	data, digest := randomArchive(t, 10000)
	const filename = "alpine-minirootfs-3.21-x86_64.tar.gz"

	mux := http.NewServeMux()
	mux.HandleFunc("/alpine/v3.21/releases/x86_64/"+filename, func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	})
	mux.HandleFunc("/alpine/v3.21/releases/x86_64/"+filename+".sha256", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  %s\n", digest, filename)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pipeline := &Pipeline{HTTPClient: &http.Client{Transport: &officialTransport{server: server}}}
	var dst bytes.Buffer
	result, err := pipeline.FromOfficial(context.Background(), distro.Alpine, "3.21", distro.X86_64, &dst, nil)
	if err != nil {
		t.Fatalf("FromOfficial failed: %v", err)
	}
	if result.SHA256 != digest {
		t.Errorf("sha256 = %s, want %s", result.SHA256, digest)
	}
	if result.Filename != filename {
		t.Errorf("filename = %q, want %q", result.Filename, filename)
	}
}

func TestFromOfficialManifestMismatch(t *testing.T) {
	data, _ := randomArchive(t, 5000)
	const filename = "alpine-minirootfs-3.21-x86_64.tar.gz"

	mux := http.NewServeMux()
	mux.HandleFunc("/alpine/v3.21/releases/x86_64/"+filename, func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	})
	mux.HandleFunc("/alpine/v3.21/releases/x86_64/"+filename+".sha256", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  %s\n", strings.Repeat("cd", 32), filename)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pipeline := &Pipeline{HTTPClient: &http.Client{Transport: &officialTransport{server: server}}}
	var dst bytes.Buffer
	_, err := pipeline.FromOfficial(context.Background(), distro.Alpine, "3.21", distro.X86_64, &dst, nil)
	var mismatch *ChecksumMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want ChecksumMismatchError", err)
	}
}
