// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simplestreams

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bureau-foundation/rootfs/lib/distro"
	"github.com/bureau-foundation/rootfs/lib/mirror"
)

// ResolvedImage is the outcome of navigating the index for one
// triple: everything needed to download and verify the rootfs archive.
type ResolvedImage struct {
	// URL is the absolute download URL on the resolved mirror.
	URL string
	// SHA256 is the expected hex digest of the archive.
	SHA256 string
	// Size is the declared archive size in bytes.
	Size int64
	// Filename is the archive's basename ("rootfs.tar.xz").
	Filename string
}

// NetworkError reports a transport-level failure or a non-success
// HTTP status while fetching the index.
type NetworkError struct {
	// URL is the request URL.
	URL string
	// Status is the HTTP status code, or 0 for transport failures.
	Status int
	// Err is the underlying transport error, if any.
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.Status)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a malformed index document.
type ParseError struct {
	// URL is the document's source URL.
	URL string
	// Err is the underlying decode error.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing index from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError reports that the index has no image for the requested
// triple: either no matching product, or a product with no usable
// rootfs item.
type NotFoundError struct {
	// Distro, Version, Arch identify the request.
	Distro  distro.Distro
	Version distro.Version
	Arch    distro.Architecture
	// ProductKey is the product that matched, when the failure is a
	// missing rootfs item rather than a missing product.
	ProductKey string
}

func (e *NotFoundError) Error() string {
	if e.ProductKey != "" {
		return fmt.Sprintf("no rootfs item in product %s", e.ProductKey)
	}
	return fmt.Sprintf("image not found: %s %s (%s)", e.Distro, e.Version, e.Arch)
}

// Client navigates a Simplestreams image index on one mirror.
type Client struct {
	mirror     mirror.Mirror
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient returns a client for the given mirror. httpClient defaults
// to http.DefaultClient and logger to slog.Default(). The client
// imposes no timeout; bound requests with the context.
func NewClient(m mirror.Mirror, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{mirror: m, httpClient: httpClient, logger: logger}
}

// FetchIndex issues a single GET for the mirror's images.json and
// parses it. Transport failures and non-2xx statuses return a
// NetworkError; malformed documents return a ParseError.
func (c *Client) FetchIndex(ctx context.Context) (*Index, error) {
	url := c.mirror.StreamsURL()
	c.logger.Info("fetching simplestreams index", "mirror", c.mirror.String(), "url", url)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &NetworkError{URL: url, Status: response.StatusCode}
	}

	var index Index
	if err := json.NewDecoder(response.Body).Decode(&index); err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}

	c.logger.Debug("index loaded", "products", len(index.Products))
	return &index, nil
}

// Resolve composes FetchIndex and ResolveFromIndex for callers that
// need a single image.
func (c *Client) Resolve(ctx context.Context, d distro.Distro, v distro.Version, a distro.Architecture) (*ResolvedImage, error) {
	index, err := c.FetchIndex(ctx)
	if err != nil {
		return nil, err
	}
	return c.ResolveFromIndex(index, d, v, a)
}

// ResolveFromIndex navigates a pre-fetched index to a concrete
// download URL and expected digest.
//
// The product is looked up under the "default" variant first, then
// "cloud" (some distributions only publish cloud images). Within the
// product, the build is chosen by selectBuild; within the build, the
// rootfs item is the entry with ftype "root.tar.xz", or failing that
// any item whose path ends in "rootfs.tar.xz".
func (c *Client) ResolveFromIndex(index *Index, d distro.Distro, v distro.Version, a distro.Architecture) (*ResolvedImage, error) {
	release := d.Release(v)

	var product *Product
	var productKey string
	for _, variant := range []string{"default", "cloud"} {
		key := fmt.Sprintf("%s:%s:%s:%s", d.ImageName(), release, a.ImageName(), variant)
		if p, ok := index.Products[key]; ok {
			product = &p
			productKey = key
			break
		}
	}
	if product == nil {
		return nil, &NotFoundError{Distro: d, Version: v, Arch: a}
	}

	buildKey, ok := selectBuild(product.Versions, string(v))
	if !ok {
		return nil, &NotFoundError{Distro: d, Version: v, Arch: a, ProductKey: productKey}
	}
	build := product.Versions[buildKey]

	item, ok := rootfsItem(build)
	if !ok {
		return nil, &NotFoundError{Distro: d, Version: v, Arch: a, ProductKey: productKey}
	}

	filename := item.Path
	if i := strings.LastIndex(filename, "/"); i >= 0 {
		filename = filename[i+1:]
	}

	c.logger.Debug("resolved image",
		"product", productKey, "build", buildKey, "sha256", item.SHA256)

	return &ResolvedImage{
		URL:      c.mirror.ImageURL(item.Path),
		SHA256:   strings.ToLower(item.SHA256),
		Size:     item.Size,
		Filename: filename,
	}, nil
}

func rootfsItem(build Build) (Item, bool) {
	for _, item := range build.Items {
		if item.FType == "root.tar.xz" {
			return item, true
		}
	}
	for _, item := range build.Items {
		if strings.HasSuffix(item.Path, "rootfs.tar.xz") {
			return item, true
		}
	}
	return Item{}, false
}
