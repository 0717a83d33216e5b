// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package simplestreams resolves (distribution, version, architecture)
// triples to concrete download URLs and expected SHA-256 digests by
// navigating a Simplestreams image index.
//
// Simplestreams is a static-JSON protocol: a single GET of
// {mirror}/streams/v1/images.json returns every available product
// (distribution + release + architecture + variant), each with a map
// of published builds, each build with downloadable items carrying
// paths and checksums.
//
// FetchIndex and ResolveFromIndex are split so that callers resolving
// many images against one mirror pay the index fetch once.
package simplestreams
