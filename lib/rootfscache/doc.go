// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rootfscache manages the on-disk store of verified rootfs
// archives. Each cached image lives in a canonical entry directory
// {root}/{distro}/{version}/{arch}/ holding the archive and a
// metadata.json sidecar recording the verified digest.
//
// Mutation follows a strict crash-safety discipline. Downloads stage
// into {root}/.partial/ and only enter an entry directory by rename;
// metadata.json is renamed into place last, so its presence certifies
// a complete entry. Any interrupted state (archive without metadata,
// metadata without archive, digest mismatch on re-hash) is treated as
// absent and refetched. Concurrent callers, including other
// processes, serialize per entry through an exclusive flock under
// {root}/.locks/.
package rootfscache
