// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/bureau-foundation/rootfs/lib/download"
)

// progressMeter renders download progress to stderr when it is a
// terminal. On non-terminal stderr (CI, pipes) it stays silent; the
// structured logger already reports start and completion.
type progressMeter struct {
	tty  bool
	last int64
}

func newProgressMeter() *progressMeter {
	return &progressMeter{tty: term.IsTerminal(int(os.Stderr.Fd()))}
}

// callback returns the function handed to the download pipeline, or
// nil when nothing would be rendered.
func (p *progressMeter) callback() download.Progress {
	if !p.tty {
		return nil
	}
	return p.update
}

// update redraws the meter. Called per 8 KiB chunk; redraws are
// throttled to 1 MiB steps to keep terminal writes cheap.
func (p *progressMeter) update(downloaded, total int64) {
	if downloaded-p.last < 1<<20 && downloaded != total {
		return
	}
	p.last = downloaded

	if total == download.UnknownTotal {
		fmt.Fprintf(os.Stderr, "\r  %s downloaded", humanize.IBytes(uint64(downloaded)))
		return
	}
	percent := float64(downloaded) / float64(total) * 100
	fmt.Fprintf(os.Stderr, "\r  %s / %s (%.0f%%)",
		humanize.IBytes(uint64(downloaded)), humanize.IBytes(uint64(total)), percent)
}

// finish terminates the meter line. Safe to call more than once.
func (p *progressMeter) finish() {
	if p.tty && p.last > 0 {
		fmt.Fprintln(os.Stderr)
		p.last = 0
	}
}
