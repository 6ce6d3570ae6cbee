// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package merge concatenates fixed up translated files into a single
// D module.
package merge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/ddbus/clibgen/fixup"
	"github.com/ddbus/clibgen/o11y/clog"
)

// Stats is stats of a merge.
type Stats struct {
	// Files is the number of merged files.
	Files int

	// BytesIn is the total size of the merged files.
	BytesIn int64

	// BytesOut is the size of the merged output.
	BytesOut int64

	// Aliases is the number of anonymous aliases inlined.
	Aliases int
}

func (s Stats) String() string {
	return fmt.Sprintf("files=%d in=%d out=%d aliases=%d", s.Files, s.BytesIn, s.BytesOut, s.Aliases)
}

// Write writes preamble and then each of files, fixed up, to w.
// Each file is delimited by "// START <file>" and "// END <file>".
// files are read from fsys in the given order.
//
// It stops at the first file it fails to read. What was merged
// before the failure has already been written to w.
func Write(ctx context.Context, w io.Writer, fsys fs.FS, preamble string, files []string) (Stats, error) {
	cw := &countWriter{w: w}
	bw := bufio.NewWriter(cw)
	stats, err := write(ctx, bw, fsys, preamble, files)
	ferr := bw.Flush()
	stats.BytesOut = cw.n
	if err != nil {
		return stats, err
	}
	return stats, ferr
}

func write(ctx context.Context, w *bufio.Writer, fsys fs.FS, preamble string, files []string) (Stats, error) {
	var stats Stats
	if preamble != "" {
		w.WriteString(preamble)
		if !strings.HasSuffix(preamble, "\n") {
			w.WriteString("\n")
		}
	}
	for _, fname := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		buf, err := fs.ReadFile(fsys, fname)
		if err != nil {
			return stats, fmt.Errorf("failed to read %s: %w", fname, err)
		}
		content, aliases := fixup.FixupAliases(string(buf))
		clog.Debugf(ctx, "%s: %d bytes -> %d bytes, %d anonymous aliases", fname, len(buf), len(content), len(aliases))
		fmt.Fprintf(w, "// START %s\n", fname)
		w.WriteString(content)
		w.WriteString("\n")
		fmt.Fprintf(w, "// END %s\n", fname)
		stats.Files++
		stats.BytesIn += int64(len(buf))
		stats.Aliases += len(aliases)
	}
	return stats, nil
}

// WriteFile is like Write, but writes to fname.
// fname is truncated if it exists.
// On error, fname is left with what was merged before the error.
func WriteFile(ctx context.Context, fname string, fsys fs.FS, preamble string, files []string) (Stats, error) {
	f, err := os.Create(fname)
	if err != nil {
		return Stats{}, err
	}
	stats, err := Write(ctx, f, fsys, preamble, files)
	cerr := f.Close()
	if err != nil {
		return stats, err
	}
	if cerr != nil {
		return stats, cerr
	}
	clog.Infof(ctx, "wrote %s: %s", fname, stats)
	return stats, nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (w *countWriter) Write(buf []byte) (int, error) {
	n, err := w.w.Write(buf)
	w.n += int64(n)
	return n, err
}
