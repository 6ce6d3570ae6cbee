// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package translate runs a C header to D translator over headers.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ddbus/clibgen/execute"
	"github.com/ddbus/clibgen/o11y/clog"
)

// Translator translates a C header.
type Translator interface {
	// Translate translates header and returns the translated filename.
	Translate(ctx context.Context, header string) (string, error)

	// Output returns the filename Translate writes for header.
	Output(header string) string
}

// Dstep is a Translator that runs dstep.
// Paths are relative to Dir, and dstep runs in Dir.
type Dstep struct {
	// Executor runs the dstep command.
	Executor execute.Executor

	// Tool is the dstep command line, e.g. ["dstep"].
	Tool []string

	// Defines are passed as -D<define>.
	Defines []string

	// IncludeDirs are passed as -I<dir>.
	IncludeDirs []string

	// Dir is the directory to run dstep in.
	Dir string
}

var _ Translator = Dstep{}

// Args returns the command line to translate header.
func (d Dstep) Args(header string) []string {
	args := make([]string, 0, len(d.Tool)+1+len(d.Defines)+len(d.IncludeDirs))
	args = append(args, d.Tool...)
	args = append(args, header)
	for _, def := range d.Defines {
		args = append(args, "-D"+def)
	}
	for _, dir := range d.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	return args
}

// Output returns the filename dstep writes for header:
// the header's extension replaced with ".d", in the same directory.
func (Dstep) Output(header string) string {
	return strings.TrimSuffix(header, filepath.Ext(header)) + ".d"
}

// Translate runs dstep for header.
func (d Dstep) Translate(ctx context.Context, header string) (string, error) {
	if len(d.Tool) == 0 {
		return "", errors.New("no translator tool")
	}
	cmd := &execute.Cmd{
		ID:      uuid.NewString(),
		Desc:    "DSTEP " + header,
		Args:    d.Args(header),
		Dir:     d.Dir,
		Inputs:  []string{header},
		Outputs: []string{d.Output(header)},
	}
	clog.Infof(ctx, "%s", cmd.Desc)
	clog.Debugf(ctx, "%s: %s", cmd.ID, cmd.Command())
	err := d.Executor.Run(ctx, cmd)
	if stderr := cmd.Stderr(); len(stderr) > 0 {
		clog.Warningf(ctx, "%s stderr:\n%s", cmd.Desc, stderr)
	}
	if err != nil {
		return "", fmt.Errorf("failed to translate %s: %q: %w", header, cmd.Command(), err)
	}
	return cmd.Outputs[0], nil
}

// Headers returns headers in dir that match glob, sorted.
// glob is relative to dir, and so are returned headers.
func Headers(dir, glob string) ([]string, error) {
	headers, err := fs.Glob(os.DirFS(dir), glob)
	if err != nil {
		return nil, fmt.Errorf("bad header glob %q: %w", glob, err)
	}
	sort.Strings(headers)
	return headers, nil
}

// Options controls All.
type Options struct {
	// Dir is the directory headers are relative to.
	Dir string

	// Incremental skips headers whose translated file exists and
	// is not older than the header.
	Incremental bool
}

// Result is a result of All.
type Result struct {
	// Outputs are translated files, in the order of headers.
	Outputs []string

	// Translated are headers translated in this run.
	Translated []string

	// Skipped are headers skipped as up to date.
	Skipped []string
}

// All translates headers in order.
// It stops at the first failure.
func All(ctx context.Context, t Translator, headers []string, opts Options) (Result, error) {
	var result Result
	for _, h := range headers {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		out := t.Output(h)
		if opts.Incremental && upToDate(filepath.Join(opts.Dir, h), filepath.Join(opts.Dir, out)) {
			clog.Debugf(ctx, "skip %s: %s is up to date", h, out)
			result.Skipped = append(result.Skipped, h)
			result.Outputs = append(result.Outputs, out)
			continue
		}
		out, err := t.Translate(ctx, h)
		if err != nil {
			return result, err
		}
		result.Translated = append(result.Translated, h)
		result.Outputs = append(result.Outputs, out)
	}
	return result, nil
}

func upToDate(header, output string) bool {
	hi, err := os.Stat(header)
	if err != nil {
		return false
	}
	oi, err := os.Stat(output)
	if err != nil {
		return false
	}
	return !oi.ModTime().Before(hi.ModTime())
}
