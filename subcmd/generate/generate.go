// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package generate provides generate, translate, merge and check
// subcommands to produce c_lib.d from D-Bus headers.
package generate

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ddbus/clibgen/execute"
	"github.com/ddbus/clibgen/manifest"
	"github.com/ddbus/clibgen/merge"
	"github.com/ddbus/clibgen/o11y/clog"
	"github.com/ddbus/clibgen/translate"
)

// Options is options of a generation.
type Options struct {
	// Dir is the project root. Headers, translated files and
	// the output are relative to Dir.
	Dir string

	// Manifest holds parameters of the generation.
	Manifest manifest.Manifest

	// Executor runs the translator.
	Executor execute.Executor

	// SkipTranslate skips running the translator.
	SkipTranslate bool

	// Incremental skips translating headers whose translated file
	// is up to date.
	Incremental bool
}

func (o Options) outputPath() string {
	return filepath.Join(o.Dir, filepath.FromSlash(o.Manifest.Output))
}

// Generate translates headers and then merges translated files.
// Translation fully completes before merging starts.
func Generate(ctx context.Context, opts Options) (merge.Stats, error) {
	if !opts.SkipTranslate {
		_, err := Translate(ctx, opts)
		if err != nil {
			return merge.Stats{}, err
		}
	}
	return Merge(ctx, opts)
}

// Translate translates headers selected by the manifest.
func Translate(ctx context.Context, opts Options) (translate.Result, error) {
	ctx = clog.NewSpan(ctx, map[string]string{"stage": "translate"})
	m := opts.Manifest
	tool, err := m.TranslatorArgs()
	if err != nil {
		return translate.Result{}, err
	}
	headers, err := translate.Headers(opts.Dir, m.HeaderGlob)
	if err != nil {
		return translate.Result{}, err
	}
	if len(headers) == 0 {
		clog.Warningf(ctx, "no headers match %s in %s", m.HeaderGlob, opts.Dir)
		return translate.Result{}, nil
	}
	t := translate.Dstep{
		Executor:    opts.Executor,
		Tool:        tool,
		Defines:     m.Defines,
		IncludeDirs: m.IncludeDirs,
		Dir:         opts.Dir,
	}
	result, err := translate.All(ctx, t, headers, translate.Options{
		Dir:         opts.Dir,
		Incremental: opts.Incremental,
	})
	if err != nil {
		return result, err
	}
	clog.Infof(ctx, "translated %d headers, %d up to date", len(result.Translated), len(result.Skipped))
	return result, nil
}

// Merge merges translated files into the output.
func Merge(ctx context.Context, opts Options) (merge.Stats, error) {
	ctx = clog.NewSpan(ctx, map[string]string{"stage": "merge"})
	m := opts.Manifest
	return merge.WriteFile(ctx, opts.outputPath(), os.DirFS(opts.Dir), m.Preamble, m.Files)
}

// StaleError is an error when the output differs from what merge
// would write.
type StaleError struct {
	Output string
	// Line is 1-based line number of the first difference.
	Line int
	Want string
	Got  string
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("%s is stale at line %d: want %q, got %q", e.Output, e.Line, e.Want, e.Got)
}

// Check checks the output is what merge would write now.
// It returns *StaleError if it differs.
func Check(ctx context.Context, opts Options) error {
	ctx = clog.NewSpan(ctx, map[string]string{"stage": "check"})
	m := opts.Manifest
	var want bytes.Buffer
	_, err := merge.Write(ctx, &want, os.DirFS(opts.Dir), m.Preamble, m.Files)
	if err != nil {
		return err
	}
	got, err := os.ReadFile(opts.outputPath())
	if err != nil {
		return err
	}
	if bytes.Equal(want.Bytes(), got) {
		clog.Infof(ctx, "%s is up to date", m.Output)
		return nil
	}
	return firstDiff(m.Output, want.Bytes(), got)
}

func firstDiff(output string, want, got []byte) error {
	ws := bufio.NewScanner(bytes.NewReader(want))
	gs := bufio.NewScanner(bytes.NewReader(got))
	ws.Buffer(nil, len(want)+1)
	gs.Buffer(nil, len(got)+1)
	for line := 1; ; line++ {
		wok := ws.Scan()
		gok := gs.Scan()
		if !wok && !gok {
			// only differ in the final newline.
			return &StaleError{Output: output, Line: line}
		}
		if wok != gok || ws.Text() != gs.Text() {
			return &StaleError{
				Output: output,
				Line:   line,
				Want:   ws.Text(),
				Got:    gs.Text(),
			}
		}
	}
}

// IsStale reports whether err is a StaleError.
func IsStale(err error) bool {
	var serr *StaleError
	return errors.As(err, &serr)
}
