// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package generate

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"github.com/ddbus/clibgen/execute/localexec"
	"github.com/ddbus/clibgen/manifest"
	"github.com/ddbus/clibgen/o11y/clog"
)

const generateUsage = `translate D-Bus headers and merge them into c_lib.d

 $ clibgen generate [-C <dir>] [-manifest <file.star>] [-o <output>]

Runs the translator (dstep) for each header in dbus/*.h, then
concatenates the translated files in dependency order, fixing up
dstep's output, into c_lib.d.
Without flags, it generates ddbus's c_lib.d in the current directory.
`

// Cmd returns the Command for the `generate` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "generate [-C <dir>] [-manifest <file.star>] [-o <output>]",
		ShortDesc: "translate headers and merge them",
		LongDesc:  generateUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &generateRun{}
			c.init()
			return c
		},
	}
}

// TranslateCmd returns the Command for the `translate` subcommand provided by this package.
func TranslateCmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "translate [-C <dir>] [-manifest <file.star>]",
		ShortDesc: "translate headers only",
		LongDesc:  "Runs the translator for each header, without merging.",
		CommandRun: func() subcommands.CommandRun {
			c := &translateRun{}
			c.init()
			return c
		},
	}
}

// MergeCmd returns the Command for the `merge` subcommand provided by this package.
func MergeCmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "merge [-C <dir>] [-manifest <file.star>] [-o <output>]",
		ShortDesc: "merge translated files only",
		LongDesc:  "Merges already translated files into the output, without running the translator.",
		CommandRun: func() subcommands.CommandRun {
			c := &mergeRun{}
			c.init()
			return c
		},
	}
}

// CheckCmd returns the Command for the `check` subcommand provided by this package.
func CheckCmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "check [-C <dir>] [-manifest <file.star>] [-o <output>]",
		ShortDesc: "check the output is up to date",
		LongDesc:  "Checks the output is what merge would write from the translated files now.",
		CommandRun: func() subcommands.CommandRun {
			c := &checkRun{}
			c.init()
			return c
		},
	}
}

type baseRun struct {
	subcommands.CommandRunBase

	dir          string
	manifestFile string
	output       string
}

func (c *baseRun) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "project root directory. headers, translated files and the output are relative to it")
	c.Flags.StringVar(&c.manifestFile, "manifest", "", "starlark manifest to override the built-in parameters")
	c.Flags.StringVar(&c.output, "o", "", "output filename, relative to -C. overrides the manifest")
}

func (c *baseRun) options(ctx context.Context, args []string) (Options, error) {
	if len(args) != 0 {
		return Options{}, fmt.Errorf("position arguments not expected: %w", flag.ErrHelp)
	}
	m := manifest.Default()
	if c.manifestFile != "" {
		var err error
		m, err = manifest.Load(ctx, c.manifestFile)
		if err != nil {
			return Options{}, err
		}
	}
	if c.output != "" {
		m.Output = c.output
	}
	err := m.Validate()
	if err != nil {
		return Options{}, fmt.Errorf("bad manifest: %w", err)
	}
	return Options{
		Dir:      c.dir,
		Manifest: m,
		Executor: localexec.LocalExec{},
	}, nil
}

func exitCode(a subcommands.Application, err error, usage string) int {
	if err == nil {
		return 0
	}
	switch {
	case errors.Is(err, flag.ErrHelp):
		fmt.Fprintf(a.GetErr(), "%v\n%s\n", err, usage)
	default:
		fmt.Fprintf(a.GetErr(), "Error: %v\n", err)
	}
	return 1
}

type generateRun struct {
	baseRun

	skipTranslate bool
	incremental   bool
}

func (c *generateRun) init() {
	c.baseRun.init()
	c.Flags.BoolVar(&c.skipTranslate, "skip_translate", false, "don't run the translator. merge translated files as is")
	c.Flags.BoolVar(&c.incremental, "incremental", false, "don't run the translator for headers whose translated file is newer")
}

func (c *generateRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	return exitCode(a, err, generateUsage)
}

func (c *generateRun) run(ctx context.Context, args []string) error {
	opts, err := c.options(ctx, args)
	if err != nil {
		return err
	}
	opts.SkipTranslate = c.skipTranslate
	opts.Incremental = c.incremental
	stats, err := Generate(ctx, opts)
	if err != nil {
		return err
	}
	clog.Infof(ctx, "generated %s: %s", opts.Manifest.Output, stats)
	return nil
}

type translateRun struct {
	baseRun

	incremental bool
}

func (c *translateRun) init() {
	c.baseRun.init()
	c.Flags.BoolVar(&c.incremental, "incremental", false, "don't run the translator for headers whose translated file is newer")
}

func (c *translateRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, a, args)
	return exitCode(a, err, generateUsage)
}

func (c *translateRun) run(ctx context.Context, a subcommands.Application, args []string) error {
	opts, err := c.options(ctx, args)
	if err != nil {
		return err
	}
	opts.Incremental = c.incremental
	result, err := Translate(ctx, opts)
	if err != nil {
		return err
	}
	for _, out := range result.Outputs {
		fmt.Fprintln(a.GetOut(), out)
	}
	return nil
}

type mergeRun struct {
	baseRun
}

func (c *mergeRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	opts, err := c.options(ctx, args)
	if err == nil {
		_, err = Merge(ctx, opts)
	}
	return exitCode(a, err, generateUsage)
}

type checkRun struct {
	baseRun
}

func (c *checkRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	opts, err := c.options(ctx, args)
	if err == nil {
		err = Check(ctx, opts)
	}
	if IsStale(err) {
		fmt.Fprintf(a.GetErr(), "%v\nrun `clibgen merge` to update\n", err)
		return 1
	}
	return exitCode(a, err, generateUsage)
}
