// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"github.com/ddbus/clibgen/o11y/clog"
	"github.com/ddbus/clibgen/subcmd/generate"
	"github.com/ddbus/clibgen/subcmd/help"
	"github.com/ddbus/clibgen/subcmd/version"
)

// clibgen generates ddbus's c_lib.d from D-Bus headers.

const (
	versionStr = "clibgen v1.0.0"

	// defaultCmd runs when no subcommand is given.
	defaultCmd = "generate"
)

func main() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(out, "global flags:\n")
		flag.PrintDefaults()
	}
	logLevel := flag.String("log_level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	lvl, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad -log_level: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}
	log.SetLevel(lvl)
	os.Exit(clibgenMain(context.Background(), flag.Args()))
}

func getApplication(ctx context.Context) *cli.Application {
	return &cli.Application{
		Name:  "clibgen",
		Title: "generates ddbus c_lib.d from D-Bus C headers",
		Context: func(context.Context) context.Context {
			return ctx
		},
		Commands: []*subcommands.Command{
			generate.Cmd(),
			generate.TranslateCmd(),
			generate.MergeCmd(),
			generate.CheckCmd(),

			help.Cmd(defaultCmd),
			version.Cmd(versionStr),
		},
	}
}

func clibgenMain(ctx context.Context, args []string) (exitCode int) {
	ctx, cancel := context.WithCancel(ctx)
	defer signals.HandleInterrupt(cancel)()

	runID := uuid.NewString()
	ctx = clog.NewContext(ctx, log.Default().With("run", runID))

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			clog.Errorf(ctx, "panic: %v\n%s", r, buf)
			exitCode = 1
		}
	}()

	// Print build information to the log.
	buildinfo, ok := debug.ReadBuildInfo()
	if ok {
		clog.Debugf(ctx, "main module: %s %s", moduleInfo(&buildinfo.Main), vcsInfo(buildinfo))
		for _, m := range buildinfo.Deps {
			clog.Debugf(ctx, "deps module: %s", moduleInfo(m))
		}
	}

	if len(args) == 0 {
		args = []string{defaultCmd}
	}
	return subcommands.Run(getApplication(ctx), args)
}

func moduleInfo(m *debug.Module) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("path:%s version:%s sum:%s replace:%s", m.Path, m.Version, m.Sum, moduleInfo(m.Replace))
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
