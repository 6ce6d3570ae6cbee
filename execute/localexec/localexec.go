// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package localexec implements local command execution.
package localexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/ddbus/clibgen/execute"
	"github.com/ddbus/clibgen/o11y/clog"
)

// LocalExec implements execute.Executor interface that runs commands locally.
type LocalExec struct{}

var _ execute.Executor = LocalExec{}

// Run runs cmd with LocalExec.
func Run(ctx context.Context, cmd *execute.Cmd) error {
	return LocalExec{}.Run(ctx, cmd)
}

// Run runs a cmd.
// It returns execute.ExitError if the cmd exits with non-zero code,
// or other error if the cmd couldn't be started (e.g. missing binary).
func (LocalExec) Run(ctx context.Context, cmd *execute.Cmd) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("no arguments in the command. ID: %s", cmd.ID)
	}
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Env = cmd.Env
	c.Dir = cmd.Dir
	c.Stdout = cmd.StdoutWriter()
	c.Stderr = cmd.StderrWriter()
	s := time.Now()
	err := c.Start()
	if err != nil {
		return fmt.Errorf("failed to start %q: %w", cmd.Command(), err)
	}
	err = c.Wait()
	code := exitCode(err)
	cmd.SetExitCode(code)
	clog.Debugf(ctx, "%s exit=%d stdout=%d stderr=%d %s", cmd.ID, code, len(cmd.Stdout()), len(cmd.Stderr()), time.Since(s))
	if code != 0 {
		return execute.ExitError{ExitCode: code}
	}
	if err != nil {
		return fmt.Errorf("failed to run %q: %w", cmd.Command(), err)
	}
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var eerr *exec.ExitError
	if !errors.As(err, &eerr) {
		return 0
	}
	if code := eerr.ExitCode(); code > 0 {
		return code
	}
	// killed by signal.
	return 1
}
