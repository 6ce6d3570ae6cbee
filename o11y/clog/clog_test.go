// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog_test is a test for clog package.
package clog_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/ddbus/clibgen/o11y/clog"
)

func TestFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if got, want := clog.FromContext(ctx), log.Default(); got != want {
		t.Errorf("FromContext(ctx)=%p; want default logger %p", got, want)
	}
}

func TestSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	ctx := clog.NewContext(context.Background(), logger)

	clog.Infof(ctx, "Info")
	cctx := clog.NewSpan(ctx, map[string]string{
		"stage": "merge",
		"file":  "dbus/dbus.d",
	})
	clog.Warningf(cctx, "Child Warning %d", 1)
	clog.Debugf(cctx, "Child Debug")
	clog.Errorf(ctx, "Error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines; want 4\n%s", len(lines), buf.String())
	}
	for i, tc := range []struct {
		msg    string
		labels []string
	}{
		{msg: "Info"},
		{msg: "Child Warning 1", labels: []string{"file=dbus/dbus.d", "stage=merge"}},
		{msg: "Child Debug", labels: []string{"file=dbus/dbus.d", "stage=merge"}},
		{msg: "Error"},
	} {
		line := lines[i]
		if !strings.Contains(line, tc.msg) {
			t.Errorf("line %d=%q; want message %q", i, line, tc.msg)
		}
		for _, l := range tc.labels {
			if !strings.Contains(line, l) {
				t.Errorf("line %d=%q; want label %q", i, line, l)
			}
		}
		if len(tc.labels) == 0 && strings.Contains(line, "stage=") {
			t.Errorf("line %d=%q; parent logger got child labels", i, line)
		}
	}
	if strings.Index(lines[1], "file=") > strings.Index(lines[1], "stage=") {
		t.Errorf("labels not sorted in %q", lines[1])
	}
}
