// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplit(t *testing.T) {
	for _, tc := range []struct {
		cmdline string
		want    []string
	}{
		{
			cmdline: `dstep`,
			want:    []string{"dstep"},
		},
		{
			cmdline: `  dstep   --space-after-function-name=false  `,
			want: []string{
				"dstep",
				"--space-after-function-name=false",
			},
		},
		{
			cmdline: `/opt/dstep/bin/dstep -DDBUS_INSIDE_DBUS_H -I.`,
			want: []string{
				"/opt/dstep/bin/dstep",
				"-DDBUS_INSIDE_DBUS_H",
				"-I.",
			},
		},
		{
			cmdline: `"/Applications/DStep Tool/dstep" -I'/usr/include/dbus-1.0' -DNAME=\"value\"`,
			want: []string{
				"/Applications/DStep Tool/dstep",
				"-I/usr/include/dbus-1.0",
				`-DNAME="value"`,
			},
		},
		{
			cmdline: `dstep -D"A B" ""`,
			want: []string{
				"dstep",
				"-DA B",
				"",
			},
		},
		{
			cmdline: `dstep "a \"quoted\" arg" it\'s`,
			want: []string{
				"dstep",
				`a "quoted" arg`,
				"it's",
			},
		},
		{
			cmdline: "",
			want:    nil,
		},
	} {
		args, err := Split(tc.cmdline)
		if err != nil {
			t.Errorf("Split(%q)=%q, %v; want nil error", tc.cmdline, args, err)
		}
		if diff := cmp.Diff(tc.want, args); diff != "" {
			t.Errorf("Split(%q); diff -want +got:\n%s", tc.cmdline, diff)
		}
	}
}

func TestSplit_Error(t *testing.T) {
	for _, cmdline := range []string{
		`dstep dbus/*.h 2>/dev/null || true`,
		`dstep "dbus.h`,
		`dstep 'dbus.h`,
		`dstep dbus.h\`,
		`dstep $HEADER`,
		`CC=clang dstep dbus.h`,
	} {
		args, err := Split(cmdline)
		if err == nil {
			t.Errorf("Split(%q)=%q, %v; want err", cmdline, args, err)
		}
	}
}

func TestJoin(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want string
	}{
		{
			args: []string{"dstep", "dbus/dbus.h", "-DDBUS_INSIDE_DBUS_H", "-I."},
			want: `dstep dbus/dbus.h -DDBUS_INSIDE_DBUS_H -I.`,
		},
		{
			args: []string{"/Applications/DStep Tool/dstep", "", `-DNAME="v"`},
			want: `"/Applications/DStep Tool/dstep" "" "-DNAME=\"v\""`,
		},
	} {
		got := Join(tc.args)
		if got != tc.want {
			t.Errorf("Join(%q)=%q; want %q", tc.args, got, tc.want)
		}
		back, err := Split(got)
		if err != nil {
			t.Errorf("Split(Join(%q))=_, %v; want nil error", tc.args, err)
			continue
		}
		if diff := cmp.Diff(tc.args, back); diff != "" {
			t.Errorf("Split(Join(%q)) diff -want +got:\n%s", tc.args, diff)
		}
	}
}
