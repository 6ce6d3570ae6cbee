// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package merge

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

const testPreamble = `module ddbus.c_lib;
import core.stdc.config;
import core.stdc.stdarg;
extern (C):
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"dbus/A.d": &fstest.MapFile{Data: []byte(`module dbus.A;

import core.stdc.config;

extern (C):

alias _Anonymous_0 DBusA;
struct _Anonymous_0;
alias DBusA DBusA;
`)},
		"dbus/B.d": &fstest.MapFile{Data: []byte(`module dbus.B;

import dbus.A;

extern (C):

alias  function (DBusA*) DBusBFunction;
`)},
		"dbus/empty.d": &fstest.MapFile{Data: []byte("\n")},
	}
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	stats, err := Write(ctx, &buf, testFS(), testPreamble, []string{"dbus/A.d", "dbus/B.d"})
	if err != nil {
		t.Fatalf("Write=_, %v; want nil error", err)
	}
	want := testPreamble + `// START dbus/A.d
module dbus.A;






struct DBusA;
// END dbus/A.d
// START dbus/B.d
module dbus.B;





alias DBusHandlerResult function (DBusA*) DBusBFunction;
// END dbus/B.d
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Write diff -want +got:\n%s", diff)
	}
	wantStats := Stats{
		Files:    2,
		BytesIn:  int64(len(testFS()["dbus/A.d"].Data) + len(testFS()["dbus/B.d"].Data)),
		BytesOut: int64(len(want)),
		Aliases:  1,
	}
	if diff := cmp.Diff(wantStats, stats); diff != "" {
		t.Errorf("Write stats diff -want +got:\n%s", diff)
	}
}

func TestWrite_Order(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	_, err := Write(ctx, &buf, testFS(), testPreamble, []string{"dbus/B.d", "dbus/A.d"})
	if err != nil {
		t.Fatalf("Write=_, %v; want nil error", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, testPreamble) {
		t.Errorf("output doesn't start with preamble:\n%s", out)
	}
	var pos []int
	for _, marker := range []string{
		"// START dbus/B.d",
		"// END dbus/B.d",
		"// START dbus/A.d",
		"// END dbus/A.d",
	} {
		i := strings.Index(out, marker)
		if i < 0 {
			t.Fatalf("missing %q in\n%s", marker, out)
		}
		pos = append(pos, i)
	}
	for i := 1; i < len(pos); i++ {
		if pos[i-1] >= pos[i] {
			t.Errorf("markers out of order at %d: %v\n%s", i, pos, out)
		}
	}
}

func TestWrite_EmptyFileAndPreamble(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	_, err := Write(ctx, &buf, testFS(), "module x;", []string{"dbus/empty.d"})
	if err != nil {
		t.Fatalf("Write=_, %v; want nil error", err)
	}
	want := "module x;\n// START dbus/empty.d\n\n// END dbus/empty.d\n"
	if got := buf.String(); got != want {
		t.Errorf("Write=%q; want %q", got, want)
	}
}

func TestWrite_MissingFile(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	stats, err := Write(ctx, &buf, testFS(), testPreamble, []string{"dbus/A.d", "dbus/missing.d", "dbus/B.d"})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Write=_, %v; want fs.ErrNotExist", err)
	}
	if !strings.Contains(err.Error(), "dbus/missing.d") {
		t.Errorf("Write err=%v; want filename in error", err)
	}
	if stats.Files != 1 {
		t.Errorf("stats.Files=%d; want 1", stats.Files)
	}
	out := buf.String()
	if !strings.HasSuffix(out, "// END dbus/A.d\n") {
		t.Errorf("partial output should end with dbus/A.d:\n%s", out)
	}
	if strings.Contains(out, "dbus/B.d") {
		t.Errorf("partial output should not contain dbus/B.d:\n%s", out)
	}
}

func TestWrite_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	_, err := Write(ctx, &buf, testFS(), testPreamble, []string{"dbus/A.d"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Write(canceled ctx)=_, %v; want context.Canceled", err)
	}
}

func TestWriteFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fname := filepath.Join(dir, "c_lib.d")
	err := os.WriteFile(fname, []byte(strings.Repeat("stale\n", 1000)), 0644)
	if err != nil {
		t.Fatal(err)
	}
	files := []string{"dbus/A.d", "dbus/B.d"}

	_, err = WriteFile(ctx, fname, testFS(), testPreamble, files)
	if err != nil {
		t.Fatalf("WriteFile=_, %v; want nil error", err)
	}
	first, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(first, []byte("stale")) {
		t.Errorf("WriteFile didn't truncate existing output:\n%s", first)
	}

	_, err = WriteFile(ctx, fname, testFS(), testPreamble, files)
	if err != nil {
		t.Fatalf("WriteFile=_, %v; want nil error", err)
	}
	second, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("WriteFile is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestWriteFile_MissingFileLeavesPartialOutput(t *testing.T) {
	ctx := context.Background()
	fname := filepath.Join(t.TempDir(), "c_lib.d")
	_, err := WriteFile(ctx, fname, testFS(), testPreamble, []string{"dbus/A.d", "dbus/missing.d"})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("WriteFile=_, %v; want fs.ErrNotExist", err)
	}
	buf, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("partial output: %v", err)
	}
	if !strings.HasPrefix(string(buf), testPreamble+"// START dbus/A.d\n") {
		t.Errorf("partial output=%q; want preamble and dbus/A.d", buf)
	}
}
