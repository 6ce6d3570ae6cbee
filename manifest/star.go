// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/ddbus/clibgen/o11y/clog"
)

// Load loads a Starlark manifest from fname.
//
// The manifest overrides fields of Default() by assigning globals:
//
//	header_glob = "dbus/*.h"
//	defines = ["DBUS_INSIDE_DBUS_H"]
//	include_dirs = ["."]
//	translator = "dstep"
//	files = default.files + ["dbus/dbus-extra.d"]
//	preamble = default.preamble
//	output = "c_lib.d"
//
// `default` is predeclared with the fields of Default().
// Globals starting with "_" are private to the manifest.
func Load(ctx context.Context, fname string) (Manifest, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return Manifest{}, err
	}
	return Parse(ctx, fname, buf)
}

// Parse parses a Starlark manifest in src. fname is used in error messages.
func Parse(ctx context.Context, fname string, src []byte) (Manifest, error) {
	m := Default()
	thread := &starlark.Thread{
		Name: "manifest",
		Print: func(thread *starlark.Thread, msg string) {
			clog.Infof(ctx, "thread:%s %s", thread.Name, msg)
		},
		Load: func(*starlark.Thread, string) (starlark.StringDict, error) {
			return nil, errors.New("load is not allowed in manifest")
		},
	}
	globals, err := starlark.ExecFile(thread, fname, src, starlark.StringDict{
		"default": starDefault(m),
	})
	if err != nil {
		var eerr *starlark.EvalError
		if errors.As(err, &eerr) {
			log.Warnf("stacktrace:\n%s", eerr.Backtrace())
		}
		return Manifest{}, fmt.Errorf("failed to exec %s: %w", fname, err)
	}
	for _, name := range globals.Keys() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		v := globals[name]
		switch name {
		case "header_glob":
			err = asString(v, &m.HeaderGlob)
		case "defines":
			err = asStringList(v, &m.Defines)
		case "include_dirs":
			err = asStringList(v, &m.IncludeDirs)
		case "translator":
			err = asString(v, &m.Translator)
		case "files":
			err = asStringList(v, &m.Files)
		case "preamble":
			err = asString(v, &m.Preamble)
		case "output":
			err = asString(v, &m.Output)
		default:
			err = errors.New("unknown global")
		}
		if err != nil {
			return Manifest{}, fmt.Errorf("%s: %s: %w", fname, name, err)
		}
	}
	clog.Debugf(ctx, "manifest %s: %#v", fname, m)
	return m, nil
}

func starDefault(m Manifest) starlark.Value {
	return starlarkstruct.FromStringDict(starlark.String("default"), starlark.StringDict{
		"header_glob":  starlark.String(m.HeaderGlob),
		"defines":      starStringList(m.Defines),
		"include_dirs": starStringList(m.IncludeDirs),
		"translator":   starlark.String(m.Translator),
		"files":        starStringList(m.Files),
		"preamble":     starlark.String(m.Preamble),
		"output":       starlark.String(m.Output),
	})
}

func starStringList(list []string) *starlark.List {
	elems := make([]starlark.Value, 0, len(list))
	for _, s := range list {
		elems = append(elems, starlark.String(s))
	}
	l := starlark.NewList(elems)
	l.Freeze()
	return l
}

func asString(v starlark.Value, p *string) error {
	s, ok := starlark.AsString(v)
	if !ok {
		return fmt.Errorf("got %s, want string", v.Type())
	}
	*p = s
	return nil
}

func asStringList(v starlark.Value, p *[]string) error {
	iter, ok := v.(starlark.Iterable)
	if !ok {
		return fmt.Errorf("got %s, want list of strings", v.Type())
	}
	var list []string
	it := iter.Iterate()
	defer it.Done()
	var elem starlark.Value
	for it.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return fmt.Errorf("got %s in list, want string", elem.Type())
		}
		list = append(list, s)
	}
	*p = list
	return nil
}
