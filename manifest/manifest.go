// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package manifest provides the parameters of a c_lib.d generation:
// which headers to translate and how, which translated files to merge
// in which order, and the merged module's preamble.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/ddbus/clibgen/toolsupport/shutil"
)

// Manifest holds parameters of a generation.
type Manifest struct {
	// HeaderGlob selects headers to translate, relative to the
	// project root.
	HeaderGlob string

	// Defines are preprocessor defines passed to the translator as -D.
	Defines []string

	// IncludeDirs are include paths passed to the translator as -I.
	IncludeDirs []string

	// Translator is the translator command line, without the header
	// and the -D/-I flags.
	Translator string

	// Files are translated files to merge, in dependency order.
	// Later files may refer to symbols declared in earlier ones.
	Files []string

	// Preamble is written at the top of the merged output.
	Preamble string

	// Output is the merged output filename, relative to the project root.
	Output string
}

// DefaultFiles returns the translated D-Bus headers in dependency order.
func DefaultFiles() []string {
	return []string{
		"dbus/dbus-arch-deps.d",
		"dbus/dbus-types.d",
		"dbus/dbus-protocol.d",
		"dbus/dbus-errors.d",
		"dbus/dbus-macros.d",
		"dbus/dbus-memory.d",
		"dbus/dbus-shared.d",
		"dbus/dbus-address.d",
		"dbus/dbus-syntax.d",
		"dbus/dbus-signature.d",
		"dbus/dbus-misc.d",
		"dbus/dbus-threads.d",
		"dbus/dbus-message.d",
		"dbus/dbus-connection.d",
		"dbus/dbus-pending-call.d",
		"dbus/dbus-server.d",
		"dbus/dbus-bus.d",
		"dbus/dbus.d",
	}
}

// DefaultPreamble is the module header of ddbus.c_lib.
const DefaultPreamble = `module ddbus.c_lib;
import core.stdc.config;
import core.stdc.stdarg;
extern (C):
`

// Default returns the manifest to generate ddbus's c_lib.d.
func Default() Manifest {
	return Manifest{
		HeaderGlob:  "dbus/*.h",
		Defines:     []string{"DBUS_INSIDE_DBUS_H"},
		IncludeDirs: []string{"."},
		Translator:  "dstep",
		Files:       DefaultFiles(),
		Preamble:    DefaultPreamble,
		Output:      "c_lib.d",
	}
}

// TranslatorArgs returns the translator command line as args.
func (m Manifest) TranslatorArgs() ([]string, error) {
	args, err := shutil.Split(m.Translator)
	if err != nil {
		return nil, fmt.Errorf("bad translator %q: %w", m.Translator, err)
	}
	if len(args) == 0 {
		return nil, errors.New("empty translator")
	}
	return args, nil
}

// Validate checks the manifest is usable.
func (m Manifest) Validate() error {
	if m.HeaderGlob == "" {
		return errors.New("header_glob is empty")
	}
	if _, err := path.Match(m.HeaderGlob, ""); err != nil {
		return fmt.Errorf("bad header_glob %q: %w", m.HeaderGlob, err)
	}
	if _, err := m.TranslatorArgs(); err != nil {
		return err
	}
	if len(m.Files) == 0 {
		return errors.New("no files to merge")
	}
	for i, f := range m.Files {
		if !fs.ValidPath(f) || f == "." {
			return fmt.Errorf("files[%d] %q is not a slash-separated relative path", i, f)
		}
		if slices.Contains(m.Files[:i], f) {
			return fmt.Errorf("files[%d] %q is listed twice", i, f)
		}
	}
	if m.Output == "" {
		return errors.New("output is empty")
	}
	if slices.Contains(m.Files, m.Output) {
		return fmt.Errorf("output %q is also an input", m.Output)
	}
	return nil
}
