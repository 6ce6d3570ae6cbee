// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shutil provides shell-like command line helpers for the
// translator command.
package shutil

import (
	"errors"
	"fmt"
	"strings"
)

// Split splits a command line.
// It understands double quotes, single quotes and backslash escapes,
// and returns error for shell metachars (pipe line, redirect, etc)
// or for an unterminated quote or escape.
func Split(cmdline string) ([]string, error) {
	var args []string
	var sb strings.Builder
	inarg := false
	escaped := false
	var quote rune
	for _, ch := range cmdline {
		if escaped {
			sb.WriteRune(ch)
			escaped = false
			continue
		}
		switch quote {
		case '\'':
			if ch == '\'' {
				quote = 0
				continue
			}
			sb.WriteRune(ch)
			continue
		case '"':
			switch ch {
			case '"':
				quote = 0
			case '\\':
				escaped = true
			default:
				sb.WriteRune(ch)
			}
			continue
		}
		switch ch {
		case '\\':
			inarg = true
			escaped = true
		case '"', '\'':
			inarg = true
			quote = ch
		case ' ', '\t':
			if inarg {
				args = append(args, sb.String())
				sb.Reset()
				inarg = false
			}
		case ';', '&', '|', '<', '>', '$', '#', '`', '\n':
			return nil, fmt.Errorf("failed to split: cmdline contains shell metachar %q", ch)
		default:
			inarg = true
			sb.WriteRune(ch)
		}
	}
	if escaped {
		return nil, errors.New("failed to split: cmdline ends with escape")
	}
	if quote != 0 {
		return nil, fmt.Errorf("failed to split: unterminated quote %c", quote)
	}
	if inarg {
		args = append(args, sb.String())
	}
	if len(args) >= 1 && strings.Contains(args[0], "=") {
		// env overrides need to be invoked via sh.
		return nil, fmt.Errorf("argv[0] is env set %q", args[0])
	}
	return args, nil
}
