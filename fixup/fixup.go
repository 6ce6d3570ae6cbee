// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package fixup cleans up dstep translations of the D-Bus headers so
// they can be concatenated into a single D module.
//
// Each step is a pure text to text function. Fixup applies them in
// the order later steps depend on. Text that doesn't match a step's
// pattern passes through unchanged.
package fixup

import (
	"regexp"
	"strings"
)

const (
	// LinkageMarker starts a C linkage block in each translated file.
	// The merged module declares it once in its preamble.
	LinkageMarker = "extern (C):"

	// anonymousPrefix is the name prefix dstep gives to anonymous types.
	anonymousPrefix = "_Anonymous_"

	// dstep drops the return type of some function pointer typedefs
	// (DBusHandleMessageFunction, DBusObjectPathMessageFunction).
	brokenHandlerAlias = "alias  function"
	fixedHandlerAlias  = "alias DBusHandlerResult function"
)

var (
	importRE         = regexp.MustCompile(`(?m)^import .*$`)
	anonymousAliasRE = regexp.MustCompile(`(?m)^alias ` + anonymousPrefix + `(\d+) (.*);$`)
	aliasRE          = regexp.MustCompile(`(?m)^alias (\S*) (\S*);$`)
)

// Alias is an alias dstep emits for an anonymous type.
// `alias _Anonymous_<Num> <Name>;`
type Alias struct {
	Num  string
	Name string
}

// Token returns the placeholder name of the anonymous type.
func (a Alias) Token() string {
	return anonymousPrefix + a.Num
}

// Fixup returns cleaned up content of a translated file.
func Fixup(content string) string {
	s, _ := FixupAliases(content)
	return s
}

// FixupAliases is like Fixup, but also returns the anonymous aliases
// inlined in the content.
func FixupAliases(content string) (string, []Alias) {
	s := StripLinkage(content)
	s = StripImports(s)
	s, aliases := ExtractAnonymousAliases(s)
	s = ApplyAnonymousAliases(s, aliases)
	s = FixHandlerResult(s)
	s = RemoveSelfAliases(s)
	return strings.TrimSpace(s), aliases
}

// StripLinkage removes every linkage marker.
func StripLinkage(s string) string {
	return strings.ReplaceAll(s, LinkageMarker, "")
}

// StripImports blanks import lines. All declarations end up in
// one module, so cross file imports are meaningless.
func StripImports(s string) string {
	return importRE.ReplaceAllLiteralString(s, "")
}

// ExtractAnonymousAliases blanks anonymous alias lines and returns
// them in the order they appear.
func ExtractAnonymousAliases(s string) (string, []Alias) {
	var aliases []Alias
	for _, m := range anonymousAliasRE.FindAllStringSubmatch(s, -1) {
		aliases = append(aliases, Alias{Num: m[1], Name: m[2]})
	}
	if len(aliases) == 0 {
		return s, nil
	}
	return anonymousAliasRE.ReplaceAllLiteralString(s, ""), aliases
}

// ApplyAnonymousAliases replaces each alias's placeholder token with
// its name. Names are substituted literally, and only whole tokens
// are replaced, so _Anonymous_1 doesn't match in _Anonymous_12.
func ApplyAnonymousAliases(s string, aliases []Alias) string {
	for _, a := range aliases {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(a.Token()) + `\b`)
		s = re.ReplaceAllLiteralString(s, a.Name)
	}
	return s
}

// FixHandlerResult restores the return type dstep drops from
// message handler function aliases.
func FixHandlerResult(s string) string {
	return strings.ReplaceAll(s, brokenHandlerAlias, fixedHandlerAlias)
}

// RemoveSelfAliases blanks `alias X X;` lines.
// Aliases between different names are kept verbatim.
func RemoveSelfAliases(s string) string {
	return aliasRE.ReplaceAllStringFunc(s, func(line string) string {
		m := aliasRE.FindStringSubmatch(line)
		if m[1] == m[2] {
			return ""
		}
		return line
	})
}
