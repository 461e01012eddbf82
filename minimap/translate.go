// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package minimap

import (
	"fmt"
	"strings"
)

const dirPrefix = "dir: "

// Translate maps minimap directories to the hashed names their tile
// textures are stored under. Directory and file names are compared
// ignoring case.
type Translate map[string]map[string]string

// ParseTranslate parses the contents of md5translate.trs. A "dir: <name>"
// line starts a directory; every following non-empty line has the form
// "<path>\t<hashed name>" and maps the base name of path.
func ParseTranslate(data []byte) (Translate, error) {
	result := Translate{}
	var current map[string]string

	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if dir, ok := strings.CutPrefix(line, dirPrefix); ok {
			current = make(map[string]string)
			result[strings.ToLower(dir)] = current
			continue
		}
		if current == nil || strings.TrimSpace(line) == "" {
			continue
		}

		path, hashed, ok := strings.Cut(line, "\t")
		if !ok || strings.Contains(hashed, "\t") {
			return nil, fmt.Errorf("%w: line %d: %q", ErrFormat, n+1, line)
		}
		current[strings.ToLower(baseName(path))] = hashed
	}
	return result, nil
}

// Lookup returns the hashed name of file in dir.
func (t Translate) Lookup(dir, file string) (string, bool) {
	hashed, ok := t[strings.ToLower(dir)][strings.ToLower(file)]
	return hashed, ok
}

// baseName returns the last element of a path using either separator.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}
