// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// expandPaths replaces each directory argument with the regular files
// beneath it, in lexical order. The directory skip (the store) is never
// descended into. Arguments that cannot be stated are passed through, so
// the caller reports them as per-file failures.
func expandPaths(args []string, skip string) ([]string, error) {
	skip = cleanAbs(skip)

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				if skip != "" && cleanAbs(path) == skip {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.Type().IsRegular() {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return paths, nil
}

func cleanAbs(path string) string {
	if path == "" {
		return ""
	}
	if absolute, err := filepath.Abs(path); err == nil {
		return absolute
	}
	return filepath.Clean(path)
}
