// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultConstraintsPattern matches the constraints files a project
// conventionally carries (optionally suffixed, like 'constraints-3.7.txt').
const DefaultConstraintsPattern = "constraints*.txt"

var blocklist = []glob.Glob{
	glob.MustCompile(".**", '/'), // Any hidden file or directory, including .git.
}

// DiscoverConstraintsFiles walks the project tree and returns the paths of
// all files matching the given patterns. Hidden files and directories are
// skipped.
func DiscoverConstraintsFiles(root string, patterns []string, ui UI) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{DefaultConstraintsPattern}
	}
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, ui.ReportError("Invalid pattern '%s': %v", pattern, err)
		}
		compiled = append(compiled, g)
	}

	found := []string{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip hidden files and folders.
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		// The root directory is never blocklisted.
		if rel == "." {
			return nil
		}

		for _, g := range blocklist {
			if g.Match(filepath.ToSlash(rel)) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if info.IsDir() {
			return nil
		}

		for _, g := range compiled {
			if g.Match(info.Name()) {
				found = append(found, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
