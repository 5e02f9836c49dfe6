// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

import (
	"os"
	"path/filepath"
)

// Cache keeps track of where remote projects are checked out, and how to
// compute paths for them.
type Cache struct {
	// The locations where project checkouts can be found.
	// The first path is used to clone projects that don't exist yet.
	projectCachePaths []string

	ui UI
}

func NewCache(projectCachePaths []string, ui UI) Cache {
	return Cache{
		projectCachePaths: projectCachePaths,
		ui:                ui,
	}
}

func (c Cache) find(p string, paths []string) (string, error) {
	for _, cachePath := range paths {
		cachePath := filepath.Join(cachePath, p)
		info, err := os.Stat(cachePath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		if !info.IsDir() {
			return "", c.ui.ReportError("Path %s exists but is not a directory", p)
		}
		return cachePath, nil
	}
	return "", nil
}

// FindProject searches for the checkout of 'url' in the cache.
// If it's not found returns "".
func (c Cache) FindProject(url string) (string, error) {
	return c.find(urlToRelPath(url), c.projectCachePaths)
}

// PreferredProjectPath returns the preferred checkout path for the given
// project url.
func (c Cache) PreferredProjectPath(url string) string {
	// The first cache path is the preferred location.
	return filepath.Join(c.projectCachePaths[0], urlToRelPath(url))
}
