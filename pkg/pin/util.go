// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

import (
	"net/url"
	"os"
	"path/filepath"
)

func isFile(p string) (bool, error) {
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	} else if info.IsDir() {
		return false, nil
	}
	return true, nil
}

func urlToRelPath(str string) string {
	u, err := url.Parse(str)
	if err != nil {
		// Assume that the urlString is just a normal path.
		return filepath.FromSlash(str)
	}
	return filepath.Join(u.Host, filepath.FromSlash(u.Path))
}
