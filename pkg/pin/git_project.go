// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

import (
	"context"
	"os"

	"github.com/pinlock/pinlock/pkg/git"
)

// FetchProject makes the project at the given git URL available locally and
// returns its checkout path.
// An existing checkout is pulled; otherwise the repository is cloned into
// the cache's preferred location.
func FetchProject(ctx context.Context, c Cache, url string, branch string, sshPath string, ui UI) (string, error) {
	p, err := c.FindProject(url)
	if err != nil {
		return "", err
	}
	if p != "" {
		if err := git.Pull(p); err != nil {
			return "", ui.ReportError("Error while updating '%s': %v", url, err)
		}
		return p, nil
	}

	p = c.PreferredProjectPath(url)
	if err := os.MkdirAll(p, 0755); err != nil {
		return "", err
	}
	successfullyCloned := false
	defer func() {
		if !successfullyCloned {
			// Try not to leave partial checkouts around.
			os.RemoveAll(p)
		}
	}()

	if branch != "" {
		_, err = git.Clone(ctx, p, &git.CloneOptions{
			URL:          url,
			Branch:       branch,
			SingleBranch: true,
			Depth:        1,
			SSHPath:      sshPath,
		})
	} else {
		for _, candidate := range []string{"master", "main", "trunk"} {
			_, err = git.Clone(ctx, p, &git.CloneOptions{
				URL:          url,
				Branch:       candidate,
				SingleBranch: true,
				Depth:        1,
				SSHPath:      sshPath,
			})
			if err == nil {
				break
			}
		}
	}
	if err != nil {
		return "", ui.ReportError("Error while cloning '%s': %v", url, err)
	}
	successfullyCloned = true
	return p, nil
}
