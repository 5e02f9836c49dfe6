// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package git

import (
	"context"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// CloneOptions describes how to clone a repository.
type CloneOptions struct {
	URL          string
	Branch       string
	SingleBranch bool
	Depth        int
	// SSHPath is the path of the private key used for ssh URLs. Optional.
	SSHPath string
}

// Clone clones the repository into the given directory.
// Returns the hash of the checked out commit.
func Clone(ctx context.Context, dir string, options *CloneOptions) (string, error) {
	url := options.URL
	if !filepath.IsAbs(url) && !strings.Contains(url, "://") && !strings.Contains(url, "@") {
		url = "https://" + url
	}

	cloneOptions := &gogit.CloneOptions{
		URL:          url,
		SingleBranch: options.SingleBranch,
		Depth:        options.Depth,
	}
	if options.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(options.Branch)
	}
	auth, err := authFor(options.SSHPath)
	if err != nil {
		return "", err
	}
	cloneOptions.Auth = auth

	repository, err := gogit.PlainCloneContext(ctx, dir, false, cloneOptions)
	if err != nil {
		return "", err
	}
	head, err := repository.Head()
	if err != nil {
		return "", err
	}
	return head.Hash().String(), nil
}

// Pull updates the repository at the given directory.
// An already up-to-date repository is not an error.
func Pull(dir string) error {
	repository, err := gogit.PlainOpen(dir)
	if err != nil {
		return err
	}
	wt, err := repository.Worktree()
	if err != nil {
		return err
	}
	err = wt.Pull(&gogit.PullOptions{})
	if err == gogit.NoErrAlreadyUpToDate {
		return nil
	}
	return err
}

func authFor(sshPath string) (transport.AuthMethod, error) {
	if sshPath == "" {
		return nil, nil
	}
	return ssh.NewPublicKeysFromFile("git", sshPath, "")
}
