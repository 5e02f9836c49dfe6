// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

const (
	// DefaultConstraintsName is the file holding the exact version pins.
	DefaultConstraintsName = "constraints.txt"

	// DefaultManifestName is the packaging manifest that declares the
	// version ranges the pins must mirror.
	DefaultManifestName = "package.yaml"

	// ProjectCachePath provides the path, relative to the cache root,
	// into which remote projects are checked out.
	ProjectCachePath = "projects"
)
