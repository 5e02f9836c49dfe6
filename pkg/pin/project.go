// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
)

// ProjectPaths locates the two artifacts of a project.
type ProjectPaths struct {
	// Project root.
	ProjectRootPath string

	// The path of the constraints file for the current project.
	ConstraintsFile string

	// The path of the packaging manifest for the current project.
	ManifestFile string
}

// constraintsPathForDir returns the constraints file in the given directory.
// The given dir must not be empty.
func constraintsPathForDir(dir string) string {
	if dir == "" {
		log.Fatal("Directory must not be empty")
	}
	return filepath.Join(dir, DefaultConstraintsName)
}

// manifestPathForDir returns the manifest file in the given directory.
// The given dir must not be empty.
func manifestPathForDir(dir string) string {
	if dir == "" {
		log.Fatal("Directory must not be empty")
	}
	return filepath.Join(dir, DefaultManifestName)
}

// InitDirectory initializes the project root as a checkable project.
// If no root is given, initializes the current directory instead.
func InitDirectory(projectRoot string, ui UI) error {
	dir := projectRoot
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = cwd
	}
	manifestPath := manifestPathForDir(dir)
	constraintsPath := constraintsPathForDir(dir)

	manifestExists, err := isFile(manifestPath)
	if err != nil {
		return err
	}
	constraintsExists, err := isFile(constraintsPath)
	if err != nil {
		return err
	}

	if manifestExists || constraintsExists {
		ui.ReportInfo("Directory '%s' already initialized", dir)
		return nil
	}
	err = ioutil.WriteFile(manifestPath, []byte("# Packaging manifest.\n"), 0644)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(constraintsPath, []byte("# Pins mirroring the manifest's lower bounds.\n"), 0644)
}

// NewProjectPaths finds the constraints and manifest files for a project.
//
// If the given project root is empty, searches upwards from the current
// working directory for a directory that has either file. If none is found,
// both paths point into the starting directory.
// Explicitly given paths are never overwritten.
func NewProjectPaths(projectRoot string, constraintsPath string, manifestPath string) (*ProjectPaths, error) {
	if projectRoot != "" {
		if constraintsPath == "" {
			constraintsPath = constraintsPathForDir(projectRoot)
		}
		if manifestPath == "" {
			manifestPath = manifestPathForDir(projectRoot)
		}
		return &ProjectPaths{
			ProjectRootPath: projectRoot,
			ConstraintsFile: constraintsPath,
			ManifestFile:    manifestPath,
		}, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	startDir := dir
	constraintsCandidate := ""
	manifestCandidate := ""
	for {
		constraintsCandidate = constraintsPathForDir(dir)
		manifestCandidate = manifestPathForDir(dir)

		if info, err := os.Stat(constraintsCandidate); err == nil && !info.IsDir() {
			// Found the project root.
			break
		} else if !os.IsNotExist(err) {
			return nil, err
		}

		if info, err := os.Stat(manifestCandidate); err == nil && !info.IsDir() {
			// Found the project root.
			break
		} else if !os.IsNotExist(err) {
			return nil, err
		}

		// Prepare for the next iteration.
		// If there isn't one, we assume that both files should be in the
		// starting directory.
		newDir := filepath.Dir(dir)
		if newDir == dir {
			dir = startDir
			constraintsCandidate = constraintsPathForDir(startDir)
			manifestCandidate = manifestPathForDir(startDir)
			break
		} else {
			dir = newDir
		}
	}

	if constraintsPath == "" {
		constraintsPath = constraintsCandidate
	}
	if manifestPath == "" {
		manifestPath = manifestCandidate
	}
	return &ProjectPaths{
		ProjectRootPath: dir,
		ConstraintsFile: constraintsPath,
		ManifestFile:    manifestPath,
	}, nil
}

// ReadProject reads both artifacts of the project.
// A missing constraints file is reported as an error: without it there is
// nothing to verify.
func ReadProject(paths *ProjectPaths, ui UI) (*ConstraintsFile, *Manifest, error) {
	constraintsExists, err := isFile(paths.ConstraintsFile)
	if err != nil {
		return nil, nil, err
	}
	if !constraintsExists {
		return nil, nil, ui.ReportError("No constraints file at '%s'", paths.ConstraintsFile)
	}
	manifestExists, err := isFile(paths.ManifestFile)
	if err != nil {
		return nil, nil, err
	}
	if !manifestExists {
		return nil, nil, ui.ReportError("No packaging manifest at '%s'", paths.ManifestFile)
	}

	c, err := ReadConstraintsFile(paths.ConstraintsFile, ui)
	if err != nil {
		return nil, nil, err
	}
	m, err := ReadManifest(paths.ManifestFile, ui)
	if err != nil {
		return nil, nil, err
	}
	return c, m, nil
}
