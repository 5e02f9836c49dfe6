// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/pinlock/pinlock/pkg/pin"
	"github.com/pinlock/pinlock/pkg/tracking"
)

type Config interface {
	GetProjectCachePaths() ([]string, error)
	GetConstraintsPatterns() []string
}

type CobraCommand func(cmd *cobra.Command, args []string)
type CobraErrorCommand func(cmd *cobra.Command, args []string) error
type Run func(CobraErrorCommand) CobraCommand

type pinHandler struct {
	cfg   Config
	ui    pin.UI
	track tracking.Track
}

// Pin builds all pin-verification commands.
// The given 'run' function wraps every command execution; it is where the
// caller translates errors into exit codes.
func Pin(run Run, track tracking.Track, config Config, ui pin.UI) ([]*cobra.Command, error) {

	// Intercepts any error and checks if it is an already-reported error.
	// If it is, replaces it with a silent error.
	// Otherwise returns it to the caller.
	// Also wraps the call into the given 'run' function.
	errorRun := func(f CobraErrorCommand) CobraCommand {
		return run(func(cmd *cobra.Command, args []string) error {
			err := f(cmd, args)

			if pin.IsErrAlreadyReported(err) {
				return newExitError(1)
			}
			return err
		})
	}

	if ui == nil {
		ui = pin.FmtUI
	}

	handler := &pinHandler{
		cfg:   config,
		ui:    ui,
		track: track,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Creates a new manifest and constraints file in the current directory",
		Long: `Initializes the current directory as the root of a project.

This is done by creating a 'package.yaml' and 'constraints.txt' file.

If the --project-root flag is used, initializes that directory instead.`,
		Run:  errorRun(handler.pinInit),
		Args: cobra.NoArgs,
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Verifies the constraints file against the manifest's lower bounds",
		Long: `Checks that every pin of the constraints file equals the lower bound
declared for the same package in the packaging manifest.

The check fails when a shared package's pinned version differs from its
declared lower bound. Packages present in only one of the two files fail
the check as well; use '--allow-missing' to tolerate dependencies without
a pin, and '--allow-orphans' to tolerate pins without a manifest entry.

With '--git', the project is cloned (or updated) in the local cache and
checked there instead of on disk.`,
		Example: `  # Check the project in the current directory.
  pinlock check

  # Check a project somewhere else.
  pinlock check --project-root=../service

  # Check a project directly from its repository.
  pinlock check --git github.com/example/service --branch main

  # Only verify packages that are pinned on both sides.
  pinlock check --allow-missing --allow-orphans
`,
		Run:  errorRun(handler.pinCheck),
		Args: cobra.NoArgs,
	}
	checkCmd.Flags().String("git", "", "Check a remote project by git URL")
	checkCmd.Flags().String("branch", "", "Branch to check out with --git")
	checkCmd.Flags().String("ssh-key", "", "Private key for ssh git URLs")
	checkCmd.Flags().Bool("allow-missing", false, "Tolerate bounded dependencies without a pin")
	checkCmd.Flags().Bool("allow-orphans", false, "Tolerate pins without a manifest entry")
	checkCmd.Flags().StringP("output", "o", "list", "Defines the output format (valid: 'list', 'json')")

	pinsCmd := &cobra.Command{
		Use:   "pins",
		Short: "Lists all pins of the project's constraints file",
		Long: `Lists the parsed pins of the constraints file.

With '--recursive', walks the project tree and lists the pins of every
constraints file matching the configured patterns.`,
		Run:  errorRun(handler.pinList),
		Args: cobra.NoArgs,
	}
	pinsCmd.Flags().BoolP("recursive", "r", false, "Discover all constraints files in the project tree")
	pinsCmd.Flags().StringP("output", "o", "list", "Defines the output format (valid: 'list', 'json')")

	fmtCmd := &cobra.Command{
		Use:   "fmt",
		Short: "Normalizes the constraints file",
		Long: `Normalizes the constraints file: the leading comment block is kept and
all dependency lines are sorted by package name.

By default prints a diff and fails if the file is not normalized.
With '--write', rewrites the file in place instead.`,
		Run:  errorRun(handler.pinFmt),
		Args: cobra.NoArgs,
	}
	fmtCmd.Flags().BoolP("write", "w", false, "Rewrite the file instead of printing a diff")

	bumpCmd := &cobra.Command{
		Use:   "bump",
		Short: "Rewrites all pins from the manifest's lower bounds",
		Long: `Rewrites the constraints file so that every manifest dependency with an
explicit lower bound is pinned to exactly that bound.

Pins for packages the manifest no longer declares are dropped. Run this
after changing a lower bound in the packaging manifest.`,
		Run:  errorRun(handler.pinBump),
		Args: cobra.NoArgs,
	}

	all := []*cobra.Command{initCmd, checkCmd, pinsCmd, fmtCmd, bumpCmd}
	for _, cmd := range all {
		cmd.Flags().String("project-root", "", "Specify the project root")
	}
	return all, nil
}

type exitError struct {
	code int
}

func (e *exitError) ExitCode() int {
	return e.code
}

func (e *exitError) Silent() bool {
	return true
}

func (e *exitError) Error() string {
	return fmt.Sprintf("ExitError - exit code: %d", e.code)
}

func newExitError(code int) *exitError {
	return &exitError{
		code: code,
	}
}

func (h *pinHandler) projectPaths(cmd *cobra.Command) (*pin.ProjectPaths, error) {
	projectRoot, err := cmd.Flags().GetString("project-root")
	if err != nil {
		return nil, err
	}
	return pin.NewProjectPaths(projectRoot, "", "")
}

func (h *pinHandler) buildCache() (pin.Cache, error) {
	projectCachePaths, err := h.cfg.GetProjectCachePaths()
	if err != nil {
		return pin.Cache{}, err
	}
	return pin.NewCache(projectCachePaths, h.ui), nil
}

func (h *pinHandler) pinInit(cmd *cobra.Command, args []string) error {
	projectRoot, err := cmd.Flags().GetString("project-root")
	if err != nil {
		return err
	}
	return pin.InitDirectory(projectRoot, h.ui)
}

func (h *pinHandler) pinCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	gitURL, err := cmd.Flags().GetString("git")
	if err != nil {
		return err
	}
	allowMissing, err := cmd.Flags().GetBool("allow-missing")
	if err != nil {
		return err
	}
	allowOrphans, err := cmd.Flags().GetBool("allow-orphans")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	isJson := output == "json"

	var paths *pin.ProjectPaths
	if gitURL != "" {
		branch, err := cmd.Flags().GetString("branch")
		if err != nil {
			return err
		}
		sshKey, err := cmd.Flags().GetString("ssh-key")
		if err != nil {
			return err
		}
		cache, err := h.buildCache()
		if err != nil {
			return err
		}
		checkout, err := pin.FetchProject(ctx, cache, gitURL, branch, sshKey, h.ui)
		if err != nil {
			return err
		}
		paths, err = pin.NewProjectPaths(checkout, "", "")
		if err != nil {
			return err
		}
	} else {
		paths, err = h.projectPaths(cmd)
		if err != nil {
			return err
		}
	}

	constraints, manifest, err := pin.ReadProject(paths, h.ui)
	if err != nil {
		return err
	}

	report := pin.Check(constraints, manifest, pin.Policy{
		AllowMissingPins: allowMissing,
		AllowOrphanPins:  allowOrphans,
	})

	h.track(ctx, &tracking.TrackingEvent{
		Category: "pin",
		Action:   "check",
		Fields: map[string]string{
			"pins":     fmt.Sprint(len(constraints.Pins)),
			"failures": fmt.Sprint(len(report.Failures())),
		},
	})

	if isJson {
		md, err := json.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Println(string(md))
		if !report.Ok() {
			return newExitError(1)
		}
		return nil
	}

	failed := false
	for _, finding := range report.Findings {
		if report.IsFailure(finding) {
			h.ui.ReportError("%s", finding.Message)
			failed = true
		} else {
			h.ui.ReportWarning("%s", finding.Message)
		}
	}
	if failed {
		return newExitError(1)
	}
	h.ui.ReportInfo("Verified %d pins against '%s'", report.CheckedPins, paths.ManifestFile)
	return nil
}

func (h *pinHandler) pinList(cmd *cobra.Command, args []string) error {
	recursive, err := cmd.Flags().GetBool("recursive")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	isJson := output == "json"

	paths, err := h.projectPaths(cmd)
	if err != nil {
		return err
	}

	files := []string{paths.ConstraintsFile}
	if recursive {
		files, err = pin.DiscoverConstraintsFiles(paths.ProjectRootPath, h.cfg.GetConstraintsPatterns(), h.ui)
		if err != nil {
			return err
		}
	}

	for _, file := range files {
		constraints, err := pin.ReadConstraintsFile(file, h.ui)
		if err != nil {
			return err
		}
		if isJson {
			md, err := json.Marshal(constraints.Pins)
			if err != nil {
				return err
			}
			fmt.Println(string(md))
			continue
		}
		fmt.Printf("%s:\n", file)
		for _, p := range constraints.Pins {
			fmt.Printf("  %s - %s\n", p.Name, p.Version)
		}
	}
	return nil
}

func (h *pinHandler) pinFmt(cmd *cobra.Command, args []string) error {
	write, err := cmd.Flags().GetBool("write")
	if err != nil {
		return err
	}
	paths, err := h.projectPaths(cmd)
	if err != nil {
		return err
	}
	constraints, err := pin.ReadConstraintsFile(paths.ConstraintsFile, h.ui)
	if err != nil {
		return err
	}

	original := constraints.Serialize()
	normalized := constraints.Normalized()
	if original == normalized {
		return nil
	}

	if write {
		constraints.SetPins(constraints.Pins)
		return constraints.WriteToFile()
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(normalized),
		FromFile: paths.ConstraintsFile,
		ToFile:   paths.ConstraintsFile + " (normalized)",
		Context:  3,
	})
	if err != nil {
		return err
	}
	fmt.Print(diff)
	return newExitError(1)
}

func (h *pinHandler) pinBump(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	projectRoot, err := cmd.Flags().GetString("project-root")
	if err != nil {
		return err
	}
	paths, err := pin.NewProjectPaths(projectRoot, "", "")
	if err != nil {
		return err
	}
	if projectRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if cwd != paths.ProjectRootPath {
			// Add the project-root flag, and rebuild the command line.
			args := os.Args
			args = append(args, "--project-root="+paths.ProjectRootPath)
			quoted := []string{}
			for _, arg := range args {
				quoted = append(quoted, shellescape.Quote(arg))
			}
			withFlag := strings.Join(quoted, " ")
			h.ui.ReportError(`Command must be executed in project root.
  Run 'pinlock init' first to create a new project here, or
  Run with '--project-root': ` + withFlag)
			return newExitError(1)
		}
	}

	constraints, manifest, err := pin.ReadProject(paths, h.ui)
	if err != nil {
		return err
	}
	changed, err := pin.Bump(constraints, manifest)
	if err != nil {
		return err
	}
	if !changed {
		h.ui.ReportInfo("Pins already match the declared lower bounds")
		return nil
	}
	if err := constraints.WriteToFile(); err != nil {
		return err
	}

	h.track(ctx, &tracking.TrackingEvent{
		Category: "pin",
		Action:   "bump",
		Fields: map[string]string{
			"pins": fmt.Sprint(len(constraints.Pins)),
		},
	})

	h.ui.ReportInfo("Rewrote %d pins in '%s'", len(constraints.Pins), paths.ConstraintsFile)
	return nil
}
