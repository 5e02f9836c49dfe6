// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

import (
	"io/ioutil"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
	yaml "gopkg.in/yaml.v2"
)

// DependencyMap maps a package name to its version constraint string.
type DependencyMap map[string]string

// Manifest is the packaging manifest of a project. It declares, for every
// dependency, the range of versions the project accepts. The constraints
// file mirrors the lower bounds of these ranges as exact pins.
type Manifest struct {
	path string

	Name        string        `yaml:"name,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Deps        DependencyMap `yaml:"dependencies,omitempty"`
}

// Bound is the explicit lower bound a manifest declares for a package.
type Bound struct {
	Name    string
	Version string

	v *version.Version
}

// Semver returns the parsed version of the bound.
func (b Bound) Semver() *version.Version {
	return b.v
}

func newManifest(path string) *Manifest {
	return &Manifest{
		path: path,
		Deps: DependencyMap{},
	}
}

// ReadManifest reads and validates the manifest at the given path.
func ReadManifest(path string, ui UI) (*Manifest, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := newManifest(path)
	if err := m.parse(b, ui); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseManifestString parses the given content as a manifest.
func ParseManifestString(content string, ui UI) (*Manifest, error) {
	m := newManifest("")
	if err := m.parse([]byte(content), ui); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) parse(b []byte, ui UI) error {
	if err := yaml.UnmarshalStrict(b, m); err != nil {
		return ui.ReportError("Failed to parse manifest: %v", err)
	}
	return m.validate(ui)
}

func (m *Manifest) validate(ui UI) error {
	for _, name := range m.sortedDepNames() {
		constraint := m.Deps[name]
		if !IsValidPackageName(name) {
			return ui.ReportError("Invalid package name: '%s'", name)
		}
		if constraint == "" {
			return ui.ReportError("Dependency '%s' is missing a version constraint", name)
		}
		if _, err := parseConstraint(constraint); err != nil {
			return ui.ReportError("Dependency '%s' has invalid version constraint: '%s'", name, constraint)
		}
	}
	return nil
}

func (m *Manifest) sortedDepNames() []string {
	names := make([]string, 0, len(m.Deps))
	for name := range m.Deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LowerBounds returns the explicit lower bounds of the manifest, sorted by
// package name. Dependencies whose constraint has no lower-bound term are
// not included.
func (m *Manifest) LowerBounds() []Bound {
	bounds := []Bound{}
	for _, name := range m.sortedDepNames() {
		if b, ok := lowerBoundOf(m.Deps[name]); ok {
			b.Name = name
			bounds = append(bounds, b)
		}
	}
	return bounds
}

// UnboundedDeps returns the dependencies that declare no explicit lower
// bound, sorted by package name.
func (m *Manifest) UnboundedDeps() []string {
	unbounded := []string{}
	for _, name := range m.sortedDepNames() {
		if _, ok := lowerBoundOf(m.Deps[name]); !ok {
			unbounded = append(unbounded, name)
		}
	}
	return unbounded
}

// WriteToFile writes the manifest back to the path it was read from.
func (m *Manifest) WriteToFile() error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(m.path, b, 0644)
}

// parseConstraint parses a constraint string of a manifest.
// In addition to the operators of go-version (">=1.0.0,<2.0.0") it accepts
// '^' (same major) and '~' (same minor) shorthands.
func parseConstraint(constraint string) (version.Constraints, error) {
	terms := strings.Split(constraint, ",")
	expanded := []string{}
	for _, term := range terms {
		term = strings.TrimSpace(term)
		switch {
		case strings.HasPrefix(term, "=="):
			// go-version only knows the single '=' form.
			expanded = append(expanded, "="+strings.TrimSpace(term[2:]))
		case strings.HasPrefix(term, "^"):
			v, err := version.NewVersion(term[1:])
			if err != nil {
				return nil, err
			}
			expanded = append(expanded, ">="+term[1:], "<"+nextSegment(v.Segments(), 0))
		case strings.HasPrefix(term, "~"):
			v, err := version.NewVersion(term[1:])
			if err != nil {
				return nil, err
			}
			expanded = append(expanded, ">="+term[1:], "<"+nextSegment(v.Segments(), 1))
		default:
			expanded = append(expanded, term)
		}
	}
	return version.NewConstraint(strings.Join(expanded, ","))
}

// nextSegment builds the exclusive upper bound for '^' (index 0) and '~'
// (index 1) constraints: the given segment incremented, the rest zeroed.
func nextSegment(segments []int, index int) string {
	parts := []string{"0", "0", "0"}
	for i := 0; i < index; i++ {
		if i < len(segments) {
			parts[i] = strconv.Itoa(segments[i])
		}
	}
	bumped := 0
	if index < len(segments) {
		bumped = segments[index]
	}
	parts[index] = strconv.Itoa(bumped + 1)
	return strings.Join(parts, ".")
}

// lowerBoundOf extracts the lower bound of a constraint string.
// '>=', '=', '==', '^' and '~' terms all pin a lowest acceptable version.
func lowerBoundOf(constraint string) (Bound, bool) {
	for _, term := range strings.Split(constraint, ",") {
		term = strings.TrimSpace(term)
		var operand string
		switch {
		case strings.HasPrefix(term, ">="):
			operand = strings.TrimSpace(term[2:])
		case strings.HasPrefix(term, "=="):
			operand = strings.TrimSpace(term[2:])
		case strings.HasPrefix(term, "^"), strings.HasPrefix(term, "~"):
			operand = strings.TrimSpace(term[1:])
		case strings.HasPrefix(term, "="):
			operand = strings.TrimSpace(term[1:])
		default:
			continue
		}
		v, err := version.NewVersion(operand)
		if err != nil {
			continue
		}
		return Bound{
			Version: operand,
			v:       v,
		}, true
	}
	return Bound{}, false
}
