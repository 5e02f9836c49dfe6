// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

import (
	"io/ioutil"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
)

// Pin is an exact version constraint for a single package.
type Pin struct {
	Name    string `json:"name"`
	Version string `json:"version"`

	v *version.Version
}

// Semver returns the parsed version of the pin.
func (p Pin) Semver() *version.Version {
	return p.v
}

// NewPin creates a pin for the given package name and exact version.
func NewPin(name string, versionStr string) (Pin, error) {
	v, err := version.NewVersion(versionStr)
	if err != nil {
		return Pin{}, err
	}
	return Pin{
		Name:    name,
		Version: versionStr,
		v:       v,
	}, nil
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineComment
	linePin
)

// constraintsLine keeps the original shape of a parsed line so the file can
// be written back byte-identical.
type constraintsLine struct {
	kind lineKind
	// Verbatim text for comment lines. Empty for blank and pin lines.
	text string
	// Index into Pins for pin lines.
	pin int
}

// ConstraintsFile is a parsed constraints file: a flat list of comment lines
// and 'name==version' pins.
type ConstraintsFile struct {
	path  string
	lines []constraintsLine

	// Pins in file order.
	Pins []Pin
}

var (
	// The full grammar of a dependency line. Anything that is neither a
	// comment nor matches this is a malformed record.
	pinLineRegexp = regexp.MustCompile(`^[A-Za-z0-9_.\-]+==[A-Za-z0-9.\-]+$`)

	// Package names must not start or end with a separator character.
	pkgNameRegexp = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9_.\-]*[A-Za-z0-9])?$`)
)

// IsValidPackageName reports whether name follows the package naming
// convention of constraint and manifest files.
func IsValidPackageName(name string) bool {
	return pkgNameRegexp.MatchString(name)
}

func newConstraintsFile(path string) *ConstraintsFile {
	return &ConstraintsFile{
		path: path,
	}
}

// ReadConstraintsFile parses the constraints file at the given path.
func ReadConstraintsFile(path string, ui UI) (*ConstraintsFile, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := newConstraintsFile(path)
	if err := c.parse(string(b), ui); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseConstraintsString parses the given content as a constraints file.
func ParseConstraintsString(content string, ui UI) (*ConstraintsFile, error) {
	c := newConstraintsFile("")
	if err := c.parse(content, ui); err != nil {
		return nil, err
	}
	return c, nil
}

// parse processes the content line by line.
// Malformed records abort parsing. Skipping them silently could mask a stale
// pin, so nothing is auto-corrected.
func (c *ConstraintsFile) parse(content string, ui UI) error {
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		// Trailing newline. Don't treat it as a blank record.
		lines = lines[:len(lines)-1]
	}
	seen := map[string]int{}
	for i, line := range lines {
		switch {
		case line == "":
			c.lines = append(c.lines, constraintsLine{kind: lineBlank})

		case strings.HasPrefix(line, "#"):
			c.lines = append(c.lines, constraintsLine{
				kind: lineComment,
				text: line,
			})

		case pinLineRegexp.MatchString(line):
			sep := strings.Index(line, "==")
			name := line[:sep]
			versionStr := line[sep+2:]
			if !IsValidPackageName(name) {
				return ui.ReportError("Invalid package name on line %d: '%s'", i+1, name)
			}
			folded := strings.ToLower(name)
			if prev, ok := seen[folded]; ok {
				return ui.ReportError("Duplicate constraint for package '%s' (lines %d and %d)", name, prev+1, i+1)
			}
			pin, err := NewPin(name, versionStr)
			if err != nil {
				return ui.ReportError("Invalid version for package '%s': '%s'", name, versionStr)
			}
			seen[folded] = i
			c.lines = append(c.lines, constraintsLine{
				kind: linePin,
				pin:  len(c.Pins),
			})
			c.Pins = append(c.Pins, pin)

		default:
			return ui.ReportError("Malformed line %d: '%s'", i+1, line)
		}
	}
	return nil
}

// Lookup returns the pin for the given package name.
// Names are compared case-insensitively.
func (c *ConstraintsFile) Lookup(name string) (Pin, bool) {
	folded := strings.ToLower(name)
	for _, pin := range c.Pins {
		if strings.ToLower(pin.Name) == folded {
			return pin, true
		}
	}
	return Pin{}, false
}

// Map returns the name -> version mapping of the file.
func (c *ConstraintsFile) Map() map[string]string {
	result := map[string]string{}
	for _, pin := range c.Pins {
		result[pin.Name] = pin.Version
	}
	return result
}

// Serialize writes the file back the way it was parsed.
// Parsing and serializing is a byte-identical round trip.
func (c *ConstraintsFile) Serialize() string {
	var b strings.Builder
	for _, line := range c.lines {
		switch line.kind {
		case lineBlank:
		case lineComment:
			b.WriteString(line.text)
		case linePin:
			pin := c.Pins[line.pin]
			b.WriteString(pin.Name)
			b.WriteString("==")
			b.WriteString(pin.Version)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Normalized returns the canonical serialization: the leading comment block
// is kept, and all pins are sorted by (folded) package name.
func (c *ConstraintsFile) Normalized() string {
	var b strings.Builder
	for _, line := range c.lines {
		if line.kind == linePin {
			break
		}
		if line.kind == lineComment {
			b.WriteString(line.text)
		}
		b.WriteString("\n")
	}
	sorted := make([]Pin, len(c.Pins))
	copy(sorted, c.Pins)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	for _, pin := range sorted {
		b.WriteString(pin.Name)
		b.WriteString("==")
		b.WriteString(pin.Version)
		b.WriteString("\n")
	}
	return b.String()
}

// SetPins replaces all pins of the file.
// The leading comment block is preserved; everything after it is rewritten
// as sorted dependency lines.
func (c *ConstraintsFile) SetPins(pins []Pin) {
	var kept []constraintsLine
	for _, line := range c.lines {
		if line.kind == linePin {
			break
		}
		kept = append(kept, line)
	}
	sorted := make([]Pin, len(pins))
	copy(sorted, pins)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	c.Pins = sorted
	c.lines = kept
	for i := range c.Pins {
		c.lines = append(c.lines, constraintsLine{kind: linePin, pin: i})
	}
}

// WriteToFile writes the file back to the path it was read from.
func (c *ConstraintsFile) WriteToFile() error {
	return ioutil.WriteFile(c.path, []byte(c.Serialize()), 0644)
}
