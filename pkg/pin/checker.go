// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

import (
	"fmt"
	"strings"
)

type FindingKind string

const (
	// FindingMismatch: a package is pinned to a version that differs from
	// the manifest's declared lower bound.
	FindingMismatch FindingKind = "mismatch"
	// FindingMissingPin: the manifest declares a lower bound, but the
	// constraints file has no pin for the package.
	FindingMissingPin FindingKind = "missing-pin"
	// FindingOrphanPin: the constraints file pins a package the manifest
	// doesn't know about.
	FindingOrphanPin FindingKind = "orphan-pin"
	// FindingNoLowerBound: a manifest dependency declares no explicit lower
	// bound, so there is nothing to verify its pin against.
	FindingNoLowerBound FindingKind = "no-lower-bound"
)

// Finding is a single checker result for one package.
type Finding struct {
	Kind     FindingKind `json:"kind"`
	Package  string      `json:"package"`
	Pinned   string      `json:"pinned,omitempty"`
	Declared string      `json:"declared,omitempty"`
	Message  string      `json:"message"`
}

// Policy decides which findings count as failures.
// Mismatches always fail. Packages present in only one of the two sources
// fail by default but can be tolerated.
type Policy struct {
	AllowMissingPins bool
	AllowOrphanPins  bool
}

// Report is the result of checking a constraints file against a manifest.
type Report struct {
	Findings []Finding `json:"findings"`

	// CheckedPins is the number of pins that were verified against a
	// declared lower bound.
	CheckedPins int `json:"checked_pins"`

	policy Policy
}

// Failures returns the findings that must fail the check under the report's
// policy.
func (r *Report) Failures() []Finding {
	failures := []Finding{}
	for _, f := range r.Findings {
		if r.isFailure(f.Kind) {
			failures = append(failures, f)
		}
	}
	return failures
}

// Ok reports whether the check passed.
func (r *Report) Ok() bool {
	return len(r.Failures()) == 0
}

// IsFailure reports whether the finding fails the check under the report's
// policy.
func (r *Report) IsFailure(f Finding) bool {
	return r.isFailure(f.Kind)
}

func (r *Report) isFailure(kind FindingKind) bool {
	switch kind {
	case FindingMismatch:
		return true
	case FindingMissingPin:
		return !r.policy.AllowMissingPins
	case FindingOrphanPin:
		return !r.policy.AllowOrphanPins
	default:
		return false
	}
}

// Check verifies that every pin of the constraints file equals the lower
// bound the manifest declares for the same package.
func Check(c *ConstraintsFile, m *Manifest, policy Policy) *Report {
	report := &Report{
		Findings: []Finding{},
		policy:   policy,
	}

	bounds := map[string]Bound{}
	for _, bound := range m.LowerBounds() {
		bounds[strings.ToLower(bound.Name)] = bound
	}
	unbounded := map[string]bool{}
	for _, name := range m.UnboundedDeps() {
		unbounded[strings.ToLower(name)] = true
	}

	pinned := map[string]bool{}
	for _, pin := range c.Pins {
		folded := strings.ToLower(pin.Name)
		pinned[folded] = true

		bound, ok := bounds[folded]
		if !ok {
			if unbounded[folded] {
				report.Findings = append(report.Findings, Finding{
					Kind:    FindingNoLowerBound,
					Package: pin.Name,
					Pinned:  pin.Version,
					Message: fmt.Sprintf("'%s' is pinned to %s but declares no lower bound", pin.Name, pin.Version),
				})
				continue
			}
			report.Findings = append(report.Findings, Finding{
				Kind:    FindingOrphanPin,
				Package: pin.Name,
				Pinned:  pin.Version,
				Message: fmt.Sprintf("'%s' is pinned to %s but is not a dependency", pin.Name, pin.Version),
			})
			continue
		}

		report.CheckedPins++
		if !pin.Semver().Equal(bound.Semver()) {
			report.Findings = append(report.Findings, Finding{
				Kind:     FindingMismatch,
				Package:  pin.Name,
				Pinned:   pin.Version,
				Declared: bound.Version,
				Message:  fmt.Sprintf("'%s' is pinned to %s but the declared lower bound is %s", pin.Name, pin.Version, bound.Version),
			})
		}
	}

	for _, bound := range m.LowerBounds() {
		if pinned[strings.ToLower(bound.Name)] {
			continue
		}
		report.Findings = append(report.Findings, Finding{
			Kind:     FindingMissingPin,
			Package:  bound.Name,
			Declared: bound.Version,
			Message:  fmt.Sprintf("'%s' declares lower bound %s but has no pin", bound.Name, bound.Version),
		})
	}

	return report
}

// Bump rewrites the pins of the constraints file so that every manifest
// dependency with an explicit lower bound is pinned to exactly that bound.
// Pins for dependencies without a lower bound are kept as they are.
// Orphaned pins are dropped. Returns whether anything changed.
func Bump(c *ConstraintsFile, m *Manifest) (bool, error) {
	before := c.Serialize()
	pins := []Pin{}
	for _, bound := range m.LowerBounds() {
		p, err := NewPin(bound.Name, bound.Version)
		if err != nil {
			return false, err
		}
		pins = append(pins, p)
	}
	for _, name := range m.UnboundedDeps() {
		if p, ok := c.Lookup(name); ok {
			pins = append(pins, p)
		}
	}
	c.SetPins(pins)
	return c.Serialize() != before, nil
}
