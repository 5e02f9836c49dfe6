// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

import (
	"testing"

	"github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseManifest(t *testing.T) {
	t.Run("Good", func(t *testing.T) {
		ui := &testUI{}
		m, err := ParseManifestString(`
name: analyzer
description: Test project.
dependencies:
  numpy: ">=1.18.1"
  google-cloud-storage: ">=2.7.0,<3.0.0"
  click: "^8.0.0"
  requests: "~2.28.0"
  pyyaml: "<7.0.0"
`, ui)
		require.NoError(t, err)
		assert.Len(t, ui.messages, 0)
		assert.Equal(t, "analyzer", m.Name)
		assert.Len(t, m.Deps, 5)
	})

	t.Run("Unknown key", func(t *testing.T) {
		ui := &testUI{}
		_, err := ParseManifestString(`
name: analyzer
dependncies:
  numpy: ">=1.18.1"
`, ui)
		require.Error(t, err)
		assert.True(t, IsErrAlreadyReported(err))
		assert.Contains(t, ui.messages[0], "Failed to parse manifest")
	})

	t.Run("Bad constraint", func(t *testing.T) {
		ui := &testUI{}
		_, err := ParseManifestString(`
dependencies:
  numpy: "around 1.18"
`, ui)
		require.Error(t, err)
		assert.Equal(t, "Error: Dependency 'numpy' has invalid version constraint: 'around 1.18'", ui.messages[0])
	})

	t.Run("Missing constraint", func(t *testing.T) {
		ui := &testUI{}
		_, err := ParseManifestString(`
dependencies:
  numpy: ""
`, ui)
		require.Error(t, err)
		assert.Equal(t, "Error: Dependency 'numpy' is missing a version constraint", ui.messages[0])
	})

	t.Run("Bad name", func(t *testing.T) {
		ui := &testUI{}
		_, err := ParseManifestString(`
dependencies:
  -numpy: ">=1.18.1"
`, ui)
		require.Error(t, err)
		assert.Equal(t, "Error: Invalid package name: '-numpy'", ui.messages[0])
	})
}

func Test_LowerBounds(t *testing.T) {
	ui := &testUI{}
	m, err := ParseManifestString(`
dependencies:
  numpy: ">=1.18.1"
  google-cloud-storage: ">=2.7.0,<3.0.0"
  click: "^8.0.1"
  requests: "~2.28.3"
  pinned: "==1.2.3"
  pyyaml: "<7.0.0"
`, ui)
	require.NoError(t, err)

	bounds := m.LowerBounds()
	require.Len(t, bounds, 5)
	byName := map[string]string{}
	for _, b := range bounds {
		byName[b.Name] = b.Version
	}
	assert.Equal(t, "1.18.1", byName["numpy"])
	assert.Equal(t, "2.7.0", byName["google-cloud-storage"])
	assert.Equal(t, "8.0.1", byName["click"])
	assert.Equal(t, "2.28.3", byName["requests"])
	assert.Equal(t, "1.2.3", byName["pinned"])

	// Sorted by name.
	assert.Equal(t, "click", bounds[0].Name)
	assert.Equal(t, "requests", bounds[len(bounds)-1].Name)

	assert.Equal(t, []string{"pyyaml"}, m.UnboundedDeps())
}

func Test_ParseConstraint(t *testing.T) {
	check := func(t *testing.T, constraint string, v string, expected bool) {
		c, err := parseConstraint(constraint)
		require.NoError(t, err)
		parsed, err := version.NewVersion(v)
		require.NoError(t, err)
		assert.Equal(t, expected, c.Check(parsed), "%s against %s", v, constraint)
	}

	t.Run("Caret", func(t *testing.T) {
		check(t, "^1.2.3", "1.2.3", true)
		check(t, "^1.2.3", "1.9.9", true)
		check(t, "^1.2.3", "2.0.0", false)
		check(t, "^1.2.3", "1.2.2", false)
	})

	t.Run("Tilde", func(t *testing.T) {
		check(t, "~1.2.3", "1.2.3", true)
		check(t, "~1.2.3", "1.2.9", true)
		check(t, "~1.2.3", "1.3.0", false)
		check(t, "~1.2.3", "1.2.2", false)
	})

	t.Run("Range", func(t *testing.T) {
		check(t, ">=2.7.0,<3.0.0", "2.7.0", true)
		check(t, ">=2.7.0,<3.0.0", "2.99.0", true)
		check(t, ">=2.7.0,<3.0.0", "3.0.0", false)
	})

	t.Run("Bad", func(t *testing.T) {
		_, err := parseConstraint("around 1.18")
		assert.Error(t, err)
		_, err = parseConstraint("^banana")
		assert.Error(t, err)
	})
}
