// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUI struct {
	messages []string
}

func (ui *testUI) ReportError(format string, a ...interface{}) error {
	ui.messages = append(ui.messages, fmt.Sprintf("Error: "+format, a...))
	return ErrAlreadyReported
}

func (ui *testUI) ReportWarning(format string, a ...interface{}) {
	ui.messages = append(ui.messages, fmt.Sprintf("Warning: "+format, a...))
}

func (ui *testUI) ReportInfo(format string, a ...interface{}) {
	ui.messages = append(ui.messages, fmt.Sprintf("Info: "+format, a...))
}

func Test_ParseConstraints(t *testing.T) {
	t.Run("Good", func(t *testing.T) {
		ui := &testUI{}
		c, err := ParseConstraintsString(`# Constraints for the test project.
# Keep in sync with package.yaml.

numpy==1.18.1
google-cloud-storage==2.7.0
typing_extensions==4.5.0
ruamel.yaml==0.17.21
`, ui)
		require.NoError(t, err)
		assert.Len(t, ui.messages, 0)

		require.Len(t, c.Pins, 4)
		assert.Equal(t, "numpy", c.Pins[0].Name)
		assert.Equal(t, "1.18.1", c.Pins[0].Version)
		assert.Equal(t, "google-cloud-storage", c.Pins[1].Name)
		assert.Equal(t, "2.7.0", c.Pins[1].Version)

		pin, ok := c.Lookup("NumPy")
		assert.True(t, ok)
		assert.Equal(t, "1.18.1", pin.Version)
		_, ok = c.Lookup("pandas")
		assert.False(t, ok)

		m := c.Map()
		assert.Equal(t, "4.5.0", m["typing_extensions"])
		assert.Equal(t, "0.17.21", m["ruamel.yaml"])
	})

	t.Run("Empty", func(t *testing.T) {
		ui := &testUI{}
		c, err := ParseConstraintsString("", ui)
		require.NoError(t, err)
		assert.Len(t, c.Pins, 0)
		assert.Equal(t, "", c.Serialize())
	})

	t.Run("Malformed line", func(t *testing.T) {
		ui := &testUI{}
		_, err := ParseConstraintsString("numpy==1.18.1\npandas>=1.0.0\n", ui)
		require.Error(t, err)
		assert.True(t, IsErrAlreadyReported(err))
		require.Len(t, ui.messages, 1)
		assert.Equal(t, "Error: Malformed line 2: 'pandas>=1.0.0'", ui.messages[0])
	})

	t.Run("Single equals", func(t *testing.T) {
		ui := &testUI{}
		_, err := ParseConstraintsString("numpy=1.18.1\n", ui)
		require.Error(t, err)
		assert.Contains(t, ui.messages[0], "Malformed line 1")
	})

	t.Run("Duplicate package", func(t *testing.T) {
		ui := &testUI{}
		_, err := ParseConstraintsString("pandas==1.0.0\nnumpy==1.18.1\nPandas==1.0.1\n", ui)
		require.Error(t, err)
		require.Len(t, ui.messages, 1)
		assert.Equal(t, "Error: Duplicate constraint for package 'Pandas' (lines 1 and 3)", ui.messages[0])
	})

	t.Run("Invalid version", func(t *testing.T) {
		ui := &testUI{}
		_, err := ParseConstraintsString("numpy==banana\n", ui)
		require.Error(t, err)
		assert.Equal(t, "Error: Invalid version for package 'numpy': 'banana'", ui.messages[0])
	})

	t.Run("Invalid name", func(t *testing.T) {
		ui := &testUI{}
		_, err := ParseConstraintsString("-numpy==1.18.1\n", ui)
		require.Error(t, err)
		assert.Equal(t, "Error: Invalid package name on line 1: '-numpy'", ui.messages[0])
	})
}

func Test_SerializeConstraints(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		ui := &testUI{}
		content := `# Header comment.

numpy==1.18.1

# Storage.
google-cloud-storage==2.7.0
`
		c, err := ParseConstraintsString(content, ui)
		require.NoError(t, err)
		assert.Equal(t, content, c.Serialize())
	})

	t.Run("Normalized", func(t *testing.T) {
		ui := &testUI{}
		c, err := ParseConstraintsString(`# Header.
numpy==1.18.1
Click==8.0.0
google-cloud-storage==2.7.0
`, ui)
		require.NoError(t, err)
		assert.Equal(t, `# Header.
Click==8.0.0
google-cloud-storage==2.7.0
numpy==1.18.1
`, c.Normalized())
	})

	t.Run("SetPins keeps leading comments", func(t *testing.T) {
		ui := &testUI{}
		c, err := ParseConstraintsString(`# Header.

numpy==1.18.1
`, ui)
		require.NoError(t, err)
		p1, err := NewPin("requests", "2.28.0")
		require.NoError(t, err)
		p2, err := NewPin("numpy", "1.19.0")
		require.NoError(t, err)
		c.SetPins([]Pin{p1, p2})
		assert.Equal(t, `# Header.

numpy==1.19.0
requests==2.28.0
`, c.Serialize())
	})
}

func Test_IsValidPackageName(t *testing.T) {
	assert.True(t, IsValidPackageName("numpy"))
	assert.True(t, IsValidPackageName("ruamel.yaml"))
	assert.True(t, IsValidPackageName("typing_extensions"))
	assert.True(t, IsValidPackageName("google-cloud-storage"))
	assert.True(t, IsValidPackageName("a"))
	assert.False(t, IsValidPackageName(""))
	assert.False(t, IsValidPackageName("-numpy"))
	assert.False(t, IsValidPackageName("numpy-"))
	assert.False(t, IsValidPackageName(".numpy"))
	assert.False(t, IsValidPackageName("num py"))
}
