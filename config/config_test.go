// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_UserConfigFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "config-test")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})

	configDir := filepath.Join(dir, "pinlock")
	os.Setenv(UserConfigDirEnv, configDir)
	t.Cleanup(func() {
		os.Unsetenv(UserConfigDirEnv)
	})

	path, ok := UserConfigFile()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(configDir, "config.yaml"), path)

	// The directory is created so a config file can be dropped in.
	info, err := os.Stat(configDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func Test_ExpandWithDefault(t *testing.T) {
	mapping := func(env string) (string, bool) {
		if env == "SET" {
			return "value", true
		}
		return "", false
	}
	assert.Equal(t, "value", ExpandWithDefault("${SET}", mapping))
	assert.Equal(t, "value", ExpandWithDefault("${SET:fallback}", mapping))
	assert.Equal(t, "fallback", ExpandWithDefault("${UNSET:fallback}", mapping))
	assert.Equal(t, "", ExpandWithDefault("${UNSET}", mapping))
	assert.Equal(t, "plain", ExpandWithDefault("plain", mapping))
}
