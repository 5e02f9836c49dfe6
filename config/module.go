// Copyright (C) 2024 Pinlock Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	loadConfig,
	provideConfig,
)

type Config struct {
	Port      int  `mapstructure:"port"`
	DebugPort *int `mapstructure:"debug_port"`

	// CachePath is where remote projects are checked out.
	CachePath string `mapstructure:"cache_path"`

	Projects []Project `mapstructure:"projects"`

	Logging Logging `mapstructure:"logging"`
	Metrics Metrics `mapstructure:"metrics"`
}

type Logging struct {
	Backend string            `mapstructure:"backend"`
	Level   string            `mapstructure:"level"`
	Tags    map[string]string `mapstructure:"tags"`
}

type Metrics struct {
	Enabled bool              `mapstructure:"enabled"`
	Tags    map[string]string `mapstructure:"tags"`
	Prefix  string            `mapstructure:"prefix"`
}

// Project is one watched project.
// Either Url (a git repository, cloned into the cache) or Path (a local
// directory) must be set.
type Project struct {
	Name       string `mapstructure:"name"`
	Url        string `mapstructure:"url"`
	Branch     string `mapstructure:"branch"`
	Path       string `mapstructure:"path"`
	SSHKeyFile string `mapstructure:"ssh_key_file"`

	// Overrides for the default file locations, resolved relative to the
	// project root unless absolute.
	ConstraintsFile string `mapstructure:"constraints_file"`
	ManifestFile    string `mapstructure:"manifest_file"`

	// Policy knobs, mirroring the CLI flags.
	AllowMissingPins bool `mapstructure:"allow_missing_pins"`
	AllowOrphanPins  bool `mapstructure:"allow_orphan_pins"`
}

func provideConfig(cfg *viper.Viper) (*Config, error) {
	res := &Config{}
	if err := cfg.Unmarshal(res); err != nil {
		return nil, err
	}

	return res, nil
}

func loadConfig(log fx.Printer) (*viper.Viper, error) {
	res := viper.New()

	if cfgPath, ok := os.LookupEnv("CONFIG_PATH"); ok {
		res.AddConfigPath(cfgPath)
	}
	res.AddConfigPath("./config")

	res.SetConfigName("config")

	log.Printf("loading config file %s.yaml\n", "config")
	if err := res.ReadInConfig(); err != nil {
		return nil, err
	}

	envSubstitution(res)

	return res, nil
}

func envSubstitution(v *viper.Viper) {
	for _, k := range v.AllKeys() {
		v.Set(k, recEnvSubstitution(v.Get(k)))
	}
}

func recEnvSubstitution(in interface{}) interface{} {
	switch val := in.(type) {
	case string:
		return ExpandEnv(val)
	case []string:
		for i, v := range val {
			val[i] = ExpandEnv(v)
		}
		return val
	case map[string]string:
		for k, v := range val {
			val[k] = ExpandEnv(v)
		}
		return val
	case []interface{}:
		for i, v := range val {
			val[i] = recEnvSubstitution(v)
		}
		return val
	case map[interface{}]interface{}:
		for k, v := range val {
			val[k] = recEnvSubstitution(v)
		}
		return val
	case map[string]interface{}:
		for k, v := range val {
			val[k] = recEnvSubstitution(v)
		}
		return val
	default:
		return in
	}
}

// ExpandWithDefault expands '${ENV:default}' style references in val.
func ExpandWithDefault(val string, mapping func(env string) (string, bool)) string {
	return os.Expand(val, func(env string) string {
		envSet := strings.SplitN(env, ":", 2)
		if len(envSet) > 0 {
			env = envSet[0]
			def := ""
			if len(envSet) == 2 {
				def = envSet[1]
			}
			if val, ok := mapping(env); ok {
				return val
			}
			return def
		}
		return val
	})
}

func ExpandEnv(val string) string {
	return ExpandWithDefault(val, os.LookupEnv)
}
