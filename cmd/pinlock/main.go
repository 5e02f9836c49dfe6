// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pinlock/pinlock/commands"
	"github.com/pinlock/pinlock/config"
	"github.com/pinlock/pinlock/pkg/tracking"
)

type withExitCode interface {
	ExitCode() int
}

type withSilent interface {
	Silent() bool
}

var (
	// Used for flag.
	cfgFile             string
	cacheDir            string
	shouldPrintTracking bool

	rootCmd = &cobra.Command{
		Use:              "pinlock",
		Short:            "Verify constraint pins against declared lower bounds",
		TraverseChildren: true,
	}
)

func main() {
	cobra.OnInitialize(initConfig)
	// We use the configurations in the viperConf below.
	// If we didn't want to use the globals we could also switch to
	// a PreRun function.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache", "", "cache dir")
	rootCmd.PersistentFlags().BoolVar(&shouldPrintTracking, "track", false, "Print tracking information")

	runWrapper := func(f commands.CobraErrorCommand) commands.CobraCommand {
		return func(cmd *cobra.Command, args []string) {
			err := f(cmd, args)
			if err != nil {
				_, ok := err.(withSilent)
				if !ok {
					fmt.Fprintf(os.Stderr, "Unhandled error: %v\n", err)
				}
				e, ok := err.(withExitCode)
				if ok {
					os.Exit(e.ExitCode())
				}
				os.Exit(1)
			}
		}
	}

	track := func(ctx context.Context, te *tracking.TrackingEvent) error {
		if shouldPrintTracking {
			tmpl := template.Must(template.New("tracking").Parse(`Category: {{.Category}}
Action: {{.Action}}
Label: {{.Label}}
{{if .Fields }}Fields:{{ range $field, $value := .Fields }}
  {{$field}}: {{$value}}{{end}}{{end}}
`))
			out := bytes.Buffer{}
			if err := tmpl.Execute(&out, te); err != nil {
				log.Fatal("Unexpected error while using template. %w", err)
			}
			fmt.Print(out.String())
		}
		return nil
	}

	pinCmds, err := commands.Pin(runWrapper, track, &viperConf{}, nil)
	if err != nil {
		if _, ok := err.(withSilent); !ok {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	rootCmd.AddCommand(pinCmds...)
	rootCmd.Execute()
}

func initConfig() {
	file := cfgFile
	if file == "" {
		userFile, ok := config.UserConfigFile()
		if !ok {
			return
		}
		file = userFile
	}
	viper.SetConfigFile(file)
	viper.ReadInConfig()
}

type viperConf struct{}

func (t *viperConf) GetProjectCachePaths() ([]string, error) {
	dir := cacheDir
	if dir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(userCache, "pinlock")
	}
	return []string{
		filepath.Join(dir, "projects"),
	}, nil
}

const patternsConfigKey = "pin.patterns"

func (t *viperConf) GetConstraintsPatterns() []string {
	return viper.GetStringSlice(patternsConfigKey)
}
