// Copyright (C) 2024 Pinlock Authors.

package controllers

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pinlock/pinlock/config"
	"github.com/pinlock/pinlock/pkg/pin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func createProjectDir(t *testing.T, constraints string, manifest string) string {
	dir, err := ioutil.TempDir("", "tmp")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})

	err = ioutil.WriteFile(filepath.Join(dir, pin.DefaultConstraintsName), []byte(constraints), 0644)
	require.NoError(t, err)
	err = ioutil.WriteFile(filepath.Join(dir, pin.DefaultManifestName), []byte(manifest), 0644)
	require.NoError(t, err)
	return dir
}

func withProjects(t *testing.T, watched []config.Project, f func(context.Context, *projects)) {
	ctx := context.Background()

	cacheDir, err := ioutil.TempDir("", "tmp")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(cacheDir)
	})

	p := &projects{
		logger:    zap.NewNop(),
		watched:   watched,
		cache:     pin.NewCache([]string{cacheDir}, pin.FmtUI),
		ui:        pin.FmtUI,
		metrics:   tally.NoopScope,
		statuses:  map[string]*ProjectStatus{},
		syncLimit: ratelimit.NewUnlimited(),
	}

	f(ctx, p)
}

func Test_syncLocalProject(t *testing.T) {
	dir := createProjectDir(t, "numpy==1.18.1\n", "dependencies:\n  numpy: \">=1.18.1\"\n")
	watched := []config.Project{{Name: "analyzer", Path: dir}}

	withProjects(t, watched, func(ctx context.Context, p *projects) {
		require.NoError(t, p.syncAll(ctx))

		st, err := p.Get(ctx, "analyzer")
		require.NoError(t, err)
		assert.Equal(t, "analyzer", st.Name)
		assert.Equal(t, dir, st.Source)
		assert.Equal(t, "", st.Error)
		require.NotNil(t, st.Report)
		assert.True(t, st.Report.Ok())
		assert.Equal(t, 1, st.Report.CheckedPins)

		list, err := p.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func Test_syncMismatch(t *testing.T) {
	dir := createProjectDir(t, "numpy==1.18.1\n", "dependencies:\n  numpy: \">=1.19.0\"\n")
	watched := []config.Project{{Name: "analyzer", Path: dir}}

	withProjects(t, watched, func(ctx context.Context, p *projects) {
		st, err := p.Sync(ctx, "analyzer")
		require.NoError(t, err)
		require.NotNil(t, st.Report)
		assert.False(t, st.Report.Ok())
		require.Len(t, st.Report.Findings, 1)
		assert.Equal(t, pin.FindingMismatch, st.Report.Findings[0].Kind)
	})
}

func Test_syncBrokenProject(t *testing.T) {
	// A directory without a constraints file. The failure is recorded in the
	// status instead of failing the sync pass.
	dir, err := ioutil.TempDir("", "tmp")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	watched := []config.Project{{Name: "broken", Path: dir}}

	withProjects(t, watched, func(ctx context.Context, p *projects) {
		require.NoError(t, p.syncAll(ctx))

		st, err := p.Get(ctx, "broken")
		require.NoError(t, err)
		assert.Nil(t, st.Report)
		assert.NotEqual(t, "", st.Error)
	})
}

func Test_syncUnknownProject(t *testing.T) {
	withProjects(t, nil, func(ctx context.Context, p *projects) {
		_, err := p.Sync(ctx, "nope")
		require.Error(t, err)
		assert.Equal(t, codes.NotFound, status.Code(err))

		_, err = p.Get(ctx, "nope")
		require.Error(t, err)
		assert.Equal(t, codes.NotFound, status.Code(err))
	})
}

func Test_fileOverrides(t *testing.T) {
	dir, err := ioutil.TempDir("", "tmp")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "testing"), 0755))
	err = ioutil.WriteFile(filepath.Join(dir, "testing", "constraints-3.7.txt"), []byte("numpy==1.18.1\n"), 0644)
	require.NoError(t, err)
	err = ioutil.WriteFile(filepath.Join(dir, pin.DefaultManifestName), []byte("dependencies:\n  numpy: \">=1.18.1\"\n"), 0644)
	require.NoError(t, err)

	watched := []config.Project{{
		Name:            "analyzer",
		Path:            dir,
		ConstraintsFile: filepath.Join("testing", "constraints-3.7.txt"),
	}}

	withProjects(t, watched, func(ctx context.Context, p *projects) {
		st, err := p.Sync(ctx, "analyzer")
		require.NoError(t, err)
		assert.Equal(t, "", st.Error)
		require.NotNil(t, st.Report)
		assert.True(t, st.Report.Ok())
		assert.Equal(t, 1, st.Report.CheckedPins)
	})
}

func Test_policyTolerance(t *testing.T) {
	dir := createProjectDir(t, "numpy==1.18.1\n", "dependencies:\n  numpy: \">=1.18.1\"\n  requests: \">=2.28.0\"\n")
	watched := []config.Project{{Name: "analyzer", Path: dir, AllowMissingPins: true}}

	withProjects(t, watched, func(ctx context.Context, p *projects) {
		st, err := p.Sync(ctx, "analyzer")
		require.NoError(t, err)
		require.NotNil(t, st.Report)
		assert.True(t, st.Report.Ok())
		assert.Len(t, st.Report.Findings, 1)
	})
}
