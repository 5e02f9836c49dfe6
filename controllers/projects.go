// Copyright (C) 2024 Pinlock Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package controllers

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/pinlock/pinlock/config"
	"github.com/pinlock/pinlock/pkg/pin"
	"github.com/uber-go/tally"
	"go.uber.org/fx"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Projects serves check reports for all watched projects.
type Projects interface {
	List(ctx context.Context) ([]*ProjectStatus, error)
	Get(ctx context.Context, name string) (*ProjectStatus, error)
	Sync(ctx context.Context, name string) (*ProjectStatus, error)
}

// ProjectStatus is the latest known state of one watched project.
type ProjectStatus struct {
	Name     string      `json:"name"`
	Source   string      `json:"source"`
	SyncedAt time.Time   `json:"synced_at"`
	Report   *pin.Report `json:"report,omitempty"`
	Error    string      `json:"error,omitempty"`
}

func provideCache(cfg *config.Config, ui pin.UI) pin.Cache {
	return pin.NewCache([]string{
		filepath.Join(cfg.CachePath, pin.ProjectCachePath),
	}, ui)
}

func provideProjects(cfg *config.Config, cache pin.Cache, logger *zap.Logger, ui pin.UI, metrics tally.Scope) (*projects, Projects) {
	res := &projects{
		logger:    logger,
		watched:   cfg.Projects,
		cache:     cache,
		ui:        ui,
		metrics:   metrics,
		statuses:  map[string]*ProjectStatus{},
		syncLimit: ratelimit.New(1, ratelimit.Per(5*time.Second), ratelimit.WithoutSlack),
	}
	return res, res
}

func initProjects(lc fx.Lifecycle, projects *projects) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return projects.syncAll(ctx)
		},
	})
}

type projects struct {
	logger  *zap.Logger
	watched []config.Project
	cache   pin.Cache
	ui      pin.UI
	metrics tally.Scope

	syncLimit ratelimit.Limiter
	syncMutex sync.Mutex
	statuses  map[string]*ProjectStatus
}

func (p *projects) List(ctx context.Context) ([]*ProjectStatus, error) {
	p.syncMutex.Lock()
	defer p.syncMutex.Unlock()
	result := make([]*ProjectStatus, 0, len(p.watched))
	for _, project := range p.watched {
		if st, ok := p.statuses[project.Name]; ok {
			result = append(result, st)
		}
	}
	return result, nil
}

func (p *projects) Get(ctx context.Context, name string) (*ProjectStatus, error) {
	p.syncMutex.Lock()
	defer p.syncMutex.Unlock()
	st, ok := p.statuses[name]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "project '%s' did not exist", name)
	}
	return st, nil
}

func (p *projects) Sync(ctx context.Context, name string) (*ProjectStatus, error) {
	project, ok := p.lookupConfig(name)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "project '%s' did not exist", name)
	}
	p.syncLimit.Take()
	return p.sync(ctx, project), nil
}

func (p *projects) lookupConfig(name string) (config.Project, bool) {
	for _, project := range p.watched {
		if project.Name == name {
			return project, true
		}
	}
	return config.Project{}, false
}

func (p *projects) syncAll(ctx context.Context) error {
	for _, project := range p.watched {
		p.sync(ctx, project)
	}
	return nil
}

// sync refreshes the checkout of the project (if remote) and recomputes its
// report. Failures are recorded in the status instead of aborting, so one
// broken project doesn't take the service down.
func (p *projects) sync(ctx context.Context, project config.Project) *ProjectStatus {
	st := &ProjectStatus{
		Name:     project.Name,
		Source:   project.Url,
		SyncedAt: time.Now(),
	}
	if st.Source == "" {
		st.Source = project.Path
	}

	report, err := p.check(ctx, project)
	if err != nil {
		p.logger.Error("failed to check project",
			zap.String("project", project.Name),
			zap.Error(err))
		p.metrics.Counter("sync_failures").Inc(1)
		if pin.IsErrAlreadyReported(err) {
			// The message went to the log through the UI.
			st.Error = "failed to check project, see logs"
		} else {
			st.Error = err.Error()
		}
	} else {
		st.Report = report
		p.metrics.Counter("syncs").Inc(1)
	}

	p.syncMutex.Lock()
	defer p.syncMutex.Unlock()
	p.statuses[project.Name] = st
	return st
}

func (p *projects) check(ctx context.Context, project config.Project) (*pin.Report, error) {
	root := project.Path
	if project.Url != "" {
		checkout, err := pin.FetchProject(ctx, p.cache, project.Url, project.Branch, project.SSHKeyFile, p.ui)
		if err != nil {
			return nil, err
		}
		root = checkout
	}

	paths, err := pin.NewProjectPaths(root,
		resolveOverride(root, project.ConstraintsFile),
		resolveOverride(root, project.ManifestFile))
	if err != nil {
		return nil, err
	}
	constraints, manifest, err := pin.ReadProject(paths, p.ui)
	if err != nil {
		return nil, err
	}
	return pin.Check(constraints, manifest, pin.Policy{
		AllowMissingPins: project.AllowMissingPins,
		AllowOrphanPins:  project.AllowOrphanPins,
	}), nil
}

// resolveOverride anchors a relative file override at the project root.
func resolveOverride(root string, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
