// Copyright (C) 2024 Pinlock Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pinlock/pinlock/controllers"
	"github.com/pinlock/pinlock/pkg/network"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type httpHandlers struct {
	logger   *zap.Logger
	projects controllers.Projects
}

func provideHTTPHandlers(logger *zap.Logger, projects controllers.Projects) *httpHandlers {
	return &httpHandlers{
		logger:   logger,
		projects: projects,
	}
}

func bindHTTPHandlers(router *mux.Router, h *httpHandlers) {
	router.Path("/api/projects").Methods("GET").Handler(network.HTTPHandle(h.listProjects))
	router.Path("/api/projects/{name}").Methods("GET").Handler(network.HTTPHandle(h.getProject))
	router.Path("/api/projects/{name}/sync").Methods("POST").Handler(network.HTTPHandle(h.syncProject))
	router.Path("/health").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Use(handlers.CORS(
		handlers.AllowedHeaders([]string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"}),
		handlers.AllowedMethods([]string{"GET", "POST", "HEAD", "OPTIONS"}),
		handlers.AllowedOriginValidator(func(host string) bool { return true }),
		handlers.AllowCredentials(),
	))
}

func (h *httpHandlers) listProjects(rw http.ResponseWriter, r *http.Request) error {
	statuses, err := h.projects.List(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(rw, statuses)
}

func (h *httpHandlers) getProject(rw http.ResponseWriter, r *http.Request) error {
	name := mux.Vars(r)["name"]
	st, err := h.projects.Get(r.Context(), name)
	if err != nil {
		return err
	}
	return writeJSON(rw, st)
}

func (h *httpHandlers) syncProject(rw http.ResponseWriter, r *http.Request) error {
	name := mux.Vars(r)["name"]
	h.logger.Debug("Syncing project", zap.String("project", name))
	st, err := h.projects.Sync(r.Context(), name)
	if err != nil {
		return err
	}
	return writeJSON(rw, st)
}

func writeJSON(rw http.ResponseWriter, body interface{}) error {
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(body); err != nil {
		return status.Errorf(codes.Internal, "failed to encode response")
	}
	return nil
}
