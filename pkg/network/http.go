// Copyright (C) 2024 Pinlock Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package network

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pinlock/pinlock/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type HostAddress string

func provideHostAddress(cfg *config.Config) HostAddress {
	return HostAddress(fmt.Sprintf(":%d", cfg.Port))
}

func (a HostAddress) String() string {
	return string(a)
}

func provideRouter() *mux.Router {
	return mux.NewRouter()
}

func provideHTTPServer(router *mux.Router) *http.Server {
	return &http.Server{
		Handler: h2c.NewHandler(router, &http2.Server{}),
	}
}

func bindHTTPServer(lc fx.Lifecycle, log *zap.Logger, address HostAddress, srv *http.Server) error {
	conn, err := net.Listen("tcp", address.String())
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Started HTTP server", zap.Stringer("address", address))
			go func() {
				if err := srv.Serve(conn); err != nil && err != http.ErrServerClosed {
					log.Fatal("Stopped serving traffic", zap.Error(err))
				}
				log.Info("Stopped HTTP server")
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return nil
}
