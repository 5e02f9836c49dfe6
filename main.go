// Copyright (C) 2024 Pinlock Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package main

import (
	"context"

	"github.com/pinlock/pinlock/config"
	"github.com/pinlock/pinlock/controllers"
	"github.com/pinlock/pinlock/handlers"
	"github.com/pinlock/pinlock/pkg/network"
	"github.com/pinlock/pinlock/pkg/service"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		handlers.Module,
		service.Module,
		network.Module,
		controllers.Module,
	)
	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	app.Start(startCtx)
	// Wait for the app to be stopped.
	<-app.Done()
}
