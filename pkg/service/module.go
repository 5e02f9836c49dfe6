// Copyright (C) 2024 Pinlock Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package service

import (
	"github.com/pinlock/pinlock/pkg/service/debug"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		provideLogger,
		provideTally,
		provideReporter,
		fxLogger,
	),
	debug.Module,
	fx.Logger(ensureFxLogger(fxLogger())),
)
