// Copyright (C) 2024 Pinlock Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package controllers

import (
	"fmt"

	"github.com/pinlock/pinlock/pkg/pin"
	"go.uber.org/zap"
)

// loggerUI routes library messages into the service log.
type loggerUI struct {
	logger *zap.Logger
}

func provideLoggerUI(logger *zap.Logger) pin.UI {
	return &loggerUI{logger: logger}
}

func (ui *loggerUI) ReportError(format string, a ...interface{}) error {
	ui.logger.Error(fmt.Sprintf(format, a...))
	return pin.ErrAlreadyReported
}

func (ui *loggerUI) ReportWarning(format string, a ...interface{}) {
	ui.logger.Warn(fmt.Sprintf(format, a...))
}

func (ui *loggerUI) ReportInfo(format string, a ...interface{}) {
	ui.logger.Info(fmt.Sprintf(format, a...))
}
