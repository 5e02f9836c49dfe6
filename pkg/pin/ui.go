// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package pin

import (
	"errors"
	"fmt"
	"os"
)

// UI is how the library talks to the user.
// Implementations decide where messages end up (terminal, log, test buffer).
type UI interface {
	// ReportError reports an error to the user and returns ErrAlreadyReported.
	// Callers are expected to propagate the returned error.
	ReportError(format string, a ...interface{}) error
	ReportWarning(format string, a ...interface{})
	ReportInfo(format string, a ...interface{})
}

// ErrAlreadyReported signals that an error message has already been shown to
// the user and must not be printed again.
var ErrAlreadyReported = errors.New("already reported")

func IsErrAlreadyReported(err error) bool {
	return errors.Is(err, ErrAlreadyReported)
}

type fmtUI struct{}

// FmtUI prints messages to stdout/stderr.
var FmtUI UI = fmtUI{}

func (fmtUI) ReportError(format string, a ...interface{}) error {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	return ErrAlreadyReported
}

func (fmtUI) ReportWarning(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", a...)
}

func (fmtUI) ReportInfo(format string, a ...interface{}) {
	fmt.Printf(format+"\n", a...)
}
