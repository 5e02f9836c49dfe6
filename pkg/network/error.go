// Copyright (C) 2024 Pinlock Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package network

import (
	"compress/gzip"
	"net/http"

	"github.com/gorilla/handlers"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// HandlerWithError is an HTTP handler that reports failures as errors
// instead of writing the status itself.
type HandlerWithError func(http.ResponseWriter, *http.Request) error

// HTTPHandle adapts an error-returning handler to http.Handler.
// Errors carrying a grpc status are translated to the matching HTTP status;
// anything else is an internal error. Responses are compressed.
func HTTPHandle(handler HandlerWithError) http.Handler {
	return handlers.CompressHandlerLevel(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}
		if s, ok := status.FromError(err); ok {
			w.WriteHeader(httpStatusOf(s.Code()))
			w.Write([]byte(s.Message()))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
	}), gzip.BestSpeed)
}

// httpStatusOf maps the status codes the project handlers produce.
func httpStatusOf(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument, codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
