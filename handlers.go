/*
Copyright 2015 All rights reserved.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi"
	"go.uber.org/zap"

	"github.com/gocas/cas-gatekeeper/version"
)

// healthHandler is a health check handler for the service
func (r *casProxy) healthHandler(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", jsonMime)
	w.Header().Set(versionHeader, version.GetVersion())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}

// debugHandler is responsible for providing the pprof
func (r *casProxy) debugHandler(w http.ResponseWriter, req *http.Request) {
	const symbolProfile = "symbol"
	name := chi.URLParam(req, "name")
	switch req.Method {
	case http.MethodGet:
		switch name {
		case "heap":
			fallthrough
		case "goroutine":
			fallthrough
		case "block":
			fallthrough
		case "threadcreate":
			pprof.Handler(name).ServeHTTP(w, req)
		case "cmdline":
			pprof.Cmdline(w, req)
		case "profile":
			pprof.Profile(w, req)
		case "trace":
			pprof.Trace(w, req)
		case symbolProfile:
			pprof.Symbol(w, req)
		default:
			r.errorResponse(w, "", http.StatusNotFound, nil)
		}
	case http.MethodPost:
		switch name {
		case symbolProfile:
			pprof.Symbol(w, req)
		default:
			r.errorResponse(w, "", http.StatusNotFound, nil)
		}
	}
}

// emptyHandler is a default handler for routes which are handled entirely by
// the middleware chain
func emptyHandler(w http.ResponseWriter, req *http.Request) {}

// methodNotAllowedHandler returns a 405
func methodNotAllowedHandler(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// errorResponse logs and writes an error response
func (r *casProxy) errorResponse(w http.ResponseWriter, msg string, code int, err error) {
	if err == nil {
		r.log.Warn(msg, zap.Int("http_status", code))
	} else {
		r.log.Error(msg, zap.Int("http_status", code), zap.Error(err))
	}
	w.WriteHeader(code)
}
