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
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/PuerkitoBio/purell"
	"github.com/go-chi/chi/middleware"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

const (
	// normalizeFlags is the options to purell
	normalizeFlags purell.NormalizationFlags = purell.FlagRemoveDotSegments | purell.FlagRemoveDuplicateSlashes
)

var gzPool = sync.Pool{
	New: func() interface{} {
		w := gzip.NewWriter(io.Discard)
		return w
	},
}

type gzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

// gzipMiddleware is responsible for compressing a response
func gzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, req)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")

		gz := gzPool.Get().(*gzip.Writer)
		defer gzPool.Put(gz)

		gz.Reset(w)
		defer gz.Close()

		next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, Writer: gz}, req)
	})
}

// entrypointMiddleware is custom filtering for incoming requests
func entrypointMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// @step: create a context for the request
		scope := &RequestScope{}
		// Save the exact formatting of the incoming request so the gate and
		// upstream both see what was actually sent on the wire
		scope.Path = req.URL.Path
		scope.RawPath = req.URL.RawPath

		// We want to Normalize the URL so that we can more easily and accurately
		// parse it to apply resource protection rules.
		purell.NormalizeURL(req.URL, normalizeFlags)

		// ensure we have a slash in the url
		if !strings.HasPrefix(req.URL.Path, "/") {
			req.URL.Path = "/" + req.URL.Path
		}
		req.URL.RawPath = req.URL.EscapedPath()

		resp := middleware.NewWrapResponseWriter(w, 1)
		start := time.Now()
		// All the processing, including forwarding the request upstream and getting the response,
		// happens here in this chain.
		next.ServeHTTP(resp, req.WithContext(context.WithValue(req.Context(), contextScopeName, scope)))

		// @metric record the time taken then response code
		latencyMetric.Observe(time.Since(start).Seconds())
		statusMetric.WithLabelValues(fmt.Sprintf("%d", resp.Status()), req.Method).Inc()

		// place back the original uri for any later consumers
		req.URL.Path = scope.Path
		req.URL.RawPath = scope.RawPath
	})
}

// requestIDMiddleware is responsible for adding a request id if none found
func (r *casProxy) requestIDMiddleware(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if v := req.Header.Get(header); v == "" {
				if id, err := uuid.NewV1(); err == nil {
					req.Header.Set(header, id.String())
				}
			}

			next.ServeHTTP(w, req)
		})
	}
}

// loggingMiddleware is a custom http logger
func (r *casProxy) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		resp, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			resp = middleware.NewWrapResponseWriter(w, 1)
		}
		next.ServeHTTP(resp, req)
		addr := realIP(req)

		if r.config.Verbose {
			requestLogger := r.log.With(
				zap.Any("headers", req.Header),
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
			)
			requestLogger.Debug("logging request", zap.String("client_ip", addr))
		}

		r.log.Info("client request",
			zap.Duration("latency", time.Since(start)),
			zap.Int("status", resp.Status()),
			zap.Int("bytes", resp.BytesWritten()),
			zap.String("client_ip", addr),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path))
	})
}

// securityMiddleware performs numerous security checks on the request
func (r *casProxy) securityMiddleware(next http.Handler) http.Handler {
	r.log.Info("enabling the security filter middleware")
	secureFilter := secure.New(secure.Options{
		AllowedHosts:       r.config.Hostnames,
		BrowserXssFilter:   true,
		ContentTypeNosniff: true,
		FrameDeny:          true,
	})

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := secureFilter.Process(w, req); err != nil {
			r.log.Warn("failed security middleware", zap.Error(err))
			next.ServeHTTP(w, req.WithContext(r.revokeProxy(w, req)))
			return
		}

		next.ServeHTTP(w, req)
	})
}

// gateMiddleware runs the cas gate decision once per request, during the
// access phase, before anything is proxied upstream
func (r *casProxy) gateMiddleware(gate *gateKeeper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			scope := req.Context().Value(contextScopeName).(*RequestScope)

			decision, location := gate.decide(requestView{
				cookieHeaders: req.Header["Cookie"],
				path:          scope.Path,
				rawQuery:      req.URL.RawQuery,
			})
			gateDecisionsMetric.WithLabelValues(decision.String()).Inc()

			switch decision {
			case decisionInactive:
				next.ServeHTTP(w, req)

			case decisionDeny:
				r.log.Debug("request carries the gate cookie, refusing",
					zap.String("client_ip", realIP(req)),
					zap.String("path", scope.Path))
				next.ServeHTTP(w, req.WithContext(r.accessUnauthorized(w, req)))

			case decisionRedirect:
				r.log.Debug("no gate cookie found in request, redirecting to the login service",
					zap.String("client_ip", realIP(req)),
					zap.String("path", scope.Path),
					zap.String("location", location))
				next.ServeHTTP(w, req.WithContext(r.redirectToURL(location, w, req, http.StatusFound)))

			default:
				// fail closed, a misconfigured gate never lets traffic through
				r.errorResponse(w, "unable to build the cas login redirect", http.StatusInternalServerError, ErrNoLoginURL)
				next.ServeHTTP(w, req.WithContext(r.revokeProxy(w, req)))
			}
		})
	}
}

// responseHeaderMiddleware is responsible for adding response headers
func (r *casProxy) responseHeaderMiddleware(headers map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			// @step: inject any custom response headers
			for k, v := range headers {
				w.Header().Set(k, v)
			}

			next.ServeHTTP(w, req)
		})
	}
}

// proxyDenyMiddleware just block everything from being proxied upstream
func proxyDenyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		sc := req.Context().Value(contextScopeName)
		var scope *RequestScope
		if sc == nil {
			scope = &RequestScope{}
		} else {
			scope = sc.(*RequestScope)
		}
		scope.AccessDenied = true
		// update the request context
		ctx := context.WithValue(req.Context(), contextScopeName, scope)

		next.ServeHTTP(w, req.WithContext(ctx))
	})
}
