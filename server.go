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
	"context"
	"errors"
	"io"
	httplog "log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	proxyproto "github.com/armon/go-proxyproto"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gocas/cas-gatekeeper/version"
)

type casProxy struct {
	adminRouter    http.Handler
	config         *Config
	cookieFilter   []string
	endpoint       *url.URL
	listener       net.Listener
	log            *zap.Logger
	metricsHandler http.Handler
	router         http.Handler
	server         *http.Server
	upstream       reverseProxy
}

// newProxy create's a new proxy from configuration
func newProxy(config *Config) (*casProxy, error) {
	// create the service logger
	log, err := createLogger(config)
	if err != nil {
		return nil, err
	}

	log.Info("starting the service",
		zap.String("prog", prog),
		zap.String("author", author),
		zap.String("version", version.GetVersion()))

	svc := &casProxy{
		config:         config,
		log:            log,
		metricsHandler: promhttp.Handler(),
	}

	// parse the upstream endpoint
	if svc.endpoint, err = url.Parse(config.Upstream); err != nil {
		return nil, err
	}

	if config.hasGateEnabled() {
		if config.CasLoginURL == "" {
			log.Warn("the cas gate is enabled without a login url, protected requests without the gate cookie will fail closed")
		}
		if config.CasServiceURL == "" {
			log.Warn("no cas service url has been set, the service parameter handed to the login service will be empty")
		}
	}

	if err := svc.createReverseProxy(); err != nil {
		return nil, err
	}

	return svc, nil
}

// createLogger is responsible for creating the service logger
func createLogger(config *Config) (*zap.Logger, error) {
	httplog.SetOutput(io.Discard) // disable the http logger
	if config.DisableAllLogging {
		return zap.NewNop(), nil
	}

	c := zap.NewProductionConfig()
	c.DisableStacktrace = true
	c.DisableCaller = true
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// are we enabling json logging?
	if !config.EnableJSONLogging {
		c.Encoding = "console"
	}
	// are we running verbose mode?
	if config.Verbose {
		httplog.SetOutput(os.Stderr)
		c.DisableCaller = false
		c.Development = true
		c.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	return c.Build()
}

// useDefaultStack sets the default middleware stack on the engine
func (r *casProxy) useDefaultStack(engine chi.Router) {
	engine.MethodNotAllowed(emptyHandler)
	engine.NotFound(emptyHandler)
	engine.Use(middleware.Recoverer)

	// @check if the request tracking id middleware is enabled
	if r.config.EnableRequestID {
		r.log.Info("enabled the correlation request id middleware",
			zap.String("header", r.config.RequestIDHeader))
		engine.Use(r.requestIDMiddleware(r.config.RequestIDHeader))
	}

	// @step: enable the entrypoint middleware
	engine.Use(entrypointMiddleware)

	if r.config.EnableCompression {
		engine.Use(gzipMiddleware)
	}
	if r.config.EnableLogging {
		engine.Use(r.loggingMiddleware)
	}
	if r.config.EnableSecurityFilter {
		engine.Use(r.securityMiddleware)
	}
}

// createReverseProxy creates a reverse proxy
func (r *casProxy) createReverseProxy() error {
	r.log.Info("enabled reverse proxy mode, upstream url", zap.String("url", r.config.Upstream))
	if err := r.createUpstreamProxy(r.endpoint); err != nil {
		return err
	}

	engine := chi.NewRouter()
	r.useDefaultStack(engine)

	// @step: configure CORS middleware
	if len(r.config.CorsOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   r.config.CorsOrigins,
			AllowedMethods:   r.config.CorsMethods,
			AllowedHeaders:   r.config.CorsHeaders,
			AllowCredentials: r.config.CorsCredentials,
			ExposedHeaders:   r.config.CorsExposedHeaders,
			MaxAge:           int(r.config.CorsMaxAge.Seconds()),
			Debug:            r.config.Verbose,
		})
		engine.Use(c.Handler)
	}

	if len(r.config.ResponseHeaders) > 0 {
		engine.Use(r.responseHeaderMiddleware(r.config.ResponseHeaders))
	}

	r.router = engine

	// step: define admin subrouter: health, metrics and profiling
	adminEngine := chi.NewRouter()
	r.log.Info("enabled health service", zap.String("path", r.config.WithAdminURI(healthURL)))
	adminEngine.Get(healthURL, r.healthHandler)
	if r.config.EnableMetrics {
		r.log.Info("enabled the service metrics middleware", zap.String("path", r.config.WithAdminURI(metricsURL)))
		adminEngine.Get(metricsURL, r.proxyMetricsHandler)
	}
	if r.config.EnableProfiling {
		r.log.Warn("enabling the debug profiling on " + debugURL)
		adminEngine.Get(debugURL+"/{name}", r.debugHandler)
		adminEngine.Post(debugURL+"/{name}", r.debugHandler)
	}

	if r.config.ListenAdmin == "" {
		// mount the admin endpoints on the main listener, never proxied upstream
		engine.With(proxyDenyMiddleware).Route(adminURI, func(e chi.Router) {
			e.MethodNotAllowed(methodNotAllowedHandler)
			e.Mount("/", adminEngine)
		})
	} else {
		// run the admin endpoints on a separate listener of their own
		admin := chi.NewRouter()
		admin.MethodNotAllowed(emptyHandler)
		admin.NotFound(emptyHandler)
		admin.Use(middleware.Recoverer)
		admin.Use(proxyDenyMiddleware)
		admin.Route(adminURI, func(e chi.Router) {
			e.Mount("/", adminEngine)
		})
		r.adminRouter = admin
	}

	// step: provision in the protected resources
	enableDefaultDeny := r.config.EnableDefaultDeny
	for _, x := range r.config.Resources {
		if x.URL == allRoutes && r.config.EnableDefaultDeny {
			enableDefaultDeny = false
		}
	}
	if enableDefaultDeny {
		r.log.Info("adding a default denial into the protected resources")
		r.config.Resources = append(r.config.Resources, &Resource{URL: allRoutes, Methods: allHTTPMethods})
	}

	for _, x := range r.config.Resources {
		r.log.Info("protecting resource", zap.String("resource", x.String()))

		gate := newGateKeeper(newGateConfig(r.config, x), r.log)
		if gate.config.enabled && !containedIn(gate.config.cookieName, r.cookieFilter) {
			r.cookieFilter = append(r.cookieFilter, gate.config.cookieName)
		}

		methods := x.Methods
		if containedIn(anyMethod, methods) {
			methods = allHTTPMethods
		}

		if x.WhiteListed {
			e := engine.With(r.proxyMiddleware)
			for _, m := range methods {
				e.MethodFunc(m, x.URL, emptyHandler)
			}
			continue
		}

		e := engine.With(
			r.gateMiddleware(gate),
			r.proxyMiddleware)
		for _, m := range methods {
			e.MethodFunc(m, x.URL, emptyHandler)
		}
	}

	return nil
}

// Run starts the proxy service
func (r *casProxy) Run() error {
	listener, err := r.createHTTPListener(listenerConfig{
		listen:        r.config.Listen,
		proxyProtocol: r.config.EnableProxyProtocol,
	})
	if err != nil {
		return err
	}

	// step: create the http server
	server := &http.Server{
		Addr:         r.config.Listen,
		Handler:      r.router,
		ReadTimeout:  r.config.ServerReadTimeout,
		WriteTimeout: r.config.ServerWriteTimeout,
		IdleTimeout:  r.config.ServerIdleTimeout,
	}
	r.server = server
	r.listener = listener

	go func() {
		r.log.Info("cas-gatekeeper proxy service starting", zap.String("interface", r.config.Listen))
		if err := server.Serve(listener); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				r.log.Fatal("failed to start the http service", zap.Error(err))
			}
		}
	}()

	// step: are we running an admin service as well?
	if r.config.ListenAdmin != "" {
		adminListener, err := r.createHTTPListener(listenerConfig{
			listen:        r.config.ListenAdmin,
			proxyProtocol: r.config.EnableProxyProtocol,
		})
		if err != nil {
			return err
		}
		adminsvc := &http.Server{
			Addr:         r.config.ListenAdmin,
			Handler:      r.adminRouter,
			ReadTimeout:  r.config.ServerReadTimeout,
			WriteTimeout: r.config.ServerWriteTimeout,
			IdleTimeout:  r.config.ServerIdleTimeout,
		}
		go func() {
			r.log.Info("cas-gatekeeper admin service starting", zap.String("interface", r.config.ListenAdmin))
			if err := adminsvc.Serve(adminListener); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					r.log.Fatal("failed to start the admin service", zap.Error(err))
				}
			}
		}()
	}

	return nil
}

// Shutdown stops the running service gracefully
func (r *casProxy) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.log.Info("shutting down the proxy service")

	return r.server.Shutdown(ctx)
}

// listenerConfig encapsulate listener options
type listenerConfig struct {
	listen        string // the interface to bind the listener to
	proxyProtocol bool   // whether to enable proxy protocol on the listen
}

// createHTTPListener is responsible for creating a listening socket
func (r *casProxy) createHTTPListener(config listenerConfig) (net.Listener, error) {
	var listener net.Listener
	var err error

	// are we creating a unix socket or tcp listener?
	if strings.HasPrefix(config.listen, "unix://") {
		socket := config.listen[7:]
		if exists := fileExists(socket); exists {
			if err = os.Remove(socket); err != nil {
				return nil, err
			}
		}
		r.log.Info("listening on unix socket", zap.String("interface", config.listen))
		if listener, err = net.Listen("unix", socket); err != nil {
			return nil, err
		}
	} else {
		if listener, err = net.Listen("tcp", config.listen); err != nil {
			return nil, err
		}
	}

	// does it require proxy protocol?
	if config.proxyProtocol {
		r.log.Info("enabling the proxy protocol on listener", zap.String("interface", config.listen))
		listener = &proxyproto.Listener{Listener: listener}
	}

	return listener, nil
}
