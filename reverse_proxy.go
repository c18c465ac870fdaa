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
	"crypto/tls"
	"fmt"
	"io"
	httplog "log"
	"net"
	"net/http"
	"net/url"

	"github.com/elazarl/goproxy"
	"go.uber.org/zap"
)

// reverseProxy is a wrapper for any underlying handler serving the upstream
type reverseProxy interface {
	ServeHTTP(rw http.ResponseWriter, req *http.Request)
}

// createUpstreamProxy create a reverse http proxy from the upstream
func (r *casProxy) createUpstreamProxy(upstream *url.URL) error {
	dialer := (&net.Dialer{
		KeepAlive: r.config.UpstreamKeepaliveTimeout,
		Timeout:   r.config.UpstreamTimeout,
	}).Dial

	// are we using a unix socket?
	if upstream != nil && upstream.Scheme == "unix" {
		r.log.Info("using unix socket for upstream", zap.String("socket", fmt.Sprintf("%s%s", upstream.Host, upstream.Path)))

		socketPath := fmt.Sprintf("%s%s", upstream.Host, upstream.Path)
		dialer = func(network, address string) (net.Conn, error) {
			return net.Dial("unix", socketPath)
		}
		upstream.Path = ""
		upstream.Host = "domain-sock"
		upstream.Scheme = unsecureScheme
	} else if upstream != nil && upstream.Host != "" {
		// pin the dial target to the upstream so a portless upstream url
		// still lands on the scheme default port
		address := dialAddress(upstream)
		tcpDialer := dialer
		dialer = func(network, _ string) (net.Conn, error) {
			return tcpDialer(network, address)
		}
	}

	// create the upstream tls configuration
	//nolint:gas
	tlsConfig := &tls.Config{InsecureSkipVerify: r.config.SkipUpstreamTLSVerify}

	// create the proxy engine
	proxy := goproxy.NewProxyHttpServer()

	// headers formed by the middleware before proxying to the upstream shall
	// be kept in the response, the cache-control on redirects and any custom
	// response headers among them
	proxy.KeepDestinationHeaders = true
	proxy.Logger = httplog.New(io.Discard, "", 0)
	r.upstream = proxy

	// update the tls and transport configuration of the reverse proxy
	r.upstream.(*goproxy.ProxyHttpServer).Tr = &http.Transport{
		Dial:                  dialer,
		DisableKeepAlives:     !r.config.UpstreamKeepalives,
		ExpectContinueTimeout: r.config.UpstreamExpectContinueTimeout,
		MaxIdleConns:          r.config.MaxIdleConns,
		MaxIdleConnsPerHost:   r.config.MaxIdleConnsPerHost,
		ResponseHeaderTimeout: r.config.UpstreamResponseHeaderTimeout,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   r.config.UpstreamTLSHandshakeTimeout,
	}

	return nil
}

// proxyMiddleware is responsible for handling the reverse proxy request to
// the upstream endpoint; it always sits innermost on the chain, behind the
// gate, and honours the access denied flag on the request scope
func (r *casProxy) proxyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		next.ServeHTTP(w, req)

		// @step: retrieve the request scope
		if scope := req.Context().Value(contextScopeName); scope != nil {
			if sc := scope.(*RequestScope); sc.AccessDenied {
				return
			}
		}

		// @step: add the proxy forwarding headers
		req.Header.Add(headerXForwardedFor, realIP(req))
		req.Header.Set("X-Forwarded-Host", req.Host)
		req.Header.Set("X-Forwarded-Proto", defaultTo(req.Header.Get("X-Forwarded-Proto"), unsecureScheme))

		if len(r.config.CorsOrigins) > 0 {
			// if CORS is enabled by gatekeeper, do not propagate CORS requests upstream
			req.Header.Del("Origin")
		}
		// @step: add any custom headers to the request
		for k, v := range r.config.Headers {
			req.Header.Set(k, v)
		}

		// @step: keep the gate cookie out of the upstream request if asked to
		if r.config.FilterGateCookie {
			_ = filterCookies(req, r.cookieFilter)
		}

		// the proxy engine forwards only absolute urls, so rewrite the
		// request onto the upstream endpoint before handing it over
		req.URL.Host = r.endpoint.Host
		req.URL.Scheme = r.endpoint.Scheme
		if !r.config.PreserveHost {
			req.Host = r.endpoint.Host
		}

		r.upstream.ServeHTTP(w, req)
	})
}
