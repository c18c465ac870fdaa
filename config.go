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
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the configuration for the proxy
type Config struct {
	// Listen is the binding interface
	Listen string `json:"listen" yaml:"listen" usage:"the interface the service should be listening on"`
	// ListenAdmin is a separate interface for the admin endpoints, if any
	ListenAdmin string `json:"listen-admin" yaml:"listen-admin" usage:"the interface the admin endpoints should be served on, if not defined, admin endpoints are mounted on the main listener"`
	// Upstream is the upstream endpoint i.e whom we are proxying to
	Upstream string `json:"upstream-url" yaml:"upstream-url" usage:"url for the upstream endpoint you wish to proxy"`

	// EnableAuthCas indicates the cas gate is active on protected resources
	EnableAuthCas bool `json:"enable-auth-cas" yaml:"enable-auth-cas" usage:"enable the cas authentication gate on protected resources"`
	// CasCookieName is the name of the cookie whose presence marks a completed cas flow
	CasCookieName string `json:"cas-cookie" yaml:"cas-cookie" usage:"name of the cookie carrying the cas service ticket"`
	// CasLoginURL is the absolute url of the cas server login endpoint
	CasLoginURL string `json:"cas-login-url" yaml:"cas-login-url" usage:"absolute url of the cas server login endpoint"`
	// CasServiceURL is our base url handed to the login service; it is escaped
	// once at configuration time, never per request
	CasServiceURL string `json:"cas-service-url" yaml:"cas-service-url" usage:"base url of this service handed to the cas login endpoint, do not reconstruct it from host headers"`

	// Resources is a list of protected resources
	Resources []*Resource `json:"resources" yaml:"resources"`
	// EnableDefaultDeny indicates we should gate all routes not covered by a resource
	EnableDefaultDeny bool `json:"enable-default-deny" yaml:"enable-default-deny" usage:"enables a default denial on all routes not covered by a resource"`

	// Headers permits adding custom headers to upstream requests
	Headers map[string]string `json:"headers" yaml:"headers"`
	// ResponseHeaders is a map of response headers to add
	ResponseHeaders map[string]string `json:"response-headers" yaml:"response-headers"`

	// CorsOrigins is a list of origins permitted
	CorsOrigins []string `json:"cors-origins" yaml:"cors-origins" usage:"origins to add to the CORS origins header Access-Control-Allow-Origin"`
	// CorsMethods is a set of access control methods
	CorsMethods []string `json:"cors-methods" yaml:"cors-methods" usage:"methods permitted in the access control, Access-Control-Allow-Methods"`
	// CorsHeaders is a set of cors headers
	CorsHeaders []string `json:"cors-headers" yaml:"cors-headers" usage:"set of headers to add to the CORS access control, Access-Control-Allow-Headers"`
	// CorsExposedHeaders are the exposed header fields
	CorsExposedHeaders []string `json:"cors-exposed-headers" yaml:"cors-exposed-headers" usage:"expose cors headers access control, Access-Control-Expose-Headers"`
	// CorsCredentials set the credentials flag
	CorsCredentials bool `json:"cors-credentials" yaml:"cors-credentials" usage:"credentials access control header Access-Control-Allow-Credentials"`
	// CorsMaxAge is the age for CORS
	CorsMaxAge time.Duration `json:"cors-max-age" yaml:"cors-max-age" usage:"max age applied to cors headers Access-Control-Max-Age"`

	// Hostnames is a list of hostnames the service responds to when the security filter is enabled
	Hostnames []string `json:"hostnames" yaml:"hostnames" usage:"list of hostnames the service will respond to"`
	// EnableSecurityFilter enables the security handler
	EnableSecurityFilter bool `json:"enable-security-filter" yaml:"enable-security-filter" usage:"enables the security filter handler"`

	// EnableLogging indicates if we should log all the requests
	EnableLogging bool `json:"enable-logging" yaml:"enable-logging" usage:"enable http logging of the requests"`
	// EnableJSONLogging is the logging format
	EnableJSONLogging bool `json:"enable-json-logging" yaml:"enable-json-logging" usage:"switch on json logging rather than text"`
	// DisableAllLogging disables all logging
	DisableAllLogging bool `json:"disable-all-logging" yaml:"disable-all-logging" usage:"disables all logging"`
	// Verbose switches on debug logging
	Verbose bool `json:"verbose" yaml:"verbose" usage:"switch on debug / verbose logging"`

	// EnableMetrics indicates the prometheus metrics handler is enabled
	EnableMetrics bool `json:"enable-metrics" yaml:"enable-metrics" usage:"enable the prometheus metrics collector on admin /gate/metrics"`
	// LocalhostMetrics restricts the metrics endpoint to loopback clients
	LocalhostMetrics bool `json:"localhost-metrics" yaml:"localhost-metrics" usage:"enforce the metrics page can only been requested from 127.0.0.1"`
	// EnableProfiling enables the pprof debug endpoints
	EnableProfiling bool `json:"enable-profiling" yaml:"enable-profiling" usage:"switching on the golang profiling via pprof on admin /debug/pprof"`

	// EnableRequestID indicates the request id middleware is enabled
	EnableRequestID bool `json:"enable-request-id" yaml:"enable-request-id" usage:"indicates we should add a correlation request id to the requests"`
	// RequestIDHeader is the header name for the request id
	RequestIDHeader string `json:"request-id-header" yaml:"request-id-header" usage:"the http header name for the request id"`
	// EnableCompression enables gzip compression of responses
	EnableCompression bool `json:"enable-compression" yaml:"enable-compression" usage:"enable gzip compression for response"`
	// FilterGateCookie indicates the gate cookie is censored from upstream requests
	FilterGateCookie bool `json:"filter-gate-cookie" yaml:"filter-gate-cookie" usage:"keep the gate cookie out of the requests forwarded upstream"`

	// EnableProxyProtocol enables the proxy protocol on the listener
	EnableProxyProtocol bool `json:"enable-proxy-protocol" yaml:"enable-proxy-protocol" usage:"enable proxy protocol on the listener"`
	// PreserveHost preserves the host header of the proxied request upstream
	PreserveHost bool `json:"preserve-host" yaml:"preserve-host" usage:"preserve the host header of the proxied request in the upstream request"`
	// SkipUpstreamTLSVerify skips the verification of any upstream tls
	SkipUpstreamTLSVerify bool `json:"skip-upstream-tls-verify" yaml:"skip-upstream-tls-verify" usage:"skip the verification of any upstream TLS certificates"`

	// ServerReadTimeout is the read timeout on the http server
	ServerReadTimeout time.Duration `json:"server-read-timeout" yaml:"server-read-timeout" usage:"the server read timeout on the http server"`
	// ServerWriteTimeout is the write timeout on the http server
	ServerWriteTimeout time.Duration `json:"server-write-timeout" yaml:"server-write-timeout" usage:"the server write timeout on the http server"`
	// ServerIdleTimeout is the idle timeout on the http server
	ServerIdleTimeout time.Duration `json:"server-idle-timeout" yaml:"server-idle-timeout" usage:"the server idle timeout on the http server"`

	// UpstreamKeepalives specifies whether we use keepalives on the upstream
	UpstreamKeepalives bool `json:"upstream-keepalives" yaml:"upstream-keepalives" usage:"enables or disables the keepalive connections for upstream endpoint"`
	// UpstreamTimeout is the dial timeout for upstream connections
	UpstreamTimeout time.Duration `json:"upstream-timeout" yaml:"upstream-timeout" usage:"maximum amount of time a dial will wait for a connect to complete"`
	// UpstreamKeepaliveTimeout is the keepalive timeout for upstream connections
	UpstreamKeepaliveTimeout time.Duration `json:"upstream-keepalive-timeout" yaml:"upstream-keepalive-timeout" usage:"specifies the keep-alive period for an active network connection"`
	// UpstreamTLSHandshakeTimeout is the timeout for the upstream tls handshake
	UpstreamTLSHandshakeTimeout time.Duration `json:"upstream-tls-handshake-timeout" yaml:"upstream-tls-handshake-timeout" usage:"the timeout placed on the tls handshake for upstream"`
	// UpstreamResponseHeaderTimeout is the timeout for upstream response headers
	UpstreamResponseHeaderTimeout time.Duration `json:"upstream-response-header-timeout" yaml:"upstream-response-header-timeout" usage:"the timeout placed on the response header for upstream"`
	// UpstreamExpectContinueTimeout is the expect continue timeout for upstream
	UpstreamExpectContinueTimeout time.Duration `json:"upstream-expect-continue-timeout" yaml:"upstream-expect-continue-timeout" usage:"the timeout placed on the expect continue for upstream"`
	// MaxIdleConns is the max idle connections to keep alive, ready for reuse
	MaxIdleConns int `json:"max-idle-connections" yaml:"max-idle-connections" usage:"max idle upstream connections to keep alive, ready for reuse"`
	// MaxIdleConnsPerHost limits the number of idle connections maintained per host
	MaxIdleConnsPerHost int `json:"max-idle-connections-per-host" yaml:"max-idle-connections-per-host" usage:"limits the number of idle connections maintained per host"`
}

// newDefaultConfig returns a initialized config
func newDefaultConfig() *Config {
	var hostnames []string
	if name, err := os.Hostname(); err == nil {
		hostnames = append(hostnames, name)
	}
	hostnames = append(hostnames, []string{"localhost", "127.0.0.1", "::1"}...)

	return &Config{
		CasCookieName:                 casCookieName,
		EnableAuthCas:                 false,
		EnableDefaultDeny:             true,
		EnableLogging:                 false,
		EnableMetrics:                 true,
		Headers:                       make(map[string]string),
		Hostnames:                     hostnames,
		Listen:                        "127.0.0.1:3000",
		MaxIdleConns:                  100,
		MaxIdleConnsPerHost:           50,
		RequestIDHeader:               "X-Request-ID",
		ResponseHeaders:               make(map[string]string),
		ServerIdleTimeout:             120 * time.Second,
		ServerReadTimeout:             10 * time.Second,
		ServerWriteTimeout:            11 * time.Second, // make it upstream timeout + 1s to avoid closing the connection before headers are sent
		SkipUpstreamTLSVerify:         true,
		UpstreamExpectContinueTimeout: 10 * time.Second,
		UpstreamKeepaliveTimeout:      10 * time.Second,
		UpstreamKeepalives:            true,
		UpstreamResponseHeaderTimeout: 10 * time.Second,
		UpstreamTLSHandshakeTimeout:   10 * time.Second,
		UpstreamTimeout:               10 * time.Second,
	}
}

// WithAdminURI returns the uri for an admin endpoint
func (r *Config) WithAdminURI(uri string) string {
	return adminURI + uri
}

// hasGateEnabled checks whether the gate is active anywhere, globally or on a resource
func (r *Config) hasGateEnabled() bool {
	if r.EnableAuthCas {
		return true
	}
	for _, x := range r.Resources {
		if x.RequireAuthCas != nil && *x.RequireAuthCas {
			return true
		}
	}

	return false
}

// isValid validates if the config is valid
func (r *Config) isValid() error {
	if r.Listen == "" {
		return fmt.Errorf("you have not specified the listening interface")
	}
	if r.Upstream == "" {
		return fmt.Errorf("you have not specified an upstream endpoint to proxy to")
	}
	if _, err := url.Parse(r.Upstream); err != nil {
		return fmt.Errorf("the upstream endpoint is invalid, %s", err)
	}

	// step: validate the gate urls when set; a gate active without a login
	// url is deliberately NOT rejected here, it surfaces as an internal
	// error when the gate fires, never as a silent pass-through
	if r.CasLoginURL != "" {
		if err := isAbsoluteURL(r.CasLoginURL); err != nil {
			return fmt.Errorf("the cas login url is invalid, %s", err)
		}
	}
	if r.CasServiceURL != "" {
		if err := isAbsoluteURL(r.CasServiceURL); err != nil {
			return fmt.Errorf("the cas service url is invalid, %s", err)
		}
	}

	return validateResources(r.Resources)
}

// isAbsoluteURL checks the value parses as an absolute url
func isAbsoluteURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	if !u.IsAbs() {
		return fmt.Errorf("%s is not an absolute url", value)
	}

	return nil
}

// validateResources checks and validates each of the resources
func validateResources(resources []*Resource) error {
	for _, x := range resources {
		if err := x.isValid(); err != nil {
			return err
		}
	}

	return nil
}

// readConfigFile reads and parses the configuration file
func readConfigFile(filename string, config *Config) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	// step: attempt to un-marshal the data
	switch ext := filepath.Ext(filename); ext {
	case ".json":
		err = json.Unmarshal(content, config)
	default:
		err = yaml.Unmarshal(content, config)
	}

	return err
}
