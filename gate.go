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
	"go.uber.org/zap"
)

// Decision is the outcome of running the gate against one request
type Decision int

const (
	// decisionInactive means the gate holds no opinion on this route and the
	// request continues through the normal processing chain
	decisionInactive Decision = iota
	// decisionDeny means the request carries the gate cookie and is answered
	// with an unauthorized status
	decisionDeny
	// decisionRedirect means the request is deflected to the cas login
	// service, carrying the location built for it
	decisionRedirect
	// decisionError means the gate fired but was not configured well enough
	// to build a redirect; the request fails closed
	decisionError
)

func (d Decision) String() string {
	switch d {
	case decisionInactive:
		return "inactive"
	case decisionDeny:
		return "deny"
	case decisionRedirect:
		return "redirect"
	}
	return "error"
}

// gateConfig is the fully resolved gate configuration for one route,
// produced once at provisioning time and immutable afterwards, so it is
// shared across concurrent requests without locking. The service url is
// stored pre-escaped; it is never re-escaped per request.
type gateConfig struct {
	enabled           bool
	cookieName        string
	loginURL          string
	escapedServiceURL string
}

// newGateConfig resolves the gate settings for a resource, inheriting from
// the global configuration wherever the resource does not override a value
func newGateConfig(c *Config, resource *Resource) gateConfig {
	g := gateConfig{
		enabled:    c.EnableAuthCas,
		cookieName: c.CasCookieName,
		loginURL:   c.CasLoginURL,
	}
	serviceURL := c.CasServiceURL

	if resource != nil {
		if resource.RequireAuthCas != nil {
			g.enabled = *resource.RequireAuthCas
		}
		if resource.CasCookieName != "" {
			g.cookieName = resource.CasCookieName
		}
		if resource.CasLoginURL != "" {
			g.loginURL = resource.CasLoginURL
		}
		if resource.CasServiceURL != "" {
			serviceURL = resource.CasServiceURL
		}
	}
	if g.cookieName == "" {
		g.cookieName = casCookieName
	}
	// the one and only place the service url is escaped
	g.escapedServiceURL = escapeURIString(serviceURL)

	return g
}

// requestView is the read-only slice of a request the gate consults; all
// fields are owned by the request and valid for its lifetime only
type requestView struct {
	// cookieHeaders are the raw Cookie header values in wire order
	cookieHeaders []string
	// path is the request path as delivered by the host, treated as opaque bytes
	path string
	// rawQuery is the undecoded query string, possibly empty
	rawQuery string
}

// gateKeeper runs the access decision for a single provisioned route
type gateKeeper struct {
	config gateConfig
	log    *zap.Logger
}

func newGateKeeper(config gateConfig, log *zap.Logger) *gateKeeper {
	return &gateKeeper{config: config, log: log}
}

// decide performs the one state transition per request: inactive routes pass,
// a present gate cookie denies, an absent one redirects to the login service.
// Note the cookie content is never validated here, only its presence; ticket
// validation is composed in behind the gate, not performed by it. A gate that
// fires without a login url fails closed as an internal error, never open.
func (g *gateKeeper) decide(view requestView) (Decision, string) {
	if !g.config.enabled {
		return decisionInactive, ""
	}

	if _, found := findCookieValue(view.cookieHeaders, g.config.cookieName); found {
		return decisionDeny, ""
	}

	if g.config.loginURL == "" {
		g.log.Error("gate is active but has no login url to redirect to",
			zap.String("path", view.path),
			zap.Error(ErrNoLoginURL))
		return decisionError, ""
	}

	return decisionRedirect, buildLoginURL(g.config.loginURL, g.config.escapedServiceURL, view.path, view.rawQuery)
}
