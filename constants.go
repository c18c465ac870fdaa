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

type contextKey int8

const (
	envPrefix = "PROXY_"

	// defaults admin endpoints
	adminURI   = "/gate"
	healthURL  = "/health"
	metricsURL = "/metrics"
	debugURL   = "/debug/pprof"

	// defaults for the cas gate
	casCookieName = "CASC"
	serviceParam  = "?service="

	unsecureScheme = "http"
	secureScheme   = "https"
	anyMethod      = "ANY"
	allRoutes      = "/*"

	_ contextKey = iota
	contextScopeName

	jsonMime            = "application/json; charset=utf-8"
	headerXForwardedFor = "X-Forwarded-For"
	headerXRealIP       = "X-Real-IP"
	versionHeader       = "X-Gatekeeper-Version"
)
