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
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	fakeCasLoginURL       = "https://cas.example.com/login"
	fakeCasServiceURL     = "https://app.example.com/"
	fakeEscapedServiceURL = "https%3A%2F%2Fapp.example.com%2F"

	fakeAdminURL       = "/admin"
	fakeWhitelistedURL = "/public/*"

	// headers the fake upstream reflects back so the tests can inspect what
	// actually crossed the proxy
	upstreamResponseHeader  = "X-Upstream-Response"
	upstreamCookieHeader    = "X-Upstream-Cookie"
	upstreamHostHeader      = "X-Upstream-Forwarded-Host"
	upstreamProtoHeader     = "X-Upstream-Forwarded-Proto"
	upstreamRequestIDHeader = "X-Upstream-Request-ID"
)

// fakeUpstream is a reflecting upstream endpoint; it records every request
// and copies the interesting request headers into the response
type fakeUpstream struct {
	sync.Mutex
	requests int
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	f.Lock()
	f.requests++
	f.Unlock()

	w.Header().Set(upstreamResponseHeader, "true")
	w.Header().Set(upstreamCookieHeader, req.Header.Get("Cookie"))
	w.Header().Set(upstreamHostHeader, req.Header.Get("X-Forwarded-Host"))
	w.Header().Set(upstreamProtoHeader, req.Header.Get("X-Forwarded-Proto"))
	w.Header().Set(upstreamRequestIDHeader, req.Header.Get("X-Request-ID"))
	w.Header().Set("Content-Type", jsonMime)
	_, _ = io.WriteString(w, `{"message":"fake upstream"}`)
}

func (f *fakeUpstream) count() int {
	f.Lock()
	defer f.Unlock()

	return f.requests
}

// newFakeGateConfig returns a config with the gate active everywhere, the way
// a straight deployment in front of a cas server would run it
func newFakeGateConfig() *Config {
	c := newDefaultConfig()
	c.DisableAllLogging = true
	c.Listen = "127.0.0.1:0"
	c.EnableAuthCas = true
	c.CasLoginURL = fakeCasLoginURL
	c.CasServiceURL = fakeCasServiceURL

	return c
}

type fakeRequest struct {
	URI              string
	Method           string
	Cookies          []*http.Cookie
	Headers          map[string]string
	ExpectedCode     int
	ExpectedLocation string
	ExpectedContent  string
	// ExpectedProxied requires the request to have reached the upstream
	ExpectedProxied bool
	// ExpectedNoProxy requires the request to never have left the proxy
	ExpectedNoProxy bool
	// ExpectedHeaders are checked against the final response
	ExpectedHeaders map[string]string
}

type fakeProxy struct {
	config   *Config
	proxy    *casProxy
	server   *httptest.Server
	upstream *fakeUpstream
}

func newFakeProxy(c *Config) *fakeProxy {
	if c == nil {
		c = newFakeGateConfig()
	}
	upstream := &fakeUpstream{}
	c.Upstream = httptest.NewServer(upstream).URL

	proxy, err := newProxy(c)
	if err != nil {
		panic("failed to create proxy service, error: " + err.Error())
	}
	service := httptest.NewServer(proxy.router)

	return &fakeProxy{config: c, proxy: proxy, server: service, upstream: upstream}
}

// RunTests plays each of the requests against the service and checks the
// responses; redirects are never followed so the gate decisions stay visible
func (f *fakeProxy) RunTests(t *testing.T, requests []fakeRequest) {
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	for i, c := range requests {
		method := c.Method
		if method == "" {
			method = http.MethodGet
		}
		req, err := http.NewRequest(method, f.server.URL+c.URI, nil)
		if !assert.NoError(t, err, "case %d, unable to create request, error: %s", i, err) {
			continue
		}
		for k, v := range c.Headers {
			req.Header.Set(k, v)
		}
		for _, x := range c.Cookies {
			req.AddCookie(x)
		}

		resp, err := client.Do(req)
		if !assert.NoError(t, err, "case %d, request failed, error: %s", i, err) {
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if c.ExpectedCode != 0 {
			assert.Equal(t, c.ExpectedCode, resp.StatusCode, "case %d, expected status code: %d, got: %d", i, c.ExpectedCode, resp.StatusCode)
		}
		if c.ExpectedLocation != "" {
			assert.Equal(t, c.ExpectedLocation, resp.Header.Get("Location"), "case %d, expected location: %s, got: %s", i, c.ExpectedLocation, resp.Header.Get("Location"))
		}
		if c.ExpectedContent != "" {
			assert.Contains(t, string(body), c.ExpectedContent, "case %d, expected content: %s", i, c.ExpectedContent)
		}
		if c.ExpectedProxied {
			assert.Equal(t, "true", resp.Header.Get(upstreamResponseHeader), "case %d, expected the request to be proxied upstream", i)
		}
		if c.ExpectedNoProxy {
			assert.Empty(t, resp.Header.Get(upstreamResponseHeader), "case %d, expected the request NOT to be proxied upstream", i)
		}
		for k, v := range c.ExpectedHeaders {
			assert.Equal(t, v, resp.Header.Get(k), "case %d, expected header %s=%s, got: %s", i, k, v, resp.Header.Get(k))
		}
	}
}
