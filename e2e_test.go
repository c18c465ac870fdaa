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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	resty "gopkg.in/resty.v1"
)

// runTestGateway boots the full service on a real listener and hands back
// its base url
func runTestGateway(t *testing.T, config *Config) string {
	if config == nil {
		config = newFakeGateConfig()
	}
	upstream := httptest.NewServer(&fakeUpstream{})
	t.Cleanup(upstream.Close)
	config.Upstream = upstream.URL
	config.Listen = "127.0.0.1:0"

	proxy, err := newProxy(config)
	require.NoError(t, err)
	require.NoError(t, proxy.Run())
	t.Cleanup(func() {
		_ = proxy.Shutdown(context.Background())
	})

	return "http://" + proxy.listener.Addr().String()
}

func TestE2ERedirectToLogin(t *testing.T) {
	base := runTestGateway(t, nil)

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(base + "/secure")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://cas.example.com/login?service=https%3A%2F%2Fapp.example.com%2F%2Fsecure", resp.Header.Get("Location"))
}

func TestE2EDenyWithCookie(t *testing.T) {
	base := runTestGateway(t, nil)

	resp, err := resty.New().R().
		SetHeader("Cookie", "CASC=ST-123-abc").
		Get(base + "/secure")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
}

func TestE2EInactivePassesThrough(t *testing.T) {
	c := newFakeGateConfig()
	c.EnableAuthCas = false
	base := runTestGateway(t, c)

	resp, err := resty.New().R().Get(base + "/anything")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.String(), "fake upstream")
}

func TestE2EHealth(t *testing.T) {
	base := runTestGateway(t, nil)

	resp, err := resty.New().R().Get(base + "/gate/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.String(), `"status":"OK"`)
}

func TestE2EAdminListener(t *testing.T) {
	c := newFakeGateConfig()
	c.ListenAdmin = "127.0.0.1:0"
	base := runTestGateway(t, c)

	// on the main listener the health probe now falls to the gate
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(base + "/gate/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}
