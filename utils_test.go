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
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidHTTPMethod(t *testing.T) {
	cs := []struct {
		Method string
		Ok     bool
	}{
		{Method: "GET", Ok: true},
		{Method: "POST", Ok: true},
		{Method: "ANY", Ok: true},
		{Method: "get"},
		{Method: "BOGUS"},
		{Method: ""},
	}
	for i, x := range cs {
		assert.Equal(t, x.Ok, isValidHTTPMethod(x.Method), "case %d, method: %s", i, x.Method)
	}
}

func TestContainedIn(t *testing.T) {
	assert.True(t, containedIn("a", []string{"a", "b"}))
	assert.False(t, containedIn("c", []string{"a", "b"}))
	assert.False(t, containedIn("a", nil))
}

func TestDecodeKeyPairs(t *testing.T) {
	pairs, err := decodeKeyPairs([]string{"a=b", "c=d"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "b", "c": "d"}, pairs)

	_, err = decodeKeyPairs([]string{"noequals"})
	assert.Error(t, err)
}

func TestMergeMaps(t *testing.T) {
	dest := map[string]string{"a": "1"}
	merged := mergeMaps(dest, map[string]string{"b": "2"})
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, merged)
}

func TestDefaultTo(t *testing.T) {
	assert.Equal(t, "value", defaultTo("value", "fallback"))
	assert.Equal(t, "fallback", defaultTo("", "fallback"))
}

func TestRealIP(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://test.example.com", nil)
	req.RemoteAddr = "192.0.2.1:4242"
	assert.Equal(t, "192.0.2.1", realIP(req))

	req.Header.Set(headerXRealIP, "10.0.0.2")
	assert.Equal(t, "10.0.0.2", realIP(req))

	req.Header.Set(headerXForwardedFor, "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", realIP(req))
}

func TestDialAddress(t *testing.T) {
	cs := []struct {
		URL      string
		Expected string
	}{
		{URL: "http://127.0.0.1:8081", Expected: "127.0.0.1:8081"},
		{URL: "http://app.example.com", Expected: "app.example.com:80"},
		{URL: "https://app.example.com", Expected: "app.example.com:443"},
	}
	for i, x := range cs {
		u, err := url.Parse(x.URL)
		require.NoError(t, err)
		assert.Equal(t, x.Expected, dialAddress(u), "case %d, url: %s", i, x.URL)
	}
}
