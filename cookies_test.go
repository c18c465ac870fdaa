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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindCookieValue(t *testing.T) {
	cs := []struct {
		Headers []string
		Name    string
		Value   string
		Found   bool
	}{
		{
			Headers: []string{"CASC=ST-123-abc"},
			Name:    "CASC",
			Value:   "ST-123-abc",
			Found:   true,
		},
		{
			// value before a semicolon stops at the semicolon
			Headers: []string{"CASC=ST-123-abc; lang=en"},
			Name:    "CASC",
			Value:   "ST-123-abc",
			Found:   true,
		},
		{
			Headers: []string{"lang=en; CASC=ST-123-abc"},
			Name:    "CASC",
			Value:   "ST-123-abc",
			Found:   true,
		},
		{
			// exact name match, never a prefix match
			Headers: []string{"CASCX=other; CAS=short"},
			Name:    "CASC",
			Found:   false,
		},
		{
			// case-sensitive names
			Headers: []string{"casc=ST-123-abc"},
			Name:    "CASC",
			Found:   false,
		},
		{
			// empty value is still found
			Headers: []string{"CASC=; lang=en"},
			Name:    "CASC",
			Value:   "",
			Found:   true,
		},
		{
			Headers: []string{"CASC="},
			Name:    "CASC",
			Value:   "",
			Found:   true,
		},
		{
			// arbitrary whitespace between pairs
			Headers: []string{"lang=en; \t  CASC=ST-123-abc"},
			Name:    "CASC",
			Value:   "ST-123-abc",
			Found:   true,
		},
		{
			// first match wins within one header
			Headers: []string{"CASC=first; CASC=second"},
			Name:    "CASC",
			Value:   "first",
			Found:   true,
		},
		{
			// headers are walked in wire order
			Headers: []string{"lang=en", "CASC=ST-123-abc"},
			Name:    "CASC",
			Value:   "ST-123-abc",
			Found:   true,
		},
		{
			Headers: []string{"CASC=first", "CASC=second"},
			Name:    "CASC",
			Value:   "first",
			Found:   true,
		},
		{
			// trailing garbage without an equals sign degrades to no match
			Headers: []string{"lang=en; garbage"},
			Name:    "CASC",
			Found:   false,
		},
		{
			Headers: []string{"garbage; CASC=ST-123-abc"},
			Name:    "CASC",
			Found:   false,
		},
		{
			Headers: []string{""},
			Name:    "CASC",
			Found:   false,
		},
		{
			Headers: nil,
			Name:    "CASC",
			Found:   false,
		},
		{
			// a bare semicolon run is tolerated
			Headers: []string{";;;CASC=ST-123-abc"},
			Name:    "CASC",
			Found:   false,
		},
		{
			// the name is everything before the first equals, so an embedded
			// equals lands in the value
			Headers: []string{"CASC=a=b; lang=en"},
			Name:    "CASC",
			Value:   "a=b",
			Found:   true,
		},
	}
	for i, x := range cs {
		value, found := findCookieValue(x.Headers, x.Name)
		assert.Equal(t, x.Found, found, "case %d, expected found: %t", i, x.Found)
		assert.Equal(t, x.Value, value, "case %d, expected value: %s, got: %s", i, x.Value, value)
	}
}

func TestFilterCookies(t *testing.T) {
	cs := []struct {
		Cookies  []*http.Cookie
		Filter   []string
		Expected []string
	}{
		{
			Cookies:  []*http.Cookie{{Name: "CASC", Value: "ST-123-abc"}, {Name: "lang", Value: "en"}},
			Filter:   []string{"CASC"},
			Expected: []string{"lang"},
		},
		{
			Cookies:  []*http.Cookie{{Name: "CASC", Value: "ST-123-abc"}},
			Filter:   []string{"CASC"},
			Expected: []string{},
		},
		{
			Cookies:  []*http.Cookie{{Name: "lang", Value: "en"}},
			Filter:   []string{"CASC"},
			Expected: []string{"lang"},
		},
	}
	for i, x := range cs {
		req, _ := http.NewRequest(http.MethodGet, "http://test.example.com", nil)
		for _, c := range x.Cookies {
			req.AddCookie(c)
		}
		assert.NoError(t, filterCookies(req, x.Filter))

		var names []string
		for _, c := range req.Cookies() {
			names = append(names, c.Name)
		}
		assert.Len(t, names, len(x.Expected), "case %d, expected %d cookies to survive", i, len(x.Expected))
		for _, n := range x.Expected {
			assert.Contains(t, names, n, "case %d, expected cookie %s to survive the filter", i, n)
		}
	}
}
