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
	"strings"
)

// findCookieValue scans the raw Cookie header values for a cookie with the
// given name and hands back its value. The scan deliberately works on the
// raw header bytes rather than http.Request.Cookie: browsers in the wild
// send arbitrary whitespace, empty values and trailing garbage, all of which
// must degrade to "no match" rather than change the value handed back.
//
// Headers are walked in the order received and the first matching pair wins.
// Within a header the first '=' delimits the candidate name, the next ';'
// (or the end of the header) delimits the value. Names compare exact and
// case-sensitive, never by prefix.
func findCookieValue(headers []string, name string) (string, bool) {
	for _, header := range headers {
		start, end := 0, len(header)

		for start < end {
			// skip leading whitespace
			for start < end && isCookieSpace(header[start]) {
				start++
			}

			equals := strings.IndexByte(header[start:end], '=')
			if equals < 0 {
				// malformed tail, no more pairs in this header
				break
			}
			equals += start
			val := equals + 1

			semicolon := strings.IndexByte(header[val:end], ';')

			if equals-start == len(name) && header[start:equals] == name {
				if semicolon < 0 {
					// value runs to the end of the buffer
					return header[val:end], true
				}
				// part of a "foo=42; bar=1337" string, take our own copy so
				// the consumer never holds on to the rest of the header
				return string([]byte(header[val : val+semicolon])), true
			}

			if semicolon < 0 {
				break
			}
			start = val + semicolon + 1
		}
	}

	return "", false
}

// isCookieSpace matches the whitespace class skipped between cookie pairs
func isCookieSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// filterCookies is responsible for censoring any cookies we don't want sent
// to the upstream
func filterCookies(req *http.Request, filter []string) error {
	// @NOTE: there doesn't appear to be a way of removing a cookie from the http.Request as
	// AddCookie() just append
	cookies := req.Cookies()
	// @step: empty the current cookies
	req.Header.Set("Cookie", "")
	// @step: iterate the cookies and filter out anything we don't want upstream to see
	for _, x := range cookies {
		var found bool
		for _, n := range filter {
			if x.Name == n {
				found = true
				break
			}
		}
		if !found {
			req.AddCookie(x)
		}
	}

	return nil
}
