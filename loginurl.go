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

// buildLoginURL composes the redirect target for the cas login service:
//
//	<login url>?service=<escaped service url><escaped path>[%3F<escaped query>]
//
// The service url arrives already escaped (done once at configuration time)
// and is copied verbatim. The request path and query are escaped here, and
// the query is appended behind a literal %3F so it stays inside the value of
// the service parameter instead of opening a new top-level query string.
//
// The buffer is sized to the worst case up front, every path and query byte
// expanding to three, and trimmed to the bytes actually written.
func buildLoginURL(loginURL, escapedServiceURL, path, query string) string {
	size := len(loginURL) + len(serviceParam) + len(escapedServiceURL) + 3*len(path) + 3 + 3*len(query)
	buf := make([]byte, size)

	n := copy(buf, loginURL)
	n += copy(buf[n:], serviceParam)
	n += copy(buf[n:], escapedServiceURL)
	n += escapeURI(buf[n:], path)
	if query != "" {
		n += copy(buf[n:], "%3F")
		n += escapeURI(buf[n:], query)
	}

	return string(buf[:n])
}
