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

const upperhex = "0123456789ABCDEF"

// isUnreservedbyte reports whether c passes through a query argument without
// escaping. The class is the RFC 3986 unreserved set; everything else,
// '%' included, renders as %XX. Escaping is therefore never idempotent and
// must only ever be applied once to a given value.
func isUnreservedByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}

// escapeURILen reports the number of bytes escapeURI writes for src, used to
// size buffers exactly before writing.
func escapeURILen(src string) int {
	n := 0
	for i := 0; i < len(src); i++ {
		if isUnreservedByte(src[i]) {
			n++
		} else {
			n += 3
		}
	}
	return n
}

// escapeURI writes the escaped form of src into dst and returns the number
// of bytes written. The caller provides at least escapeURILen(src) bytes;
// 3*len(src) is always a safe upper bound.
func escapeURI(dst []byte, src string) int {
	n := 0
	for i := 0; i < len(src); i++ {
		c := src[i]
		if isUnreservedByte(c) {
			dst[n] = c
			n++
			continue
		}
		dst[n] = '%'
		dst[n+1] = upperhex[c>>4]
		dst[n+2] = upperhex[c&0x0f]
		n += 3
	}
	return n
}

// escapeURIString escapes src into a freshly allocated string
func escapeURIString(src string) string {
	buf := make([]byte, escapeURILen(src))
	escapeURI(buf, src)

	return string(buf)
}
