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
	"encoding/json"
	"net/http"
)

// RequestScope is the state we pass down the middleware chain for one
// request; buffers referenced here never outlive the request
type RequestScope struct {
	// AccessDenied indicates the request should not be proxied on
	AccessDenied bool
	// Path is the exact path of the incoming request, before normalization
	Path string
	// RawPath is the un-decoded form of the path, when it differs
	RawPath string
}

// revokeProxy is responsible for stopping the middleware from proxying the request
func (r *casProxy) revokeProxy(w http.ResponseWriter, req *http.Request) context.Context {
	var scope *RequestScope
	sc := req.Context().Value(contextScopeName)
	switch sc {
	case nil:
		scope = &RequestScope{AccessDenied: true}
	default:
		scope = sc.(*RequestScope)
	}
	scope.AccessDenied = true

	return context.WithValue(req.Context(), contextScopeName, scope)
}

// accessUnauthorized denies the request with an unauthorized status; the
// gate never completes the login flow itself
func (r *casProxy) accessUnauthorized(w http.ResponseWriter, req *http.Request) context.Context {
	w.Header().Set("Content-Type", jsonMime)
	w.WriteHeader(authenticationRequiredError.Code)
	_ = json.NewEncoder(w).Encode(authenticationRequiredError)

	return r.revokeProxy(w, req)
}

// redirectToURL redirects the user and aborts the context
func (r *casProxy) redirectToURL(url string, w http.ResponseWriter, req *http.Request, statusCode int) context.Context {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
	http.Redirect(w, req, url, statusCode)

	return r.revokeProxy(w, req)
}
