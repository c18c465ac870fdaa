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
	"fmt"
	"strconv"
	"strings"
)

// Resource represents a url prefix the proxy protects. The cas-* fields
// override the global gate settings for this route only; anything left unset
// inherits the global value, the way a location configuration inherits from
// its parent.
type Resource struct {
	// URL the url for the resource
	URL string `json:"uri" yaml:"uri"`
	// Methods the method type
	Methods []string `json:"methods" yaml:"methods"`
	// WhiteListed permits the prefix through without any gate decision
	WhiteListed bool `json:"white-listed" yaml:"white-listed"`
	// RequireAuthCas overrides whether the gate is active on this route
	RequireAuthCas *bool `json:"auth-cas" yaml:"auth-cas"`
	// CasCookieName overrides the gate cookie name for this route
	CasCookieName string `json:"cas-cookie" yaml:"cas-cookie"`
	// CasLoginURL overrides the cas login endpoint for this route
	CasLoginURL string `json:"cas-login-url" yaml:"cas-login-url"`
	// CasServiceURL overrides the service base url for this route
	CasServiceURL string `json:"cas-service-url" yaml:"cas-service-url"`
}

func newResource() *Resource {
	return &Resource{
		Methods: make([]string, 0),
	}
}

// parse decodes a resource definition of the form
// uri=/admin*|methods=GET,POST|white-listed=true|cas-login-url=...
func (r *Resource) parse(resource string) (*Resource, error) {
	if resource == "" {
		return nil, fmt.Errorf("the resource has no options")
	}

	for _, x := range strings.Split(resource, "|") {
		kp := strings.SplitN(x, "=", 2)
		if len(kp) != 2 {
			return nil, fmt.Errorf("invalid resource keypair, should be (uri|methods|white-listed|auth-cas|cas-cookie|cas-login-url|cas-service-url)=comma_values")
		}
		switch kp[0] {
		case "uri":
			r.URL = kp[1]
		case "methods":
			r.Methods = strings.Split(kp[1], ",")
			if strings.EqualFold(kp[1], anyMethod) {
				r.Methods = allHTTPMethods
			}
		case "white-listed":
			value, err := strconv.ParseBool(kp[1])
			if err != nil {
				return nil, fmt.Errorf("the value of white-listed should be true|TRUE|T or it's false equivalent")
			}
			r.WhiteListed = value
		case "auth-cas":
			value, err := strconv.ParseBool(kp[1])
			if err != nil {
				return nil, fmt.Errorf("the value of auth-cas should be true|TRUE|T or it's false equivalent")
			}
			r.RequireAuthCas = &value
		case "cas-cookie":
			r.CasCookieName = kp[1]
		case "cas-login-url":
			r.CasLoginURL = kp[1]
		case "cas-service-url":
			r.CasServiceURL = kp[1]
		default:
			return nil, fmt.Errorf("invalid identifier '%s', should be (uri|methods|white-listed|auth-cas|cas-cookie|cas-login-url|cas-service-url)", kp[0])
		}
	}

	return r, nil
}

// isValid ensure the resource is valid
func (r *Resource) isValid() error {
	if r.Methods == nil {
		r.Methods = make([]string, 0)
	}

	if r.URL == "" {
		return fmt.Errorf("resource does not have url")
	}

	// step: add any of no methods
	if len(r.Methods) <= 0 {
		r.Methods = append(r.Methods, anyMethod)
	}

	// step: check the method is valid
	for _, m := range r.Methods {
		if !isValidHTTPMethod(m) {
			return fmt.Errorf("invalid method %s", m)
		}
	}

	return nil
}

func (r Resource) String() string {
	methods := anyMethod
	if len(r.Methods) > 0 {
		methods = strings.Join(r.Methods, ",")
	}

	if r.WhiteListed {
		return fmt.Sprintf("uri: %s, methods: %s, white-listed", r.URL, methods)
	}

	return fmt.Sprintf("uri: %s, methods: %s", r.URL, methods)
}
