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

import "errors"

const (
	prog        = "cas-gatekeeper"
	author      = "gocas"
	email       = "maintainers@gocas.dev"
	description = "is a transparent gatekeeping proxy using the CAS protocol for authentication"
)

var (
	// ErrNoLoginURL indicates the gate fired without a login url to redirect to
	ErrNoLoginURL = errors.New("no cas login url has been configured for the gate")
)
