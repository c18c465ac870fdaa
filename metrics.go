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
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	latencyMetric = prometheus.NewSummary(
		prometheus.SummaryOpts{
			Name: "proxy_request_duration_sec",
			Help: "A summary of the http request latency for proxy requests",
		},
	)
	statusMetric = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_request_status_total",
			Help: "The HTTP requests partitioned by status code",
		},
		[]string{"code", "method"},
	)
	gateDecisionsMetric = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_gate_decisions_total",
			Help: "The cas gate decisions partitioned by outcome",
		},
		[]string{"decision"},
	)
)

func init() {
	prometheus.MustRegister(latencyMetric)
	prometheus.MustRegister(statusMetric)
	prometheus.MustRegister(gateDecisionsMetric)
}

// proxyMetricsHandler forwards the request into the prometheus handler
func (r *casProxy) proxyMetricsHandler(w http.ResponseWriter, req *http.Request) {
	if r.config.LocalhostMetrics {
		// option to only give access to a localhost metrics collection agent
		if !net.ParseIP(realIP(req)).IsLoopback() {
			r.errorResponse(w, "", http.StatusForbidden, nil)
			return
		}
	}
	r.metricsHandler.ServeHTTP(w, req)
}
