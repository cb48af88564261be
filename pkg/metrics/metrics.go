/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics provides the gateway request metrics. Collectors live on a
// private Prometheus registry and are used through the go-kit metric interfaces.
package metrics

import (
	"net/http"

	kitmetrics "github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "foodgw"

// Label names
const (
	RouteLabel = "route"
	FcnLabel   = "fcn"
	KindLabel  = "kind"
)

// Provider holds the gateway metrics
type Provider struct {
	registry *prom.Registry

	RequestsReceived kitmetrics.Counter
	RequestsFailed   kitmetrics.Counter
	RequestDuration  kitmetrics.Histogram
}

// New registers the gateway collectors on a new registry
func New() *Provider {
	registry := prom.NewRegistry()

	received := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Subsystem: "rest",
		Name:      "requests_received",
		Help:      "The number of requests received.",
	}, []string{RouteLabel, FcnLabel})

	failed := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Subsystem: "rest",
		Name:      "requests_failed",
		Help:      "The number of requests that failed, by failure kind.",
	}, []string{RouteLabel, FcnLabel, KindLabel})

	duration := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Subsystem: "rest",
		Name:      "request_duration_seconds",
		Help:      "The time to complete a ledger request.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{RouteLabel, FcnLabel})

	registry.MustRegister(received, failed, duration)

	return &Provider{
		registry:         registry,
		RequestsReceived: prometheus.NewCounter(received),
		RequestsFailed:   prometheus.NewCounter(failed),
		RequestDuration:  prometheus.NewHistogram(duration),
	}
}

// Handler exposes the registry in the Prometheus text format
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry
func (p *Provider) Gatherer() prom.Gatherer {
	return p.registry
}
