// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "c2ng"

// Registry is the service-wide metrics registry
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

var (
	// SessionsOpened tracks connectivity session open operations
	SessionsOpened = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "opened_total",
			Help:      "Total number of connectivity sessions opened",
		},
		[]string{"segment", "status"},
	)

	// NotificationsSent tracks peer notifications pushed over websockets
	NotificationsSent = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Total number of peer notifications sent",
		},
		[]string{"event"},
	)

	// SubscribersActive tracks live websocket subscriptions
	SubscribersActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "subscribers_active",
			Help:      "Number of currently registered notification subscribers",
		},
	)

	// SignalPointsWritten tracks telemetry points accepted on ingest
	SignalPointsWritten = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "points_written_total",
			Help:      "Total number of signal telemetry points written",
		},
	)

	// USSRequests tracks outbound flight approval requests
	USSRequests = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "uss",
			Name:      "requests_total",
			Help:      "Total number of USSP approval requests",
		},
		[]string{"outcome"}, // approved, rejected, failed
	)

	// CredentialsIssued tracks minted client certificates
	CredentialsIssued = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credentials",
			Name:      "issued_total",
			Help:      "Total number of client certificates issued",
		},
	)

	// RequestDuration tracks API handler latency
	RequestDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to 4s
		},
		[]string{"route", "method"},
	)
)
