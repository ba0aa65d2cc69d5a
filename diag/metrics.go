// Package diag exposes the §7 diagnostic counters as Prometheus
// metrics. The teacher's own Prometheus glue in stats/common_statsd.go
// lives behind a `statsd` build tag and is wired through a generic
// Tracker map of statsValue; this service has a small, fixed metric
// set, so it talks to client_golang directly instead of reconstructing
// that indirection.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package diag

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/gauge named by spec §7's error kinds
// plus basic fleet size, registered eagerly so /metrics always shows
// a zero rather than an absent series.
type Metrics struct {
	OutOfRangeClamps   prometheus.Counter
	MalformedFrames    prometheus.Counter
	QueueSaturatedDrop prometheus.Counter
	InvalidSlotDrops   prometheus.Counter
	ValidationFailures prometheus.Counter
	SessionsConnected  prometheus.Gauge
	SessionsClosed     prometheus.Counter
}

const namespace = "graphd"

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OutOfRangeClamps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "out_of_range_clamps_total",
			Help: "Count of position/velocity values coerced back into range (spec OutOfRange).",
		}),
		MalformedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "malformed_frames_total",
			Help: "Count of binary frames rejected for bad length or decompression inconsistency.",
		}),
		QueueSaturatedDrop: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "queue_saturated_drops_total",
			Help: "Count of sessions that reached the consecutive-drop threshold of a saturated outbound queue; individual dropped snapshots are not counted.",
		}),
		InvalidSlotDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "invalid_slot_drops_total",
			Help: "Count of inbound nudges referencing an unknown slot.",
		}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "validation_failures_total",
			Help: "Count of rejected configuration updates outside their allowed range.",
		}),
		SessionsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sessions_connected",
			Help: "Number of sessions currently READY and receiving broadcasts.",
		}),
		SessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_closed_total",
			Help: "Count of sessions closed, gracefully or otherwise.",
		}),
	}
	reg.MustRegister(
		m.OutOfRangeClamps, m.MalformedFrames, m.QueueSaturatedDrop,
		m.InvalidSlotDrops, m.ValidationFailures, m.SessionsConnected, m.SessionsClosed,
	)
	return m
}
