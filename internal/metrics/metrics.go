// Package metrics registers the Prometheus counters exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsCreated counts attendance sessions issued by teachers.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_created_total",
		Help: "Attendance sessions issued by teachers.",
	})

	// AttendanceMarked counts attendance rows created.
	AttendanceMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_marked_total",
		Help: "Attendance records successfully created.",
	})

	// AttendanceRejected counts failed marking attempts by reason
	// (malformed, not_found, expired, already_marked).
	AttendanceRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_rejected_total",
		Help: "Marking attempts that did not create a record, by reason.",
	}, []string{"reason"})
)
