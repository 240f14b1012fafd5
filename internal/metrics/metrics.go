// Package metrics exposes Prometheus collectors for enrollment and attendance decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enrollment results
const (
	EnrollResultEnrolled       = "enrolled"
	EnrollResultRollExists     = "roll_exists"
	EnrollResultBiometricMatch = "biometric_match"
	EnrollResultInvalid        = "invalid"
)

var (
	EnrollmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "face_attendance_enrollments_total",
		Help: "Total number of enrollment attempts by result",
	}, []string{"result"})

	DescriptorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "face_attendance_descriptors_total",
		Help: "Total number of attendance descriptors by outcome",
	}, []string{"outcome"})

	DecisionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "face_attendance_decision_seconds",
		Help:    "Time taken to reach an enrollment or attendance decision",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"operation"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "face_attendance_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"path", "method", "status"})
)
