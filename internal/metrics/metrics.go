// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarksAttempted counts students in accepted marking batches.
	MarksAttempted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "school_marks_attempted_total",
		Help: "Students covered by accepted attendance marking requests.",
	})

	// HolidayBlocked counts marking attempts rejected on holidays.
	HolidayBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "school_marks_holiday_blocked_total",
		Help: "Marking requests rejected because the day is a holiday.",
	})

	// AnalyticsRequests counts analytics report computations by source.
	AnalyticsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "school_analytics_requests_total",
		Help: "Analytics report requests, labeled by cache outcome.",
	}, []string{"source"})

	// DayResets counts administrative day resets.
	DayResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "school_day_resets_total",
		Help: "Administrative resets of a day's attendance facts.",
	})
)
