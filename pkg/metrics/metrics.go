package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	aio = "aio"

	// Work item metrics
	workItemsSubmittedTotal = "workitems_submitted_total"
	workItemStatusChecks    = "workitem_status_checks_total"
	workItemFinishedTotal   = "workitems_finished_total"
	workItemDuration        = "workitem_duration_seconds"

	// Download metrics
	downloadsTotal = "downloads_total"

	// Labels
	activityLabel       = "activity"
	statusLabel         = "status"
	downloadResultLabel = "result"
)

/**
* Metrics definition
**/
var workItemsSubmittedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: aio,
		Name:      workItemsSubmittedTotal,
		Help:      "number of work items submitted",
	},
	[]string{activityLabel},
)

var workItemStatusChecksMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: aio,
		Name:      workItemStatusChecks,
		Help:      "number of work item status checks by observed status",
	},
	[]string{statusLabel},
)

var workItemFinishedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: aio,
		Name:      workItemFinishedTotal,
		Help:      "number of work items that reached a final status",
	},
	[]string{statusLabel},
)

var workItemDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: aio,
		Name:      workItemDuration,
		Help:      "time spent waiting for a work item to reach a final status",
		Buckets:   prometheus.ExponentialBuckets(2, 2, 10),
	},
)

var downloadsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: aio,
		Name:      downloadsTotal,
		Help:      "number of result downloads",
	},
	[]string{downloadResultLabel},
)

func IncreaseWorkItemsSubmittedMetric(activity string) {
	workItemsSubmittedTotalMetric.With(prometheus.Labels{activityLabel: activity}).Inc()
}

func IncreaseStatusChecksMetric(status string) {
	workItemStatusChecksMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func ObserveWorkItemFinished(status string, elapsed time.Duration) {
	workItemFinishedTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
	workItemDurationMetric.Observe(elapsed.Seconds())
}

func IncreaseDownloadsMetric(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	downloadsTotalMetric.With(prometheus.Labels{downloadResultLabel: result}).Inc()
}

// WriteTextfile dumps every registered metric to filename in the text exposition
// format, for the node exporter textfile collector.
func WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, prometheus.DefaultGatherer)
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(workItemsSubmittedTotalMetric)
	prometheus.MustRegister(workItemStatusChecksMetric)
	prometheus.MustRegister(workItemFinishedTotalMetric)
	prometheus.MustRegister(workItemDurationMetric)
	prometheus.MustRegister(downloadsTotalMetric)
}
