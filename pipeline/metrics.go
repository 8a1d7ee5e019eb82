package pipeline

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	filesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runlog",
		Subsystem: "import",
		Name:      "files_total",
		Help:      "Number of files processed grouped by detected format and outcome.",
	}, []string{"format", "outcome"})

	sessionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runlog",
		Subsystem: "import",
		Name:      "sessions_total",
		Help:      "Number of parsed sessions grouped by merge result.",
	}, []string{"result"})

	skippedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "runlog",
		Subsystem: "import",
		Name:      "skipped_items_total",
		Help:      "Number of rows or nodes dropped while parsing.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "runlog",
		Subsystem: "import",
		Name:      "batch_duration_seconds",
		Help:      "Wall time of guarded import calls.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
	})

	busyCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "runlog",
		Subsystem: "import",
		Name:      "rejected_in_progress_total",
		Help:      "Number of import calls rejected because another import was running.",
	})
)

func init() {
	prometheus.MustRegister(filesCounter, sessionsCounter, skippedCounter, batchDuration, busyCounter)
}

func recordFile(r FileReport) {
	format := r.Format
	if format == "" {
		format = "unknown"
	}
	filesCounter.WithLabelValues(format, r.Outcome).Inc()
	sessionsCounter.WithLabelValues("added").Add(float64(r.Added))
	sessionsCounter.WithLabelValues("updated").Add(float64(r.Updated))
	sessionsCounter.WithLabelValues("duplicate").Add(float64(r.Duplicates))
	skippedCounter.Add(float64(r.Skipped))
}

// WriteMetricsTextfile writes the default registry in the Prometheus text format to
// path, for node_exporter's textfile collector.
func WriteMetricsTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
