package jobmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts job outcomes.
type Recorder interface {
	RecordJob(task string, err error)
}

// Metrics times background jobs and forwards their outcome to a Recorder.
type Metrics struct {
	duration *prometheus.HistogramVec
	recorder Recorder
}

// NewMetrics registers the job duration histogram against registerer. A nil
// registerer skips registration, which keeps repeated construction in tests
// from panicking.
func NewMetrics(registerer prometheus.Registerer, recorder Recorder) *Metrics {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "romaneio_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})
	if registerer != nil {
		registerer.MustRegister(duration)
	}
	return &Metrics{duration: duration, recorder: recorder}
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	task    string
	start   time.Time
}

// Track spawns a tracker for the given task type.
func (m *Metrics) Track(task string) *Tracker {
	return &Tracker{metrics: m, task: task, start: time.Now()}
}

// End finalises the tracker, recording duration and outcome and returning
// the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.task == "" {
		return err
	}
	t.metrics.duration.WithLabelValues(t.task).Observe(time.Since(t.start).Seconds())
	if t.metrics.recorder != nil {
		t.metrics.recorder.RecordJob(t.task, err)
	}
	return err
}
