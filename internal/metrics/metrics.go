// Package metrics decouples instrumentation from the pipeline. The default
// backend is a no-op; cmd wires a real one when asked to.
package metrics

import "time"

// Backend is the minimal surface a metrics sink must provide.
type Backend interface {
	IncCounter(name string, labels map[string]string, v float64)
	ObserveDuration(name string, labels map[string]string, d time.Duration)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, map[string]string, float64)           {}
func (nopBackend) ObserveDuration(string, map[string]string, time.Duration) {}
func (nopBackend) Flush() error                                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs b for the rest of the process. Call before running
// jobs; not synchronized.
func SetBackend(b Backend) {
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

// RecordStep records one executed plan step with its duration and status.
func RecordStep(jobID, funcName string, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	labels := map[string]string{"job": jobID, "func": funcName, "status": status}
	backend.IncCounter("isldpipe_steps_total", labels, 1)
	backend.ObserveDuration("isldpipe_step_duration_seconds", labels, d)
}

// RecordExport records rows written for one output file.
func RecordExport(selectRef string, rows int64) {
	backend.IncCounter("isldpipe_exported_rows_total",
		map[string]string{"select": selectRef}, float64(rows))
}

// RecordCleanupErrors counts DROP failures left behind by a run.
func RecordCleanupErrors(jobID string, n int) {
	backend.IncCounter("isldpipe_cleanup_errors_total",
		map[string]string{"job": jobID}, float64(n))
}

// RecordLoad records rows ingested into the source table.
func RecordLoad(rows int64) {
	backend.IncCounter("isldpipe_loaded_rows_total", nil, float64(rows))
}

// Flush pushes buffered metrics to the backend's sink.
func Flush() error {
	return backend.Flush()
}
