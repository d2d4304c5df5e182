package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts what a run read, assigned and rewrote.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	Registry *prometheus.Registry

	recordsRead *prometheus.CounterVec
	assignments *prometheus.CounterVec
	sequences   *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		Registry: reg,
		recordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hlalocus_records_read_total",
			Help: "Evidence records consumed, by source format.",
		}, []string{"source"}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hlalocus_assignments_total",
			Help: "Locus assignments produced, by resolution mode.",
		}, []string{"mode"}),
		sequences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hlalocus_sequences_total",
			Help: "Sequences written by the orientation step, by action.",
		}, []string{"action"}),
	}
	reg.MustRegister(r.recordsRead, r.assignments, r.sequences)
	return r
}

func (r *Recorder) RecordsRead(source string, n int) {
	if r == nil {
		return
	}
	r.recordsRead.WithLabelValues(source).Add(float64(n))
}

func (r *Recorder) Assigned(mode string, n int) {
	if r == nil {
		return
	}
	r.assignments.WithLabelValues(mode).Add(float64(n))
}

// Sequences records n sequences that were "kept" or "reversed".
func (r *Recorder) Sequences(action string, n int) {
	if r == nil {
		return
	}
	r.sequences.WithLabelValues(action).Add(float64(n))
}

// WriteTextfile dumps the counters in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.Registry)
}
