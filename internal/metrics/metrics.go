// Package metrics records per-pass lowering timings and exports them
// two ways: as a pprof profile for offline analysis, and as Prometheus
// counters/histograms for live scraping.
//
// Grounded on spec.md §4's pass_metrics/PassTiming model. Export paths
// use github.com/google/pprof/profile (pulled from ymm135-go, the
// pack's Go-toolchain fork, which already shapes profiles this way)
// and github.com/prometheus/client_golang (pulled from arx-os/arxos,
// the pack's production-service example).
package metrics

import (
	"time"

	"github.com/google/pprof/profile"
	"github.com/prometheus/client_golang/prometheus"
)

// PassTiming is one completed pass's wall-clock duration.
type PassTiming struct {
	Pass     string
	Duration time.Duration
}

// Recorder accumulates PassTimings for one lowering run and exposes
// them as Prometheus metrics.
type Recorder struct {
	timings []PassTiming

	passDuration *prometheus.HistogramVec
	passTotal    *prometheus.CounterVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
// Passing nil uses prometheus.DefaultRegisterer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chic",
			Subsystem: "mir",
			Name:      "pass_duration_seconds",
			Help:      "Wall-clock duration of one MIR lowering pass.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pass"}),
		passTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chic",
			Subsystem: "mir",
			Name:      "pass_total",
			Help:      "Number of times a MIR lowering pass has run.",
		}, []string{"pass"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(r.passDuration, r.passTotal)
	return r
}

// Record appends a pass timing and reflects it in the Prometheus
// collectors.
func (r *Recorder) Record(pass string, d time.Duration) {
	r.timings = append(r.timings, PassTiming{Pass: pass, Duration: d})
	r.passDuration.WithLabelValues(pass).Observe(d.Seconds())
	r.passTotal.WithLabelValues(pass).Inc()
}

// Timed runs fn, recording its duration under pass.
func (r *Recorder) Timed(pass string, fn func()) {
	start := time.Now()
	fn()
	r.Record(pass, time.Since(start))
}

// Timings returns every recorded timing, in recording order.
func (r *Recorder) Timings() []PassTiming {
	out := make([]PassTiming, len(r.timings))
	copy(out, r.timings)
	return out
}

// Profile renders the recorded timings as a pprof CPU-style profile,
// one sample per pass invocation, for offline analysis with `go tool
// pprof`.
func (r *Recorder) Profile() *profile.Profile {
	passFunctions := make(map[string]*profile.Function)
	var functions []*profile.Function
	var locations []*profile.Location
	var samples []*profile.Sample

	nextID := uint64(1)
	for _, t := range r.timings {
		fn, ok := passFunctions[t.Pass]
		if !ok {
			fn = &profile.Function{ID: nextID, Name: t.Pass}
			nextID++
			passFunctions[t.Pass] = fn
			functions = append(functions, fn)
		}
		loc := &profile.Location{
			ID:   nextID,
			Line: []profile.Line{{Function: fn}},
		}
		nextID++
		locations = append(locations, loc)

		samples = append(samples, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{t.Duration.Nanoseconds()},
		})
	}

	return &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "duration", Unit: "nanoseconds"}},
		Sample:     samples,
		Location:   locations,
		Function:   functions,
		TimeNanos:  time.Now().UnixNano(),
	}
}
