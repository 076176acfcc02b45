package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRecordAccumulatesTimings(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())
	r.Record("body-builder", 5*time.Millisecond)
	r.Record("verifier", 1*time.Millisecond)

	timings := r.Timings()
	if len(timings) != 2 {
		t.Fatalf("Timings() = %v, want 2 entries", timings)
	}
	if timings[0].Pass != "body-builder" || timings[1].Pass != "verifier" {
		t.Fatalf("Timings() order = %v, want [body-builder verifier]", timings)
	}
}

func TestTimedRecordsDuration(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())
	ran := false
	r.Timed("closure-analysis", func() { ran = true })

	if !ran {
		t.Fatalf("Timed did not invoke fn")
	}
	if len(r.Timings()) != 1 {
		t.Fatalf("Timed did not record a timing")
	}
}

func TestProfileRendersOneSamplePerPass(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())
	r.Record("body-builder", 2*time.Millisecond)
	r.Record("body-builder", 3*time.Millisecond)
	r.Record("verifier", 1*time.Millisecond)

	p := r.Profile()
	if len(p.Sample) != 3 {
		t.Fatalf("Profile().Sample has %d entries, want 3", len(p.Sample))
	}
	if len(p.Function) != 2 {
		t.Fatalf("Profile().Function has %d entries, want 2 (one per distinct pass name)", len(p.Function))
	}
}
