package config

import (
	"bytes"
	"strings"
	"testing"
)

func TestTraceOwnerTypeArgsSilentWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	prior := traceOut
	traceOut = &buf
	defer func() { traceOut = prior }()

	TraceOwnerTypeArgs("Box.New", []string{"int"})
	if buf.Len() != 0 {
		t.Fatalf("expected no output with CHIC_DEBUG_OWNER_TYPE_ARGS unset, got %q", buf.String())
	}
}

func TestTraceOwnerTypeArgsWritesWhenEnabled(t *testing.T) {
	t.Setenv("CHIC_DEBUG_OWNER_TYPE_ARGS", "1")
	var buf bytes.Buffer
	prior := traceOut
	traceOut = &buf
	defer func() { traceOut = prior }()

	TraceOwnerTypeArgs("Box.New", []string{"int", "string"})
	if !strings.Contains(buf.String(), "Box.New") || !strings.Contains(buf.String(), "int, string") {
		t.Fatalf("trace output = %q, want it to mention the owner and type args", buf.String())
	}
}

func TestSkipMIRVerifyReadsEnv(t *testing.T) {
	t.Setenv("CHIC_SKIP_MIR_VERIFY", "1")
	if !SkipMIRVerify() {
		t.Fatalf("SkipMIRVerify() = false, want true when CHIC_SKIP_MIR_VERIFY is set")
	}
}

func TestThreadingModeGuardRestores(t *testing.T) {
	SetThreadingMode(ThreadingModeNone)
	g := SetThreadingMode(ThreadingModePOSIXThreads)
	if CurrentThreadingMode() != ThreadingModePOSIXThreads {
		t.Fatalf("CurrentThreadingMode() = %v, want ThreadingModePOSIXThreads", CurrentThreadingMode())
	}
	g.Restore()
	if CurrentThreadingMode() != ThreadingModeNone {
		t.Fatalf("CurrentThreadingMode() after Restore = %v, want ThreadingModeNone", CurrentThreadingMode())
	}
}
