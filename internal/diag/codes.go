// Package diag provides structured diagnostic encoding for the chic
// lowering pipeline.
//
// Grounded on the teacher's internal/errors/{codes,report,json_encoder}.go:
// a flat registry of string error codes organized by phase-prefix, an
// Info struct carrying phase/category/description metadata, and a
// Report type that serializes to deterministic JSON. chic's codes cover
// the lowering-local diagnostic categories spec.md §6 names (async
// frame policy, dispose/destructor spelling, threading backend
// availability, decimal vectorize hints) plus a generic pending-lowering
// category for incomplete statements the builder could not finish.
package diag

// Error code constants, grouped by the pipeline stage that raises them.
const (
	// ============================================================
	// Async frame policy errors (AS####)
	// ============================================================

	// AS0001 indicates an async function violates its stack_only policy
	// by requiring heap frame promotion.
	AS0001 = "AS0001"

	// AS0002 indicates an async function's frame exceeds its configured
	// frame_limit.
	AS0002 = "AS0002"

	// AS0003 indicates a capture violates a no_capture policy (Any or
	// MoveOnly, per the violated NoCaptureMode).
	AS0003 = "AS0003"

	// AS0004 indicates a malformed or conflicting async policy attribute.
	AS0004 = "AS0004"

	// ============================================================
	// Dispose/destructor errors (DISPOSE####)
	// ============================================================

	// DISPOSE0001 indicates a destructor spelled something other than
	// the recognized spelling (e.g. "deinit" instead of the accepted
	// destructor name).
	DISPOSE0001 = "DISPOSE0001"

	// DISPOSE0002 indicates a destructor with a non-conforming
	// signature (parameters, return type, or receiver mode).
	DISPOSE0002 = "DISPOSE0002"

	// ============================================================
	// Threading/memory-model errors (MM####)
	// ============================================================

	// MM0101 indicates a thread-spawn call site where no threading
	// backend is available under the current ThreadingMode.
	MM0101 = "MM0101"

	// MM0102 indicates a thread-spawn or shared-state payload that does
	// not satisfy the ThreadSafe/Shareable auto-trait obligation.
	MM0102 = "MM0102"

	// ============================================================
	// Decimal/vectorization hints (DM####)
	// ============================================================

	// DM0001 indicates a @vectorize(decimal) hint on a function whose
	// body cannot honor it (e.g. it contains a call the backend cannot
	// vectorize across).
	DM0001 = "DM0001"

	// ============================================================
	// Lowering-internal errors (LOW####)
	// ============================================================

	// LOW001 indicates the body builder could not complete lowering a
	// statement or expression and emitted a Pending terminator/marker
	// in its place.
	LOW001 = "LOW001"

	// LOW002 indicates the structural verifier rejected a lowered body.
	LOW002 = "LOW002"
)

// Info carries phase/category metadata about an error code, mirroring
// the teacher's errors.ErrorInfo.
type Info struct {
	Code        string
	Phase       string
	Category    string
	Description string
}

// Registry maps every defined code to its Info.
var Registry = map[string]Info{
	AS0001: {AS0001, "async", "policy", "stack_only violation requires heap frame promotion"},
	AS0002: {AS0002, "async", "policy", "frame_limit exceeded"},
	AS0003: {AS0003, "async", "policy", "capture violates no_capture policy"},
	AS0004: {AS0004, "async", "attribute", "malformed async policy attribute"},

	DISPOSE0001: {DISPOSE0001, "dispose", "syntax", "destructor spelling not recognized"},
	DISPOSE0002: {DISPOSE0002, "dispose", "signature", "destructor signature does not conform"},

	MM0101: {MM0101, "concurrency", "backend", "no threading backend available for thread spawn"},
	MM0102: {MM0102, "concurrency", "constraint", "thread payload does not satisfy auto-trait obligation"},

	DM0001: {DM0001, "vectorize", "hint", "decimal vectorize hint unsupported for this body"},

	LOW001: {LOW001, "lowering", "incomplete", "statement or expression lowering is pending"},
	LOW002: {LOW002, "lowering", "verify", "structural verifier rejected a lowered body"},
}

// Lookup returns the Info for code, if registered.
func Lookup(code string) (Info, bool) {
	info, ok := Registry[code]
	return info, ok
}
