// Package verify implements the post-lowering structural verifier:
// the five checks spec.md §4.5 requires of every lowered Body. A
// violation produces a diagnostic but never discards the body —
// debuggability is preserved, the body is only marked non-advisable.
//
// Grounded on the teacher's internal/elaborate/verify.go: one verifier
// struct, one method per node-kind check. Diverges from the teacher in
// one respect the spec requires: the teacher's VerifyANF returns on the
// first error, chic's verifier accumulates every violation across a
// body before returning (spec.md §4.5 lists five independent checks
// that must all run).
package verify

import (
	"fmt"

	"github.com/chic-lang/chic/internal/mir"
)

// Diagnostic is one verifier finding.
type Diagnostic struct {
	Check   string
	Message string
	Block   mir.BlockId
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] bb%d: %s", d.Check, d.Block, d.Message)
}

// Result is the outcome of verifying one body.
type Result struct {
	Diagnostics []Diagnostic
}

// OK reports whether the body passed every check.
func (r Result) OK() bool { return len(r.Diagnostics) == 0 }

type verifier struct {
	body *mir.Body
	res  Result
}

func (v *verifier) report(check string, block mir.BlockId, format string, args ...interface{}) {
	v.res.Diagnostics = append(v.res.Diagnostics, Diagnostic{
		Check: check, Block: block, Message: fmt.Sprintf(format, args...),
	})
}

// Body runs all five structural checks against b and returns every
// violation found. It never panics or aborts partway through.
func Body(b *mir.Body) Result {
	v := &verifier{body: b}
	v.checkTerminators()
	v.checkNoOrphanBlocks()
	v.checkStoragePairing()
	v.checkDeferDropOrdering()
	v.checkProjectionLayout()
	return v.res
}

// checkTerminators: every block has a terminator.
func (v *verifier) checkTerminators() {
	for i := range v.body.Blocks {
		bb := &v.body.Blocks[i]
		if bb.Terminator == nil {
			v.report("terminator-presence", bb.Id, "block has no terminator")
		}
	}
}

// checkNoOrphanBlocks: every block reachable from entry has an
// established predecessor — equivalently, every non-entry block in
// the dense table that is NOT reachable from entry is an orphan.
func (v *verifier) checkNoOrphanBlocks() {
	reachable := make(map[mir.BlockId]bool)
	for _, id := range v.body.ReachableBlocks() {
		reachable[id] = true
	}
	for i := range v.body.Blocks {
		bb := &v.body.Blocks[i]
		if bb.Id != v.body.EntryBlock && !reachable[bb.Id] {
			v.report("no-orphan-blocks", bb.Id, "block is not reachable from the entry block")
		}
	}
}

// checkStoragePairing: every StorageLive(x) reaches at most one
// StorageDead(x) on each path; every path from StorageLive(x) to
// Return ends in StorageDead(x) or Unreachable.
func (v *verifier) checkStoragePairing() {
	// liveAtExit[block][local] = true if StorageLive(local) is live when
	// control leaves block without having seen a matching StorageDead.
	type state map[mir.LocalId]bool

	exitState := make(map[mir.BlockId]state)
	var walk func(id mir.BlockId, live state, visited map[mir.BlockId]bool)
	walk = func(id mir.BlockId, live state, visited map[mir.BlockId]bool) {
		if visited[id] {
			return
		}
		visited[id] = true
		bb := v.body.Block(id)
		cur := make(state, len(live))
		for k, val := range live {
			cur[k] = val
		}
		for _, stmt := range bb.Statements {
			switch stmt.Kind {
			case mir.StmtStorageLive:
				if cur[stmt.Local] {
					v.report("storage-pairing", id, "StorageLive(_%d) issued while already live", stmt.Local)
				}
				cur[stmt.Local] = true
			case mir.StmtStorageDead:
				if !cur[stmt.Local] {
					v.report("storage-pairing", id, "StorageDead(_%d) issued without a matching StorageLive on this path", stmt.Local)
				}
				delete(cur, stmt.Local)
			}
		}
		exitState[id] = cur

		if bb.Terminator == nil {
			return
		}
		switch bb.Terminator.Kind {
		case mir.TermReturn:
			for local := range cur {
				v.report("storage-pairing", id, "_%d is still live at Return (missing StorageDead)", local)
			}
		case mir.TermUnreachable:
			// Unreachable legitimately ends the path without StorageDead.
		default:
			for _, succ := range bb.Terminator.Successors() {
				walk(succ, cur, visited)
			}
		}
	}
	walk(v.body.EntryBlock, state{}, map[mir.BlockId]bool{})
}

// checkDeferDropOrdering: every DeferDrop(x) is issued after a
// StorageLive(x) and before any StorageDead(x) on the same path.
func (v *verifier) checkDeferDropOrdering() {
	for i := range v.body.Blocks {
		bb := &v.body.Blocks[i]
		liveLocals := map[mir.LocalId]bool{}
		for _, stmt := range bb.Statements {
			switch stmt.Kind {
			case mir.StmtStorageLive:
				liveLocals[stmt.Local] = true
			case mir.StmtStorageDead:
				liveLocals[stmt.Local] = false
			case mir.StmtDeferDrop:
				if !liveLocals[stmt.DropPlace.Base] {
					v.report("defer-drop-ordering", bb.Id, "DeferDrop(%s) issued outside its StorageLive/StorageDead window", stmt.DropPlace)
				}
			}
		}
	}
}

// checkProjectionLayout: no Place uses a projection that exceeds its
// base type's structural layout. Without a layout table wired through
// the verifier call, this degrades to the structural checks available
// from the MIR alone: Deref only ever appears against reference or
// pointer-typed locals, and Downcast only appears on locals whose
// declared type is a named (union/class) type.
func (v *verifier) checkProjectionLayout() {
	for i := range v.body.Blocks {
		bb := &v.body.Blocks[i]
		for _, stmt := range bb.Statements {
			if stmt.Kind != mir.StmtAssign {
				continue
			}
			v.checkPlaceProjections(bb.Id, stmt.AssignPlace)
		}
	}
}

func (v *verifier) checkPlaceProjections(block mir.BlockId, p mir.Place) {
	base := v.body.Local(p.Base)
	ty := base.Type
	for _, proj := range p.Projections {
		switch proj.Kind {
		case mir.ProjDeref:
			if ty == nil || (ty.Kind != mir.TyRef && ty.Kind != mir.TyPointer) {
				v.report("projection-layout", block, "Deref applied to non-reference, non-pointer place %s", p)
				return
			}
			ty = ty.Elem
		case mir.ProjDowncast:
			if ty == nil || (ty.Kind != mir.TyNamed) {
				v.report("projection-layout", block, "Downcast applied to a non-named-type place %s", p)
				return
			}
		case mir.ProjFieldNamed, mir.ProjFieldIndex, mir.ProjIndex:
			// Field/index layout bounds require the layout table; the
			// body builder is responsible for only ever emitting
			// projections it has already checked against one.
		}
	}
}
