package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chic-lang/chic/internal/mir"
)

// TestBodyAcceptsAsyncFrameWithoutStorageLive exercises the hidden
// async-state local precedent (spec.md §4.2.6): the local backing an
// async frame's dispatch switch is never wrapped in
// StorageLive/StorageDead, the same way LocalId(0) (the return slot)
// isn't, so checkStoragePairing must not flag it as still live across
// a Suspend/Return pair.
func TestBodyAcceptsAsyncFrameWithoutStorageLive(t *testing.T) {
	b := mir.NewBody(mir.Unit, mir.Span{})
	state := b.AddLocal(mir.LocalDecl{Name: "__async_state", Type: mir.Named("uint32"), Mutable: true, Kind: mir.LocalTemp})

	dispatch := b.AddBlock(mir.Span{}) // BlockId(0), the entry block
	resume := b.AddBlock(mir.Span{})
	suspend := b.AddBlock(mir.Span{})

	b.SetTerminator(dispatch, mir.SwitchIntTerm(mir.Copy(mir.PlaceOf(state)), []mir.SwitchArm{{Value: 0, Target: suspend}, {Value: 1, Target: resume}}, 0, false, mir.Span{}))
	b.SetTerminator(suspend, mir.Suspend(mir.PlaceOf(state), 1, mir.Span{}))
	b.SetTerminator(resume, mir.Return(mir.Span{}))

	res := Body(b)
	require.True(t, res.OK(), "unexpected diagnostics for a well-formed async frame: %v", res.Diagnostics)
}

// TestSuspendTerminatorHasNoCFGSuccessors confirms TermSuspend's
// Successors() is empty: its matching resume block is reachable only
// through the function's dispatch SwitchInt, never as this
// terminator's own edge.
func TestSuspendTerminatorHasNoCFGSuccessors(t *testing.T) {
	term := mir.Suspend(mir.PlaceOf(0), 1, mir.Span{})
	require.Empty(t, term.Successors())
}
