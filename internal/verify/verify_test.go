package verify

import "testing"

import "github.com/chic-lang/chic/internal/mir"

func TestBodyPassesWellFormedFunction(t *testing.T) {
	b := mir.NewBody(mir.Unit, mir.Span{})
	entry := b.AddBlock(mir.Span{})
	b.SetTerminator(entry, mir.Return(mir.Span{}))

	res := Body(b)
	if !res.OK() {
		t.Fatalf("expected no diagnostics, got %v", res.Diagnostics)
	}
}

func TestBodyFlagsMissingTerminator(t *testing.T) {
	b := mir.NewBody(mir.Unit, mir.Span{})
	b.AddBlock(mir.Span{})

	res := Body(b)
	if res.OK() {
		t.Fatalf("expected a terminator-presence diagnostic")
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Check == "terminator-presence" {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %v, want a terminator-presence entry", res.Diagnostics)
	}
}

func TestBodyFlagsOrphanBlock(t *testing.T) {
	b := mir.NewBody(mir.Unit, mir.Span{})
	entry := b.AddBlock(mir.Span{})
	b.AddBlock(mir.Span{}) // never targeted by anything
	b.SetTerminator(entry, mir.Return(mir.Span{}))

	res := Body(b)
	found := false
	for _, d := range res.Diagnostics {
		if d.Check == "no-orphan-blocks" {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %v, want a no-orphan-blocks entry", res.Diagnostics)
	}
}

func TestBodyFlagsUnpairedStorageLive(t *testing.T) {
	b := mir.NewBody(mir.Unit, mir.Span{})
	local := b.AddLocal(mir.LocalDecl{Type: mir.Named("int"), Kind: mir.LocalLocal})
	entry := b.AddBlock(mir.Span{})
	b.PushStmt(entry, mir.StorageLive(local, mir.Span{}))
	b.SetTerminator(entry, mir.Return(mir.Span{}))

	res := Body(b)
	found := false
	for _, d := range res.Diagnostics {
		if d.Check == "storage-pairing" {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %v, want a storage-pairing entry for the missing StorageDead", res.Diagnostics)
	}
}

func TestBodyAcceptsMatchedStoragePair(t *testing.T) {
	b := mir.NewBody(mir.Unit, mir.Span{})
	local := b.AddLocal(mir.LocalDecl{Type: mir.Named("int"), Kind: mir.LocalLocal})
	entry := b.AddBlock(mir.Span{})
	b.PushStmt(entry, mir.StorageLive(local, mir.Span{}))
	b.PushStmt(entry, mir.StorageDead(local, mir.Span{}))
	b.SetTerminator(entry, mir.Return(mir.Span{}))

	res := Body(b)
	if !res.OK() {
		t.Fatalf("expected no diagnostics for a matched storage pair, got %v", res.Diagnostics)
	}
}

func TestBodyFlagsDeferDropOutsideWindow(t *testing.T) {
	b := mir.NewBody(mir.Unit, mir.Span{})
	local := b.AddLocal(mir.LocalDecl{Type: mir.Named("File"), Kind: mir.LocalLocal})
	entry := b.AddBlock(mir.Span{})
	b.PushStmt(entry, mir.DeferDropStmt(mir.PlaceOf(local), mir.Span{}))
	b.SetTerminator(entry, mir.Return(mir.Span{}))

	res := Body(b)
	found := false
	for _, d := range res.Diagnostics {
		if d.Check == "defer-drop-ordering" {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %v, want a defer-drop-ordering entry", res.Diagnostics)
	}
}

func TestBodyFlagsDerefOnNonReference(t *testing.T) {
	b := mir.NewBody(mir.Unit, mir.Span{})
	local := b.AddLocal(mir.LocalDecl{Type: mir.Named("int"), Kind: mir.LocalLocal})
	entry := b.AddBlock(mir.Span{})
	place := mir.PlaceOf(local).Deref()
	b.PushStmt(entry, mir.Assign(place, mir.UseOf(mir.ConstOf(mir.ConstValue{Kind: mir.ConstUnit})), mir.Span{}))
	b.SetTerminator(entry, mir.Return(mir.Span{}))

	res := Body(b)
	found := false
	for _, d := range res.Diagnostics {
		if d.Check == "projection-layout" {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %v, want a projection-layout entry", res.Diagnostics)
	}
}
