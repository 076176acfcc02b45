package driver

import (
	"bytes"
	"testing"

	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/cache"
	"github.com/chic-lang/chic/internal/intern"
	"github.com/chic-lang/chic/internal/layout"
)

func TestSaveLoadSnapshotRoundTrips(t *testing.T) {
	in := intern.New()
	in.Intern("hello", intern.LifetimeModule, ast.Pos{})

	lt := layout.New()
	lt.ComputeStruct("Ns.Point", []layout.Field{
		{Name: "x", Size: 4, Align: 4},
		{Name: "y", Size: 4, Align: 4},
	}, layout.Options{})

	bc, err := cache.New()
	if err != nil {
		t.Fatalf("cache.New() error: %v", err)
	}
	defer bc.Close()

	f := fileOf(simpleFunc("add", block(&ast.ReturnStmt{Value: ident("a")})))
	LowerModuleWithUnits("m", []*ast.File{f}, identResolver, bc, nil)

	var buf bytes.Buffer
	if err := SaveSnapshot(&buf, in, lt, bc); err != nil {
		t.Fatalf("SaveSnapshot() error: %v", err)
	}

	in2 := intern.New()
	lt2 := layout.New()
	bc2, err := cache.New()
	if err != nil {
		t.Fatalf("cache.New() error: %v", err)
	}
	defer bc2.Close()

	if err := LoadSnapshot(&buf, in2, lt2, bc2); err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}

	if in2.Len() != in.Len() {
		t.Fatalf("interner Len after round-trip = %d, want %d", in2.Len(), in.Len())
	}
	if _, ok := lt2.Lookup("Ns.Point"); !ok {
		t.Fatalf("layout for Ns.Point missing after round-trip")
	}
	if bc2.Len() != bc.Len() {
		t.Fatalf("body cache Len after round-trip = %d, want %d", bc2.Len(), bc.Len())
	}
}

func TestSaveSnapshotSkipsNilArguments(t *testing.T) {
	var buf bytes.Buffer
	if err := SaveSnapshot(&buf, nil, nil, nil); err != nil {
		t.Fatalf("SaveSnapshot(nil, nil, nil) error: %v", err)
	}
	if err := LoadSnapshot(&buf, nil, nil, nil); err != nil {
		t.Fatalf("LoadSnapshot(nil, nil, nil) error: %v", err)
	}
}

func TestLoadSnapshotDeterministicKeyOrdering(t *testing.T) {
	bc, err := cache.New()
	if err != nil {
		t.Fatalf("cache.New() error: %v", err)
	}
	defer bc.Close()

	f := fileOf(
		simpleFunc("a", block(&ast.ReturnStmt{Value: ident("a")})),
		simpleFunc("b", block(&ast.ReturnStmt{Value: ident("a")})),
	)
	LowerModuleWithUnits("m", []*ast.File{f}, identResolver, bc, nil)

	snap1 := bc.Snapshot()
	snap2 := bc.Snapshot()
	if len(snap1) != len(snap2) {
		t.Fatalf("Snapshot() length not stable across calls: %d vs %d", len(snap1), len(snap2))
	}
	for i := range snap1 {
		if snap1[i].Key != snap2[i].Key {
			t.Fatalf("Snapshot() order not stable at index %d: %v vs %v", i, snap1[i].Key, snap2[i].Key)
		}
	}
}
