package layout

import "testing"

func TestComputeStructDefaultPacking(t *testing.T) {
	tbl := New()
	l := tbl.ComputeStruct("Acme.Point", []Field{
		{Name: "x", Size: 1, Align: 1},
		{Name: "y", Size: 8, Align: 8},
	}, Options{})

	if l.FieldOffsets["x"] != 0 {
		t.Errorf("x offset = %d, want 0", l.FieldOffsets["x"])
	}
	if l.FieldOffsets["y"] != 8 {
		t.Errorf("y offset = %d, want 8 (padded for 8-byte alignment)", l.FieldOffsets["y"])
	}
	if l.Align != 8 {
		t.Errorf("Align = %d, want 8", l.Align)
	}
	if l.Size != 16 {
		t.Errorf("Size = %d, want 16 (padded trailing)", l.Size)
	}
}

func TestComputeStructPackAttribute(t *testing.T) {
	tbl := New()
	l := tbl.ComputeStruct("Acme.Packed", []Field{
		{Name: "x", Size: 1, Align: 1},
		{Name: "y", Size: 8, Align: 8},
	}, Options{Pack: 1})

	if l.FieldOffsets["y"] != 1 {
		t.Errorf("y offset = %d, want 1 (pack=1 caps alignment)", l.FieldOffsets["y"])
	}
	if l.Align != 1 {
		t.Errorf("Align = %d, want 1", l.Align)
	}
}

func TestComputeStructAlignAttributeRaisesAlignment(t *testing.T) {
	tbl := New()
	l := tbl.ComputeStruct("Acme.Aligned", []Field{
		{Name: "x", Size: 1, Align: 1},
	}, Options{Align: 16})

	if l.Align != 16 {
		t.Errorf("Align = %d, want 16", l.Align)
	}
	if l.Size != 16 {
		t.Errorf("Size = %d, want 16", l.Size)
	}
}

func TestComputeUnionTakesMaxSizeAndAlign(t *testing.T) {
	tbl := New()
	l := tbl.ComputeUnion("Acme.U", []Field{
		{Name: "a", Size: 4, Align: 4},
		{Name: "b", Size: 8, Align: 8, HasDrop: true},
	})

	if l.Size != 8 || l.Align != 8 {
		t.Fatalf("Layout = %+v, want size=8 align=8", l)
	}
	if l.FieldOffsets["a"] != 0 || l.FieldOffsets["b"] != 0 {
		t.Errorf("union fields must all share offset 0: %+v", l.FieldOffsets)
	}
	if !l.HasDrop {
		t.Errorf("HasDrop should propagate from any variant")
	}
}

func TestComputeTaggedEnumLayout(t *testing.T) {
	tbl := New()
	variantA := tbl.ComputeStruct("Acme.Enum.A", []Field{{Name: "v", Size: 4, Align: 4}}, Options{})
	variantB := tbl.ComputeStruct("Acme.Enum.B", []Field{{Name: "v", Size: 8, Align: 8}}, Options{})

	l := tbl.ComputeTaggedEnum("Acme.Enum", 4, []*Layout{variantA, variantB}, 1)

	if l.FieldOffsets["tag"] != 0 {
		t.Errorf("tag offset = %d, want 0", l.FieldOffsets["tag"])
	}
	if l.FieldOffsets["payload"] != 8 {
		t.Errorf("payload offset = %d, want 8 (tag padded to max payload align)", l.FieldOffsets["payload"])
	}
	if l.Align != 8 {
		t.Errorf("Align = %d, want 8", l.Align)
	}
}

func TestLookupAfterCompute(t *testing.T) {
	tbl := New()
	tbl.ComputeStruct("Acme.Point", nil, Options{})
	if _, ok := tbl.Lookup("Acme.Point"); !ok {
		t.Fatalf("Lookup after Compute should find the cached layout")
	}
	if _, ok := tbl.Lookup("Acme.Missing"); ok {
		t.Fatalf("Lookup of an uncomputed type should miss")
	}
}
