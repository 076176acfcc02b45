package sid

import "testing"

func TestContentHashDeterministic(t *testing.T) {
	h1 := ContentHash("Acme.Widgets", []byte("func f() {}"), nil)
	h2 := ContentHash("Acme.Widgets", []byte("func f() {}"), nil)
	if h1 != h2 {
		t.Errorf("ContentHash not deterministic: %s != %s", h1, h2)
	}
}

func TestContentHashSensitiveToInputs(t *testing.T) {
	base := ContentHash("Acme.Widgets", []byte("func f() {}"), nil)

	if got := ContentHash("Acme.Other", []byte("func f() {}"), nil); got == base {
		t.Errorf("ContentHash ignored namespace change")
	}
	if got := ContentHash("Acme.Widgets", []byte("func g() {}"), nil); got == base {
		t.Errorf("ContentHash ignored AST byte change")
	}
	if got := ContentHash("Acme.Widgets", []byte("func f() {}"), []byte("T=int")); got == base {
		t.Errorf("ContentHash ignored generics environment change")
	}
}

func TestContentHashIs128Bit(t *testing.T) {
	h := ContentHash("Acme.Widgets", []byte("x"), nil)
	if len(h) != 16 {
		t.Fatalf("Hash length = %d bytes, want 16 (128 bits)", len(h))
	}
	if h.IsZero() {
		t.Errorf("non-trivial input hashed to the zero hash")
	}
}

func TestNewSIDStable(t *testing.T) {
	a := NewSID("foo.chic", 0, 10, "FuncDecl", []int{0})
	b := NewSID("foo.chic", 0, 10, "FuncDecl", []int{0})
	if a != b {
		t.Errorf("NewSID not stable across identical inputs: %s != %s", a, b)
	}

	c := NewSID("foo.chic", 0, 10, "FuncDecl", []int{1})
	if a == c {
		t.Errorf("NewSID ignored child path")
	}
}

func TestSIDMapRoundTrip(t *testing.T) {
	m := NewSIDMap()
	surface := SID("surface-1")
	m.AddMapping(surface, SID("core-1"))
	m.AddMapping(surface, SID("core-2"))

	cores := m.GetCoreSIDs(surface)
	if len(cores) != 2 || cores[0] != "core-1" || cores[1] != "core-2" {
		t.Fatalf("GetCoreSIDs = %v, want [core-1 core-2]", cores)
	}

	back, ok := m.GetSurfaceSID("core-1")
	if !ok || back != surface {
		t.Fatalf("GetSurfaceSID(core-1) = (%v, %v), want (%v, true)", back, ok, surface)
	}
}
