// Package intern implements the string/symbol interner shared by one
// module-lowering pass: identifiers, literal strings, and symbol names
// are assigned dense, stable StrIds; equal content (after NFC
// normalization) always returns the same id.
//
// Grounded on the teacher's internal/sid.SIDMap surface↔core mapping
// idea, applied here to spec.md §3's InternedStr/StrId model. Values
// are NFC-normalized via golang.org/x/text/unicode/norm before
// interning — two source files spelling the same identifier with
// different Unicode decompositions must intern to the same id, and the
// teacher already depends on golang.org/x/text without otherwise
// exercising it.
package intern

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/chic-lang/chic/internal/ast"
)

// StrId is a dense, stable identifier for one interned value.
type StrId int

// Lifetime tags the storage duration of an interned string.
type Lifetime int

const (
	// LifetimeStatic is interned once and valid for the process lifetime
	// (e.g. compiler-synthesized names).
	LifetimeStatic Lifetime = iota
	// LifetimeModule is valid for the lowering pass over one module.
	LifetimeModule
	// LifetimeTemp is valid only within the body builder call that
	// produced it (e.g. a synthesized temporary's display name).
	LifetimeTemp
)

func (l Lifetime) String() string {
	switch l {
	case LifetimeStatic:
		return "'static"
	case LifetimeModule:
		return "'module"
	case LifetimeTemp:
		return "'temp"
	default:
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
}

// InternedStr is one entry in the interner: the id, the normalized
// value, its lifetime tag, and the span where it was first interned.
type InternedStr struct {
	Id       StrId
	Value    string
	Lifetime Lifetime
	Span     ast.Pos
}

// Interner is the shared, exclusively-borrowed interner for one
// lowering pass. The zero value is not usable; construct with New.
type Interner struct {
	byValue map[string]StrId
	entries []InternedStr
}

// New creates an empty interner.
func New() *Interner {
	return &Interner{byValue: make(map[string]StrId)}
}

// Intern assigns (or looks up) the StrId for value at the given
// lifetime and span. Re-interning identical normalized content always
// returns the existing id; the lifetime and span recorded are from the
// first interning.
func (in *Interner) Intern(value string, lifetime Lifetime, span ast.Pos) StrId {
	normalized := norm.NFC.String(value)
	if id, ok := in.byValue[normalized]; ok {
		return id
	}
	id := StrId(len(in.entries))
	in.entries = append(in.entries, InternedStr{Id: id, Value: normalized, Lifetime: lifetime, Span: span})
	in.byValue[normalized] = id
	return id
}

// Lookup returns the entry for id, if it exists.
func (in *Interner) Lookup(id StrId) (InternedStr, bool) {
	if int(id) < 0 || int(id) >= len(in.entries) {
		return InternedStr{}, false
	}
	return in.entries[id], true
}

// Len returns the number of interned entries.
func (in *Interner) Len() int { return len(in.entries) }

// Snapshot returns an ordered copy of all interned entries, suitable
// for persisting across lowering runs.
func (in *Interner) Snapshot() []InternedStr {
	out := make([]InternedStr, len(in.entries))
	copy(out, in.entries)
	return out
}

// InstallSnapshot reinstalls a prior snapshot. Install is idempotent:
// calling it twice with the same snapshot on a fresh interner produces
// the same state. New interns made after install are appended with
// id == prior-length + k; a value already present in the snapshot
// keeps its prior id.
//
// InstallSnapshot fails fast if the snapshot is inconsistent with
// itself (two entries sharing an id with different values) or, on a
// non-empty interner, if an existing id would be reassigned to
// different content than it already holds.
func (in *Interner) InstallSnapshot(snapshot []InternedStr) error {
	for i, e := range snapshot {
		if int(e.Id) != i {
			return fmt.Errorf("intern: snapshot entry %d has non-contiguous id %d", i, e.Id)
		}
		if existing, ok := in.Lookup(e.Id); ok && existing.Value != e.Value {
			return fmt.Errorf("intern: installing snapshot would reassign id %d from %q to %q", e.Id, existing.Value, e.Value)
		}
	}

	for _, e := range snapshot {
		if int(e.Id) < len(in.entries) {
			continue
		}
		in.entries = append(in.entries, e)
		in.byValue[e.Value] = e.Id
	}
	return nil
}
