// Package layout computes and caches physical memory layouts for chic
// struct, union, and enum types: size, alignment, field offsets, and
// whether a destructor runs on scope exit.
//
// New to chic — the teacher's Core-ANF values are evaluated, never laid
// out, so there is no teacher file to ground this on directly. Grounded
// instead on spec.md §4.3's layout rules. Layout arithmetic (size/align
// rounding) is integer bookkeeping with no natural ecosystem library;
// standard library only, by design — see DESIGN.md.
package layout

import (
	"fmt"
	"sort"
)

// Field describes one struct/union field as the layout computation
// needs to see it: its own (already-computed) layout, not its type.
type Field struct {
	Name string
	Size int
	Align int
	HasDrop bool
}

// Layout is the computed physical shape of one type.
type Layout struct {
	Size         int
	Align        int
	FieldOffsets map[string]int
	FieldOrder   []string // declaration order, for deterministic output
	HasDrop      bool
}

// Options carries the `@layout(...)` attribute payload, if present.
type Options struct {
	Pack  int // 0 means unset; @layout(pack=N) caps field alignment at N
	Align int // 0 means unset; @layout(align=N) raises struct alignment to at least N
}

// Table caches computed layouts by fully-qualified type name.
type Table struct {
	cache map[string]*Layout
}

// New creates an empty layout table.
func New() *Table {
	return &Table{cache: make(map[string]*Layout)}
}

// Lookup returns the cached layout for a fully-qualified type name.
func (t *Table) Lookup(qualifiedName string) (*Layout, bool) {
	l, ok := t.cache[qualifiedName]
	return l, ok
}

// Entry pairs a qualified type name with its computed layout, for
// deterministic (sorted) persistence — a plain map has no stable
// iteration order.
type Entry struct {
	Name   string
	Layout *Layout
}

// Snapshot returns every cached layout, sorted by qualified name, for
// persisting across driver runs (spec.md §6's optional prior-run
// snapshots).
func (t *Table) Snapshot() []Entry {
	names := make([]string, 0, len(t.cache))
	for name := range t.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Entry, len(names))
	for i, name := range names {
		out[i] = Entry{Name: name, Layout: t.cache[name]}
	}
	return out
}

// InstallSnapshot reinstalls a prior snapshot into an empty or
// partially-populated table. An entry already present under the same
// name is left untouched, so re-computing it from source still takes
// precedence over a stale snapshot value for that one type.
func (t *Table) InstallSnapshot(snapshot []Entry) {
	for _, e := range snapshot {
		if _, ok := t.cache[e.Name]; ok {
			continue
		}
		t.cache[e.Name] = e.Layout
	}
}

// ComputeStruct computes and caches a repr-C struct layout: fields in
// declaration order, each at the lowest offset satisfying its own
// alignment (capped by opts.Pack when set), with trailing padding to
// the struct's own alignment (raised to opts.Align when set).
func (t *Table) ComputeStruct(qualifiedName string, fields []Field, opts Options) *Layout {
	l := &Layout{FieldOffsets: make(map[string]int)}

	offset := 0
	structAlign := 1
	for _, f := range fields {
		align := f.Align
		if opts.Pack > 0 && align > opts.Pack {
			align = opts.Pack
		}
		if align < 1 {
			align = 1
		}
		offset = roundUp(offset, align)
		l.FieldOffsets[f.Name] = offset
		l.FieldOrder = append(l.FieldOrder, f.Name)
		offset += f.Size
		if align > structAlign {
			structAlign = align
		}
		l.HasDrop = l.HasDrop || f.HasDrop
	}

	if opts.Align > structAlign {
		structAlign = opts.Align
	}
	l.Align = structAlign
	l.Size = roundUp(offset, structAlign)

	t.cache[qualifiedName] = l
	return l
}

// ComputeUnion computes a C-style union layout: all fields share offset
// 0; size is the max field size (rounded to alignment), alignment is
// the max field alignment.
func (t *Table) ComputeUnion(qualifiedName string, fields []Field) *Layout {
	l := &Layout{FieldOffsets: make(map[string]int)}
	maxSize, maxAlign := 0, 1
	for _, f := range fields {
		l.FieldOffsets[f.Name] = 0
		l.FieldOrder = append(l.FieldOrder, f.Name)
		if f.Size > maxSize {
			maxSize = f.Size
		}
		if f.Align > maxAlign {
			maxAlign = f.Align
		}
		l.HasDrop = l.HasDrop || f.HasDrop
	}
	l.Align = maxAlign
	l.Size = roundUp(maxSize, maxAlign)

	t.cache[qualifiedName] = l
	return l
}

// ComputeTaggedEnum computes a tagged-union (enum-with-payloads)
// layout: a tag of tagSize bytes followed by the max of the variant
// payload layouts, the whole rounded up to enumAlign.
func (t *Table) ComputeTaggedEnum(qualifiedName string, tagSize int, payloads []*Layout, enumAlign int) *Layout {
	maxPayloadSize, maxPayloadAlign := 0, 1
	hasDrop := false
	for _, p := range payloads {
		if p == nil {
			continue
		}
		if p.Size > maxPayloadSize {
			maxPayloadSize = p.Size
		}
		if p.Align > maxPayloadAlign {
			maxPayloadAlign = p.Align
		}
		hasDrop = hasDrop || p.HasDrop
	}

	align := maxPayloadAlign
	if tagSize > align {
		align = tagSize
	}
	if enumAlign > align {
		align = enumAlign
	}

	payloadOffset := roundUp(tagSize, maxPayloadAlign)
	size := roundUp(payloadOffset+maxPayloadSize, align)

	l := &Layout{
		Size:  size,
		Align: align,
		FieldOffsets: map[string]int{
			"tag":     0,
			"payload": payloadOffset,
		},
		FieldOrder: []string{"tag", "payload"},
		HasDrop:    hasDrop,
	}
	t.cache[qualifiedName] = l
	return l
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	if rem := n % align; rem != 0 {
		return n + (align - rem)
	}
	return n
}

func (l *Layout) String() string {
	return fmt.Sprintf("Layout{size=%d, align=%d, fields=%d, hasDrop=%v}", l.Size, l.Align, len(l.FieldOrder), l.HasDrop)
}
