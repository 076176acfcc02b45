package driver

import (
	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/mir"
)

// buildVTables emits one mir.ClassVTable per class, in declaration
// order, per spec.md §4.1 step 4: clone the base's slots, append new
// virtual methods the class declares, then overwrite slot symbols for
// members the class overrides — preserving slot indices. Cyclic base
// references are resolved by name via a topological walk (spec.md §5:
// "Vtables resolve at module-driver time by a topological walk of the
// declared bases list; self-reference is blocked by that walk") — a
// class found already "in progress" is treated as having no base,
// breaking the cycle rather than recursing forever.
func buildVTables(classes []*ast.ClassDecl) []*mir.ClassVTable {
	byName := make(map[string]*ast.ClassDecl, len(classes))
	for _, c := range classes {
		byName[c.Name] = c
	}

	built := make(map[string]*mir.ClassVTable, len(classes))
	inProgress := make(map[string]bool, len(classes))

	var build func(c *ast.ClassDecl) *mir.ClassVTable
	build = func(c *ast.ClassDecl) *mir.ClassVTable {
		if v, ok := built[c.Name]; ok {
			return v
		}
		if inProgress[c.Name] {
			// c is its own ancestor, directly or transitively: the
			// outer build(c) call already in flight is the one that
			// will record c's real slots. Return an empty, uncached
			// stub so it contributes no slots of its own here.
			return &mir.ClassVTable{TypeName: c.Name}
		}
		inProgress[c.Name] = true
		defer delete(inProgress, c.Name)

		v := &mir.ClassVTable{TypeName: c.Name, Kind: classKind(c.Kind)}

		if len(c.Bases) > 0 {
			if base, ok := byName[c.Bases[0]]; ok {
				baseV := build(base)
				v.BaseType = baseV.TypeName
				v.Slots = append(v.Slots, baseV.Slots...)
			} else {
				// A base outside this compilation unit: record the name
				// for the linker stage, but there are no slots to clone.
				v.BaseType = c.Bases[0]
			}
		}

		ns := c.Namespace
		for _, m := range c.Methods {
			if !m.Virtual && !m.Override {
				continue
			}
			symbol := m.Name
			if ns != "" {
				symbol = ns + "." + c.Name + "." + m.Name
			} else {
				symbol = c.Name + "." + m.Name
			}
			if m.Override {
				if !v.Override(m.Name, symbol) {
					v.AppendSlot(m.Name, symbol)
				}
				continue
			}
			v.AppendSlot(m.Name, symbol)
		}

		built[c.Name] = v
		return v
	}

	out := make([]*mir.ClassVTable, len(classes))
	for i, c := range classes {
		out[i] = build(c)
	}
	return out
}

func classKind(k ast.ClassKind) mir.ClassKind {
	if k == ast.ClassKindError {
		return mir.ClassKindError
	}
	return mir.ClassKindClass
}
