package mir

// VTableSlot is one entry in a ClassVTable: a member name, the
// qualified symbol currently bound to it, and its stable slot index.
type VTableSlot struct {
	MemberName string
	Symbol     string
	SlotIndex  int
}

// ClassKind distinguishes an ordinary reference type from one declared
// `error` (a throwable class).
type ClassKind int

const (
	ClassKindClass ClassKind = iota
	ClassKindError
)

// ClassVTable is the virtual dispatch table for one class. Slot
// indices are stable across derived classes: a derived class that
// overrides a method keeps the base class's slot index for that
// member; only the symbol changes.
type ClassVTable struct {
	TypeName string
	Kind     ClassKind
	BaseType string // qualified name of the immediate base, empty if none
	Slots    []VTableSlot
}

// SlotFor returns the slot index for memberName, and whether it exists.
func (v *ClassVTable) SlotFor(memberName string) (int, bool) {
	for _, s := range v.Slots {
		if s.MemberName == memberName {
			return s.SlotIndex, true
		}
	}
	return -1, false
}

// Override replaces the symbol bound to an existing slot (by member
// name), preserving its slot index. It is a no-op if the member has no
// existing slot — callers should use AppendSlot for new members.
func (v *ClassVTable) Override(memberName, newSymbol string) bool {
	for i := range v.Slots {
		if v.Slots[i].MemberName == memberName {
			v.Slots[i].Symbol = newSymbol
			return true
		}
	}
	return false
}

// AppendSlot adds a new member at the next available slot index.
func (v *ClassVTable) AppendSlot(memberName, symbol string) int {
	idx := len(v.Slots)
	v.Slots = append(v.Slots, VTableSlot{MemberName: memberName, Symbol: symbol, SlotIndex: idx})
	return idx
}
