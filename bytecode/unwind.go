package bytecode

import "github.com/chbinousamy/octave/ast"

// EntryKind identifies the protected construct an unwind entry models.
type EntryKind int

const (
	KindInvalid EntryKind = iota
	KindLoop
	KindTryCatch
	KindUnwindProtect
)

// String returns a short name for the entry kind.
func (k EntryKind) String() string {
	switch k {
	case KindLoop:
		return "loop"
	case KindTryCatch:
		return "try-catch"
	case KindUnwindProtect:
		return "unwind-protect"
	default:
		return "invalid"
	}
}

// UnwindEntry describes one protected instruction range [Start,End). Target
// is the handler or resume address: the catch block for a try, the cleanup
// block for an unwind-protect, and the first instruction past the loop body
// (the break target) for a loop. Depth is the operand-stack depth to restore
// before transferring. Entries nest strictly per lexical scoping and are
// ordered outermost-first, so the innermost entry containing an address is
// the last match.
type UnwindEntry struct {
	Start  int
	End    int
	Target int
	Depth  int
	Kind   EntryKind
}

// Contains reports whether the entry guards the given instruction address.
func (e *UnwindEntry) Contains(ip int) bool {
	return ip >= e.Start && ip < e.End
}

// LocEntry maps the contiguous instruction range [Start,End) to a source
// position. Ranges are ordered and non-overlapping.
type LocEntry struct {
	Start  int
	End    int
	Line   int
	Column int
}

// ArgNameEntry maps an instruction range to the names of the arguments of a
// call or index site, plus the name of the indexed object, for
// argument-specific error messages.
type ArgNameEntry struct {
	Start    int
	End      int
	ArgNames []string
	ObjName  string
}

// UnwindData aggregates the per-unit side tables. It is owned exclusively by
// its Code and read only on the diagnostic and unwind paths.
type UnwindData struct {
	Entries   []UnwindEntry
	Locations []LocEntry
	ArgNames  []ArgNameEntry

	// SlotToPersistent maps a frame slot to its index in the unit's
	// persistent storage.
	SlotToPersistent map[int]int

	// IPToNode maps an instruction address to the syntax-tree node it was
	// compiled from. Populated only when debug support is requested.
	IPToNode map[int]ast.Node

	// CaptureOffsets maps a captured-variable ordinal in the enclosing frame
	// to the frame slot it occupies in this unit.
	CaptureOffsets map[int]int

	Name     string
	File     string
	CodeSize int
	IDCount  int
}

// Innermost returns the index of the innermost entry containing the given
// instruction address, or -1. Entries are ordered outermost-first, so the
// scan runs back to front.
func (u *UnwindData) Innermost(ip int) int {
	for i := len(u.Entries) - 1; i >= 0; i-- {
		if u.Entries[i].Contains(ip) {
			return i
		}
	}
	return -1
}
