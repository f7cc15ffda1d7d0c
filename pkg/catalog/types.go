// Package catalog reconstructs a typed degree-requirement tree from the flat,
// marker-interleaved course sequences used by the upstream academic calendar.
package catalog

// GUID is a 16-byte identifier parsed from the upstream's brace-wrapped hex
// strings (see ParseGUID).
type GUID [16]byte

// Credits is a credit-hour range. Upper is nil when the upstream supplied a
// single value rather than a range.
type Credits struct {
	Lower uint8
	Upper *uint8
}

// Course is an atomic curricular unit and a leaf of a CourseEntries tree.
type Course struct {
	GUID        GUID
	URL         string
	Path        string
	SubjectCode string
	SubjectName string // optional
	Number      uint32
	Name        string // optional, absent for placeholder entries
	Credits     Credits
}

// Label is a narrative entry that appears inline among courses, e.g. "Select
// one of:". It is treated as a leaf exactly like Course for grouping
// purposes.
type Label struct {
	GUID        GUID
	URL         string
	Name        string
	Number      string // optional, kept as a raw string (not integer-parsed)
	SubjectCode string // optional
	Credits     Credits
}

// EntryKind discriminates the tagged union CourseEntry is built from.
type EntryKind uint8

const (
	EntryCourse EntryKind = iota
	EntryLabel
	EntryAnd
	EntryOr
	// EntryBlank marks the empty narrative separator. It never appears in an
	// output tree; it is only ever reported as the Entry of an
	// InvalidEntryError.
	EntryBlank
)

func (k EntryKind) String() string {
	switch k {
	case EntryCourse:
		return "Course"
	case EntryLabel:
		return "Label"
	case EntryAnd:
		return "And"
	case EntryOr:
		return "Or"
	case EntryBlank:
		return "Blank"
	default:
		return "Unknown"
	}
}

// CourseEntry is a tagged variant: exactly one of Course, Label, And, Or is
// populated, selected by Kind. This is the Go rendering of a sum type: a
// discriminator plus a union of payload fields, per the union-payload
// modeling the data is built around.
type CourseEntry struct {
	Kind   EntryKind
	Course *Course
	Label  *Label
	Group  CourseEntries // populated when Kind is EntryAnd or EntryOr
}

// CourseEntries is an ordered sequence of CourseEntry. Order is semantically
// significant and is preserved exactly as produced.
type CourseEntries []CourseEntry

func newLeafCourse(c Course) CourseEntry {
	return CourseEntry{Kind: EntryCourse, Course: &c}
}

func newLeafLabel(l Label) CourseEntry {
	return CourseEntry{Kind: EntryLabel, Label: &l}
}

// newGroup builds an And or Or node from op and children.
func newGroup(op operator, children CourseEntries) CourseEntry {
	if op == opAnd {
		return CourseEntry{Kind: EntryAnd, Group: children}
	}
	return CourseEntry{Kind: EntryOr, Group: children}
}

// operator is the internal And/Or discriminator used while assembling a
// group. It is distinct from EntryKind because a bare marker token never
// appears, by itself, as output.
type operator uint8

const (
	opAnd operator = iota
	opOr
)

func (o operator) String() string {
	if o == opAnd {
		return "And"
	}
	return "Or"
}

func (o operator) entryKind() EntryKind {
	if o == opAnd {
		return EntryAnd
	}
	return EntryOr
}
