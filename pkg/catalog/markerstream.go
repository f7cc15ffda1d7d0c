package catalog

import (
	"fmt"
	"strconv"
)

// MarkerStream renders a parsed tree back into the flat raw-entry marker
// stream that would reproduce it, the inverse of Parser.Parse. It exists to
// support round-trip testing: re-parsing its output must yield a
// structurally identical tree.
func MarkerStream(entries CourseEntries) []RawCourseEntry {
	var out []RawCourseEntry
	for i, e := range entries {
		switch e.Kind {
		case EntryCourse:
			out = append(out, courseToRaw(*e.Course))
		case EntryLabel:
			out = append(out, labelToRaw(*e.Label))
		case EntryAnd, EntryOr:
			out = append(out, blankRaw())
			out = append(out, renderGroup(e)...)
			// A group followed by more top-level entries needs an explicit
			// closing Blank, or the next token would either dangle or be
			// mistaken for the start of a nested sub-group.
			if i < len(entries)-1 {
				out = append(out, blankRaw())
			}
		}
	}
	return out
}

// renderGroup renders the body of a top-level And/Or node, excluding the
// Blank that opens it (already emitted by the caller).
func renderGroup(group CourseEntry) []RawCourseEntry {
	if len(group.Group) == 0 {
		return nil
	}
	if isSubgroup(group.Group[0]) {
		return renderNest(group.Group)
	}
	return renderFlatBody(group)
}

func isSubgroup(e CourseEntry) bool {
	return e.Kind == EntryAnd || e.Kind == EntryOr
}

// renderFlatBody renders a flat group's leaves, interleaving the group's own
// operator marker between them.
func renderFlatBody(group CourseEntry) []RawCourseEntry {
	op := kindOperator(group.Kind)
	var out []RawCourseEntry
	for i, leaf := range group.Group {
		if i > 0 {
			out = append(out, operatorRaw(op))
		}
		out = append(out, leafToRaw(leaf))
	}
	return out
}

// renderNest renders a nest's sub-groups: the first sub-group's body, then
// for each following sub-group a closing Blank (and, only between the first
// and second sub-group, the extra Blank that originally promoted the flat
// group into a nest), then that sub-group's body.
func renderNest(subs CourseEntries) []RawCourseEntry {
	var out []RawCourseEntry
	out = append(out, renderFlatBody(subs[0])...)
	for i := 1; i < len(subs); i++ {
		out = append(out, blankRaw())
		if i == 1 {
			out = append(out, blankRaw())
		}
		out = append(out, renderFlatBody(subs[i])...)
	}
	return out
}

func kindOperator(k EntryKind) operator {
	if k == EntryAnd {
		return opAnd
	}
	return opOr
}

func blankRaw() RawCourseEntry {
	return RawCourseEntry{IsNarrative: "True"}
}

func operatorRaw(op operator) RawCourseEntry {
	name := "Or"
	if op == opAnd {
		name = "And"
	}
	return RawCourseEntry{Name: name, IsNarrative: "True"}
}

func leafToRaw(e CourseEntry) RawCourseEntry {
	if e.Kind == EntryLabel {
		return labelToRaw(*e.Label)
	}
	return courseToRaw(*e.Course)
}

func guidToRaw(g GUID) string {
	return fmt.Sprintf("{%x}", g[:])
}

func courseToRaw(c Course) RawCourseEntry {
	return RawCourseEntry{
		URL:         c.URL,
		Path:        c.Path,
		GUID:        guidToRaw(c.GUID),
		Name:        c.Name,
		Number:      strconv.FormatUint(uint64(c.Number), 10),
		SubjectName: c.SubjectName,
		SubjectCode: c.SubjectCode,
		Credits:     creditsToRaw(c.Credits),
		IsNarrative: "False",
	}
}

func labelToRaw(l Label) RawCourseEntry {
	return RawCourseEntry{
		URL:         l.URL,
		GUID:        guidToRaw(l.GUID),
		Name:        l.Name,
		Number:      l.Number,
		SubjectCode: l.SubjectCode,
		Credits:     creditsToRaw(l.Credits),
		IsNarrative: "True",
	}
}

func creditsToRaw(c Credits) string {
	if c.Upper == nil {
		return strconv.Itoa(int(c.Lower))
	}
	return fmt.Sprintf("%d-%d", c.Lower, *c.Upper)
}
