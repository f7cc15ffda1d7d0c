package catalog

import (
	"fmt"
	"strconv"
)

// RawCourseEntry is one element of the upstream course array, prior to
// classification. All fields arrive as strings, matching the upstream's use
// of string-valued booleans and numbers.
type RawCourseEntry struct {
	URL         string
	Path        string
	GUID        string // brace-wrapped hex
	Name        string // optional
	Number      string // optional
	SubjectName string // optional
	SubjectCode string // optional
	Credits     string
	IsNarrative string // "True" or "False"
}

// classifiedKind tags the parser's input stream: markers (And, Or, Blank)
// carry no payload, leaves (Label, Course) carry the parsed value. This is
// kept distinct from EntryKind, which tags output tree nodes only — a
// marker never survives into the tree.
type classifiedKind uint8

const (
	ckAnd classifiedKind = iota
	ckOr
	ckBlank
	ckLabel
	ckCourse
)

func (k classifiedKind) String() string {
	switch k {
	case ckAnd:
		return "And"
	case ckOr:
		return "Or"
	case ckBlank:
		return "Blank"
	case ckLabel:
		return "Label"
	case ckCourse:
		return "Course"
	default:
		return "Unknown"
	}
}

type classifiedEntry struct {
	kind   classifiedKind
	course *Course
	label  *Label
}

func (e classifiedEntry) toLeaf() CourseEntry {
	if e.kind == ckLabel {
		return newLeafLabel(*e.label)
	}
	return newLeafCourse(*e.course)
}

// entryKind maps a classified entry onto the public EntryKind space, used to
// report InvalidEntryError.
func (k classifiedKind) entryKind() EntryKind {
	switch k {
	case ckAnd:
		return EntryAnd
	case ckOr:
		return EntryOr
	case ckLabel:
		return EntryLabel
	case ckCourse:
		return EntryCourse
	default:
		return EntryBlank
	}
}

// classifyEntry converts a single raw entry into a classified marker or
// leaf, the form the grouping parser consumes.
//
// Classification fails with a *MalformedEntryError when a GUID or credits
// string cannot be parsed, or a non-narrative entry is missing a required
// field.
func classifyEntry(raw RawCourseEntry) (classifiedEntry, error) {
	if raw.IsNarrative == "True" && raw.Name != "" {
		switch raw.Name {
		case "And":
			return classifiedEntry{kind: ckAnd}, nil
		case "Or":
			return classifiedEntry{kind: ckOr}, nil
		default:
			return classifyLabel(raw)
		}
	}
	if raw.IsNarrative == "True" && raw.Name == "" {
		return classifiedEntry{kind: ckBlank}, nil
	}

	return classifyCourse(raw)
}

func classifyLabel(raw RawCourseEntry) (classifiedEntry, error) {
	guid, err := ParseGUID(stripBraces(raw.GUID))
	if err != nil {
		return classifiedEntry{}, &MalformedEntryError{Reason: "invalid guid", Err: err}
	}
	credits, err := ParseCredits(raw.Credits)
	if err != nil {
		return classifiedEntry{}, &MalformedEntryError{Reason: "invalid credits", Err: err}
	}

	label := Label{
		GUID:        guid,
		URL:         raw.URL,
		Name:        raw.Name,
		Number:      raw.Number,
		SubjectCode: raw.SubjectCode,
		Credits:     credits,
	}
	return classifiedEntry{kind: ckLabel, label: &label}, nil
}

func classifyCourse(raw RawCourseEntry) (classifiedEntry, error) {
	if raw.Number == "" {
		return classifiedEntry{}, &MalformedEntryError{Reason: "course missing number"}
	}
	if raw.SubjectCode == "" {
		return classifiedEntry{}, &MalformedEntryError{Reason: "course missing subject_code"}
	}

	number, err := strconv.ParseUint(raw.Number, 10, 32)
	if err != nil {
		return classifiedEntry{}, &MalformedEntryError{Reason: fmt.Sprintf("course number %q is not an integer", raw.Number), Err: err}
	}

	guid, err := ParseGUID(stripBraces(raw.GUID))
	if err != nil {
		return classifiedEntry{}, &MalformedEntryError{Reason: "invalid guid", Err: err}
	}
	credits, err := ParseCredits(raw.Credits)
	if err != nil {
		return classifiedEntry{}, &MalformedEntryError{Reason: "invalid credits", Err: err}
	}

	course := Course{
		GUID:        guid,
		URL:         raw.URL,
		Path:        raw.Path,
		SubjectCode: raw.SubjectCode,
		SubjectName: raw.SubjectName,
		Number:      uint32(number),
		Name:        raw.Name,
		Credits:     credits,
	}
	return classifiedEntry{kind: ckCourse, course: &course}, nil
}
