package catalog

import "fmt"

// String renders a ModuleKind the way it is persisted by the storage layer
// (see vislog/pkg/catalogdata), so storage round-trips don't depend on this
// package's internal numbering.
func (k ModuleKind) String() string {
	switch k {
	case ModuleSingleBasicRequirement:
		return "SingleBasicRequirement"
	case ModuleBasicRequirements:
		return "BasicRequirements"
	case ModuleSelectOneEmphasis:
		return "SelectOneEmphasis"
	case ModuleLabel:
		return "Label"
	case ModuleUnimplemented:
		return "Unimplemented"
	default:
		return "Unknown"
	}
}

// ParseModuleKind is the inverse of ModuleKind.String.
func ParseModuleKind(s string) (ModuleKind, error) {
	switch s {
	case "SingleBasicRequirement":
		return ModuleSingleBasicRequirement, nil
	case "BasicRequirements":
		return ModuleBasicRequirements, nil
	case "SelectOneEmphasis":
		return ModuleSelectOneEmphasis, nil
	case "Label":
		return ModuleLabel, nil
	case "Unimplemented":
		return ModuleUnimplemented, nil
	default:
		return 0, fmt.Errorf("unknown module kind %q", s)
	}
}

// String renders a ReqKind for storage.
func (k ReqKind) String() string {
	switch k {
	case RequirementCourses:
		return "Courses"
	case RequirementSelectFromCourses:
		return "SelectFromCourses"
	case RequirementLabel:
		return "Label"
	default:
		return "Unknown"
	}
}

// ParseReqKind is the inverse of ReqKind.String.
func ParseReqKind(s string) (ReqKind, error) {
	switch s {
	case "Courses":
		return RequirementCourses, nil
	case "SelectFromCourses":
		return RequirementSelectFromCourses, nil
	case "Label":
		return RequirementLabel, nil
	default:
		return 0, fmt.Errorf("unknown requirement kind %q", s)
	}
}

// ParseEntryKind is the inverse of EntryKind.String for the leaf/group kinds
// a stored CourseEntry can take (Course, Label, And, Or).
func ParseEntryKind(s string) (EntryKind, error) {
	switch s {
	case "Course":
		return EntryCourse, nil
	case "Label":
		return EntryLabel, nil
	case "And":
		return EntryAnd, nil
	case "Or":
		return EntryOr, nil
	default:
		return 0, fmt.Errorf("unknown entry kind %q", s)
	}
}
