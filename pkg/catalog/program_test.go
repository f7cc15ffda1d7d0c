package catalog

import (
	"encoding/json"
	"testing"
)

func TestCourseEntries_FastPathSingleObject(t *testing.T) {
	raw := `{
		"url": "https://example.edu/c/1",
		"path": "/1",
		"guid": "{00000000-0000-0000-0000-000000000001}",
		"number": "101",
		"subject_code": "CS",
		"credits": "3",
		"is_narrative": "False"
	}`

	var entries CourseEntries
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != EntryCourse {
		t.Fatalf("expected one course leaf, got %+v", entries)
	}
	if entries[0].Course.Number != 101 {
		t.Fatalf("got number %d", entries[0].Course.Number)
	}
}

func TestCourseEntries_ArrayGoesThroughGroupingParser(t *testing.T) {
	raw := `[
		{"guid": "{00000000000000000000000000000001}", "is_narrative": "True", "name": ""},
		{"guid": "{00000000000000000000000000000002}", "number": "101", "subject_code": "CS", "credits": "3", "is_narrative": "False"},
		{"guid": "{00000000000000000000000000000003}", "name": "And", "is_narrative": "True"},
		{"guid": "{00000000000000000000000000000004}", "number": "102", "subject_code": "CS", "credits": "3", "is_narrative": "False"}
	]`

	var entries CourseEntries
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != EntryAnd || len(entries[0].Group) != 2 {
		t.Fatalf("expected one And group of 2, got %+v", entries)
	}
}

func TestCourseEntries_MalformedArrayPropagatesError(t *testing.T) {
	raw := `[
		{"guid": "{00000000000000000000000000000001}", "name": "And", "is_narrative": "True"}
	]`
	var entries CourseEntries
	err := json.Unmarshal([]byte(raw), &entries)
	if err == nil {
		t.Fatalf("expected an error, the And marker can't start input")
	}
}

func TestProgram_DecodesGUIDAndSingleRequirementModule(t *testing.T) {
	raw := `{
		"url": "https://example.edu/programs/1",
		"guid": "{00000000-0000-0000-0000-0000000000ab}",
		"title": "Major in Computer Science",
		"requirements": {
			"type": "Single",
			"data": {
				"type": "SingleBasicRequirement",
				"data": {
					"title": "Core",
					"requirement": {
						"type": "Courses",
						"data": {
							"title": null,
							"courses": [
								{"guid": "{00000000000000000000000000000001}", "number": "101", "subject_code": "CS", "credits": "3", "is_narrative": "False"}
							]
						}
					}
				}
			}
		}
	}`

	var p Program
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != "Major in Computer Science" {
		t.Fatalf("got title %q", p.Title)
	}
	if p.Requirements == nil || p.Requirements.Kind != RequirementsSingle {
		t.Fatalf("expected a Single requirements value, got %+v", p.Requirements)
	}
	mod := p.Requirements.Single
	if mod.Kind != ModuleSingleBasicRequirement || mod.Requirement == nil {
		t.Fatalf("expected SingleBasicRequirement, got %+v", mod)
	}
	if mod.Requirement.Kind != RequirementCourses || len(mod.Requirement.Courses) != 1 {
		t.Fatalf("expected one course, got %+v", mod.Requirement)
	}
}

func TestRequirementModule_UnknownVariantIsUnimplemented(t *testing.T) {
	raw := `{"type": "SelectTrack", "data": {"whatever": true}}`
	var mod RequirementModule
	if err := json.Unmarshal([]byte(raw), &mod); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mod.Kind != ModuleUnimplemented {
		t.Fatalf("expected ModuleUnimplemented, got %v", mod.Kind)
	}
}

func TestProgram_MarshalRoundTrip(t *testing.T) {
	raw := `{
		"url": "https://example.edu/programs/1",
		"guid": "{00000000-0000-0000-0000-0000000000ab}",
		"title": "Major in Computer Science",
		"requirements": {
			"type": "Many",
			"data": [
				{
					"type": "SingleBasicRequirement",
					"data": {
						"title": "Core",
						"requirement": {
							"type": "Courses",
							"data": {
								"title": null,
								"courses": [
									{"guid": "{00000000000000000000000000000001}", "number": "101", "subject_code": "CS", "credits": "3", "is_narrative": "False"}
								]
							}
						}
					}
				},
				{"type": "Label", "data": {"title": "Electives"}}
			]
		}
	}`

	var p Program
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	encoded, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var reparsed Program
	if err := json.Unmarshal(encoded, &reparsed); err != nil {
		t.Fatalf("re-parse marshaled program: %v\nencoded: %s", err, encoded)
	}
	if reparsed.GUID != p.GUID {
		t.Fatalf("guid changed across round trip: %v vs %v", p.GUID, reparsed.GUID)
	}
	if reparsed.Title != p.Title {
		t.Fatalf("title changed across round trip")
	}
	if reparsed.Requirements == nil || reparsed.Requirements.Kind != RequirementsMany || len(reparsed.Requirements.Many) != 2 {
		t.Fatalf("requirements changed shape across round trip: %+v", reparsed.Requirements)
	}
	if reparsed.Requirements.Many[1].Kind != ModuleLabel || reparsed.Requirements.Many[1].LabelTitle != "Electives" {
		t.Fatalf("label module changed across round trip: %+v", reparsed.Requirements.Many[1])
	}
}

func TestProgram_NoRequirements(t *testing.T) {
	raw := `{
		"url": "https://example.edu/programs/2",
		"guid": "{00000000-0000-0000-0000-0000000000ac}",
		"title": "Certificate Stub",
		"requirements": null
	}`
	var p Program
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Requirements != nil {
		t.Fatalf("expected nil requirements, got %+v", p.Requirements)
	}
}
