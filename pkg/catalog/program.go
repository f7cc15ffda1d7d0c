package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Program is one parsed catalog entry: its title, its official catalog URL,
// and the tree of requirement modules that describe how to complete it.
// Requirements is nil for programs the upstream catalog lists with no
// requirement data at all (e.g. some certificate stubs).
type Program struct {
	URL          string
	GUID         GUID
	Title        string
	Requirements *Requirements
}

// RequirementsKind discriminates the Requirements sum type.
type RequirementsKind uint8

const (
	RequirementsSingle RequirementsKind = iota
	RequirementsMany
	// RequirementsSelectTrack is an untyped passthrough: observed once in the
	// wild ("Minor in Film Studies") with no sample of its actual course
	// shape available. See DESIGN.md.
	RequirementsSelectTrack
)

// Requirements is a sum type over a single requirement module, a list of
// them, or the SelectTrack passthrough.
type Requirements struct {
	Kind   RequirementsKind
	Single *RequirementModule
	Many   []RequirementModule
	Raw    json.RawMessage // populated only when Kind == RequirementsSelectTrack
}

// ModuleKind discriminates the RequirementModule sum type.
type ModuleKind uint8

const (
	ModuleSingleBasicRequirement ModuleKind = iota
	ModuleBasicRequirements
	ModuleSelectOneEmphasis
	ModuleLabel
	ModuleUnimplemented
)

// RequirementModule is a sum type over the five module shapes the upstream
// catalog emits. Exactly the fields relevant to Kind are populated.
type RequirementModule struct {
	Kind ModuleKind

	Title *string // SingleBasicRequirement, BasicRequirements

	// SingleBasicRequirement
	Requirement *Requirement

	// BasicRequirements
	Requirements []Requirement

	// SelectOneEmphasis: decoded as a plain list of Requirements, see
	// DESIGN.md. The raw JSON is not kept; a payload that does not decode as
	// Requirements fails the decode.
	Emphases []Requirement

	// Label
	LabelTitle string

	// Unimplemented: preserves the raw JSON for module shapes not yet
	// modeled, so ingestion never silently drops data.
	Raw json.RawMessage
}

// ReqKind discriminates the Requirement sum type.
type ReqKind uint8

const (
	RequirementCourses ReqKind = iota
	RequirementSelectFromCourses
	RequirementLabel
)

// Requirement is a sum type over the three requirement shapes: a plain
// course list, a "select N of" course list, or a narrative label.
type Requirement struct {
	Kind ReqKind

	Title *string // Courses, Label

	// Courses
	Courses CourseEntries

	// SelectFromCourses
	SelectTitle   string
	SelectCourses *CourseEntries

	// Label
	Narrative *string // may contain embedded HTML; see catalogdata.CleanNarrative
}

// rawRequirementEntry mirrors the wire shape of one element of a
// Requirement's "course" field, used only to distinguish the array form
// (raw entries to classify) from the single-object fast-path form.
type rawRequirementEntry struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	GUID        string `json:"guid"`
	Name        string `json:"name"`
	Number      string `json:"number"`
	SubjectName string `json:"subject_name"`
	SubjectCode string `json:"subject_code"`
	Credits     string `json:"credits"`
	IsNarrative string `json:"is_narrative"`
}

func (e rawRequirementEntry) toRaw() RawCourseEntry {
	return RawCourseEntry{
		URL:         e.URL,
		Path:        e.Path,
		GUID:        e.GUID,
		Name:        e.Name,
		Number:      e.Number,
		SubjectName: e.SubjectName,
		SubjectCode: e.SubjectCode,
		Credits:     e.Credits,
		IsNarrative: e.IsNarrative,
	}
}

// UnmarshalJSON implements the boundary fast path: when the upstream
// "course" field is a single JSON object rather than an array, it is a
// single embedded course and the state machine is bypassed entirely in
// favor of a one-leaf CourseEntries. Otherwise the array is classified and
// fed to the grouping parser.
func (c *CourseEntries) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*c = CourseEntries{}
		return nil
	}

	if trimmed[0] == '{' {
		var entry rawRequirementEntry
		if err := json.Unmarshal(trimmed, &entry); err != nil {
			return fmt.Errorf("decode single-course fast path: %w", err)
		}
		classified, err := classifyEntry(entry.toRaw())
		if err != nil {
			return fmt.Errorf("classify single-course fast path: %w", err)
		}
		*c = CourseEntries{classified.toLeaf()}
		return nil
	}

	var entries []rawRequirementEntry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return fmt.Errorf("decode course array: %w", err)
	}

	raw := make([]RawCourseEntry, len(entries))
	for i, e := range entries {
		raw[i] = e.toRaw()
	}

	parsed, err := NewParser(raw).Parse()
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalJSON renders a CourseEntries tree back through MarkerStream, so a
// round trip through JSON exercises the same marker-stream encoding used by
// cmd/roundtrip's idempotence check.
func (c CourseEntries) MarshalJSON() ([]byte, error) {
	raw := MarkerStream(c)
	entries := make([]rawRequirementEntry, len(raw))
	for i, r := range raw {
		entries[i] = rawRequirementEntry{
			URL:         r.URL,
			Path:        r.Path,
			GUID:        r.GUID,
			Name:        r.Name,
			Number:      r.Number,
			SubjectName: r.SubjectName,
			SubjectCode: r.SubjectCode,
			Credits:     r.Credits,
			IsNarrative: r.IsNarrative,
		}
	}
	return json.Marshal(entries)
}

// wireProgram mirrors the upstream Program JSON shape: a brace-wrapped GUID
// string and an optional nested Requirements envelope.
type wireProgram struct {
	URL          string          `json:"url"`
	GUID         string          `json:"guid"`
	Title        string          `json:"title"`
	Requirements json.RawMessage `json:"requirements"`
}

// UnmarshalJSON decodes the program envelope, including the brace-wrapped
// GUID field and the optional Requirements sum type.
func (p *Program) UnmarshalJSON(data []byte) error {
	var w wireProgram
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode program envelope: %w", err)
	}

	guid, err := ParseGUID(stripBraces(w.GUID))
	if err != nil {
		return fmt.Errorf("program guid: %w", err)
	}

	p.URL = w.URL
	p.GUID = guid
	p.Title = w.Title
	p.Requirements = nil

	if len(w.Requirements) == 0 || string(bytes.TrimSpace(w.Requirements)) == "null" {
		return nil
	}
	var reqs Requirements
	if err := json.Unmarshal(w.Requirements, &reqs); err != nil {
		return fmt.Errorf("program requirements: %w", err)
	}
	p.Requirements = &reqs
	return nil
}

// MarshalJSON renders the program envelope, the inverse of UnmarshalJSON:
// brace-wrapped GUID, and Requirements (if any) through its own tagged-union
// MarshalJSON.
func (p Program) MarshalJSON() ([]byte, error) {
	var reqData json.RawMessage
	if p.Requirements != nil {
		data, err := json.Marshal(p.Requirements)
		if err != nil {
			return nil, fmt.Errorf("encode program requirements: %w", err)
		}
		reqData = data
	}
	return json.Marshal(wireProgram{
		URL:          p.URL,
		GUID:         guidToRaw(p.GUID),
		Title:        p.Title,
		Requirements: reqData,
	})
}

// marshalTagged encodes v and wraps it in the {"type":...,"data":...}
// envelope every sum type in this package decodes from.
func marshalTagged(typ string, v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return json.Marshal(taggedEnvelope{Type: typ, Data: data})
}

// taggedEnvelope is the {"type": ..., "data": ...} shape every sum type in
// this package decodes from: a string discriminator alongside the variant's
// payload.
type taggedEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the Requirements sum type: Single, Many, or the
// SelectTrack passthrough (see DESIGN.md Open Question).
func (r *Requirements) UnmarshalJSON(data []byte) error {
	var env taggedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode requirements envelope: %w", err)
	}

	switch env.Type {
	case "Single":
		var mod RequirementModule
		if err := json.Unmarshal(env.Data, &mod); err != nil {
			return fmt.Errorf("requirements.Single: %w", err)
		}
		r.Kind = RequirementsSingle
		r.Single = &mod
	case "Many":
		var mods []RequirementModule
		if err := json.Unmarshal(env.Data, &mods); err != nil {
			return fmt.Errorf("requirements.Many: %w", err)
		}
		r.Kind = RequirementsMany
		r.Many = mods
	case "SelectTrack":
		r.Kind = RequirementsSelectTrack
		r.Raw = env.Data
	default:
		return fmt.Errorf("unknown requirements variant %q", env.Type)
	}
	return nil
}

// MarshalJSON renders the Requirements sum type back into its tagged-union
// wire form, the inverse of UnmarshalJSON.
func (r Requirements) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RequirementsSingle:
		return marshalTagged("Single", r.Single)
	case RequirementsMany:
		return marshalTagged("Many", r.Many)
	case RequirementsSelectTrack:
		return json.Marshal(taggedEnvelope{Type: "SelectTrack", Data: r.Raw})
	default:
		return nil, fmt.Errorf("unknown requirements kind %d", r.Kind)
	}
}

type wireBasicRequirement struct {
	Title       *string     `json:"title"`
	Requirement Requirement `json:"requirement"`
}

type wireBasicRequirements struct {
	Title        *string       `json:"title"`
	Requirements []Requirement `json:"requirements"`
}

type wireSelectOneEmphasis struct {
	Emphases []Requirement `json:"emphases"`
}

type wireModuleLabel struct {
	Title string `json:"title"`
}

// UnmarshalJSON decodes the RequirementModule sum type. An unrecognized
// variant is preserved verbatim as ModuleUnimplemented rather than rejected,
// so ingestion never silently drops a program's data.
func (m *RequirementModule) UnmarshalJSON(data []byte) error {
	var env taggedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode requirement-module envelope: %w", err)
	}

	switch env.Type {
	case "SingleBasicRequirement":
		var w wireBasicRequirement
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return fmt.Errorf("module.SingleBasicRequirement: %w", err)
		}
		m.Kind = ModuleSingleBasicRequirement
		m.Title = w.Title
		m.Requirement = &w.Requirement
	case "BasicRequirements":
		var w wireBasicRequirements
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return fmt.Errorf("module.BasicRequirements: %w", err)
		}
		m.Kind = ModuleBasicRequirements
		m.Title = w.Title
		m.Requirements = w.Requirements
	case "SelectOneEmphasis":
		var w wireSelectOneEmphasis
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return fmt.Errorf("module.SelectOneEmphasis: %w", err)
		}
		m.Kind = ModuleSelectOneEmphasis
		m.Emphases = w.Emphases
	case "Label":
		var w wireModuleLabel
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return fmt.Errorf("module.Label: %w", err)
		}
		m.Kind = ModuleLabel
		m.LabelTitle = w.Title
	default:
		m.Kind = ModuleUnimplemented
		m.Raw = data
	}
	return nil
}

// MarshalJSON renders the RequirementModule sum type back into its
// tagged-union wire form, the inverse of UnmarshalJSON. ModuleUnimplemented
// replays the raw envelope it was decoded from verbatim.
func (m RequirementModule) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case ModuleSingleBasicRequirement:
		var req Requirement
		if m.Requirement != nil {
			req = *m.Requirement
		}
		return marshalTagged("SingleBasicRequirement", wireBasicRequirement{Title: m.Title, Requirement: req})
	case ModuleBasicRequirements:
		return marshalTagged("BasicRequirements", wireBasicRequirements{Title: m.Title, Requirements: m.Requirements})
	case ModuleSelectOneEmphasis:
		return marshalTagged("SelectOneEmphasis", wireSelectOneEmphasis{Emphases: m.Emphases})
	case ModuleLabel:
		return marshalTagged("Label", wireModuleLabel{Title: m.LabelTitle})
	case ModuleUnimplemented:
		return m.Raw, nil
	default:
		return nil, fmt.Errorf("unknown module kind %d", m.Kind)
	}
}

type wireCourses struct {
	Title   *string       `json:"title"`
	Courses CourseEntries `json:"courses"`
}

type wireSelectFromCourses struct {
	Title   string         `json:"title"`
	Courses *CourseEntries `json:"courses"`
}

type wireRequirementLabel struct {
	Title        *string `json:"title"`
	ReqNarrative *string `json:"req_narrative"`
}

// UnmarshalJSON decodes the Requirement sum type: Courses, SelectFromCourses,
// or Label.
func (r *Requirement) UnmarshalJSON(data []byte) error {
	var env taggedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode requirement envelope: %w", err)
	}

	switch env.Type {
	case "Courses":
		var w wireCourses
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return fmt.Errorf("requirement.Courses: %w", err)
		}
		r.Kind = RequirementCourses
		r.Title = w.Title
		r.Courses = w.Courses
	case "SelectFromCourses":
		var w wireSelectFromCourses
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return fmt.Errorf("requirement.SelectFromCourses: %w", err)
		}
		r.Kind = RequirementSelectFromCourses
		r.SelectTitle = w.Title
		r.SelectCourses = w.Courses
	case "Label":
		var w wireRequirementLabel
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return fmt.Errorf("requirement.Label: %w", err)
		}
		r.Kind = RequirementLabel
		r.Title = w.Title
		r.Narrative = w.ReqNarrative
	default:
		return fmt.Errorf("unknown requirement variant %q", env.Type)
	}
	return nil
}

// MarshalJSON renders the Requirement sum type back into its tagged-union
// wire form, the inverse of UnmarshalJSON.
func (r Requirement) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RequirementCourses:
		return marshalTagged("Courses", wireCourses{Title: r.Title, Courses: r.Courses})
	case RequirementSelectFromCourses:
		return marshalTagged("SelectFromCourses", wireSelectFromCourses{Title: r.SelectTitle, Courses: r.SelectCourses})
	case RequirementLabel:
		return marshalTagged("Label", wireRequirementLabel{Title: r.Title, ReqNarrative: r.Narrative})
	default:
		return nil, fmt.Errorf("unknown requirement kind %d", r.Kind)
	}
}
