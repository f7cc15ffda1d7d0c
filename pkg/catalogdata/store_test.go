package catalogdata

import (
	"context"
	"reflect"
	"testing"

	"vislog/pkg/catalog"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func mkGUID(b byte) catalog.GUID {
	var g catalog.GUID
	g[0] = b
	return g
}

func sampleProgram() *catalog.Program {
	title := "Single Requirement"
	return &catalog.Program{
		URL:   "https://example.edu/programs/basket-weaving",
		GUID:  mkGUID(0x11),
		Title: "Basket Weaving, B.A.",
		Requirements: &catalog.Requirements{
			Kind: catalog.RequirementsSingle,
			Single: &catalog.RequirementModule{
				Kind:  catalog.ModuleSingleBasicRequirement,
				Title: &title,
				Requirement: &catalog.Requirement{
					Kind: catalog.RequirementCourses,
					Courses: catalog.CourseEntries{
						{
							Kind: catalog.EntryAnd,
							Group: catalog.CourseEntries{
								{Kind: catalog.EntryCourse, Course: &catalog.Course{
									GUID: mkGUID(0x01), SubjectCode: "BSKT", Number: 101,
									Name: "Intro to Weaving", Credits: catalog.Credits{Lower: 3},
								}},
								{Kind: catalog.EntryCourse, Course: &catalog.Course{
									GUID: mkGUID(0x02), SubjectCode: "BSKT", Number: 201,
									Name: "Advanced Weaving", Credits: catalog.Credits{Lower: 3},
								}},
							},
						},
					},
				},
			},
		},
	}
}

func TestSQLiteStore_SaveAndGetProgram_RoundTrips(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	want := sampleProgram()
	if err := s.SaveProgram(ctx, want); err != nil {
		t.Fatalf("save program: %v", err)
	}

	got, err := s.GetProgram(ctx, want.GUID)
	if err != nil {
		t.Fatalf("get program: %v", err)
	}
	if got == nil {
		t.Fatal("get program: not found")
	}

	if got.URL != want.URL || got.Title != want.Title || got.GUID != want.GUID {
		t.Fatalf("program fields mismatch: got %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(got.Requirements, want.Requirements) {
		t.Fatalf("requirements tree mismatch:\ngot  %+v\nwant %+v", got.Requirements, want.Requirements)
	}
}

func TestSQLiteStore_SaveProgram_ReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	p := sampleProgram()
	if err := s.SaveProgram(ctx, p); err != nil {
		t.Fatalf("save program: %v", err)
	}

	p.Title = "Basket Weaving, B.S."
	p.Requirements = nil
	if err := s.SaveProgram(ctx, p); err != nil {
		t.Fatalf("re-save program: %v", err)
	}

	got, err := s.GetProgram(ctx, p.GUID)
	if err != nil {
		t.Fatalf("get program: %v", err)
	}
	if got.Title != "Basket Weaving, B.S." {
		t.Fatalf("title not updated: got %q", got.Title)
	}
	if got.Requirements != nil {
		t.Fatalf("expected nil requirements after replace, got %+v", got.Requirements)
	}
}

func TestSQLiteStore_GetProgram_NotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	got, err := s.GetProgram(context.Background(), mkGUID(0xff))
	if err != nil {
		t.Fatalf("get program: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing program, got %+v", got)
	}
}

func TestSQLiteStore_ListAndSearchPrograms(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	a := sampleProgram()
	a.GUID = mkGUID(0x21)
	a.Title = "Basket Weaving, B.A."

	b := sampleProgram()
	b.GUID = mkGUID(0x22)
	b.Title = "Underwater Basket Weaving, M.S."

	if err := s.SaveProgram(ctx, a); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := s.SaveProgram(ctx, b); err != nil {
		t.Fatalf("save b: %v", err)
	}

	all, err := s.ListPrograms(ctx)
	if err != nil {
		t.Fatalf("list programs: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 programs, got %d", len(all))
	}

	found, err := s.SearchPrograms(ctx, "underwater")
	if err != nil {
		t.Fatalf("search programs: %v", err)
	}
	if len(found) != 1 || found[0].Title != b.Title {
		t.Fatalf("expected one match for %q, got %+v", b.Title, found)
	}
}

func TestSQLiteStore_SelectFromCourses_RoundTrips(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	entries := catalog.CourseEntries{
		{Kind: catalog.EntryOr, Group: catalog.CourseEntries{
			{Kind: catalog.EntryCourse, Course: &catalog.Course{
				GUID: mkGUID(0x31), SubjectCode: "ARTS", Number: 100,
				Name: "Ceramics I", Credits: catalog.Credits{Lower: 3},
			}},
			{Kind: catalog.EntryLabel, Label: &catalog.Label{
				GUID: mkGUID(0x32), Name: "any studio elective",
				Credits: catalog.Credits{Lower: 3},
			}},
		}},
	}
	p := &catalog.Program{
		URL:   "https://example.edu/programs/studio-arts",
		GUID:  mkGUID(0x30),
		Title: "Studio Arts Minor",
		Requirements: &catalog.Requirements{
			Kind: catalog.RequirementsSingle,
			Single: &catalog.RequirementModule{
				Kind: catalog.ModuleSingleBasicRequirement,
				Requirement: &catalog.Requirement{
					Kind:          catalog.RequirementSelectFromCourses,
					SelectTitle:   "Select one of the following",
					SelectCourses: &entries,
				},
			},
		},
	}

	if err := s.SaveProgram(ctx, p); err != nil {
		t.Fatalf("save program: %v", err)
	}
	got, err := s.GetProgram(ctx, p.GUID)
	if err != nil {
		t.Fatalf("get program: %v", err)
	}
	if !reflect.DeepEqual(got.Requirements, p.Requirements) {
		t.Fatalf("requirements mismatch:\ngot  %+v\nwant %+v", got.Requirements, p.Requirements)
	}
}
