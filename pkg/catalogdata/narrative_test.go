package catalogdata

import (
	"testing"

	"vislog/pkg/catalog"
)

func TestCleanNarrative_PlainTextIsUntouched(t *testing.T) {
	got := CleanNarrative("Complete 12 credit hours of electives.")
	if got != "Complete 12 credit hours of electives." {
		t.Fatalf("got %q", got)
	}
}

func TestCleanNarrative_StripsMarkup(t *testing.T) {
	got := CleanNarrative(`<p>Complete <strong>12</strong> credit hours.</p>`)
	if got != "Complete 12 credit hours." {
		t.Fatalf("got %q", got)
	}
}

func TestCleanNarrative_Idempotent(t *testing.T) {
	once := CleanNarrative(`<p>Select  one of:</p>`)
	twice := CleanNarrative(once)
	if once != twice {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}

func TestCleanProgramNarratives_WalksRequirementTree(t *testing.T) {
	narrative := `<p>See an <em>advisor</em> before registering.</p>`
	p := &catalog.Program{
		Title: "Advising Heavy Degree",
		Requirements: &catalog.Requirements{
			Kind: catalog.RequirementsMany,
			Many: []catalog.RequirementModule{
				{Kind: catalog.ModuleLabel, LabelTitle: "<h2>General Education</h2>"},
				{
					Kind: catalog.ModuleBasicRequirements,
					Requirements: []catalog.Requirement{
						{Kind: catalog.RequirementLabel, Narrative: &narrative},
					},
				},
			},
		},
	}

	CleanProgramNarratives(p)

	if got := p.Requirements.Many[0].LabelTitle; got != "General Education" {
		t.Fatalf("module label not cleaned: %q", got)
	}
	if got := *p.Requirements.Many[1].Requirements[0].Narrative; got != "See an advisor before registering." {
		t.Fatalf("narrative not cleaned: %q", got)
	}
}
