package catalogdata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vislog/pkg/catalog"
)

// CleanNarrative strips embedded HTML markup from a requirement's narrative
// text, returning the trimmed text content. Upstream narrative fields
// occasionally arrive as HTML fragments from the catalog's rich-text editor
// rather than plain text. Text with no '<' or '>', or a fragment that
// doesn't parse as HTML, is returned with only surrounding whitespace
// trimmed.
func CleanNarrative(raw string) string {
	if !strings.ContainsAny(raw, "<>") {
		return strings.TrimSpace(raw)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(doc.Text())
}

// CleanProgramNarratives walks a decoded Program and strips HTML from every
// narrative text field: requirement-label narratives and module label
// headings. Grouping structure is never touched. Called during ingestion,
// before the program is persisted.
func CleanProgramNarratives(p *catalog.Program) {
	if p == nil || p.Requirements == nil {
		return
	}
	switch p.Requirements.Kind {
	case catalog.RequirementsSingle:
		cleanModule(p.Requirements.Single)
	case catalog.RequirementsMany:
		for i := range p.Requirements.Many {
			cleanModule(&p.Requirements.Many[i])
		}
	}
}

func cleanModule(mod *catalog.RequirementModule) {
	if mod == nil {
		return
	}
	if mod.LabelTitle != "" {
		mod.LabelTitle = CleanNarrative(mod.LabelTitle)
	}
	cleanRequirement(mod.Requirement)
	for i := range mod.Requirements {
		cleanRequirement(&mod.Requirements[i])
	}
	for i := range mod.Emphases {
		cleanRequirement(&mod.Emphases[i])
	}
}

func cleanRequirement(req *catalog.Requirement) {
	if req == nil {
		return
	}
	if req.Narrative != nil {
		n := CleanNarrative(*req.Narrative)
		req.Narrative = &n
	}
}
