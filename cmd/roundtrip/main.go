// Command roundtrip exercises the idempotence property the grouping parser
// is built to satisfy: rendering a parsed CourseEntries tree back through
// MarkerStream and re-parsing it must yield a structurally identical tree.
// It reads a cached program feed (see cmd/fetchcatalog) and walks every
// requirement's course list, reporting any requirement where the round trip
// fails to reproduce the original tree.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"reflect"

	"vislog/pkg/catalog"
	"vislog/pkg/catalogdata"
)

func main() {
	cacheName := flag.String("cache", "programs.json", "cache file name under the configured cache directory")
	flag.Parse()

	cfg := catalogdata.LoadConfig()

	raw, err := catalogdata.ReadCache(cfg, *cacheName)
	if err != nil {
		log.Fatalf("read cache: %v", err)
	}

	var programs []catalog.Program
	if err := json.Unmarshal(raw, &programs); err != nil {
		log.Fatalf("decode cached programs: %v", err)
	}

	checked, failed := 0, 0
	for _, p := range programs {
		if p.Requirements == nil {
			continue
		}
		for _, mod := range flattenForRoundtrip(*p.Requirements) {
			for _, req := range requirementsOf(mod) {
				entries, ok := coursesOf(req)
				if !ok || len(entries) == 0 {
					continue
				}
				checked++
				if err := checkRoundtrip(entries); err != nil {
					failed++
					fmt.Printf("%s: %v\n", p.Title, err)
				}
			}
		}
	}

	fmt.Printf("checked %d requirement course lists, %d failed round trip\n", checked, failed)
	if failed > 0 {
		log.Fatalf("roundtrip check failed")
	}
}

func checkRoundtrip(entries catalog.CourseEntries) error {
	raw := catalog.MarkerStream(entries)
	reparsed, err := catalog.NewParser(raw).Parse()
	if err != nil {
		return fmt.Errorf("re-parse: %w", err)
	}
	if !reflect.DeepEqual(entries, reparsed) {
		return fmt.Errorf("round trip produced a different tree")
	}
	return nil
}

func flattenForRoundtrip(r catalog.Requirements) []catalog.RequirementModule {
	switch r.Kind {
	case catalog.RequirementsSingle:
		if r.Single == nil {
			return nil
		}
		return []catalog.RequirementModule{*r.Single}
	case catalog.RequirementsMany:
		return r.Many
	default:
		return nil
	}
}

func requirementsOf(mod catalog.RequirementModule) []catalog.Requirement {
	switch mod.Kind {
	case catalog.ModuleSingleBasicRequirement:
		if mod.Requirement == nil {
			return nil
		}
		return []catalog.Requirement{*mod.Requirement}
	case catalog.ModuleBasicRequirements:
		return mod.Requirements
	case catalog.ModuleSelectOneEmphasis:
		return mod.Emphases
	default:
		return nil
	}
}

func coursesOf(req catalog.Requirement) (catalog.CourseEntries, bool) {
	switch req.Kind {
	case catalog.RequirementCourses:
		return req.Courses, true
	case catalog.RequirementSelectFromCourses:
		if req.SelectCourses == nil {
			return nil, false
		}
		return *req.SelectCourses, true
	default:
		return nil, false
	}
}
