// Command fetchcatalog performs a one-shot fetch of the upstream program
// feed, caches the raw response, and ingests every program into the
// configured store. It is the offline counterpart to POST /api/admin/refresh,
// useful for seeding a fresh database or running ingestion from a cron job
// rather than an HTTP trigger.
package main

import (
	"context"
	"log"

	"vislog/pkg/catalogdata"
)

func main() {
	cfg := catalogdata.LoadConfig()
	ctx := context.Background()

	store, err := catalogdata.OpenStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	log.Println("fetching program feed…")
	programs, raw, fetchErr := catalogdata.FetchAllPrograms(ctx, cfg)

	if len(raw) > 0 {
		if path, err := catalogdata.WriteCache(cfg, "programs.json", raw); err != nil {
			log.Printf("cache write failed (continuing): %v", err)
		} else {
			log.Printf("wrote raw response to %s", path)
		}
	}

	if fetchErr != nil {
		log.Fatalf("fetch programs: %v", fetchErr)
	}
	log.Printf("fetched %d programs", len(programs))

	// Some catalogs list every program in the feed but only carry requirement
	// data on the per-program endpoint. Re-fetch those concurrently and swap
	// in whichever details succeed.
	var stubs []catalogdata.ProgramStub
	stubIndex := map[string]int{}
	for i, p := range programs {
		if p.Requirements == nil && p.URL != "" {
			stubs = append(stubs, catalogdata.ProgramStub{URL: p.URL, Title: p.Title})
			stubIndex[p.URL] = i
		}
	}
	if len(stubs) > 0 {
		log.Printf("re-fetching detail for %d programs without requirement data", len(stubs))
		details, errs := catalogdata.FetchProgramDetails(ctx, cfg, stubs)
		for _, err := range errs {
			log.Printf("  detail fetch error (continuing): %v", err)
		}
		for _, d := range details {
			if i, ok := stubIndex[d.URL]; ok && d.Requirements != nil {
				programs[i] = d
			}
		}
	}

	var ingested, failed int
	for i, p := range programs {
		p := p
		log.Printf("[%d/%d] %s", i+1, len(programs), p.Title)
		catalogdata.CleanProgramNarratives(&p)
		if err := store.SaveProgram(ctx, &p); err != nil {
			log.Printf("  ingest error: %v — skipping", err)
			failed++
			continue
		}
		ingested++
	}

	log.Printf("done: %d ingested, %d failed", ingested, failed)
}
