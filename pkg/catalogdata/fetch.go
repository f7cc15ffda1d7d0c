package catalogdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"vislog/pkg/catalog"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// ProgramStub is the lightweight program reference the top-level catalog
// feed lists before any per-program detail has been fetched.
type ProgramStub struct {
	URL   string
	Title string
}

// FetchAllPrograms GETs the upstream catalog's top-level program feed and
// decodes it into fully parsed Programs, running each element through the
// catalog package's JSON decoder (and therefore through the grouping
// parser). The raw response body is returned alongside so the caller can
// write it to the on-disk cache before anything downstream risks failing.
func FetchAllPrograms(ctx context.Context, cfg Config) ([]catalog.Program, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Fetching.ProgramsURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch programs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("fetch programs: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read programs response: %w", err)
	}

	var programs []catalog.Program
	if err := json.Unmarshal(body, &programs); err != nil {
		return nil, body, fmt.Errorf("decode programs: %w", err)
	}

	return programs, body, nil
}

// FetchProgramDetails fans out one GET per stub, bounded to
// cfg.Fetching.Concurrency concurrent workers, for catalogs that split
// per-program detail across separate endpoints from the listing feed. Each
// worker owns its own HTTP response and its own catalog.Program decode, and
// therefore its own Parser instance, with no state shared across workers.
//
// Partial failures are collected and returned alongside whatever programs
// did succeed, rather than aborting the whole run: the caller logs and
// skips past a single program's fetch error instead of losing the rest of
// the batch.
func FetchProgramDetails(ctx context.Context, cfg Config, stubs []ProgramStub) ([]catalog.Program, []error) {
	concurrency := cfg.Fetching.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]*catalog.Program, len(stubs))
	errs := make([]error, len(stubs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, stub := range stubs {
		i, stub := i, stub
		g.Go(func() error {
			p, err := fetchOneProgram(gctx, stub.URL)
			if err != nil {
				errs[i] = fmt.Errorf("fetch program %q: %w", stub.Title, err)
				return nil // collected, not fatal to the group
			}
			results[i] = p
			return nil
		})
	}
	// errgroup.Wait only ever returns an error from a worker that returned
	// one directly; workers here always report failure through errs instead
	// so a single program's fetch error never cancels its siblings.
	_ = g.Wait()

	var programs []catalog.Program
	var failures []error
	for i := range stubs {
		if results[i] != nil {
			programs = append(programs, *results[i])
		}
		if errs[i] != nil {
			failures = append(failures, errs[i])
		}
	}
	return programs, failures
}

func fetchOneProgram(ctx context.Context, url string) (*catalog.Program, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var p catalog.Program
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &p, nil
}
