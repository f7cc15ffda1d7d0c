package catalogapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"vislog/pkg/catalog"
	"vislog/pkg/catalogdata"
)

// ListProgramsHandler serves GET /api/programs: summaries only, not the full
// requirement tree, so the response stays small for a catalog with
// thousands of programs.
func ListProgramsHandler(store catalogdata.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		summaries, err := store.ListPrograms(r.Context())
		if err != nil {
			log.Printf("list programs: %v", err)
			http.Error(w, "failed to list programs", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

// SearchProgramsHandler serves GET /api/programs/search?q=, a case-insensitive
// substring match over program titles.
func SearchProgramsHandler(store catalogdata.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			http.Error(w, "missing q parameter", http.StatusBadRequest)
			return
		}
		results, err := store.SearchPrograms(r.Context(), q)
		if err != nil {
			log.Printf("search programs %q: %v", q, err)
			http.Error(w, "failed to search programs", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

// ProgramHandler serves GET /api/programs/{guid}: the full parsed program,
// including the reconstructed requirement tree.
func ProgramHandler(store catalogdata.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		guidStr := strings.TrimPrefix(r.URL.Path, "/api/programs/")
		guidStr = strings.Trim(guidStr, "/")
		if guidStr == "" || guidStr == "search" {
			http.NotFound(w, r)
			return
		}

		guid, err := catalog.ParseGUID(guidStr)
		if err != nil {
			http.Error(w, "invalid program guid", http.StatusBadRequest)
			return
		}

		program, err := store.GetProgram(r.Context(), guid)
		if err != nil {
			log.Printf("get program %s: %v", guidStr, err)
			http.Error(w, "failed to load program", http.StatusInternalServerError)
			return
		}
		if program == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, program)
	}
}

type refreshResponse struct {
	Ingested int      `json:"ingested"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// RefreshHandler serves POST /api/admin/refresh: re-fetches the upstream
// program feed, caches the raw response, and re-ingests every program into
// store. A program that fails to save is reported and skipped rather than
// failing the whole refresh. A fetch or decode failure, including the
// grouping parser rejecting any one program's course list, fails the whole
// refresh with 502 and stores nothing from that feed.
func RefreshHandler(cfg catalogdata.Config, store catalogdata.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		programs, raw, err := catalogdata.FetchAllPrograms(r.Context(), cfg)
		if len(raw) > 0 {
			if _, cacheErr := catalogdata.WriteCache(cfg, "programs.json", raw); cacheErr != nil {
				log.Printf("refresh: cache write failed (continuing): %v", cacheErr)
			}
		}
		if err != nil {
			// Reported as 502 whether the failure is a transport error, a bad
			// upstream JSON envelope, or the grouping parser rejecting a
			// malformed course sequence: in every case it is upstream's data at
			// fault, not the caller's request, and the error is never swallowed
			// into a partial tree.
			log.Printf("refresh: fetch programs: %v", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		resp := refreshResponse{}
		for _, p := range programs {
			p := p
			catalogdata.CleanProgramNarratives(&p)
			if err := store.SaveProgram(r.Context(), &p); err != nil {
				resp.Failed++
				resp.Errors = append(resp.Errors, p.Title+": "+err.Error())
				continue
			}
			resp.Ingested++
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
