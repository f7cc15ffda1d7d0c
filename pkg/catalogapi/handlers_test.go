package catalogapi

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"vislog/pkg/catalog"
	"vislog/pkg/catalogdata"
)

func newTestStore(t *testing.T) catalogdata.Store {
	t.Helper()
	store, err := catalogdata.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func seedProgram(t *testing.T, store catalogdata.Store, guid byte, title string) catalog.GUID {
	t.Helper()
	var g catalog.GUID
	g[0] = guid
	p := &catalog.Program{URL: "https://example.edu/p", GUID: g, Title: title}
	if err := store.SaveProgram(context.Background(), p); err != nil {
		t.Fatalf("seed program: %v", err)
	}
	return g
}

func TestListProgramsHandler(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	seedProgram(t, store, 0x01, "Basket Weaving, B.A.")
	seedProgram(t, store, 0x02, "Ceramics, B.A.")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/programs", nil)
	ListProgramsHandler(store).ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got []catalogdata.ProgramSummary
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 programs, got %d", len(got))
	}
}

func TestSearchProgramsHandler(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	seedProgram(t, store, 0x01, "Basket Weaving, B.A.")
	seedProgram(t, store, 0x02, "Underwater Basket Weaving, M.S.")

	t.Run("matching query", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/programs/search?q=underwater", nil)
		SearchProgramsHandler(store).ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var got []catalogdata.ProgramSummary
		if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 match, got %d", len(got))
		}
	})

	t.Run("missing query parameter", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/programs/search", nil)
		SearchProgramsHandler(store).ServeHTTP(rr, req)
		if rr.Code != 400 {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}

func TestProgramHandler(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	guid := seedProgram(t, store, 0x09, "Basket Weaving, B.A.")
	guidStr := guidHex(guid)

	t.Run("found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/programs/"+guidStr, nil)
		ProgramHandler(store).ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var got catalog.Program
		if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Title != "Basket Weaving, B.A." {
			t.Fatalf("unexpected title: %q", got.Title)
		}
	})

	t.Run("not found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/programs/ffffffffffffffffffffffffffffffff", nil)
		ProgramHandler(store).ServeHTTP(rr, req)
		if rr.Code != 404 {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("invalid guid", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/programs/not-a-guid", nil)
		ProgramHandler(store).ServeHTTP(rr, req)
		if rr.Code != 400 {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}

func guidHex(g catalog.GUID) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 32)
	for i, b := range g {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}
