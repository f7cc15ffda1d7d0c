package catalogapi

import (
	"net/http"
	"strings"

	"vislog/pkg/catalogdata"
)

// NewRouter wires the catalog API's public and admin routes onto a fresh
// http.ServeMux, dispatching on method and path the same way cmd/api's
// predecessor dispatched courses and programs by hand.
func NewRouter(cfg catalogdata.Config, store catalogdata.Store) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/programs", ListProgramsHandler(store))
	mux.HandleFunc("/api/programs/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/programs/search") {
			SearchProgramsHandler(store)(w, r)
			return
		}
		ProgramHandler(store)(w, r)
	})

	mux.HandleFunc("/api/admin/login", LoginHandler())
	mux.HandleFunc("/api/admin/refresh", RequireAdmin(RefreshHandler(cfg, store)))

	return withCORS(mux)
}

// withCORS sets a permissive Access-Control-Allow-Origin so browser clients
// can call the API directly, and answers CORS preflight requests without
// reaching the underlying handler.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
