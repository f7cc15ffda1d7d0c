package catalogapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Email       string `json:"email"`
}

// LoginHandler handles POST /api/admin/login, exchanging the admin email and
// password for a short-lived access token good for the re-ingestion
// endpoint.
func LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))

		if !checkAdminPassword(req.Email, req.Password) {
			// Vague error intentionally: don't reveal whether the email is configured.
			http.Error(w, "invalid email or password", http.StatusUnauthorized)
			return
		}

		token, err := GenerateAdminToken(req.Email)
		if err != nil {
			http.Error(w, "failed to generate token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(loginResponse{AccessToken: token, Email: req.Email})
	}
}
