package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/JonMunkholm/dataclean/internal/config"
	"github.com/JonMunkholm/dataclean/internal/json"
	"github.com/JonMunkholm/dataclean/internal/logging"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

type authError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// APIKeyAuth returns middleware that validates the X-API-Key header against
// the configured keys. With RequireAPIKey off every request passes; with it
// on and no keys configured every request is rejected.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get(APIKeyHeader)
			switch {
			case apiKey == "":
				deny(w, r, http.StatusUnauthorized, authError{Error: "missing API key", Code: "AUTH_MISSING_KEY"})
			case !isValidAPIKey(apiKey, cfg.APIKeys):
				deny(w, r, http.StatusForbidden, authError{Error: "invalid API key", Code: "AUTH_INVALID_KEY"})
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, status int, body authError) {
	logging.FromContext(r.Context()).Warn("auth: request denied",
		"reason", body.Error,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", ClientIP(r),
	)

	payload, _ := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// isValidAPIKey compares key against every configured key in constant time,
// so timing does not reveal which key (if any) matched.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
