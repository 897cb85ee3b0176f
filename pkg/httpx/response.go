package httpx

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as JSON with no-store caching headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an OAuth2 style error body.
func WriteError(w http.ResponseWriter, code int, errCode, description string) {
	WriteJSON(w, code, ErrorBody{Error: errCode, ErrorDescription: description})
}

// NoCache marks a response as uncacheable. Token responses require it
// (RFC 6749 section 5.1).
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

var scopeSeparators = regexp.MustCompile(`[,\s]+`)

// SplitScopes splits a scope list on commas and whitespace, dropping empty
// entries. Returns nil for blank input.
func SplitScopes(s string) []string {
	var out []string
	for _, part := range scopeSeparators.Split(strings.TrimSpace(s), -1) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
