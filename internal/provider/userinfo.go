package provider

import (
	"net/http"
	"strings"
)

// handleUserinfo resolves the bearer access token and returns the subject's
// claims derived from current user state.
func (p *Provider) handleUserinfo(w http.ResponseWriter, r *http.Request) {
	value := bearerToken(r)
	if value == "" {
		w.Header().Set("WWW-Authenticate", `Bearer realm="facegate"`)
		writeOAuthError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
		return
	}

	// GetToken treats expired tokens as absent.
	tok, err := p.store.GetToken(r.Context(), value)
	if err != nil || tok.Refresh {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		writeOAuthError(w, http.StatusUnauthorized, "invalid_token", "access token is invalid or expired")
		return
	}

	user, err := p.store.GetUser(r.Context(), tok.UserID)
	if err != nil {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		writeOAuthError(w, http.StatusUnauthorized, "invalid_token", "subject no longer exists")
		return
	}

	claims := profileClaims(user)
	claims["sub"] = user.ID
	writeJSON(w, http.StatusOK, claims)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
