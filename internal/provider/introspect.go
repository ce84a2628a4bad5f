package provider

import (
	"net/http"

	"github.com/facegate/facegate/pkg/models"
)

// handleIntrospect implements RFC 7662 token introspection. Unknown,
// expired, and revoked tokens all produce the same bare inactive response.
func (p *Provider) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form data")
		return
	}

	if _, err := p.registry.Authenticate(r.Context(), r.FormValue("client_id"), r.FormValue("client_secret")); err != nil {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		return
	}

	tok, err := p.store.GetToken(r.Context(), r.FormValue("token"))
	if err != nil {
		writeJSON(w, http.StatusOK, models.IntrospectionResponse{Active: false})
		return
	}

	tokenType := "access_token"
	if tok.Refresh {
		tokenType = "refresh_token"
	}
	writeJSON(w, http.StatusOK, models.IntrospectionResponse{
		Active:    true,
		Scope:     tok.Scope,
		ClientID:  tok.ClientID,
		TokenType: tokenType,
		Exp:       tok.ExpiresAt.Unix(),
		Iat:       tok.IssuedAt.Unix(),
		Sub:       tok.UserID,
	})
}

// handleRevoke implements RFC 7009. Revocation is idempotent: revoking an
// unknown or already-revoked token still answers 200.
func (p *Provider) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form data")
		return
	}

	if _, err := p.registry.Authenticate(r.Context(), r.FormValue("client_id"), r.FormValue("client_secret")); err != nil {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		return
	}

	if value := r.FormValue("token"); value != "" {
		if err := p.store.DeleteToken(r.Context(), value); err != nil {
			p.log.Error("token revocation failed", "error", err)
			writeOAuthError(w, http.StatusInternalServerError, "server_error", "temporary failure")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
