package provider

import (
	"net/http"
	"strings"
	"time"

	"github.com/facegate/facegate/pkg/models"
)

// handleToken implements the token endpoint for the authorization_code and
// refresh_token grants. Every lifecycle failure (unknown, expired, replayed,
// mismatched binding) collapses into invalid_grant so callers learn nothing
// about which check failed.
func (p *Provider) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form data")
		return
	}

	client, err := p.registry.Authenticate(r.Context(), r.FormValue("client_id"), r.FormValue("client_secret"))
	if err != nil {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		return
	}

	switch r.FormValue("grant_type") {
	case "authorization_code":
		p.exchangeCode(w, r, client)
	case "refresh_token":
		p.exchangeRefreshToken(w, r, client)
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "grant_type must be authorization_code or refresh_token")
	}
}

func (p *Provider) exchangeCode(w http.ResponseWriter, r *http.Request, client *models.OAuthClient) {
	codeValue := r.FormValue("code")
	if codeValue == "" {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	// Atomic fetch-and-delete: a replayed code fails here no matter how
	// close the two exchanges race.
	code, err := p.store.ConsumeCode(r.Context(), codeValue)
	if err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "authorization code is invalid")
		return
	}

	if code.ClientID != client.ClientID || code.RedirectURI != r.FormValue("redirect_uri") {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "authorization code is invalid")
		return
	}

	p.issueTokens(w, r, client, code.UserID, code.Scope, code.Nonce, code.CreatedAt)
}

func (p *Provider) exchangeRefreshToken(w http.ResponseWriter, r *http.Request, client *models.OAuthClient) {
	value := r.FormValue("refresh_token")
	if value == "" {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	// Consume first. A refresh token presented by the wrong client is
	// burned rather than left usable.
	rec, err := p.store.ConsumeToken(r.Context(), value)
	if err != nil || !rec.Refresh || rec.ClientID != client.ClientID {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "refresh token is invalid")
		return
	}

	p.issueTokens(w, r, client, rec.UserID, rec.Scope, "", rec.IssuedAt)
}

// issueTokens mints a fresh opaque access/refresh pair and, when the scope
// includes openid, an RS256 ID token carrying current profile claims.
func (p *Provider) issueTokens(w http.ResponseWriter, r *http.Request, client *models.OAuthClient, userID, scope, nonce string, authTime time.Time) {
	now := time.Now()

	access := &models.Token{
		Value:     randomToken(32),
		UserID:    userID,
		ClientID:  client.ClientID,
		Scope:     scope,
		Refresh:   false,
		ExpiresAt: now.Add(p.opts.AccessTTL),
		IssuedAt:  now,
	}
	refresh := &models.Token{
		Value:     randomToken(32),
		UserID:    userID,
		ClientID:  client.ClientID,
		Scope:     scope,
		Refresh:   true,
		ExpiresAt: now.Add(p.opts.RefreshTTL),
		IssuedAt:  now,
	}

	if err := p.store.PutToken(r.Context(), access); err != nil {
		p.log.Error("access token persistence failed", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}
	if err := p.store.PutToken(r.Context(), refresh); err != nil {
		p.log.Error("refresh token persistence failed", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	resp := models.TokenResponse{
		AccessToken:  access.Value,
		TokenType:    "Bearer",
		ExpiresIn:    int(p.opts.AccessTTL.Seconds()),
		RefreshToken: refresh.Value,
		Scope:        scope,
	}

	if hasScope(scope, "openid") {
		user, err := p.store.GetUser(r.Context(), userID)
		if err != nil {
			p.log.Error("user lookup failed during token issuance", "user_id", userID, "error", err)
			writeOAuthError(w, http.StatusInternalServerError, "server_error", "temporary failure")
			return
		}
		idToken, err := p.jwt.CreateIDToken(
			issuerFromRequest(r), userID, client.ClientID, nonce,
			authTime, p.opts.AccessTTL, profileClaims(user))
		if err != nil {
			p.log.Error("id token signing failed", "error", err)
			writeOAuthError(w, http.StatusInternalServerError, "server_error", "temporary failure")
			return
		}
		resp.IDToken = idToken
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, resp)
}

func hasScope(scope, want string) bool {
	for _, s := range strings.Fields(scope) {
		if s == want {
			return true
		}
	}
	return false
}
