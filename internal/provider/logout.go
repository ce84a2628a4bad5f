package provider

import (
	"net/http"
	"net/url"

	"github.com/facegate/facegate/internal/session"
)

// handleLogout is the end-session endpoint. It drops the browser session
// and sends the user to the post-logout target when one is given.
func (p *Provider) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		p.sessions.Destroy(r.Context(), cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if target := r.URL.Query().Get("post_logout_redirect_uri"); target != "" {
		if u, err := url.Parse(target); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
	}
	renderPage(w, http.StatusOK, "Logged out", "<h1>Logged out</h1><p>Your session has ended.</p>")
}

// handleBackchannelLogout accepts a signed logout token and clears every
// credential for its subject. Verification enforces the logout event claim,
// a present sub and the absence of nonce.
func (p *Provider) handleBackchannelLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form data")
		return
	}

	logoutToken := r.FormValue("logout_token")
	if logoutToken == "" {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "logout_token is required")
		return
	}

	subject, err := p.jwt.VerifyLogoutToken(logoutToken)
	if err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "logout token verification failed")
		return
	}

	if err := p.store.DeleteSubjectCredentials(r.Context(), subject); err != nil {
		p.log.Error("credential purge failed", "sub", subject, "error", err)
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	p.log.Info("backchannel logout processed", "sub", subject)
	w.WriteHeader(http.StatusOK)
}
