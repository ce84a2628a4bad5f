package provider

import (
	"net/http"

	"github.com/facegate/facegate/internal/reqctx"
	"github.com/facegate/facegate/internal/session"
)

// handleProfile stages the registration form fields in the browser session
// and forwards to face enrollment. The session lives only until the
// verification step consumes it.
func (p *Provider) handleProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		p.renderErrorPage(w, http.StatusBadRequest, "invalid_request", "malformed form data")
		return
	}

	request := r.FormValue("request")
	if _, err := reqctx.Decode(request); err != nil {
		p.renderErrorPage(w, http.StatusBadRequest, "invalid_request", "malformed request context")
		return
	}

	scope, err := p.sessions.Acquire(w, r)
	if err != nil {
		p.log.Error("session acquire failed", "error", err)
		p.renderErrorPage(w, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	scope.Session.Pending = &session.PendingProfile{
		Name:              r.FormValue("name"),
		GivenName:         r.FormValue("given_name"),
		FamilyName:        r.FormValue("family_name"),
		PreferredUsername: r.FormValue("preferred_username"),
		Email:             r.FormValue("email"),
		PhoneNumber:       r.FormValue("phone_number"),
	}
	if err := scope.Save(r.Context()); err != nil {
		scope.Release(r.Context())
		p.log.Error("session save failed", "error", err)
		p.renderErrorPage(w, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	p.renderEnrollPage(w, request)
}
