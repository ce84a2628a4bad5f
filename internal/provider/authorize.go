package provider

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/facegate/facegate/internal/reqctx"
	"github.com/facegate/facegate/internal/store"
)

// handleAuthorize validates the authorization request and forwards the user
// to the face capture page. Failures that cannot verify both the client and
// the redirect URI render an inline error page; everything after that point
// reports errors by redirecting back to the client.
func (p *Provider) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	responseType := q.Get("response_type")
	scope := q.Get("scope")
	state := q.Get("state")
	nonce := q.Get("nonce")

	if clientID == "" {
		p.renderErrorPage(w, http.StatusBadRequest, "invalid_client", "client_id is required")
		return
	}

	client, err := p.registry.Lookup(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			p.renderErrorPage(w, http.StatusBadRequest, "invalid_client", "unknown client")
			return
		}
		p.log.Error("client lookup failed", "error", err)
		p.renderErrorPage(w, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	if redirectURI == "" || p.registry.ValidateRedirectURI(client, redirectURI) != nil {
		// Never redirect to an unverified URI.
		p.renderErrorPage(w, http.StatusBadRequest, "invalid_redirect_uri", "redirect_uri is not registered for this client")
		return
	}

	if responseType != "code" {
		p.redirectError(w, r, redirectURI, state, "unsupported_response_type", "only the authorization code flow is supported")
		return
	}

	ctx := reqctx.Encode(reqctx.Context{
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Scope:       scope,
		State:       state,
		Nonce:       nonce,
	})

	http.Redirect(w, r, "/oauth/capture?request="+url.QueryEscape(ctx), http.StatusFound)
}

// redirectError sends an OAuth error back to a verified redirect URI,
// echoing the client's state.
func (p *Provider) redirectError(w http.ResponseWriter, r *http.Request, redirectURI, state, code, description string) {
	target, err := url.Parse(redirectURI)
	if err != nil {
		p.renderErrorPage(w, http.StatusBadRequest, code, description)
		return
	}
	q := target.Query()
	q.Set("error", code)
	if description != "" {
		q.Set("error_description", description)
	}
	if state != "" {
		q.Set("state", state)
	}
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}
