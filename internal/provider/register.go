package provider

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/facegate/facegate/internal/registry"
	"github.com/facegate/facegate/pkg/models"
)

// handleClientRegistration implements dynamic client registration. The
// response carries the generated secret exactly once.
func (p *Provider) handleClientRegistration(w http.ResponseWriter, r *http.Request) {
	var req models.ClientRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "request body must be valid JSON")
		return
	}

	var scopes []string
	if req.Scope != "" {
		scopes = strings.Fields(req.Scope)
	}

	client, err := p.registry.Register(r.Context(), req.ClientName, req.RedirectURIs, req.GrantTypes, scopes)
	if err != nil {
		if errors.Is(err, registry.ErrInvalidMetadata) {
			writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "at least one redirect_uri is required")
			return
		}
		p.log.Error("client registration failed", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	responseTypes := req.ResponseTypes
	if len(responseTypes) == 0 {
		responseTypes = []string{"code"}
	}

	writeJSON(w, http.StatusCreated, models.ClientRegistrationResponse{
		ClientID:                client.ClientID,
		ClientSecret:            client.ClientSecret,
		RedirectURIs:            client.RedirectURIs,
		GrantTypes:              client.GrantTypes,
		ResponseTypes:           responseTypes,
		TokenEndpointAuthMethod: "client_secret_post",
	})
}
