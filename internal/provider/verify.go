package provider

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/facegate/facegate/internal/face"
	"github.com/facegate/facegate/internal/reqctx"
	"github.com/facegate/facegate/internal/session"
	"github.com/facegate/facegate/pkg/models"
)

const maxImageBytes = 8 << 20

// handleVerify is the biometric gate of the authorization flow. It decodes
// the request context, extracts a descriptor from the uploaded image and
// either matches it against enrolled profiles (login) or enrolls a new user
// (register). Success mints an authorization code and redirects back to the
// client.
func (p *Provider) handleVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		p.renderErrorPage(w, http.StatusBadRequest, "invalid_request", "malformed multipart form")
		return
	}

	request := r.FormValue("request")
	rc, err := reqctx.Decode(request)
	if err != nil {
		p.renderErrorPage(w, http.StatusBadRequest, "invalid_request", "malformed request context")
		return
	}

	// Re-validate against current client state; the context is unauthenticated
	// browser input.
	client, err := p.registry.Lookup(r.Context(), rc.ClientID)
	if err != nil {
		p.renderErrorPage(w, http.StatusBadRequest, "invalid_client", "unknown client")
		return
	}
	if p.registry.ValidateRedirectURI(client, rc.RedirectURI) != nil {
		p.renderErrorPage(w, http.StatusBadRequest, "invalid_redirect_uri", "redirect_uri is not registered for this client")
		return
	}

	scope, err := p.sessions.Acquire(w, r)
	if err != nil {
		p.log.Error("session acquire failed", "error", err)
		p.renderErrorPage(w, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}
	defer scope.Release(r.Context())

	image, err := readImage(r)
	if err != nil {
		p.renderOutcomePage(w, http.StatusBadRequest, "No image received",
			"The capture did not include a usable image.", request)
		return
	}

	descriptor, err := p.extractor.Extract(r.Context(), image)
	if err != nil {
		if errors.Is(err, face.ErrNoFace) {
			p.renderOutcomePage(w, http.StatusUnprocessableEntity, "No face detected",
				"We could not find a face in the captured image. Please try again with better lighting.", request)
			return
		}
		p.log.Error("descriptor extraction failed", "error", err)
		p.renderErrorPage(w, http.StatusBadGateway, "server_error", "face service unavailable")
		return
	}

	var userID string
	switch r.FormValue("action") {
	case "register":
		userID, err = p.enrollUser(r, scope.Session, image, descriptor)
		if err != nil {
			p.log.Error("enrollment failed", "error", err)
			p.renderErrorPage(w, http.StatusInternalServerError, "server_error", "registration failed")
			return
		}
	case "login":
		profiles, err := p.store.ListFaceProfiles(r.Context())
		if err != nil {
			p.log.Error("profile listing failed", "error", err)
			p.renderErrorPage(w, http.StatusInternalServerError, "server_error", "temporary failure")
			return
		}
		match, dist, err := p.matcher.Decide(descriptor, profiles)
		if err != nil {
			if errors.Is(err, face.ErrNoEnrollments) {
				p.renderOutcomePage(w, http.StatusNotFound, "No registered faces",
					"Nobody is enrolled yet. Register below to create an account.", request)
				return
			}
			p.renderOutcomePage(w, http.StatusUnauthorized, "Face not recognized",
				"Your face did not match any enrolled user.", request)
			return
		}
		p.log.Info("face match", "user_id", match.UserID, "distance", dist)
		userID = match.UserID
	default:
		p.renderErrorPage(w, http.StatusBadRequest, "invalid_request", "unknown action")
		return
	}

	code := &models.AuthorizationCode{
		Code:        randomToken(32),
		ClientID:    rc.ClientID,
		UserID:      userID,
		RedirectURI: rc.RedirectURI,
		Scope:       rc.Scope,
		Nonce:       rc.Nonce,
		ExpiresAt:   time.Now().Add(p.opts.CodeTTL),
		CreatedAt:   time.Now(),
	}
	if err := p.store.PutCode(r.Context(), code); err != nil {
		p.log.Error("code persistence failed", "error", err)
		p.renderErrorPage(w, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	target, err := url.Parse(rc.RedirectURI)
	if err != nil {
		p.renderErrorPage(w, http.StatusBadRequest, "invalid_redirect_uri", "unparseable redirect_uri")
		return
	}
	q := target.Query()
	q.Set("code", code.Code)
	if rc.State != "" {
		q.Set("state", rc.State)
	}
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// enrollUser creates a new User and FaceProfile pair. Archive failures are
// logged and the image URL left empty; they never block enrollment.
func (p *Provider) enrollUser(r *http.Request, sess *session.Session, image []byte, descriptor []float64) (string, error) {
	pending := sess.Pending
	if pending == nil {
		pending = &session.PendingProfile{}
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	imageURL := ""
	if p.blobs != nil {
		archived, err := p.blobs.Put(r.Context(), "faces/"+id+".jpg", image, "image/jpeg")
		if err != nil {
			p.log.Error("face image archive failed", "user_id", id, "error", err)
		} else {
			imageURL = archived
		}
	}

	user := &models.User{
		ID:                  id,
		Name:                pending.Name,
		GivenName:           pending.GivenName,
		FamilyName:          pending.FamilyName,
		PreferredUsername:   pending.PreferredUsername,
		Email:               pending.Email,
		EmailVerified:       false,
		PhoneNumber:         pending.PhoneNumber,
		PhoneNumberVerified: false,
		FaceVerified:        true,
		PictureURL:          imageURL,
		RegisteredAt:        now,
		UpdatedAt:           now,
		FaceProfileID:       id,
	}
	if err := p.store.PutUser(r.Context(), user); err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	profile := &models.FaceProfile{
		UserID:       id,
		ImageURL:     imageURL,
		Descriptor:   descriptor,
		RegisteredAt: now,
	}
	if err := p.store.PutFaceProfile(r.Context(), profile); err != nil {
		return "", fmt.Errorf("failed to store face profile: %w", err)
	}

	return id, nil
}

func readImage(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty image upload")
	}
	return data, nil
}
