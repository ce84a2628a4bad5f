package provider

import (
	"fmt"
	"html"
	"net/http"
)

const pageShell = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
%s
</body>
</html>`

func renderPage(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, pageShell, html.EscapeString(title), body)
}

func (p *Provider) renderErrorPage(w http.ResponseWriter, status int, code, description string) {
	body := fmt.Sprintf("<h1>Authorization error</h1><p><strong>%s</strong>: %s</p>",
		html.EscapeString(code), html.EscapeString(description))
	renderPage(w, status, "Authorization error", body)
}

// handleCapturePage renders the face capture form. The opaque request
// context travels through a hidden field so the verify endpoint can recover
// the original authorization parameters.
func (p *Provider) handleCapturePage(w http.ResponseWriter, r *http.Request) {
	request := r.URL.Query().Get("request")
	if request == "" {
		p.renderErrorPage(w, http.StatusBadRequest, "invalid_request", "missing request context")
		return
	}
	escaped := html.EscapeString(request)
	body := fmt.Sprintf(`<h1>Sign in with your face</h1>
<form method="post" action="/oauth/verify" enctype="multipart/form-data">
  <input type="hidden" name="request" value="%s">
  <input type="hidden" name="action" value="login">
  <input type="file" name="image" accept="image/*" capture="user" required>
  <button type="submit">Verify</button>
</form>
<h2>New here?</h2>
<form method="post" action="/oauth/profile">
  <input type="hidden" name="request" value="%s">
  <input type="text" name="name" placeholder="Full name" required>
  <input type="text" name="given_name" placeholder="Given name">
  <input type="text" name="family_name" placeholder="Family name">
  <input type="text" name="preferred_username" placeholder="Username">
  <input type="email" name="email" placeholder="Email" required>
  <input type="tel" name="phone_number" placeholder="Phone">
  <button type="submit">Continue to face enrollment</button>
</form>`, escaped, escaped)
	renderPage(w, http.StatusOK, "Sign in", body)
}

// renderOutcomePage reports a non-fatal verification outcome and offers a
// way back into the flow.
func (p *Provider) renderOutcomePage(w http.ResponseWriter, status int, title, message, request string) {
	body := fmt.Sprintf(`<h1>%s</h1><p>%s</p>
<p><a href="/oauth/capture?request=%s">Try again</a></p>`,
		html.EscapeString(title), html.EscapeString(message), html.EscapeString(request))
	renderPage(w, status, title, body)
}

func (p *Provider) renderEnrollPage(w http.ResponseWriter, request string) {
	escaped := html.EscapeString(request)
	body := fmt.Sprintf(`<h1>Enroll your face</h1>
<form method="post" action="/oauth/verify" enctype="multipart/form-data">
  <input type="hidden" name="request" value="%s">
  <input type="hidden" name="action" value="register">
  <input type="file" name="image" accept="image/*" capture="user" required>
  <button type="submit">Register</button>
</form>`, escaped)
	renderPage(w, http.StatusOK, "Enroll", body)
}
