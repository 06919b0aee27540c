package web

import (
	"context"
	"errors"
	"net/http"

	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/justestif/go-party-playlist/internal/auth"
	"github.com/justestif/go-party-playlist/internal/db"
	"github.com/justestif/go-party-playlist/internal/party"
	"github.com/justestif/go-party-playlist/internal/spotify"
)

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	auth      *spotifyauth.Authenticator
	sessions  SessionManager
	templates *Templates
	database  *db.DB
	service   *party.Service
	broker    *auth.Broker
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(spotifyAuth *spotifyauth.Authenticator, sessions SessionManager, templates *Templates, database *db.DB, service *party.Service, broker *auth.Broker) *Handlers {
	return &Handlers{
		auth:      spotifyAuth,
		sessions:  sessions,
		templates: templates,
		database:  database,
		service:   service,
		broker:    broker,
	}
}

type ctxUserKey struct{}

// RequireUser loads the authenticated user from the session cookie and puts
// it on the request context. Unauthenticated requests go to the login page.
func (h *Handlers) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := h.sessions.GetFromRequest(r)
		if session == nil {
			setFlash(w, "warning", "Please log in first.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := h.database.Users().Get(r.Context(), session.UserID)
		if err != nil {
			h.sessions.ClearCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the user loaded by RequireUser, or nil.
func currentUser(r *http.Request) *db.User {
	user, _ := r.Context().Value(ctxUserKey{}).(*db.User)
	return user
}

// pageData builds the common template data for a request.
func (h *Handlers) pageData(w http.ResponseWriter, r *http.Request, title string) PageData {
	data := PageData{
		Title:       title,
		Flash:       popFlash(w, r),
		CurrentPath: r.URL.Path,
	}
	if user := currentUser(r); user != nil {
		data.User = &UserData{ID: user.ID.String(), Username: user.Username}
	}
	return data
}

// render writes a page template, falling back to a plain 500 on failure.
func (h *Handlers) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, page, data); err != nil {
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// redirectFlash sets a flash message and redirects.
func redirectFlash(w http.ResponseWriter, r *http.Request, flashType, message, path string) {
	setFlash(w, flashType, message)
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// provider builds a Spotify client for the user, refreshing the stored token
// through the broker. When the account is not linked or the refresh token was
// revoked, the user is redirected to the link flow and false is returned.
func (h *Handlers) provider(w http.ResponseWriter, r *http.Request, user *db.User) (*spotify.Client, bool) {
	token, err := h.broker.Token(r.Context(), user)
	if errors.Is(err, auth.ErrNotLinked) || errors.Is(err, auth.ErrUnauthenticated) {
		redirectFlash(w, r, "warning", "Please link your Spotify account to continue.", "/spotify/login")
		return nil, false
	}
	if err != nil {
		redirectFlash(w, r, "danger", "Failed to connect to Spotify. Please try again.", "/dashboard")
		return nil, false
	}
	return spotify.NewWithToken(r.Context(), h.auth, token), true
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)

	data := HomePageData{
		PageData:      h.pageData(w, r, "Party Playlist"),
		Authenticated: session != nil,
	}
	if session != nil {
		data.User = &UserData{ID: session.UserID.String(), Username: session.Username}
	}

	h.render(w, "home", data)
}
