package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-party-playlist/internal/auth"
	"github.com/justestif/go-party-playlist/internal/db"
)

// RegisterForm renders the registration page (GET /register).
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register", h.pageData(w, r, "Register"))
}

// Register creates a new account (POST /register).
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if username == "" || email == "" || password == "" {
		redirectFlash(w, r, "danger", "Username, email, and password are required.", "/register")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		redirectFlash(w, r, "danger", "Registration failed. Please try again.", "/register")
		return
	}

	user := &db.User{Username: username, Email: email, PasswordHash: hash}
	if err := h.database.Users().Create(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrConflict) {
			redirectFlash(w, r, "danger", "Username or email already taken.", "/register")
			return
		}
		redirectFlash(w, r, "danger", "Registration failed. Please try again.", "/register")
		return
	}

	session, err := h.sessions.Create(r.Context(), user.ID, user.Username)
	if err != nil {
		redirectFlash(w, r, "danger", "Registration succeeded but login failed. Please log in.", "/login")
		return
	}
	h.sessions.SetCookie(w, session)

	redirectFlash(w, r, "success", "Registration successful. Please link your Spotify account.", "/spotify/login")
}

// LoginForm renders the login page (GET /login).
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login", h.pageData(w, r, "Log in"))
}

// Login authenticates a user (POST /login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	user, err := h.database.Users().GetByUsername(r.Context(), username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, password) {
		redirectFlash(w, r, "danger", "Invalid username or password.", "/login")
		return
	}

	session, err := h.sessions.Create(r.Context(), user.ID, user.Username)
	if err != nil {
		redirectFlash(w, r, "danger", "Login failed. Please try again.", "/login")
		return
	}
	h.sessions.SetCookie(w, session)

	redirectFlash(w, r, "success", "Login successful!", "/dashboard")
}

// Logout clears the session and redirects to login (POST /logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessions.GetFromRequest(r); session != nil {
		h.sessions.Delete(r.Context(), session.ID)
	}

	h.sessions.ClearCookie(w)
	redirectFlash(w, r, "success", "You have been logged out.", "/login")
}

// SpotifyLogin starts the Spotify account-link flow (GET /spotify/login).
func (h *Handlers) SpotifyLogin(w http.ResponseWriter, r *http.Request) {
	// Generate state for CSRF protection
	state, err := generateOAuthState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	// Store state in cookie for validation on callback
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// SpotifyCallback handles the OAuth callback from Spotify (GET /callback)
// and stores the linked account and token triple on the user row.
func (h *Handlers) SpotifyCallback(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	// Verify state
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	if state != stateCookie.Value {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	// Check for error from Spotify
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		redirectFlash(w, r, "danger", fmt.Sprintf("Spotify authorization failed: %s", errMsg), "/spotify/login")
		return
	}

	// Exchange code for token
	token, err := h.auth.Token(r.Context(), state, r)
	if err != nil {
		redirectFlash(w, r, "danger", "Failed to get access token from Spotify. Please try again.", "/spotify/login")
		return
	}

	// Get the Spotify account ID for the linked user
	client := spotify.New(h.auth.Client(r.Context(), token))
	spotifyUser, err := client.CurrentUser(r.Context())
	if err != nil {
		redirectFlash(w, r, "danger", "Failed to read your Spotify profile. Please try again.", "/spotify/login")
		return
	}

	err = h.database.Users().LinkSpotify(r.Context(), user.ID,
		spotifyUser.ID, token.AccessToken, token.RefreshToken, token.Expiry)
	if err != nil {
		redirectFlash(w, r, "danger", "An error occurred while linking your Spotify account.", "/spotify/login")
		return
	}

	redirectFlash(w, r, "success", "Spotify account linked successfully!", "/dashboard")
}

// Profile renders the profile page (GET /profile).
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	data := ProfilePageData{
		PageData:      h.pageData(w, r, "Profile"),
		Username:      user.Username,
		Email:         user.Email,
		SpotifyLinked: user.Linked(),
	}
	h.render(w, "profile", data)
}

// EditProfileForm renders the profile edit page (GET /profile/edit).
func (h *Handlers) EditProfileForm(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	data := ProfilePageData{
		PageData: h.pageData(w, r, "Edit profile"),
		Username: user.Username,
		Email:    user.Email,
	}
	h.render(w, "profile_edit", data)
}

// EditProfile updates username and email (POST /profile/edit).
func (h *Handlers) EditProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))

	if username == "" || email == "" {
		redirectFlash(w, r, "danger", "Username and email are required.", "/profile/edit")
		return
	}

	if err := h.database.Users().UpdateProfile(r.Context(), user.ID, username, email); err != nil {
		if errors.Is(err, db.ErrConflict) {
			redirectFlash(w, r, "danger", "Username or email already in use.", "/profile/edit")
			return
		}
		redirectFlash(w, r, "danger", "Failed to update profile. Please try again.", "/profile/edit")
		return
	}

	redirectFlash(w, r, "success", "Profile updated successfully!", "/profile")
}

// generateOAuthState creates a random state string for OAuth.
func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
