package web

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/justestif/go-party-playlist/internal/auth"
	"github.com/justestif/go-party-playlist/internal/db"
	"github.com/justestif/go-party-playlist/internal/party"
)

const (
	// DefaultAddr is the default server address.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultRedirectURI must match the Spotify app configuration.
	DefaultRedirectURI = "http://127.0.0.1:8080/callback"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Database     *db.DB
	TemplatesFS  fs.FS
	StaticFS     fs.FS
}

// sessionCleanupInterval is how often expired session rows are reaped.
const sessionCleanupInterval = time.Hour

// Server is the HTTP server for the web application.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	sessions  SessionManager
	handlers  *Handlers
	database  *db.DB
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = DefaultRedirectURI
	}

	// Create Spotify authenticator
	spotifyAuth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserLibraryRead,
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
		),
	)

	// Create template manager
	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	// Create session store, domain service, and token broker
	sessions := NewDBSessionStore(cfg.Database)
	service := party.New(cfg.Database)
	broker := auth.NewBroker(cfg.Database, cfg.ClientID, cfg.ClientSecret)

	// Create handlers
	handlers := NewHandlers(spotifyAuth, sessions, templates, cfg.Database, service, broker)

	// Create router
	router := chi.NewRouter()

	s := &Server{
		router:    router,
		templates: templates,
		sessions:  sessions,
		handlers:  handlers,
		database:  cfg.Database,
	}

	// Configure middleware
	s.setupMiddleware()

	// Configure routes
	s.setupRoutes(cfg.StaticFS)

	// Create HTTP server
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS) {
	// Static files
	fileServer := http.FileServer(http.FS(staticFS))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Public pages
	s.router.Get("/", s.handlers.Home)
	s.router.Get("/register", s.handlers.RegisterForm)
	s.router.Post("/register", s.handlers.Register)
	s.router.Get("/login", s.handlers.LoginForm)
	s.router.Post("/login", s.handlers.Login)
	s.router.Post("/logout", s.handlers.Logout)

	// Authenticated pages
	s.router.Group(func(r chi.Router) {
		r.Use(s.handlers.RequireUser)

		r.Get("/spotify/login", s.handlers.SpotifyLogin)
		r.Get("/callback", s.handlers.SpotifyCallback)

		r.Get("/dashboard", s.handlers.Dashboard)
		r.Get("/events/new", s.handlers.NewEventForm)
		r.Post("/events/new", s.handlers.CreateEvent)
		r.Get("/events/{eventID}", s.handlers.Event)
		r.Get("/events/{eventID}/search", s.handlers.SearchSongs)
		r.Post("/events/{eventID}/songs/{trackID}", s.handlers.AddSong)
		r.Get("/join", s.handlers.JoinForm)
		r.Post("/join", s.handlers.Join)
		r.Post("/songs/{songID}/vote", s.handlers.Vote)
		r.Get("/profile", s.handlers.Profile)
		r.Get("/profile/edit", s.handlers.EditProfileForm)
		r.Post("/profile/edit", s.handlers.EditProfile)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting server at http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// cleanupSessions reaps expired session rows until the context is canceled.
func (s *Server) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.database.Sessions().DeleteExpired(ctx)
			if err != nil {
				log.Printf("Session cleanup failed: %v", err)
			} else if n > 0 {
				log.Printf("Removed %d expired sessions", n)
			}
		}
	}
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	// Channel to receive shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go s.cleanupSessions(cleanupCtx)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Println("Shutting down server...")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
