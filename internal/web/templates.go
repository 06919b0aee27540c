package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/justestif/go-party-playlist/internal/db"
	"github.com/justestif/go-party-playlist/internal/spotify"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the given filesystem.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	// Execute the "base" template which includes the page content
	return tmpl.ExecuteTemplate(w, "base", data)
}

// load parses all templates from the filesystem.
func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}

	for _, page := range pages {
		name := filepath.Base(page)
		name = name[:len(name)-len(".html")]

		files := append([]string{page}, layouts...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}

		t.templates[name] = tmpl
	}

	return nil
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// formatDate formats a time as "Jan 2, 2006"
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},

		// formatDateTime formats a time as "Jan 2, 2006 15:04"
		"formatDateTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},

		// formatDuration formats a duration as "3h30m"
		"formatDuration": func(d time.Duration) string {
			return d.Round(time.Minute).String()
		},

		// add adds two integers (for 1-based indexing in loops)
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	User        *UserData
	Flash       *FlashMessage
	CurrentPath string
}

// UserData contains authenticated user information.
type UserData struct {
	ID       string
	Username string
}

// HomePageData contains data for the home page template.
type HomePageData struct {
	PageData
	Authenticated bool
}

// DashboardPageData contains data for the dashboard template.
type DashboardPageData struct {
	PageData
	HostedEvents []db.Event
	JoinedEvents []db.Event
}

// EventFormPageData contains data for the event creation form.
type EventFormPageData struct {
	PageData
	Moods         []db.Mood
	UserPlaylists []spotify.PlaylistInfo
}

// SongData is one row of the event page track list.
type SongData struct {
	ID     string
	Title  string
	Artist string
	Votes  int
	Voted  bool // current user has this song toggled on
}

// EventPageData contains data for the event detail template.
type EventPageData struct {
	PageData
	Event          *db.Event
	MoodName       string
	IsHost         bool
	AttendeeCount  int
	Songs          []SongData
	ProviderTracks []spotify.Track
}

// SearchPageData contains data for the track search template.
type SearchPageData struct {
	PageData
	EventID string
	Query   string
	Tracks  []spotify.Track
}

// ProfilePageData contains data for the profile templates.
type ProfilePageData struct {
	PageData
	Username      string
	Email         string
	SpotifyLinked bool
}
