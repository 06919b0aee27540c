package web

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTemplatesFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": {Data: []byte(
			`{{define "base"}}<html><title>{{.Title}}</title>{{template "content" .}}</html>{{end}}`)},
		"pages/home.html": {Data: []byte(
			`{{define "content"}}<h1>Welcome</h1>{{end}}`)},
		"pages/event.html": {Data: []byte(
			`{{define "content"}}<p>{{formatDate .Event.StartsAt}}</p>{{end}}`)},
	}
}

func TestTemplatesRender(t *testing.T) {
	templates, err := NewTemplates(testTemplatesFS())
	require.NoError(t, err)

	var sb strings.Builder
	err = templates.Render(&sb, "home", PageData{Title: "Party Playlist"})
	require.NoError(t, err)
	assert.Contains(t, sb.String(), "<title>Party Playlist</title>")
	assert.Contains(t, sb.String(), "<h1>Welcome</h1>")
}

func TestTemplatesRenderUnknownPage(t *testing.T) {
	templates, err := NewTemplates(testTemplatesFS())
	require.NoError(t, err)

	err = templates.Render(&strings.Builder{}, "no-such-page", nil)
	assert.Error(t, err)
}

func TestTemplateFuncs(t *testing.T) {
	funcs := defaultFuncs()

	date := time.Date(2026, time.August, 31, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, "Aug 31, 2026", funcs["formatDate"].(func(time.Time) string)(date))
	assert.Equal(t, "Aug 31, 2026 21:30", funcs["formatDateTime"].(func(time.Time) string)(date))
	assert.Equal(t, "3h30m0s", funcs["formatDuration"].(func(time.Duration) string)(3*time.Hour+30*time.Minute))
	assert.Equal(t, 3, funcs["add"].(func(int, int) int)(1, 2))
}
