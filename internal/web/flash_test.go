package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlashRoundTrip(t *testing.T) {
	set := httptest.NewRecorder()
	setFlash(set, "success", "Event created!")

	cookies := set.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, flashCookieName, cookies[0].Name)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	pop := httptest.NewRecorder()

	flash := popFlash(pop, r)
	require.NotNil(t, flash)
	assert.Equal(t, "success", flash.Type)
	assert.Equal(t, "Event created!", flash.Message)

	// Popping must clear the cookie so the message shows only once.
	cleared := pop.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, flashCookieName, cleared[0].Name)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestPopFlashWithoutCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, popFlash(httptest.NewRecorder(), r))
}

func TestPopFlashGarbageCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: flashCookieName, Value: "not base64 json"})
	assert.Nil(t, popFlash(httptest.NewRecorder(), r))
}
