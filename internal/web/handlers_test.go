package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/go-party-playlist/internal/db"
	"github.com/justestif/go-party-playlist/internal/party"
)

func setupHandlers(t *testing.T) (*Handlers, *SessionStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	database := db.NewWithQuerier(mock)
	sessions := NewSessionStore()
	handlers := NewHandlers(nil, sessions, nil, database, party.New(database), nil)
	return handlers, sessions, mock
}

func TestRequireUser(t *testing.T) {
	t.Run("redirects anonymous requests to login", func(t *testing.T) {
		handlers, _, mock := setupHandlers(t)

		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run without a session")
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		handlers.RequireUser(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loads the user onto the request context", func(t *testing.T) {
		handlers, sessions, mock := setupHandlers(t)

		userID := uuid.New()
		now := time.Now()
		session, err := sessions.Create(context.Background(), userID, "ada")
		require.NoError(t, err)

		mock.ExpectQuery("SELECT .+ FROM users WHERE id").
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "username", "email", "password_hash", "spotify_id",
				"access_token", "refresh_token", "token_expiry", "created_at", "updated_at",
			}).AddRow(userID, "ada", "ada@example.com", "hash", nil, nil, nil, nil, now, now))

		var seen *db.User
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = currentUser(r)
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: session.ID})
		handlers.RequireUser(next).ServeHTTP(w, r)

		require.NotNil(t, seen)
		assert.Equal(t, userID, seen.ID)
		assert.Equal(t, "ada", seen.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clears a session whose user is gone", func(t *testing.T) {
		handlers, sessions, mock := setupHandlers(t)

		userID := uuid.New()
		session, err := sessions.Create(context.Background(), userID, "ghost")
		require.NoError(t, err)

		mock.ExpectQuery("SELECT .+ FROM users WHERE id").
			WithArgs(userID).
			WillReturnError(assert.AnError)

		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run for a deleted user")
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: session.ID})
		handlers.RequireUser(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCurrentUserWithoutMiddleware(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, currentUser(r))
}
