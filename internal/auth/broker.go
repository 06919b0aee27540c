package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/justestif/go-party-playlist/internal/db"
)

// refreshWindow is how close to expiry a token may get before the broker
// exchanges the refresh token for a new one.
const refreshWindow = 60 * time.Second

var (
	// ErrNotLinked is returned when the user has no Spotify account linked.
	ErrNotLinked = errors.New("spotify account not linked")

	// ErrUnauthenticated is returned when the refresh token exchange fails,
	// typically because the user revoked access. Callers should redirect the
	// user to re-link rather than retry.
	ErrUnauthenticated = errors.New("spotify authentication expired")
)

// Refresher exchanges a refresh token for a fresh token triple.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// oauth2Refresher refreshes tokens against the Spotify token endpoint.
type oauth2Refresher struct {
	conf *oauth2.Config
}

func (r *oauth2Refresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := r.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return src.Token()
}

// Broker hands out valid Spotify access tokens for linked users, refreshing
// and persisting the stored token triple when it is about to expire.
type Broker struct {
	database  *db.DB
	refresher Refresher
	now       func() time.Time
}

// NewBroker creates a token broker using the given Spotify app credentials.
func NewBroker(database *db.DB, clientID, clientSecret string) *Broker {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}
	return &Broker{
		database:  database,
		refresher: &oauth2Refresher{conf: conf},
		now:       time.Now,
	}
}

// NewBrokerWithRefresher creates a broker with a custom Refresher. Used in tests.
func NewBrokerWithRefresher(database *db.DB, refresher Refresher) *Broker {
	return &Broker{database: database, refresher: refresher, now: time.Now}
}

// Token returns a valid OAuth token for the user, refreshing it first if it
// expires within the refresh window. A refreshed triple is persisted before
// the token is returned, and the user struct is updated in place.
func (b *Broker) Token(ctx context.Context, user *db.User) (*oauth2.Token, error) {
	if !user.Linked() {
		return nil, ErrNotLinked
	}

	if user.AccessToken != nil && user.TokenExpiry != nil &&
		b.now().Add(refreshWindow).Before(*user.TokenExpiry) {
		return &oauth2.Token{
			AccessToken:  *user.AccessToken,
			RefreshToken: *user.RefreshToken,
			Expiry:       *user.TokenExpiry,
			TokenType:    "Bearer",
		}, nil
	}

	token, err := b.refresher.Refresh(ctx, *user.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	// Spotify does not always rotate the refresh token; keep the old one
	// when the response omits it.
	if token.RefreshToken == "" {
		token.RefreshToken = *user.RefreshToken
	}

	if err := b.database.Users().UpdateToken(ctx, user.ID, token.AccessToken, token.RefreshToken, token.Expiry); err != nil {
		return nil, fmt.Errorf("persisting refreshed token: %w", err)
	}

	user.AccessToken = &token.AccessToken
	user.RefreshToken = &token.RefreshToken
	user.TokenExpiry = &token.Expiry

	return token, nil
}

// AccessToken returns a valid access token string for the user.
func (b *Broker) AccessToken(ctx context.Context, user *db.User) (string, error) {
	token, err := b.Token(ctx, user)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
