// package services defines interface Service for interacting with HTTP APIs
//
// Spotify Web API (listening history + track/artist metadata)
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Service defines the interface for listening-history providers that can report
// recent plays and resolve track and artist metadata.
type Service interface {
	// Authenticate performs OAuth or token authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// RecentlyPlayed retrieves the user's most recent listening events,
	// newest first. Providers cap the window (Spotify: last 50 plays).
	RecentlyPlayed(ctx context.Context, limit int) ([]RecentPlay, error)

	// SeveralTracks resolves metadata for a batch of track IDs.
	// Unknown IDs are omitted from the result rather than failing the batch.
	SeveralTracks(ctx context.Context, trackIDs []string) ([]TrackDetail, error)

	// SeveralArtists resolves metadata (including genres) for a batch of artist IDs.
	SeveralArtists(ctx context.Context, artistIDs []string) ([]ArtistDetail, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends Service for providers using the OAuth2 authorization-code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth2 config for callback handling.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate authenticates with a previously obtained token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}

// RecentPlay represents one listening event reported by a service.
type RecentPlay struct {
	TrackID    string
	ArtistID   string
	TrackName  string
	ArtistName string
	AlbumName  string
	PlayedAt   string // provider timestamp, RFC3339
	DurationMS int
}

// TrackDetail represents resolved metadata for a track.
type TrackDetail struct {
	ID          string
	Title       string
	ArtistID    string
	ArtistName  string
	AlbumName   string
	AlbumArtURL string
	ReleaseDate string
	DurationMS  int
}

// ArtistDetail represents resolved metadata for an artist.
type ArtistDetail struct {
	ID     string
	Name   string
	Genres []string
}
