// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/replayed/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// MaxBatchSize is Spotify's cap on IDs per several-tracks/artists call.
	MaxBatchSize = 50
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyPlayHistoryItem represents one entry of the recently-played feed.
type SpotifyPlayHistoryItem struct {
	Track    SpotifyTrack `json:"track"`
	PlayedAt string       `json:"played_at"`
}

// SpotifyRecentlyPlayed represents the paginated recently-played response.
type SpotifyRecentlyPlayed struct {
	Items []SpotifyPlayHistoryItem `json:"items"`
	Limit int                      `json:"limit"`
	Next  *string                  `json:"next"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and provides methods for listening-history and metadata operations.
type SpotifyService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	baseURL     string
	credentials map[string]string
}

var _ OAuthService = (*SpotifyService)(nil)

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-recently-played",
			"user-library-read",
			"user-top-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		baseURL:     spotifyBaseURL,
		credentials: credentials,
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		token := &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		}
		return s.OAuthenticate(ctx, token)
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("missing access_token or auth_code in credentials")
}

// OAuthenticate authenticates with a previously obtained OAuth2 token.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidCredentials)
	}
	s.token = token
	s.httpClient = s.config.Client(ctx, s.token)
	return nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 config for the callback server.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, result interface{}) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status %d", shared.ErrTokenExpired, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Recent retrieves the raw recently-played feed (up to 50 items).
func (s *SpotifyService) Recent(ctx context.Context, limit int) (*SpotifyRecentlyPlayed, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/player/recently-played?limit=%d", limit)

	var response SpotifyRecentlyPlayed
	if err := s.doRequest(ctx, "GET", endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// TracksBatch retrieves multiple tracks by their IDs (up to 50).
func (s *SpotifyService) TracksBatch(ctx context.Context, trackIDs []string) ([]SpotifyTrack, error) {
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("no track IDs provided")
	}
	if len(trackIDs) > MaxBatchSize {
		return nil, fmt.Errorf("maximum %d track IDs allowed", MaxBatchSize)
	}

	ids := strings.Join(trackIDs, ",")
	endpoint := fmt.Sprintf("/tracks?ids=%s", url.QueryEscape(ids))

	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}

	if err := s.doRequest(ctx, "GET", endpoint, &response); err != nil {
		return nil, err
	}

	return response.Tracks, nil
}

// ArtistsBatch retrieves multiple artists by their IDs (up to 50).
func (s *SpotifyService) ArtistsBatch(ctx context.Context, artistIDs []string) ([]SpotifyArtist, error) {
	if len(artistIDs) == 0 {
		return nil, fmt.Errorf("no artist IDs provided")
	}
	if len(artistIDs) > MaxBatchSize {
		return nil, fmt.Errorf("maximum %d artist IDs allowed", MaxBatchSize)
	}

	ids := strings.Join(artistIDs, ",")
	endpoint := fmt.Sprintf("/artists?ids=%s", url.QueryEscape(ids))

	var response struct {
		Artists []SpotifyArtist `json:"artists"`
	}

	if err := s.doRequest(ctx, "GET", endpoint, &response); err != nil {
		return nil, err
	}

	return response.Artists, nil
}

// Service interface implementation

// RecentlyPlayed retrieves recent listening events, newest first.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) ([]RecentPlay, error) {
	response, err := s.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	plays := make([]RecentPlay, 0, len(response.Items))
	for _, item := range response.Items {
		play := RecentPlay{
			TrackID:    item.Track.ID,
			TrackName:  item.Track.Name,
			AlbumName:  item.Track.Album.Name,
			PlayedAt:   item.PlayedAt,
			DurationMS: item.Track.DurationMS,
		}
		if len(item.Track.Artists) > 0 {
			play.ArtistID = item.Track.Artists[0].ID
			play.ArtistName = item.Track.Artists[0].Name
		}
		plays = append(plays, play)
	}

	return plays, nil
}

// SeveralTracks resolves metadata for a batch of track IDs.
func (s *SpotifyService) SeveralTracks(ctx context.Context, trackIDs []string) ([]TrackDetail, error) {
	tracks, err := s.TracksBatch(ctx, trackIDs)
	if err != nil {
		return nil, err
	}

	details := make([]TrackDetail, 0, len(tracks))
	for _, track := range tracks {
		if track.ID == "" {
			// Spotify returns null entries for unknown IDs
			continue
		}
		detail := TrackDetail{
			ID:          track.ID,
			Title:       track.Name,
			AlbumName:   track.Album.Name,
			ReleaseDate: track.Album.ReleaseDate,
			DurationMS:  track.DurationMS,
		}
		if len(track.Artists) > 0 {
			detail.ArtistID = track.Artists[0].ID
			detail.ArtistName = track.Artists[0].Name
		}
		if len(track.Album.Images) > 0 {
			// Largest image is first in the array
			detail.AlbumArtURL = track.Album.Images[0].URL
		}
		details = append(details, detail)
	}

	return details, nil
}

// SeveralArtists resolves metadata for a batch of artist IDs.
func (s *SpotifyService) SeveralArtists(ctx context.Context, artistIDs []string) ([]ArtistDetail, error) {
	artists, err := s.ArtistsBatch(ctx, artistIDs)
	if err != nil {
		return nil, err
	}

	details := make([]ArtistDetail, 0, len(artists))
	for _, artist := range artists {
		if artist.ID == "" {
			continue
		}
		details = append(details, ArtistDetail{
			ID:     artist.ID,
			Name:   artist.Name,
			Genres: artist.Genres,
		})
	}

	return details, nil
}
