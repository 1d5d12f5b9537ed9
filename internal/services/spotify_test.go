package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://127.0.0.1:9999/callback",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv == nil {
				t.Fatal("expected service to be created")
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			credentials := map[string]string{
				"client_secret": "test_client_secret",
			}

			_, err := NewSpotifyService(credentials)
			if err == nil {
				t.Error("expected error for missing client_id")
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			credentials := map[string]string{
				"client_id": "test_client_id",
			}

			_, err := NewSpotifyService(credentials)
			if err == nil {
				t.Error("expected error for missing client_secret")
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != "http://127.0.0.1:8888/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv := newTestService(t)

		authURL := srv.GetAuthURL("test_state")
		if authURL == "" {
			t.Error("expected auth URL to be generated")
		}

		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Errorf("expected Spotify auth host in URL, got %s", authURL)
		}
		if !strings.Contains(authURL, "state=test_state") {
			t.Errorf("expected state parameter in URL, got %s", authURL)
		}
		if !strings.Contains(authURL, "user-read-recently-played") {
			t.Errorf("expected recently-played scope in URL, got %s", authURL)
		}
	})

	t.Run("Requests Fail Without Authentication", func(t *testing.T) {
		srv := newTestService(t)

		if _, err := srv.RecentlyPlayed(context.Background(), 50); err == nil {
			t.Error("expected error when not authenticated")
		}
	})

	t.Run("OAuthenticate Rejects Empty Token", func(t *testing.T) {
		srv := newTestService(t)

		if err := srv.OAuthenticate(context.Background(), nil); err == nil {
			t.Error("expected error for nil token")
		}
		if err := srv.OAuthenticate(context.Background(), &oauth2.Token{}); err == nil {
			t.Error("expected error for empty access token")
		}
	})

	t.Run("Batch Size Limits", func(t *testing.T) {
		srv := newTestService(t)
		srv.token = &oauth2.Token{AccessToken: "token"}

		ids := make([]string, MaxBatchSize+1)
		for i := range ids {
			ids[i] = "id"
		}

		if _, err := srv.TracksBatch(context.Background(), ids); err == nil {
			t.Error("expected error for oversized track batch")
		}
		if _, err := srv.ArtistsBatch(context.Background(), ids); err == nil {
			t.Error("expected error for oversized artist batch")
		}
		if _, err := srv.TracksBatch(context.Background(), nil); err == nil {
			t.Error("expected error for empty track batch")
		}
	})
}

func TestSpotifyServiceResponses(t *testing.T) {
	t.Run("RecentlyPlayed Maps Items", func(t *testing.T) {
		payload := SpotifyRecentlyPlayed{
			Items: []SpotifyPlayHistoryItem{
				{
					PlayedAt: "2023-01-01T10:01:00Z",
					Track: SpotifyTrack{
						ID:         "t1",
						Name:       "Karma Police",
						DurationMS: 261000,
						Artists:    []SpotifyArtist{{ID: "a1", Name: "Radiohead"}},
						Album:      SpotifyAlbum{Name: "OK Computer"},
					},
				},
			},
		}

		srv := newStubbedService(t, "/me/player/recently-played", payload)

		plays, err := srv.RecentlyPlayed(context.Background(), 50)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(plays) != 1 {
			t.Fatalf("expected 1 play, got %d", len(plays))
		}

		play := plays[0]
		if play.TrackID != "t1" || play.ArtistID != "a1" {
			t.Errorf("unexpected IDs: %+v", play)
		}
		if play.PlayedAt != "2023-01-01T10:01:00Z" {
			t.Errorf("unexpected timestamp: %s", play.PlayedAt)
		}
		if play.DurationMS != 261000 {
			t.Errorf("unexpected duration: %d", play.DurationMS)
		}
	})

	t.Run("SeveralTracks Skips Null Entries", func(t *testing.T) {
		payload := map[string]any{
			"tracks": []any{
				map[string]any{
					"id":   "t1",
					"name": "Karma Police",
					"artists": []any{
						map[string]any{"id": "a1", "name": "Radiohead"},
					},
					"album": map[string]any{
						"name":         "OK Computer",
						"release_date": "1997-05-21",
						"images": []any{
							map[string]any{"url": "https://img.example/640.jpg", "height": 640, "width": 640},
						},
					},
				},
				nil,
			},
		}

		srv := newStubbedService(t, "/tracks", payload)

		details, err := srv.SeveralTracks(context.Background(), []string{"t1", "bogus"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(details) != 1 {
			t.Fatalf("expected 1 detail, got %d", len(details))
		}

		detail := details[0]
		if detail.AlbumArtURL != "https://img.example/640.jpg" {
			t.Errorf("expected largest album image, got %s", detail.AlbumArtURL)
		}
		if detail.ReleaseDate != "1997-05-21" {
			t.Errorf("unexpected release date: %s", detail.ReleaseDate)
		}
	})

	t.Run("SeveralArtists Maps Genres", func(t *testing.T) {
		payload := map[string]any{
			"artists": []any{
				map[string]any{"id": "a1", "name": "Radiohead", "genres": []any{"art rock", "alternative"}},
			},
		}

		srv := newStubbedService(t, "/artists", payload)

		details, err := srv.SeveralArtists(context.Background(), []string{"a1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(details) != 1 || len(details[0].Genres) != 2 {
			t.Fatalf("expected 1 artist with 2 genres, got %+v", details)
		}
	})
}

func newTestService(t *testing.T) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv
}

// newStubbedService routes all API calls to a local test server returning the
// given payload for the expected path.
func newStubbedService(t *testing.T, wantPath string, payload any) *SpotifyService {
	t.Helper()

	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, wantPath) {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") == "" {
			http.Error(w, "missing auth", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(stub.Close)

	srv := newTestService(t)
	srv.token = &oauth2.Token{AccessToken: "test_token"}
	srv.httpClient = stub.Client()
	srv.baseURL = stub.URL

	return srv
}
