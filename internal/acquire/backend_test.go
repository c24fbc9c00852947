package acquire

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendStrategy_Supports(t *testing.T) {
	s := NewBackendStrategy(map[string]string{
		"acme.example": "https://api.acme.example/content",
	}, 0)

	assert.True(t, s.Supports("https://acme.example/about"))
	assert.False(t, s.Supports("https://other.example/about"))
	assert.False(t, s.Supports("not a url"))
}

func TestBackendStrategy_Fetch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotQuery)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"title":   "About Acme",
			"content": "We build widgets.",
		})
	}))
	defer srv.Close()

	host := mustHost(t, srv.URL)
	s := NewBackendStrategy(map[string]string{host: srv.URL}, 5*time.Second)

	target := srv.URL + "/about"
	content, err := s.Fetch(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, target, gotQuery["url"])
	assert.Equal(t, "About Acme", content.Title)
	assert.Equal(t, "We build widgets.", content.Markdown)
	assert.Equal(t, "backend_api", content.Source)
}

func TestBackendStrategy_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	host := mustHost(t, srv.URL)
	s := NewBackendStrategy(map[string]string{host: srv.URL}, 5*time.Second)

	_, err := s.Fetch(context.Background(), srv.URL+"/about")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestBackendStrategy_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	host := mustHost(t, srv.URL)
	s := NewBackendStrategy(map[string]string{host: srv.URL}, 5*time.Second)

	_, err := s.Fetch(context.Background(), srv.URL+"/about")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func mustHost(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Host
}
