package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withGitHubServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	original := GitHubAPIURL
	GitHubAPIURL = server.URL
	t.Cleanup(func() {
		GitHubAPIURL = original
		server.Close()
	})
}

func TestGetLatestRelease_ParsesResponse(t *testing.T) {
	withGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/niftylettuce/frappe/releases/latest", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"tag_name": "v1.2.0",
			"html_url": "https://github.com/niftylettuce/frappe/releases/tag/v1.2.0",
		})
	})

	release, err := GetLatestRelease("niftylettuce/frappe")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", release.TagName)
	assert.Equal(t, "https://github.com/niftylettuce/frappe/releases/tag/v1.2.0", release.HTMLURL)
}

func TestGetLatestRelease_BadStatus(t *testing.T) {
	withGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := GetLatestRelease("niftylettuce/frappe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestGetLatestRelease_MissingTag(t *testing.T) {
	withGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"assets":[]}`))
	})

	_, err := GetLatestRelease("niftylettuce/frappe")
	require.Error(t, err)
}

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		name    string
		current string
		latest  string
		want    bool
	}{
		{"newer patch", "1.0.0", "v1.0.1", true},
		{"same version", "v1.2.0", "1.2.0", false},
		{"older release", "2.0.0", "1.9.9", false},
		{"dev build", "dev", "v9.9.9", false},
		{"garbage tag", "1.0.0", "latest", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNewerVersion(tt.current, tt.latest))
		})
	}
}
