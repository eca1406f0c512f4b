package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Masterminds/semver"
)

// GitHubAPIURL is the base URL for release lookups, replaced in tests.
var GitHubAPIURL = "https://api.github.com"

type GitHubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Assets  []struct {
		BrowserDownloadURL string `json:"browser_download_url"`
		Name               string `json:"name"`
	} `json:"assets"`
}

var githubClient = &http.Client{Timeout: 15 * time.Second}

// GetLatestRelease fetches the latest published release of a GitHub repository
func GetLatestRelease(repo string) (*GitHubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", GitHubAPIURL, repo)

	resp, err := githubClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release JSON: %w", err)
	}

	if release.TagName == "" {
		return nil, fmt.Errorf("latest release has no tag")
	}

	return &release, nil
}

// IsNewerVersion reports whether latest is a newer semantic version than current.
// Unparseable versions (such as "dev") are never considered older.
func IsNewerVersion(current, latest string) bool {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false
	}

	next, err := semver.NewVersion(latest)
	if err != nil {
		return false
	}

	return next.GreaterThan(cur)
}
