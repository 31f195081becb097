// Package version knows the running version and how to discover the latest
// released one.
//
// DESIGN: The release lookup is injectable (FetchFunc) so tests never touch
// the network, and CheckForUpdate is fully fail-open: the SessionStart hook
// calls it with a one-second budget and any failure must cost nothing more
// than a missing notice.
package version

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is the current release, overridable at build time via
// -ldflags "-X github.com/ppgranger/token-saver/internal/version.Version=...".
var Version = "1.3.1"

// DefaultRepo is the GitHub repository update checks and downloads use.
const DefaultRepo = "ppgranger/token-saver"

// checkTimeout bounds the background update probe. SessionStart hooks run
// under the host's 3 s hook timeout, so the probe gets one second.
const checkTimeout = 1 * time.Second

// Release is the subset of the GitHub releases API response updates need.
type Release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// FetchFunc returns the latest release. Tests substitute their own.
type FetchFunc func() (*Release, error)

// Repo returns the release repository, honoring the TOKEN_SAVER_REPO
// override.
func Repo() string {
	if repo := os.Getenv("TOKEN_SAVER_REPO"); repo != "" {
		return repo
	}
	return DefaultRepo
}

// FetchLatest queries the GitHub releases API with the given timeout.
func FetchLatest(timeout time.Duration) (*Release, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", Repo())

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "token-saver")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("no tag_name in GitHub API response")
	}
	return &release, nil
}

// Parse splits "X.Y.Z", tolerating a leading v and a pre-release suffix
// ("v1.2.0-beta.1" parses as 1.2.0).
func Parse(v string) ([3]int, error) {
	var out [3]int
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	v, _, _ = strings.Cut(v, "-")
	parts := strings.Split(v, ".")
	if len(parts) == 0 || len(parts) > 3 || parts[0] == "" {
		return out, fmt.Errorf("unparseable version %q", v)
	}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return out, fmt.Errorf("unparseable version %q: %w", v, err)
		}
		out[i] = n
	}
	return out, nil
}

// Newer reports whether candidate is a strictly newer version than current.
func Newer(candidate, current string) (bool, error) {
	c, err := Parse(candidate)
	if err != nil {
		return false, err
	}
	cur, err := Parse(current)
	if err != nil {
		return false, err
	}
	for i := 0; i < 3; i++ {
		if c[i] != cur[i] {
			return c[i] > cur[i], nil
		}
	}
	return false, nil
}

// CheckForUpdate returns an update notice when a newer release exists, or ""
// on any failure or when already current. fetch may be nil, in which case the
// GitHub API is queried with the short probe timeout.
func CheckForUpdate(fetch FetchFunc) string {
	if fetch == nil {
		fetch = func() (*Release, error) { return FetchLatest(checkTimeout) }
	}
	release, err := fetch()
	if err != nil {
		return ""
	}
	latest := strings.TrimPrefix(release.TagName, "v")
	newer, err := Newer(latest, Version)
	if err != nil || !newer {
		return ""
	}
	return fmt.Sprintf("Update available: v%s -> v%s -- Run: token-saver update", Version, latest)
}
