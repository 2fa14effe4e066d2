package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	CurrentVersion = "v0.3.0" // Overwritten by ldflags during release builds
	githubAPI      = "https://api.github.com/repos/chukul/bucketctl/releases/latest"
	checkInterval  = 24 * time.Hour
)

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

type versionCheck struct {
	LastChecked   time.Time `json:"last_checked"`
	LatestVersion string    `json:"latest_version"`
}

// CheckForUpdates prints a hint on stderr when a newer release exists.
// Non-blocking and silent on any failure.
func CheckForUpdates() {
	if !shouldCheck() {
		return
	}

	go func() {
		latest, url, err := FetchLatestVersion()
		if err != nil {
			return
		}
		if IsNewer(latest, CurrentVersion) {
			fmt.Fprintf(os.Stderr, "\n💡 Update available: %s → %s\n", CurrentVersion, latest)
			fmt.Fprintf(os.Stderr, "   Download: %s\n\n", url)
		}
		saveLastCheck(latest)
	}()
}

func checkCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".bucketctl", "version_check.json")
}

func shouldCheck() bool {
	data, err := os.ReadFile(checkCachePath())
	if err != nil {
		return true
	}
	var check versionCheck
	if err := json.Unmarshal(data, &check); err != nil {
		return true
	}
	return time.Since(check.LastChecked) > checkInterval
}

// FetchLatestVersion asks the GitHub API for the newest release tag.
func FetchLatestVersion() (string, string, error) {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(githubAPI)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var release githubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return "", "", err
	}
	return release.TagName, release.HTMLURL, nil
}

// IsNewer compares two semantic version tags segment by segment, so
// "v0.10.0" ranks above "v0.9.0". Missing segments count as zero.
func IsNewer(latest, current string) bool {
	a := strings.Split(strings.TrimPrefix(latest, "v"), ".")
	b := strings.Split(strings.TrimPrefix(current, "v"), ".")
	for i := 0; i < len(a) || i < len(b); i++ {
		var x, y int
		if i < len(a) {
			x, _ = strconv.Atoi(a[i])
		}
		if i < len(b) {
			y, _ = strconv.Atoi(b[i])
		}
		if x != y {
			return x > y
		}
	}
	return false
}

func saveLastCheck(version string) {
	path := checkCachePath()
	if path == "" {
		return
	}
	os.MkdirAll(filepath.Dir(path), 0700)
	data, _ := json.Marshal(versionCheck{LastChecked: time.Now(), LatestVersion: version})
	os.WriteFile(path, data, 0600)
}
