package instagram

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint returns profile counters, biography and recent posts
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// WebAppID is sent as X-IG-App-ID; the profile endpoint rejects requests without it
	WebAppID = "936619743392459"

	// MaxUsernameLength is the longest username Instagram accepts
	MaxUsernameLength = 30
)

// GetProfileURL constructs the URL for fetching a user's profile
func GetProfileURL(baseURL, username string) string {
	params := url.Values{}
	params.Set("username", username)

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), ProfileEndpoint, params.Encode())
}

// GetUserProfileURL constructs the public profile URL for a user
func GetUserProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", BaseURL, username)
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > MaxUsernameLength {
		return false
	}

	// Instagram usernames can only contain letters, numbers, periods, and underscores
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return !strings.HasPrefix(username, ".") && !strings.HasSuffix(username, ".") && !strings.Contains(username, "..")
}

// SanitizeUsername normalises user input into a bare lower-case username.
// It accepts "@name", "name/", and profile URLs such as
// "https://www.instagram.com/name/?hl=en".
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return ""
	}

	lower := strings.ToLower(username)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			username = username[len(prefix):]
			lower = lower[len(prefix):]
		}
	}
	for _, host := range []string{"www.instagram.com/", "instagram.com/"} {
		if strings.HasPrefix(lower, host) {
			username = username[len(host):]
			break
		}
	}

	if i := strings.IndexAny(username, "?#"); i >= 0 {
		username = username[:i]
	}

	username = strings.TrimPrefix(username, "@")
	username = strings.TrimRight(username, "/ ")
	if i := strings.Index(username, "/"); i >= 0 {
		username = username[:i]
	}

	return strings.ToLower(username)
}
