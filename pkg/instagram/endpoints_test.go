package instagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetProfileURL(t *testing.T) {
	assert.Equal(t,
		"https://www.instagram.com/api/v1/users/web_profile_info/?username=natgeo",
		GetProfileURL(BaseURL, "natgeo"))
	assert.Equal(t,
		"http://127.0.0.1:9000/api/v1/users/web_profile_info/?username=a.b_c",
		GetProfileURL("http://127.0.0.1:9000/", "a.b_c"))
}

func TestGetUserProfileURL(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/natgeo/", GetUserProfileURL("natgeo"))
	assert.Empty(t, GetUserProfileURL(""))
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"natgeo", true},
		{"travel.blogger_01", true},
		{"A_B", true},
		{"", false},
		{strings.Repeat("a", 30), true},
		{strings.Repeat("a", 31), false},
		{"with space", false},
		{"dash-name", false},
		{"émile", false},
		{".leading", false},
		{"trailing.", false},
		{"double..dot", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidUsername(tt.username))
		})
	}
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"natgeo", "natgeo"},
		{"@NatGeo", "natgeo"},
		{"  natgeo  ", "natgeo"},
		{"natgeo/", "natgeo"},
		{"natgeo// ", "natgeo"},
		{"https://www.instagram.com/natgeo/", "natgeo"},
		{"HTTPS://Instagram.com/NatGeo?hl=en", "natgeo"},
		{"instagram.com/natgeo/reels/", "natgeo"},
		{"www.instagram.com/natgeo#top", "natgeo"},
		{"", ""},
		{"   ", ""},
		{"@", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeUsername(tt.input))
		})
	}
}

func TestNodeInteractions(t *testing.T) {
	n := Node{EdgeLikedBy: Count{Count: 10}, EdgeMediaToComment: Count{Count: 3}}
	assert.Equal(t, 13, n.Interactions())

	preview := Node{EdgeMediaPreviewLike: Count{Count: 7}}
	assert.Equal(t, 7, preview.Likes())
}
