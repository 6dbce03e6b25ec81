package instagram

// WebProfileResponse is the body returned by the web_profile_info endpoint
type WebProfileResponse struct {
	RequiresToLogin bool   `json:"requires_to_login"`
	Data            Data   `json:"data"`
	Status          string `json:"status"`
}

// Data wraps the user information in the response. User is nil when the
// account does not exist.
type Data struct {
	User *User `json:"user"`
}

// User represents an Instagram user profile
type User struct {
	ID                       string        `json:"id"`
	Username                 string        `json:"username"`
	FullName                 string        `json:"full_name"`
	Biography                string        `json:"biography"`
	IsPrivate                bool          `json:"is_private"`
	IsVerified               bool          `json:"is_verified"`
	EdgeFollowedBy           Count         `json:"edge_followed_by"`
	EdgeFollow               Count         `json:"edge_follow"`
	EdgeOwnerToTimelineMedia TimelineMedia `json:"edge_owner_to_timeline_media"`
}

// Count is the {"count": N} shape Instagram uses for totals
type Count struct {
	Count int `json:"count"`
}

// TimelineMedia contains the post total and the most recent posts
type TimelineMedia struct {
	Count    int      `json:"count"`
	PageInfo PageInfo `json:"page_info"`
	Edges    []Edge   `json:"edges"`
}

// PageInfo contains pagination information
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// Edge wraps a single media node
type Edge struct {
	Node Node `json:"node"`
}

// Node represents a single post with its interaction counters
type Node struct {
	ID                   string `json:"id"`
	Shortcode            string `json:"shortcode"`
	IsVideo              bool   `json:"is_video"`
	TakenAtTimestamp     int64  `json:"taken_at_timestamp"`
	EdgeLikedBy          Count  `json:"edge_liked_by"`
	EdgeMediaPreviewLike Count  `json:"edge_media_preview_like"`
	EdgeMediaToComment   Count  `json:"edge_media_to_comment"`
}

// Likes returns the like count, falling back to the preview counter that
// some responses carry instead of edge_liked_by
func (n Node) Likes() int {
	if n.EdgeLikedBy.Count > 0 {
		return n.EdgeLikedBy.Count
	}
	return n.EdgeMediaPreviewLike.Count
}

// Interactions returns likes plus comments for the post
func (n Node) Interactions() int {
	return n.Likes() + n.EdgeMediaToComment.Count
}
