package models

// Follow is a directed edge from follower to following
type Follow struct {
	FollowerID  string `json:"followerId" validate:"required"`
	FollowingID string `json:"followingId" validate:"required"`
}

// FollowStatus answers whether an edge exists
type FollowStatus struct {
	FollowerID  string `json:"followerId"`
	FollowingID string `json:"followingId"`
	Following   bool   `json:"isFollowing"`
}
