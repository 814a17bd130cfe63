package models

// UserSearchRow is the read-only projection returned by user search
type UserSearchRow struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	ProfilePictureURL string `json:"profilePictureUrl"`
	Role              string `json:"role"`
}
