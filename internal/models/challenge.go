package models

import "time"

// Challenge is a coach-authored task athletes submit videos against
type Challenge struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	XPValue     int64     `json:"xpValue"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ChallengeInput is the body of a create request
type ChallengeInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	XPValue     int64  `json:"xpValue" validate:"gte=0"`
}

// ChallengePatch is the body of an update request; nil fields are left alone
type ChallengePatch struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	XPValue     *int64  `json:"xpValue" validate:"omitempty,gte=0"`
}

// IsEmpty reports whether the patch changes nothing
func (p ChallengePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.XPValue == nil
}

// Submission is an athlete's video entry for a challenge
type Submission struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challengeId"`
	AthleteID   string    `json:"athleteId"`
	VideoURL    string    `json:"videoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SubmissionInput is the body of a submit request
type SubmissionInput struct {
	VideoURL string `json:"videoUrl" validate:"required,url"`
}
