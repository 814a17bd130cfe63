package repositories

import (
	"context"

	"athletehub-api/internal/models"
)

// FollowRepository manages follow edges
type FollowRepository interface {
	// Follow creates the edge if absent and reports whether it was written
	Follow(ctx context.Context, f models.Follow) (bool, error)

	// Unfollow deletes the edge; NotFound when there was none
	Unfollow(ctx context.Context, f models.Follow) (int64, error)

	// Exists checks whether the edge exists
	Exists(ctx context.Context, f models.Follow) (bool, error)

	// Followers lists the ids following userID
	Followers(ctx context.Context, userID string) ([]string, error)

	// Following lists the ids userID follows
	Following(ctx context.Context, userID string) ([]string, error)
}

// ChallengeRepository manages challenges
type ChallengeRepository interface {
	Create(ctx context.Context, in models.ChallengeInput) (*models.Challenge, error)
	GetByID(ctx context.Context, id string) (*models.Challenge, error)
	Update(ctx context.Context, id string, patch models.ChallengePatch) (*models.Challenge, error)
	Delete(ctx context.Context, id string) error
}

// SubmissionRepository manages challenge submissions
type SubmissionRepository interface {
	Create(ctx context.Context, challengeID, athleteID, videoURL string) (*models.Submission, error)
	ListByChallenge(ctx context.Context, challengeID string) ([]*models.Submission, error)
}

// EventRepository reads events and records payment
type EventRepository interface {
	GetByID(ctx context.Context, eventID string) (*models.Event, error)
	ListByHost(ctx context.Context, hostUserID string) ([]*models.Event, error)

	// MarkPaid sets paid=true; repeating it is a no-op
	MarkPaid(ctx context.Context, eventID string) error
}

// RegistrationRepository reads event registrations
type RegistrationRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Registration, error)
}
