package repositories

import (
	"context"

	"athletehub-api/internal/models"
	"athletehub-api/internal/store"
)

type submissionRepository struct {
	store store.Store
}

// NewSubmissionRepository creates a submission repository over the relational store
func NewSubmissionRepository(s store.Store) SubmissionRepository {
	return &submissionRepository{store: s}
}

// Create inserts a submission. The foreign key on challenge_id rejects
// submissions for unknown challenges.
func (r *submissionRepository) Create(ctx context.Context, challengeID, athleteID, videoURL string) (*models.Submission, error) {
	rec, err := r.store.Insert(ctx, TableSubmissions, store.Record{
		"challenge_id": challengeID,
		"athlete_id":   athleteID,
		"video_url":    videoURL,
	})
	if err != nil {
		return nil, err
	}
	return submissionFromRecord(rec), nil
}

func (r *submissionRepository) ListByChallenge(ctx context.Context, challengeID string) ([]*models.Submission, error) {
	recs, err := r.store.QueryByIndex(ctx, TableSubmissions, IndexByChallenge, challengeID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Submission, 0, len(recs))
	for _, rec := range recs {
		out = append(out, submissionFromRecord(rec))
	}
	return out, nil
}

func submissionFromRecord(rec store.Record) *models.Submission {
	return &models.Submission{
		ID:          rec.GetString("id"),
		ChallengeID: rec.GetString("challenge_id"),
		AthleteID:   rec.GetString("athlete_id"),
		VideoURL:    rec.GetString("video_url"),
		CreatedAt:   rec.GetTime("created_at"),
	}
}
