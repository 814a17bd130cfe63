package repositories

import (
	"context"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/models"
	"athletehub-api/internal/store"
)

type challengeRepository struct {
	store store.Store
}

// NewChallengeRepository creates a challenge repository over the relational store
func NewChallengeRepository(s store.Store) ChallengeRepository {
	return &challengeRepository{store: s}
}

func (r *challengeRepository) Create(ctx context.Context, in models.ChallengeInput) (*models.Challenge, error) {
	rec, err := r.store.Insert(ctx, TableChallenges, store.Record{
		"title":       in.Title,
		"description": in.Description,
		"xp_value":    in.XPValue,
	})
	if err != nil {
		return nil, err
	}
	return challengeFromRecord(rec), nil
}

func (r *challengeRepository) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	rec, err := r.store.QueryByKey(ctx, TableChallenges, store.Key{"id": id})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NotFound("challenge", id)
	}
	return challengeFromRecord(rec), nil
}

func (r *challengeRepository) Update(ctx context.Context, id string, patch models.ChallengePatch) (*models.Challenge, error) {
	fields := store.Record{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.XPValue != nil {
		fields["xp_value"] = *patch.XPValue
	}

	if err := r.store.Update(ctx, TableChallenges, store.Key{"id": id}, fields); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("challenge", id)
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *challengeRepository) Delete(ctx context.Context, id string) error {
	n, err := r.store.Delete(ctx, TableChallenges, store.Key{"id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound("challenge", id)
	}
	return nil
}

func challengeFromRecord(rec store.Record) *models.Challenge {
	return &models.Challenge{
		ID:          rec.GetString("id"),
		Title:       rec.GetString("title"),
		Description: rec.GetString("description"),
		XPValue:     rec.GetInt64("xp_value"),
		CreatedAt:   rec.GetTime("created_at"),
		UpdatedAt:   rec.GetTime("updated_at"),
	}
}
