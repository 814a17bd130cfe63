package repositories

import (
	"context"
	"strings"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/models"
	"athletehub-api/internal/store"
)

type followRepository struct {
	store store.Store
}

// NewFollowRepository creates a follow repository over the relational store
func NewFollowRepository(s store.Store) FollowRepository {
	return &followRepository{store: s}
}

func (r *followRepository) Follow(ctx context.Context, f models.Follow) (bool, error) {
	if err := validateEdge(f); err != nil {
		return false, err
	}
	return r.store.InsertIfAbsent(ctx, TableFollowers, store.Record{
		"follower_id":  f.FollowerID,
		"following_id": f.FollowingID,
	})
}

func (r *followRepository) Unfollow(ctx context.Context, f models.Follow) (int64, error) {
	if err := validateEdge(f); err != nil {
		return 0, err
	}
	n, err := r.store.Delete(ctx, TableFollowers, edgeKey(f))
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, apperrors.NotFound("follow", f.FollowerID+"->"+f.FollowingID)
	}
	return n, nil
}

func (r *followRepository) Exists(ctx context.Context, f models.Follow) (bool, error) {
	if strings.TrimSpace(f.FollowerID) == "" || strings.TrimSpace(f.FollowingID) == "" {
		return false, apperrors.InvalidArgument("followerId and followingId are required")
	}
	rec, err := r.store.QueryByKey(ctx, TableFollowers, edgeKey(f))
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

func (r *followRepository) Followers(ctx context.Context, userID string) ([]string, error) {
	return r.list(ctx, IndexByFollowing, userID, "follower_id")
}

func (r *followRepository) Following(ctx context.Context, userID string) ([]string, error) {
	return r.list(ctx, IndexByFollower, userID, "following_id")
}

func (r *followRepository) list(ctx context.Context, index, userID, field string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.InvalidArgument("user id is required")
	}
	recs, err := r.store.QueryByIndex(ctx, TableFollowers, index, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.GetString(field))
	}
	return ids, nil
}

// validateEdge enforces an irreflexive edge with both ends present
func validateEdge(f models.Follow) error {
	if strings.TrimSpace(f.FollowerID) == "" || strings.TrimSpace(f.FollowingID) == "" {
		return apperrors.InvalidArgument("followerId and followingId are required")
	}
	if f.FollowerID == f.FollowingID {
		return apperrors.InvalidArgument("users cannot follow themselves")
	}
	return nil
}

func edgeKey(f models.Follow) store.Key {
	return store.Key{"follower_id": f.FollowerID, "following_id": f.FollowingID}
}
