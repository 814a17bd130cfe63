package handlers

import (
	"context"
	"strings"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/models"
	"athletehub-api/internal/repositories"
	"athletehub-api/pkg/lambda"
)

// FollowHandler handles the social graph routes
type FollowHandler struct {
	follows repositories.FollowRepository
}

// NewFollowHandler creates a new follow handler
func NewFollowHandler(follows repositories.FollowRepository) *FollowHandler {
	return &FollowHandler{follows: follows}
}

type followRequest struct {
	FollowerID  string `json:"followerId"`
	FollowingID string `json:"followingId" validate:"required"`
}

type followResponse struct {
	models.FollowStatus
	Created bool `json:"created"`
}

// edgeFor resolves the edge a request acts on. The follower defaults to the
// principal and may not name anyone else. Self edges are rejected before the
// ownership check.
func edgeFor(req *lambda.Request, followerID, followingID string) (models.Follow, error) {
	followerID = strings.TrimSpace(followerID)
	if followerID == "" {
		followerID = req.Principal.UserID
	}
	followingID, err := requireParam(followingID, "followingId")
	if err != nil {
		return models.Follow{}, err
	}
	if followerID == followingID {
		return models.Follow{}, apperrors.InvalidArgument("users cannot follow themselves")
	}
	if followerID != req.Principal.UserID {
		return models.Follow{}, apperrors.Forbidden("followerId must be the authenticated user")
	}
	return models.Follow{FollowerID: followerID, FollowingID: followingID}, nil
}

// HandleFollow creates a follow edge; repeating it is harmless
func (h *FollowHandler) HandleFollow(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	var body followRequest
	if err := decodeBody(req, &body); err != nil {
		return nil, err
	}
	edge, err := edgeFor(req, body.FollowerID, body.FollowingID)
	if err != nil {
		return nil, err
	}

	created, err := h.follows.Follow(ctx, edge)
	if err != nil {
		return nil, err
	}
	return lambda.OK(followResponse{
		FollowStatus: models.FollowStatus{FollowerID: edge.FollowerID, FollowingID: edge.FollowingID, Following: true},
		Created:      created,
	})
}

// HandleUnfollow deletes a follow edge. The body is optional; query
// parameters are accepted for clients that cannot send DELETE bodies.
func (h *FollowHandler) HandleUnfollow(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	body := followRequest{FollowerID: req.Query("followerId"), FollowingID: req.Query("followingId")}
	if len(strings.TrimSpace(string(req.Body))) > 0 {
		if err := decodeBody(req, &body); err != nil {
			return nil, err
		}
	}
	edge, err := edgeFor(req, body.FollowerID, body.FollowingID)
	if err != nil {
		return nil, err
	}

	deleted, err := h.follows.Unfollow(ctx, edge)
	if err != nil {
		return nil, err
	}
	return lambda.OK(map[string]any{
		"followerId":  edge.FollowerID,
		"followingId": edge.FollowingID,
		"deleted":     deleted,
	})
}

// HandleStatus reports whether followerId follows followingId
func (h *FollowHandler) HandleStatus(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	followerID := strings.TrimSpace(req.Query("followerId"))
	if followerID == "" {
		followerID = req.Principal.UserID
	}
	followingID, err := requireParam(req.Query("followingId"), "followingId")
	if err != nil {
		return nil, err
	}

	edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
	exists, err := h.follows.Exists(ctx, edge)
	if err != nil {
		return nil, err
	}
	return lambda.OK(models.FollowStatus{FollowerID: followerID, FollowingID: followingID, Following: exists})
}

// HandleFollowers lists who follows the user in the path
func (h *FollowHandler) HandleFollowers(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	userID, err := requireParam(req.Param("id"), "id")
	if err != nil {
		return nil, err
	}
	ids, err := h.follows.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lambda.OK(map[string]any{"userId": userID, "followers": ids})
}

// HandleFollowing lists who the user in the path follows
func (h *FollowHandler) HandleFollowing(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	userID, err := requireParam(req.Param("id"), "id")
	if err != nil {
		return nil, err
	}
	ids, err := h.follows.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lambda.OK(map[string]any{"userId": userID, "following": ids})
}
