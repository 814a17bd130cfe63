package handlers

import (
	"context"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/models"
	"athletehub-api/internal/repositories"
	"athletehub-api/pkg/lambda"
)

// ChallengeHandler handles challenge and submission routes
type ChallengeHandler struct {
	challenges  repositories.ChallengeRepository
	submissions repositories.SubmissionRepository
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(challenges repositories.ChallengeRepository, submissions repositories.SubmissionRepository) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges, submissions: submissions}
}

// HandleCreate creates a challenge
func (h *ChallengeHandler) HandleCreate(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	var input models.ChallengeInput
	if err := decodeBody(req, &input); err != nil {
		return nil, err
	}
	challenge, err := h.challenges.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	return lambda.Created(challenge)
}

// HandleGet returns one challenge
func (h *ChallengeHandler) HandleGet(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	id, err := requireParam(req.Param("id"), "id")
	if err != nil {
		return nil, err
	}
	challenge, err := h.challenges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return lambda.OK(challenge)
}

// HandleUpdate applies a partial update to a challenge
func (h *ChallengeHandler) HandleUpdate(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	id, err := requireParam(req.Param("id"), "id")
	if err != nil {
		return nil, err
	}
	var patch models.ChallengePatch
	if err := decodeBody(req, &patch); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperrors.InvalidArgument("at least one of title, description or xpValue is required")
	}

	challenge, err := h.challenges.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return lambda.OK(challenge)
}

// HandleDelete removes a challenge and, by cascade, its submissions
func (h *ChallengeHandler) HandleDelete(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	id, err := requireParam(req.Param("id"), "id")
	if err != nil {
		return nil, err
	}
	if err := h.challenges.Delete(ctx, id); err != nil {
		return nil, err
	}
	return lambda.OK(map[string]any{"id": id, "deleted": true})
}

// HandleSubmit records the principal's video for a challenge
func (h *ChallengeHandler) HandleSubmit(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	challengeID, err := requireParam(req.Param("id"), "id")
	if err != nil {
		return nil, err
	}
	var input models.SubmissionInput
	if err := decodeBody(req, &input); err != nil {
		return nil, err
	}
	if _, err := h.challenges.GetByID(ctx, challengeID); err != nil {
		return nil, err
	}

	submission, err := h.submissions.Create(ctx, challengeID, req.Principal.UserID, input.VideoURL)
	if err != nil {
		return nil, err
	}
	return lambda.Created(submission)
}

// HandleListSubmissions lists the submissions of a challenge
func (h *ChallengeHandler) HandleListSubmissions(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	challengeID, err := requireParam(req.Param("id"), "id")
	if err != nil {
		return nil, err
	}
	submissions, err := h.submissions.ListByChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return lambda.OK(submissions)
}
