// Package handlers implements the gateway operations. Each handler validates
// its input, runs one adapter operation and shapes the success response; the
// dispatcher in pkg/lambda owns authorization, errors and the envelope.
package handlers

import (
	"context"

	"athletehub-api/internal/adapters/storage"
	"athletehub-api/internal/identity"
	"athletehub-api/internal/repositories"
	"athletehub-api/internal/search"

	"github.com/sirupsen/logrus"
)

// PortalSessionCreator opens billing portal sessions
type PortalSessionCreator interface {
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// WebhookProcessor applies a signed provider webhook
type WebhookProcessor interface {
	HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error
}

// PasswordResetter confirms password resets with the identity provider
type PasswordResetter interface {
	ConfirmForgotPassword(ctx context.Context, reset identity.PasswordReset) error
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the adapters handlers run against
type Deps struct {
	Follows       repositories.FollowRepository
	Challenges    repositories.ChallengeRepository
	Submissions   repositories.SubmissionRepository
	Events        repositories.EventRepository
	Registrations repositories.RegistrationRepository
	Search        search.Searcher
	Uploads       storage.UploadURLIssuer
	Billing       PortalSessionCreator
	Webhooks      WebhookProcessor
	Identity      PasswordResetter
	Health        map[string]HealthChecker
	Logger        *logrus.Logger
}

// ServiceName is reported by the health endpoint
const ServiceName = "athletehub-api"
