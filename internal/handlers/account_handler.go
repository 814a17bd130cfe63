package handlers

import (
	"context"
	"net/http"

	"athletehub-api/internal/adapters/storage"
	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/identity"
	"athletehub-api/internal/repositories"
	"athletehub-api/internal/search"
	"athletehub-api/pkg/lambda"

	"github.com/sirupsen/logrus"
)

// AccountHandler handles search, uploads, events, billing and password reset
type AccountHandler struct {
	searcher      search.Searcher
	uploads       storage.UploadURLIssuer
	events        repositories.EventRepository
	registrations repositories.RegistrationRepository
	billing       PortalSessionCreator
	webhooks      WebhookProcessor
	identity      PasswordResetter
	logger        *logrus.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(deps Deps) *AccountHandler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AccountHandler{
		searcher:      deps.Search,
		uploads:       deps.Uploads,
		events:        deps.Events,
		registrations: deps.Registrations,
		billing:       deps.Billing,
		webhooks:      deps.Webhooks,
		identity:      deps.Identity,
		logger:        logger,
	}
}

// HandleSearchUsers searches user profiles by name or email
func (h *AccountHandler) HandleSearchUsers(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	rows, err := h.searcher.Search(ctx, req.Query("q"))
	if err != nil {
		return nil, err
	}
	return lambda.OK(rows)
}

// HandleVideoUploadURL issues an upload URL scoped to the principal
func (h *AccountHandler) HandleVideoUploadURL(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	upload, err := h.uploads.IssueUploadURL(ctx, req.Principal.UserID)
	if err != nil {
		return nil, storage.ToAppError("issue_upload_url", err)
	}
	return lambda.OK(upload)
}

// HandleHostedEvents lists events hosted by the principal
func (h *AccountHandler) HandleHostedEvents(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	events, err := h.events.ListByHost(ctx, req.Principal.UserID)
	if err != nil {
		return nil, err
	}
	return lambda.OK(events)
}

// HandleRegistrations lists the principal's event registrations
func (h *AccountHandler) HandleRegistrations(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	registrations, err := h.registrations.ListByUser(ctx, req.Principal.UserID)
	if err != nil {
		return nil, err
	}
	return lambda.OK(registrations)
}

type portalRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
	ReturnURL  string `json:"returnUrl" validate:"required,url"`
}

// HandleBillingPortal opens a billing portal session
func (h *AccountHandler) HandleBillingPortal(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	var body portalRequest
	if err := decodeBody(req, &body); err != nil {
		return nil, err
	}
	url, err := h.billing.CreatePortalSession(ctx, body.CustomerID, body.ReturnURL)
	if err != nil {
		return nil, err
	}
	return lambda.OK(map[string]string{"url": url})
}

// HandleStripeWebhook applies a Stripe webhook delivery
func (h *AccountHandler) HandleStripeWebhook(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	if len(req.Body) == 0 {
		return nil, apperrors.Malformed("webhook payload is empty", nil)
	}
	if err := h.webhooks.HandleWebhookEvent(ctx, req.Body, req.Header("Stripe-Signature")); err != nil {
		return nil, err
	}
	return lambda.OK(map[string]bool{"received": true})
}

// HandleConfirmForgotPassword completes a password reset
func (h *AccountHandler) HandleConfirmForgotPassword(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	var reset identity.PasswordReset
	if err := decodeBody(req, &reset); err != nil {
		return nil, err
	}
	if err := h.identity.ConfirmForgotPassword(ctx, reset); err != nil {
		return nil, err
	}
	return lambda.OK(map[string]string{"message": "Password has been reset"})
}

// HealthHandler reports liveness and dependency health
type HealthHandler struct {
	checks map[string]HealthChecker
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checks map[string]HealthChecker, logger *logrus.Logger) *HealthHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HealthHandler{checks: checks, logger: logger}
}

// HandleHealth runs every dependency check
func (h *HealthHandler) HandleHealth(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	status := "healthy"
	code := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			h.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
			results[name] = "unhealthy"
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		results[name] = "healthy"
	}
	return lambda.JSON(code, map[string]any{
		"status":  status,
		"service": ServiceName,
		"checks":  results,
	})
}
