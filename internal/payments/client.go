// Package payments wraps the Stripe billing portal and webhook processing.
package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
)

// PortalSessionAPI creates billing portal sessions
type PortalSessionAPI interface {
	New(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

var _ PortalSessionAPI = (*portalsession.Client)(nil)

// Client is the billing provider adapter
type Client struct {
	portal PortalSessionAPI
	logger *logrus.Logger
}

// NewClient builds a Stripe client with a bounded HTTP timeout and no SDK retries.
// baseURL overrides the API endpoint and is empty in production.
func NewClient(cfg config.StripeConfig, baseURL string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		LeveledLogger:     logger,
		MaxNetworkRetries: stripe.Int64(0),
	}
	if baseURL != "" {
		backendConfig.URL = stripe.String(baseURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)

	var portal PortalSessionAPI
	if cfg.SecretKey != "" {
		portal = &portalsession.Client{B: backend, Key: cfg.SecretKey}
	}
	return &Client{portal: portal, logger: logger}
}

// NewClientWithAPI builds a client over an existing portal API
func NewClientWithAPI(portal PortalSessionAPI, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{portal: portal, logger: logger}
}

// CreatePortalSession returns the URL of a billing portal session for customerID
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	customerID = strings.TrimSpace(customerID)
	returnURL = strings.TrimSpace(returnURL)
	if customerID == "" || returnURL == "" {
		return "", apperrors.InvalidArgument("customerId and returnUrl are required")
	}
	if c.portal == nil {
		return "", apperrors.Upstream("create_portal_session", errors.New("stripe is not configured"))
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := c.portal.New(params)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"customer_id": customerID,
			"error":       err.Error(),
		}).Error("Failed to create billing portal session")
		return "", mapStripeError("create_portal_session", err)
	}

	return session.URL, nil
}

// mapStripeError turns request errors the caller can fix into InvalidArgument
func mapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeInvalidRequest &&
		stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 {
		msg := stripeErr.Msg
		if msg == "" {
			msg = "invalid billing request"
		}
		return apperrors.Wrap(apperrors.ErrInvalidArgument, op, msg, err)
	}
	return apperrors.Upstream(op, err)
}
