// Package identity wraps the Cognito user pool operations the gateway proxies.
package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
)

// CognitoAPI is the subset of the Cognito client used by the gateway
type CognitoAPI interface {
	ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
}

var _ CognitoAPI = (*cip.Client)(nil)

// PasswordReset is a password reset confirmation request
type PasswordReset struct {
	Username         string `json:"username" validate:"required"`
	ConfirmationCode string `json:"confirmationCode" validate:"required"`
	NewPassword      string `json:"newPassword" validate:"required,min=8"`
}

// Client is the identity provider adapter
type Client struct {
	api          CognitoAPI
	clientID     string
	clientSecret string
	logger       *logrus.Logger
}

// NewClient creates an identity adapter
func NewClient(api CognitoAPI, cfg config.CognitoConfig, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		api:          api,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		logger:       logger,
	}
}

// NewClientFromConfig builds the Cognito client from an AWS config
func NewClientFromConfig(awsConfig aws.Config, cfg config.CognitoConfig, logger *logrus.Logger) *Client {
	return NewClient(cip.NewFromConfig(awsConfig), cfg, logger)
}

// ConfirmForgotPassword sets a new password using an emailed confirmation code
func (c *Client) ConfirmForgotPassword(ctx context.Context, reset PasswordReset) error {
	if c.clientID == "" {
		return apperrors.Upstream("confirm_forgot_password", errors.New("cognito client id is not configured"))
	}
	username := strings.TrimSpace(reset.Username)
	if username == "" || reset.ConfirmationCode == "" || reset.NewPassword == "" {
		return apperrors.InvalidArgument("username, confirmationCode and newPassword are required")
	}

	input := &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(reset.ConfirmationCode),
		Password:         aws.String(reset.NewPassword),
	}
	if c.clientSecret != "" {
		input.SecretHash = aws.String(SecretHash(username, c.clientID, c.clientSecret))
	}

	if _, err := c.api.ConfirmForgotPassword(ctx, input); err != nil {
		c.logger.WithFields(logrus.Fields{
			"username": username,
			"error":    err.Error(),
		}).Warn("Password reset confirmation failed")
		return mapCognitoError("confirm_forgot_password", err)
	}

	c.logger.WithField("username", username).Info("Password reset confirmed")
	return nil
}

// SecretHash computes the SECRET_HASH required by app clients with a secret
func SecretHash(username, clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func mapCognitoError(op string, err error) error {
	var (
		codeMismatch    *types.CodeMismatchException
		expiredCode     *types.ExpiredCodeException
		invalidPassword *types.InvalidPasswordException
		invalidParam    *types.InvalidParameterException
		userNotFound    *types.UserNotFoundException
		limitExceeded   *types.LimitExceededException
		tooMany         *types.TooManyRequestsException
		tooManyAttempts *types.TooManyFailedAttemptsException
	)

	switch {
	case errors.As(err, &codeMismatch):
		return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "invalid confirmation code", err)
	case errors.As(err, &expiredCode):
		return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "confirmation code has expired", err)
	case errors.As(err, &invalidPassword):
		return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "password does not meet the policy", err)
	case errors.As(err, &invalidParam):
		return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "invalid password reset request", err)
	case errors.As(err, &userNotFound):
		// Same message as a bad code so usernames cannot be probed.
		return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "invalid confirmation code", err)
	case errors.As(err, &limitExceeded), errors.As(err, &tooMany), errors.As(err, &tooManyAttempts):
		return apperrors.Wrap(apperrors.ErrRateLimited, op, "too many password reset attempts", err)
	default:
		return apperrors.Upstream(op, err)
	}
}
