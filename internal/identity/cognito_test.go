package identity

import (
	"context"
	"errors"
	"testing"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
)

type fakeCognito struct {
	input *cip.ConfirmForgotPasswordInput
	err   error
	calls int
}

func (f *fakeCognito) ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error) {
	f.calls++
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &cip.ConfirmForgotPasswordOutput{}, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func validReset() PasswordReset {
	return PasswordReset{Username: "ana@example.com", ConfirmationCode: "123456", NewPassword: "s3cure-pass"}
}

func TestConfirmForgotPassword(t *testing.T) {
	fake := &fakeCognito{}
	client := NewClient(fake, config.CognitoConfig{ClientID: "client-1"}, testLogger())

	if err := client.ConfirmForgotPassword(context.Background(), validReset()); err != nil {
		t.Fatalf("ConfirmForgotPassword() failed: %v", err)
	}

	if aws.ToString(fake.input.ClientId) != "client-1" {
		t.Errorf("ClientId = %q", aws.ToString(fake.input.ClientId))
	}
	if aws.ToString(fake.input.Username) != "ana@example.com" {
		t.Errorf("Username = %q", aws.ToString(fake.input.Username))
	}
	if aws.ToString(fake.input.ConfirmationCode) != "123456" || aws.ToString(fake.input.Password) != "s3cure-pass" {
		t.Errorf("unexpected code or password forwarded")
	}
	if fake.input.SecretHash != nil {
		t.Errorf("SecretHash should be omitted without a client secret")
	}
}

func TestConfirmForgotPassword_SecretHash(t *testing.T) {
	fake := &fakeCognito{}
	client := NewClient(fake, config.CognitoConfig{ClientID: "client-1", ClientSecret: "shh"}, testLogger())

	if err := client.ConfirmForgotPassword(context.Background(), validReset()); err != nil {
		t.Fatalf("ConfirmForgotPassword() failed: %v", err)
	}

	want := SecretHash("ana@example.com", "client-1", "shh")
	if aws.ToString(fake.input.SecretHash) != want {
		t.Errorf("SecretHash = %q, want %q", aws.ToString(fake.input.SecretHash), want)
	}
	if SecretHash("ana@example.com", "client-1", "other") == want {
		t.Errorf("SecretHash should depend on the secret")
	}
}

func TestConfirmForgotPassword_Validation(t *testing.T) {
	fake := &fakeCognito{}
	client := NewClient(fake, config.CognitoConfig{ClientID: "client-1"}, testLogger())

	reset := validReset()
	reset.ConfirmationCode = ""
	if err := client.ConfirmForgotPassword(context.Background(), reset); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("expected no Cognito call, got %d", fake.calls)
	}

	unconfigured := NewClient(fake, config.CognitoConfig{}, testLogger())
	if err := unconfigured.ConfirmForgotPassword(context.Background(), validReset()); !errors.Is(err, apperrors.ErrUpstream) {
		t.Errorf("expected upstream failure without client id, got %v", err)
	}
}

func TestConfirmForgotPassword_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"code mismatch", &types.CodeMismatchException{Message: aws.String("bad code")}, apperrors.ErrInvalidArgument},
		{"expired code", &types.ExpiredCodeException{Message: aws.String("expired")}, apperrors.ErrInvalidArgument},
		{"weak password", &types.InvalidPasswordException{Message: aws.String("too short")}, apperrors.ErrInvalidArgument},
		{"unknown user", &types.UserNotFoundException{Message: aws.String("no user")}, apperrors.ErrInvalidArgument},
		{"limit exceeded", &types.LimitExceededException{Message: aws.String("slow down")}, apperrors.ErrRateLimited},
		{"too many requests", &types.TooManyRequestsException{Message: aws.String("slow down")}, apperrors.ErrRateLimited},
		{"other", errors.New("connection reset"), apperrors.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCognito{err: tt.err}
			client := NewClient(fake, config.CognitoConfig{ClientID: "client-1"}, testLogger())

			err := client.ConfirmForgotPassword(context.Background(), validReset())
			if !errors.Is(err, tt.want) {
				t.Errorf("ConfirmForgotPassword() error = %v, want %v", err, tt.want)
			}
		})
	}
}
