package handlers

import (
	"net/http"

	"athletehub-api/internal/auth"
	"athletehub-api/pkg/lambda"
)

// RegisterRoutes configures all gateway routes on router
func RegisterRoutes(router *lambda.Router, deps Deps) {
	follows := NewFollowHandler(deps.Follows)
	challenges := NewChallengeHandler(deps.Challenges, deps.Submissions)
	account := NewAccountHandler(deps)
	health := NewHealthHandler(deps.Health, deps.Logger)

	routes := []lambda.Route{
		// Public routes
		{Method: http.MethodGet, Pattern: "/health", Public: true, Handler: health.HandleHealth},
		{Method: http.MethodPost, Pattern: "/webhooks/stripe", Public: true, Handler: account.HandleStripeWebhook},
		{Method: http.MethodPost, Pattern: "/auth/confirm-forgot-password", Public: true, Handler: account.HandleConfirmForgotPassword},

		// Social graph
		{Method: http.MethodPost, Pattern: "/follows", Handler: follows.HandleFollow},
		{Method: http.MethodDelete, Pattern: "/follows", Handler: follows.HandleUnfollow},
		{Method: http.MethodGet, Pattern: "/follows/status", Handler: follows.HandleStatus},
		{Method: http.MethodGet, Pattern: "/users/search", Handler: account.HandleSearchUsers},
		{Method: http.MethodGet, Pattern: "/users/{id}/followers", Handler: follows.HandleFollowers},
		{Method: http.MethodGet, Pattern: "/users/{id}/following", Handler: follows.HandleFollowing},

		// Challenges
		{Method: http.MethodPost, Pattern: "/challenges", Role: auth.RoleCoach, Action: "create challenges", Handler: challenges.HandleCreate},
		{Method: http.MethodGet, Pattern: "/challenges/{id}", Handler: challenges.HandleGet},
		{Method: http.MethodPut, Pattern: "/challenges/{id}", Role: auth.RoleCoach, Action: "update challenges", Handler: challenges.HandleUpdate},
		{Method: http.MethodDelete, Pattern: "/challenges/{id}", Role: auth.RoleCoach, Action: "delete challenges", Handler: challenges.HandleDelete},
		{Method: http.MethodPost, Pattern: "/challenges/{id}/submissions", Role: auth.RoleAthlete, Action: "submit to challenges", Handler: challenges.HandleSubmit},
		{Method: http.MethodGet, Pattern: "/challenges/{id}/submissions", Handler: challenges.HandleListSubmissions},
		{Method: http.MethodPost, Pattern: "/uploads/video-url", Role: auth.RoleAthlete, Action: "upload videos", Handler: account.HandleVideoUploadURL},

		// Events and billing
		{Method: http.MethodGet, Pattern: "/events/hosted", Handler: account.HandleHostedEvents},
		{Method: http.MethodGet, Pattern: "/registrations", Handler: account.HandleRegistrations},
		{Method: http.MethodPost, Pattern: "/billing/portal", Handler: account.HandleBillingPortal},
	}

	for _, route := range routes {
		router.Handle(route)
	}
}
