package handlers

// @title Athlete Hub API
// @version 1.0
// @description Backend-for-frontend gateway for the Athlete Hub app: follows, challenges, uploads, events and billing

// @host localhost:8081
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a Cognito ID token (or a development token from /dev/token).

// @tag.name social
// @tag.description Follow graph and user search

// @tag.name challenges
// @tag.description Coach challenges and athlete submissions

// @tag.name events
// @tag.description Hosted events and registrations

// @tag.name billing
// @tag.description Stripe billing portal and webhooks

// @tag.name auth
// @tag.description Password reset confirmation
