package repositories

import (
	"athletehub-api/internal/config"
	"athletehub-api/internal/store"
)

// Logical table names
const (
	TableFollowers     = "followers"
	TableChallenges    = "challenges"
	TableSubmissions   = "submissions"
	TableUsers         = "users"
	TableEvents        = "events"
	TableRegistrations = "registrations"
)

// Relational index names
const (
	IndexByFollower  = "by_follower"
	IndexByFollowing = "by_following"
	IndexByChallenge = "by_challenge"
)

// RegistrationsEventIndex is the DynamoDB index on event-registrations.eventId
const RegistrationsEventIndex = "eventId-index"

// RelationalSchema declares the PostgreSQL tables
func RelationalSchema() *store.Schema {
	return store.NewSchema().
		MustRegister(TableFollowers, store.Table{
			Name:      "followers",
			KeyFields: []string{"follower_id", "following_id"},
			Indexes: map[string]string{
				IndexByFollower:  "follower_id",
				IndexByFollowing: "following_id",
			},
			Fields:    []string{"follower_id", "following_id", "created_at"},
			CreatedAt: "created_at",
		}).
		MustRegister(TableChallenges, store.Table{
			Name:        "challenges",
			KeyFields:   []string{"id"},
			Fields:      []string{"id", "title", "description", "xp_value", "created_at", "updated_at"},
			GeneratedID: "id",
			CreatedAt:   "created_at",
			UpdatedAt:   "updated_at",
		}).
		MustRegister(TableSubmissions, store.Table{
			Name:        "challenge_submissions",
			KeyFields:   []string{"id"},
			Indexes:     map[string]string{IndexByChallenge: "challenge_id"},
			Fields:      []string{"id", "challenge_id", "athlete_id", "video_url", "created_at"},
			GeneratedID: "id",
			CreatedAt:   "created_at",
		}).
		MustRegister(TableUsers, store.Table{
			Name:      "users",
			KeyFields: []string{"id"},
			Fields:    []string{"id", "name", "email", "profile_picture_url", "role"},
		})
}

// KeyValueSchema declares the DynamoDB tables using configured names
func KeyValueSchema(cfg config.KeyValueConfig) *store.Schema {
	return store.NewSchema().
		MustRegister(TableEvents, store.Table{
			Name:      cfg.EventsTable,
			KeyFields: []string{"eventId"},
			Indexes:   map[string]string{cfg.EventsHostIndex: "hostUserId"},
			Fields:    []string{"eventId", "hostUserId", "title", "paid", "updatedAt"},
			UpdatedAt: "updatedAt",
		}).
		MustRegister(TableRegistrations, store.Table{
			Name:      cfg.RegistrationsTable,
			KeyFields: []string{"userId", "eventId"},
			Indexes: map[string]string{
				cfg.RegistrationsUserIndex: "userId",
				RegistrationsEventIndex:    "eventId",
			},
			Fields:    []string{"userId", "eventId", "createdAt"},
			CreatedAt: "createdAt",
		})
}
