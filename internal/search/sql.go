package search

import (
	"context"

	"athletehub-api/internal/models"
	"athletehub-api/internal/repositories"
	"athletehub-api/internal/store"

	"github.com/sirupsen/logrus"
)

// Matcher runs a case-insensitive substring match over fields of a table
type Matcher interface {
	MatchAny(ctx context.Context, table string, fields []string, term string, limit int) ([]store.Record, error)
}

var userSearchFields = []string{"name", "email"}

// SQLSearcher searches the relational users table
type SQLSearcher struct {
	matcher Matcher
	limit   int
	logger  *logrus.Logger
}

// NewSQLSearcher creates a relational searcher
func NewSQLSearcher(matcher Matcher, limit int, logger *logrus.Logger) *SQLSearcher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SQLSearcher{matcher: matcher, limit: limit, logger: logger}
}

// Search implements Searcher
func (s *SQLSearcher) Search(ctx context.Context, query string) ([]models.UserSearchRow, error) {
	q, ok := normalize(query)
	if !ok {
		return []models.UserSearchRow{}, nil
	}

	records, err := s.matcher.MatchAny(ctx, repositories.TableUsers, userSearchFields, q, s.limit)
	if err != nil {
		return nil, err
	}

	rows := make([]models.UserSearchRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.UserSearchRow{
			ID:                rec.GetString("id"),
			Name:              rec.GetString("name"),
			Email:             rec.GetString("email"),
			ProfilePictureURL: rec.GetString("profile_picture_url"),
			Role:              rec.GetString("role"),
		})
	}

	s.logger.WithFields(logrus.Fields{
		"backend": "sql",
		"results": len(rows),
	}).Debug("User search completed")
	return rows, nil
}
