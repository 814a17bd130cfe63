// Package search finds user profiles by name or email.
package search

import (
	"context"
	"fmt"
	"strings"

	"athletehub-api/internal/config"
	"athletehub-api/internal/models"

	"github.com/sirupsen/logrus"
)

// MinQueryLength is the shortest trimmed query that reaches a backend
const MinQueryLength = 2

// DefaultLimit caps results when no limit is configured
const DefaultLimit = 20

// Searcher looks up user profiles
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.UserSearchRow, error)
}

// normalize trims the query and reports whether it is long enough to run
func normalize(query string) (string, bool) {
	q := strings.TrimSpace(query)
	return q, len([]rune(q)) >= MinQueryLength
}

// New picks the backend named by cfg.Backend
func New(cfg config.SearchConfig, matcher Matcher, logger *logrus.Logger) (Searcher, error) {
	switch cfg.Backend {
	case "", "sql":
		return NewSQLSearcher(matcher, cfg.Limit, logger), nil
	case "elasticsearch":
		return NewElasticSearcherFromConfig(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported search backend: %s", cfg.Backend)
	}
}
