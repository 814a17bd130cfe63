package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/config"
	"athletehub-api/internal/models"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/sirupsen/logrus"
)

// ElasticSearcher searches a users index in Elasticsearch
type ElasticSearcher struct {
	client *es.Client
	index  string
	limit  int
	logger *logrus.Logger
}

// NewElasticSearcherFromConfig connects to the configured cluster
func NewElasticSearcherFromConfig(cfg config.SearchConfig, logger *logrus.Logger) (*ElasticSearcher, error) {
	client, err := es.NewClient(es.Config{
		Addresses: []string{cfg.ElasticURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return NewElasticSearcher(client, cfg.UsersIndex, cfg.Limit, logger), nil
}

// NewElasticSearcher creates a searcher over an existing client
func NewElasticSearcher(client *es.Client, index string, limit int, logger *logrus.Logger) *ElasticSearcher {
	if index == "" {
		index = "users"
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ElasticSearcher{client: client, index: index, limit: limit, logger: logger}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string               `json:"_id"`
			Source models.UserSearchRow `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search implements Searcher
func (s *ElasticSearcher) Search(ctx context.Context, query string) ([]models.UserSearchRow, error) {
	q, ok := normalize(query)
	if !ok {
		return []models.UserSearchRow{}, nil
	}

	body, err := json.Marshal(map[string]any{
		"size": s.limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"type":   "phrase_prefix",
				"fields": []string{"name", "email"},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		s.logger.WithError(err).Error("Elasticsearch request failed")
		return nil, apperrors.Upstream("search_users", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		s.logger.WithFields(logrus.Fields{
			"status": res.StatusCode,
			"index":  s.index,
		}).Error("Elasticsearch returned an error")
		return nil, apperrors.Upstream("search_users", fmt.Errorf("elasticsearch %s: %s", res.Status(), bytes.TrimSpace(detail)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.Upstream("search_users", fmt.Errorf("decode search response: %w", err))
	}

	rows := make([]models.UserSearchRow, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		row := hit.Source
		if row.ID == "" {
			row.ID = hit.ID
		}
		rows = append(rows, row)
	}

	s.logger.WithFields(logrus.Fields{
		"backend": "elasticsearch",
		"results": len(rows),
	}).Debug("User search completed")
	return rows, nil
}
