package therapist

import (
	"context"
	"fmt"
	"strings"
	"time"

	esplatform "creative_cure_backend/internal/platform/elasticsearch"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Indexer keeps the therapist search index.
type Indexer interface {
	Search(ctx context.Context, query string, limit int) ([]Profile, error)
	Bulk(ctx context.Context, profiles []Profile, refresh string) (IndexStats, error)
}

// IndexStats counts the outcome of a bulk index.
type IndexStats struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

type indexDocument struct {
	Name           string              `json:"name"`
	Specialization string              `json:"specialization,omitempty"`
	Description    string              `json:"description,omitempty"`
	Image          string              `json:"image,omitempty"`
	Availability   map[string][]string `json:"availability,omitempty"`
	AvailableDays  []string            `json:"available_days,omitempty"`
	IndexedAt      time.Time           `json:"indexed_at"`
}

// ESIndex is the Elasticsearch-backed Indexer.
type ESIndex struct {
	client *esplatform.ESClientWrapper
	index  string
	logger *zap.Logger
}

// NewESIndex returns nil when search is not configured.
func NewESIndex(client *esplatform.ESClientWrapper, logger *zap.Logger) Indexer {
	if client == nil {
		return nil
	}
	return &ESIndex{client: client, index: esplatform.TherapistsIndexName, logger: logger.Named("TherapistIndex")}
}

// Search runs a fuzzy multi-field match, or match_all for an empty query.
func (x *ESIndex) Search(ctx context.Context, query string, limit int) ([]Profile, error) {
	var q map[string]interface{}
	if strings.TrimSpace(query) == "" {
		q = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		q = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^3", "specialization^2", "description"},
				"fuzziness": "AUTO",
			},
		}
	}
	body, err := json.Marshal(map[string]interface{}{"query": q, "size": limit})
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{x.index},
		Body:  strings.NewReader(string(body)),
	}.Do(ctx, x.client.Client)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", x.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search %s: status %s", x.index, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string        `json:"_id"`
				Source indexDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	out := make([]Profile, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, Profile{
			ID:             h.ID,
			Name:           h.Source.Name,
			Specialization: h.Source.Specialization,
			Description:    h.Source.Description,
			Image:          h.Source.Image,
			Availability:   h.Source.Availability,
		})
	}
	return out, nil
}

// Bulk indexes profiles in one request and counts item-level failures.
func (x *ESIndex) Bulk(ctx context.Context, profiles []Profile, refresh string) (IndexStats, error) {
	var stats IndexStats
	if len(profiles) == 0 {
		return stats, nil
	}

	now := time.Now().UTC()
	var body strings.Builder
	for _, p := range profiles {
		doc, err := json.Marshal(indexDocument{
			Name:           p.Name,
			Specialization: p.Specialization,
			Description:    p.Description,
			Image:          p.Image,
			Availability:   p.Availability,
			AvailableDays:  p.availableDays(),
			IndexedAt:      now,
		})
		if err != nil {
			x.logger.Error("Failed to convert therapist to index document", zap.String("therapistID", p.ID), zap.Error(err))
			stats.Failed++
			continue
		}
		fmt.Fprintf(&body, `{ "index" : { "_index" : "%s", "_id" : "%s" } }%s`, x.index, p.ID, "\n")
		body.Write(doc)
		body.WriteString("\n")
	}
	if body.Len() == 0 {
		return stats, nil
	}

	res, err := esapi.BulkRequest{
		Body:    strings.NewReader(body.String()),
		Refresh: refresh,
	}.Do(ctx, x.client.Client)
	if err != nil {
		stats.Failed += len(profiles) - stats.Failed
		return stats, fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		stats.Failed += len(profiles) - stats.Failed
		return stats, fmt.Errorf("bulk request: status %s", res.Status())
	}

	var bulkResponse struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string                 `json:"_id"`
				Status int                    `json:"status"`
				Error  map[string]interface{} `json:"error,omitempty"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResponse); err != nil {
		stats.Failed += len(profiles) - stats.Failed
		return stats, fmt.Errorf("decode bulk response: %w", err)
	}
	for _, item := range bulkResponse.Items {
		if item.Index.Error != nil {
			x.logger.Error("Failed to index therapist (item-level)",
				zap.String("therapistID", item.Index.ID),
				zap.Any("error", item.Index.Error),
				zap.Int("status", item.Index.Status),
			)
			stats.Failed++
			continue
		}
		stats.Indexed++
	}
	return stats, nil
}
