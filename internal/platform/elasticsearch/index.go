package elasticsearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// TherapistsIndexName is the index backing therapist search.
const TherapistsIndexName = "therapists"

// therapistsMapping keeps availability out of the index; only the day names are
// searchable.
const therapistsMapping = `{
  "settings": {"number_of_shards": 1},
  "mappings": {
    "dynamic": false,
    "properties": {
      "name":           {"type": "text", "fields": {"keyword": {"type": "keyword", "ignore_above": 256}}},
      "specialization": {"type": "text", "fields": {"keyword": {"type": "keyword", "ignore_above": 256}}},
      "description":    {"type": "text"},
      "image":          {"type": "keyword", "index": false},
      "available_days": {"type": "keyword"},
      "indexed_at":     {"type": "date"}
    }
  }
}`

// CreateTherapistsIndexIfNotExists creates the therapists index with its mapping.
// An existing index is left untouched.
func CreateTherapistsIndexIfNotExists(ctx context.Context, client *ESClientWrapper, logger *zap.Logger) error {
	log := logger.Named("ElasticsearchIndexSetup").With(zap.String("indexName", TherapistsIndexName))

	res, err := esapi.IndicesExistsRequest{Index: []string{TherapistsIndexName}}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("check index %s: %w", TherapistsIndexName, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		log.Debug("Therapists index already exists")
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index %s: %s", TherapistsIndexName, res.Status())
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: TherapistsIndexName,
		Body:  strings.NewReader(therapistsMapping),
	}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", TherapistsIndexName, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		body, _ := io.ReadAll(io.LimitReader(createRes.Body, 4096))
		// Another instance may have created it between the two calls.
		if createRes.StatusCode == http.StatusBadRequest && strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		log.Error("Failed to create therapists index", zap.String("status", createRes.Status()), zap.ByteString("body", body))
		return fmt.Errorf("create index %s: %s", TherapistsIndexName, createRes.Status())
	}

	log.Info("Therapists index created")
	return nil
}
