// api/audit/repository.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type Repository interface {
	LogAccess(ctx context.Context, log AccessLog) error
	LogFactChange(ctx context.Context, change FactChange) error
	QueryAccessLogs(ctx context.Context, from, to time.Time, uid int, check string) ([]AccessLog, error)
}

type ElasticsearchRepository struct {
	esClient *elasticsearch.Client
}

// NewElasticsearchRepository creates a new repository with a given Elasticsearch client URL.
func NewElasticsearchRepository(esURL string) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ElasticsearchRepository{esClient: esClient}, nil
}

// LogAccess indexes an access decision to Elasticsearch.
func (r *ElasticsearchRepository) LogAccess(ctx context.Context, log AccessLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      "access-decisions",
		DocumentID: fmt.Sprintf("%d-%d-%s", log.Timestamp.UnixNano(), log.UID, log.Check),
		Body:       strings.NewReader(string(data)),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

// LogFactChange indexes a fact-store mutation to Elasticsearch.
func (r *ElasticsearchRepository) LogFactChange(ctx context.Context, change FactChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      "fact-changes",
		DocumentID: fmt.Sprintf("%d-%s-%s", change.Timestamp.UnixNano(), change.Kind, change.Key),
		Body:       strings.NewReader(string(data)),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

// QueryAccessLogs searches access decisions within a time frame, optionally
// filtered by uid and check name.
func (r *ElasticsearchRepository) QueryAccessLogs(ctx context.Context, from, to time.Time, uid int, check string) ([]AccessLog, error) {
	var buf strings.Builder
	must := []interface{}{
		map[string]interface{}{
			"range": map[string]interface{}{
				"timestamp": map[string]interface{}{
					"gte": from.Format(time.RFC3339),
					"lte": to.Format(time.RFC3339),
				},
			},
		},
	}
	if uid != 0 {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"uid": uid},
		})
	}
	if check != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"check": check},
		})
	}
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
			},
		},
	}

	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex("access-decisions"),
		r.esClient.Search.WithBody(strings.NewReader(buf.String())),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching documents: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source AccessLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, err
	}

	logs := make([]AccessLog, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		logs = append(logs, hit.Source)
	}
	return logs, nil
}
