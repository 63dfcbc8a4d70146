// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"subtrack-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchClient backs the subscriptions search index.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}

	esCfg := elasticsearch.Config{Addresses: addresses}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// subscriptionMapping types the documents written by index-subscriptions.
const subscriptionMapping = `{
  "mappings": {
    "properties": {
      "id":               {"type": "keyword"},
      "userId":           {"type": "keyword"},
      "importId":         {"type": "keyword"},
      "source":           {"type": "keyword"},
      "subscriptionName": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "category":         {"type": "keyword"},
      "status":           {"type": "keyword"},
      "planName":         {"type": "keyword"},
      "monthlyCost":      {"type": "scaled_float", "scaling_factor": 100},
      "billingCycle":     {"type": "keyword"},
      "paymentMethod":    {"type": "keyword"},
      "priority":         {"type": "keyword"},
      "notes":            {"type": "text"},
      "renewalDate":      {"type": "date"},
      "lastUsed":         {"type": "date"},
      "deactivationDate": {"type": "date"},
      "createdAt":        {"type": "date"}
    }
  }
}`

// EnsureIndex creates the subscriptions index with its mapping unless it
// already exists. It reports whether the index was created.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context, name string) (bool, error) {
	res, err := c.Client.Indices.Exists([]string{name}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, err)
	}
	res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("check index %s: %s", name, res.Status())
	}

	res, err = c.Client.Indices.Create(name,
		c.Client.Indices.Create.WithContext(ctx),
		c.Client.Indices.Create.WithBody(strings.NewReader(subscriptionMapping)),
	)
	if err != nil {
		return false, fmt.Errorf("create index %s: %w", name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		// another worker won the race
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %s", name, res.Status())
	}
	return true, nil
}
