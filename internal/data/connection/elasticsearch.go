package connection

import (
	"fmt"

	"netbaseline/internal/data/config"
	"netbaseline/internal/data/elastic"
)

// newElasticsearch creates new Elasticsearch client
func newElasticsearch(cfg *config.Elasticsearch) (*elastic.Client, error) {
	if cfg == nil || len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch configuration is nil or empty")
	}

	es, err := elastic.NewClient(cfg.Addresses, cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client creation error: %w", err)
	}

	if err := es.Ping(); err != nil {
		return nil, fmt.Errorf("elasticsearch connect error: %w", err)
	}

	return es, nil
}
