package notify

import (
	"context"
	"fmt"

	"netbaseline/internal/data/elastic"
	"netbaseline/internal/types"
)

// ElasticsearchPublisher indexes alert notifications into an audit index
type ElasticsearchPublisher struct {
	client *elastic.Client
	index  string
}

// NewElasticsearchPublisher creates new audit index publisher
func NewElasticsearchPublisher(client *elastic.Client, cfg *ElasticsearchConfig) (*ElasticsearchPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("elasticsearch: %w", types.ErrPublisherNotConfigured)
	}
	return &ElasticsearchPublisher{client: client, index: cfg.Index}, nil
}

// Type returns the publisher type
func (p *ElasticsearchPublisher) Type() PublisherType {
	return PublisherElasticsearch
}

// Publish indexes the notification under the alert id, so redelivery overwrites
func (p *ElasticsearchPublisher) Publish(ctx context.Context, event *types.AlertTriggered) error {
	return p.client.IndexDocument(ctx, p.index, event.AlertID, event)
}

// Close is a no-op, the client is owned by the connection set
func (p *ElasticsearchPublisher) Close() error {
	return nil
}
