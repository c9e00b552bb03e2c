// Package elastic wraps the Elasticsearch client used for the alert audit index.
package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Client Elasticsearch client
type Client struct {
	client *elasticsearch.Client
}

// NewClient new Elasticsearch client
func NewClient(addresses []string, username, password string) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client creation error: %w", err)
	}

	return &Client{client: es}, nil
}

// Ping checks the cluster answers the info endpoint
func (c *Client) Ping() error {
	if c == nil || c.client == nil {
		return fmt.Errorf("elasticsearch client is nil")
	}

	res, err := c.client.Info()
	if err != nil {
		return err
	}
	defer closeResponseBody(res.Body)

	if res.IsError() {
		return fmt.Errorf("elasticsearch info error: %s", res.Status())
	}
	return nil
}

// IndexDocument index document to Elasticsearch
func (c *Client) IndexDocument(ctx context.Context, indexName string, documentID string, document any) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("elasticsearch client is nil, cannot index documents")
	}

	var b strings.Builder
	enc := json.NewEncoder(&b)
	if err := enc.Encode(document); err != nil {
		return fmt.Errorf("error encoding document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: documentID,
		Body:       strings.NewReader(b.String()),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("elasticsearch indexing error: %w", err)
	}

	defer closeResponseBody(res.Body)

	if res.IsError() {
		var respBody map[string]any
		if err := json.NewDecoder(res.Body).Decode(&respBody); err != nil {
			return fmt.Errorf("error parsing the response body: %w", err)
		}
		return fmt.Errorf("elasticsearch indexing error: %s: %v", res.Status(), respBody["error"])
	}

	return nil
}

// closeResponseBody drains and closes the response body
func closeResponseBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
