// Package search keeps the product index in Elasticsearch and serves store
// search queries from it. The whole package is optional: when no cluster is
// configured the store falls back to SQL matching.
package search

import (
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
)

type Client struct {
	ES    *elasticsearch.Client
	Index string
}

func NewClient(url, user, password, index string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error: %s: %s", res.Status(), body)
	}

	return &Client{ES: es, Index: index}, nil
}
