package main

import (
	"fmt"
	"io"

	"github.com/elastic/elastic-transport-go/v8/elastictransport"
	"github.com/elastic/go-elasticsearch/v8"
)

// newClient builds the Elasticsearch client shared by every step of a run.
// Retries are disabled so a failed request aborts the run right away.
func newClient(cfg *Config, logOutput io.Writer) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses:    []string{cfg.Address()},
		DisableRetry: true,
	}

	if cfg.Verbose {
		esCfg.Logger = &elastictransport.TextLogger{
			Output:             logOutput,
			EnableRequestBody:  true,
			EnableResponseBody: true,
		}
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("creating Elasticsearch client: %w", err)
	}

	return client, nil
}
