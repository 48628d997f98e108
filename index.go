package csvloader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
)

// maxBulkReasons caps how many per-document failure reasons a BulkError keeps.
const maxBulkReasons = 5

// IndexSettings holds the static settings applied when the index is created.
type IndexSettings struct {
	NumberOfShards   int `json:"number_of_shards"`
	NumberOfReplicas int `json:"number_of_replicas"`
}

// DefaultSettings returns one primary shard and no replicas.
func DefaultSettings() IndexSettings {
	return IndexSettings{NumberOfShards: 1, NumberOfReplicas: 0}
}

type createIndexBody struct {
	Settings IndexSettings `json:"settings"`
}

// indexExists reports whether the index is present on the cluster.
func indexExists(ctx context.Context, client *elasticsearch.Client, name string) (bool, error) {
	op := fmt.Sprintf("checking index %q", name)

	res, err := client.Indices.Exists(
		[]string{name},
		client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, &ConnectionError{Op: op, Err: err}
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, checkResponse(op, res)
	}
}

// createIndex creates an Elasticsearch index carrying only shard and replica settings.
func createIndex(ctx context.Context, client *elasticsearch.Client, name string, settings IndexSettings) error {
	op := fmt.Sprintf("creating index %q", name)

	res, err := client.Indices.Create(
		name,
		client.Indices.Create.WithBody(esutil.NewJSONReader(createIndexBody{Settings: settings})),
		client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return &ConnectionError{Op: op, Err: err}
	}
	defer res.Body.Close()

	return checkResponse(op, res)
}

// deleteIndex deletes an Elasticsearch index. A missing index is not an error.
func deleteIndex(ctx context.Context, client *elasticsearch.Client, name string) error {
	op := fmt.Sprintf("deleting index %q", name)

	res, err := client.Indices.Delete(
		[]string{name},
		client.Indices.Delete.WithContext(ctx),
		client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return &ConnectionError{Op: op, Err: err}
	}
	defer res.Body.Close()

	return checkResponse(op, res)
}

type bulkResponse struct {
	Took   int                           `json:"took"`
	Errors bool                          `json:"errors"`
	Items  []map[string]bulkResponseItem `json:"items"`
}

type bulkResponseItem struct {
	Index  string `json:"_index"`
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

// bulkInsert sends the whole payload as one bulk request with refresh=true so
// documents are searchable as soon as it returns. It returns the number of
// indexed documents; rejected documents are reported through a *BulkError.
func bulkInsert(ctx context.Context, client *elasticsearch.Client, name string, payload Payload) (int, error) {
	op := fmt.Sprintf("bulk inserting into %q", name)

	var body bytes.Buffer
	if err := payload.Encode(&body); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	res, err := client.Bulk(
		&body,
		client.Bulk.WithRefresh("true"),
		client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return 0, &ConnectionError{Op: op, Err: err}
	}
	defer res.Body.Close()

	if err := checkResponse(op, res); err != nil {
		return 0, err
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return 0, fmt.Errorf("%s: decoding response: %w", op, err)
	}

	total := payload.Len()
	if len(br.Items) != total {
		return 0, fmt.Errorf("%s: response has %d items, sent %d documents", op, len(br.Items), total)
	}

	bulkErr := &BulkError{Index: name, Total: total}
	for _, item := range br.Items {
		for _, r := range item {
			if r.Error == nil && r.Status < http.StatusMultipleChoices {
				continue
			}
			bulkErr.Failed++
			if len(bulkErr.Reasons) >= maxBulkReasons {
				continue
			}
			if r.Error != nil {
				bulkErr.Reasons = append(bulkErr.Reasons, fmt.Sprintf("[%d] %s: %s", r.Status, r.Error.Type, r.Error.Reason))
			} else {
				bulkErr.Reasons = append(bulkErr.Reasons, fmt.Sprintf("[%d]", r.Status))
			}
		}
	}

	if bulkErr.Failed > 0 {
		return total - bulkErr.Failed, bulkErr
	}

	return total, nil
}

// checkResponse converts an Elasticsearch error response into a *RemoteError.
func checkResponse(op string, res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return &RemoteError{Op: op, Status: res.StatusCode, Body: string(bytes.TrimSpace(body))}
}
