package csvloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// Outcome describes how a Load call ended.
type Outcome int

const (
	// Loaded means the index was (re)created and the bulk request was sent.
	Loaded Outcome = iota
	// Aborted means the index already existed and updating was not requested.
	// Nothing was changed on the cluster.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Loaded:
		return "loaded"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result summarizes a Load call.
type Result struct {
	Outcome Outcome
	Indexed int
	Failed  int
	Took    time.Duration
}

// Loader loads the rows of a delimited file into an Elasticsearch index.
type Loader struct {
	client   *elasticsearch.Client
	ctx      context.Context
	logger   *slog.Logger
	path     string
	index    string
	docType  string
	delim    rune
	settings IndexSettings
	update   bool

	records []Record
	payload Payload
}

// New creates a new Loader with the given Elasticsearch client and options.
// The File and Index options are required.
//
// The input file is parsed and the bulk payload built during construction,
// so file errors are reported before any request reaches the cluster.
func New(client *elasticsearch.Client, opts ...Option) (*Loader, error) {
	if client == nil {
		return nil, errors.New("csvloader: client must not be nil")
	}

	l := &Loader{
		client:   client,
		ctx:      context.Background(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		delim:    DefaultDelimiter,
		settings: DefaultSettings(),
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("csvloader: applying option: %w", err)
		}
	}

	if l.path == "" {
		return nil, errors.New("csvloader: File option is required")
	}
	if l.index == "" {
		return nil, errors.New("csvloader: Index option is required")
	}

	records, err := ParseFile(l.path, l.delim)
	if err != nil {
		return nil, fmt.Errorf("csvloader: %w", err)
	}
	l.records = records
	l.payload = BuildPayload(records, l.index, l.docType)

	l.logger.Debug("parsed input file", "path", l.path, "records", len(records))

	return l, nil
}

// Records returns the records parsed from the input file.
func (l *Loader) Records() []Record { return l.records }

// Payload returns the bulk payload that Load sends.
func (l *Loader) Payload() Payload { return l.payload }

// Load creates the index and bulk inserts every record with refresh enabled.
//
// If the index already exists it is deleted and recreated when Update was
// set; otherwise Load returns a Result with the Aborted outcome and leaves the
// cluster untouched.
func (l *Loader) Load() (Result, error) {
	start := time.Now()

	exists, err := indexExists(l.ctx, l.client, l.index)
	if err != nil {
		return Result{}, fmt.Errorf("csvloader: %w", err)
	}

	if exists {
		if !l.update {
			l.logger.Info("index already exists", "index", l.index)
			return Result{Outcome: Aborted, Took: time.Since(start)}, nil
		}

		l.logger.Info("deleting existing index", "index", l.index)
		if err := deleteIndex(l.ctx, l.client, l.index); err != nil {
			return Result{}, fmt.Errorf("csvloader: %w", err)
		}
	}

	l.logger.Info("creating index", "index", l.index,
		"shards", l.settings.NumberOfShards, "replicas", l.settings.NumberOfReplicas)
	if err := createIndex(l.ctx, l.client, l.index, l.settings); err != nil {
		return Result{}, fmt.Errorf("csvloader: %w", err)
	}

	if l.payload.Len() == 0 {
		l.logger.Warn("no data rows, skipping bulk request", "path", l.path)
		return Result{Outcome: Loaded, Took: time.Since(start)}, nil
	}

	indexed, err := bulkInsert(l.ctx, l.client, l.index, l.payload)
	res := Result{
		Outcome: Loaded,
		Indexed: indexed,
		Failed:  l.payload.Len() - indexed,
		Took:    time.Since(start),
	}
	if err != nil {
		var bulkErr *BulkError
		if !errors.As(err, &bulkErr) {
			res.Failed = 0
		}
		return res, fmt.Errorf("csvloader: %w", err)
	}

	l.logger.Debug("bulk request finished", "index", l.index, "indexed", indexed, "took", res.Took)

	return res, nil
}

// Clean deletes the index managed by this Loader.
func (l *Loader) Clean() error {
	if err := deleteIndex(l.ctx, l.client, l.index); err != nil {
		return fmt.Errorf("csvloader: cleaning up: %w", err)
	}
	return nil
}
