package csvloader

import (
	"context"
	"errors"
	"log/slog"
)

// Option configures the Loader.
type Option func(*Loader) error

// File sets the path of the delimited input file.
// This option is required.
func File(path string) Option {
	return func(l *Loader) error {
		l.path = path
		return nil
	}
}

// Index sets the name of the target index.
// This option is required.
func Index(name string) Option {
	return func(l *Loader) error {
		l.index = name
		return nil
	}
}

// DocumentType sets the mapping type written into every bulk action.
// Leave it empty for clusters that no longer support mapping types.
func DocumentType(name string) Option {
	return func(l *Loader) error {
		l.docType = name
		return nil
	}
}

// Shards sets the number of primary shards of a newly created index.
func Shards(n int) Option {
	return func(l *Loader) error {
		if n < 1 {
			return errors.New("number of shards must be at least 1")
		}
		l.settings.NumberOfShards = n
		return nil
	}
}

// Replicas sets the number of replicas of a newly created index.
func Replicas(n int) Option {
	return func(l *Loader) error {
		if n < 0 {
			return errors.New("number of replicas must not be negative")
		}
		l.settings.NumberOfReplicas = n
		return nil
	}
}

// Delimiter sets the field separator of the input file. The default is ','.
func Delimiter(r rune) Option {
	return func(l *Loader) error {
		if !ValidDelimiter(r) {
			return errors.New("invalid delimiter")
		}
		l.delim = r
		return nil
	}
}

// Update makes Load replace an existing index instead of leaving it alone.
func Update(update bool) Option {
	return func(l *Loader) error {
		l.update = update
		return nil
	}
}

// WithContext sets the default context for Elasticsearch operations.
// If not set, context.Background() is used.
func WithContext(ctx context.Context) Option {
	return func(l *Loader) error {
		l.ctx = ctx
		return nil
	}
}

// WithLogger sets the logger receiving progress messages.
// If not set, nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		l.logger = logger
		return nil
	}
}

// ValidDelimiter reports whether r can separate fields of the input file.
func ValidDelimiter(r rune) bool {
	switch r {
	case 0, '"', '\r', '\n', 0xFFFD:
		return false
	}
	return true
}
