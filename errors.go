package csvloader

import (
	"fmt"
	"strings"
)

// FileError reports that the input file could not be opened or parsed.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %q: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ConnectionError reports that a request never produced a response from
// Elasticsearch, for example because the host is unreachable.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// RemoteError reports a request rejected by Elasticsearch.
type RemoteError struct {
	Op     string
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: elasticsearch error [%d]", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: elasticsearch error [%d]: %s", e.Op, e.Status, e.Body)
}

// BulkError reports documents rejected inside an otherwise successful bulk
// request. Documents not counted in Failed were indexed.
type BulkError struct {
	Index   string
	Failed  int
	Total   int
	Reasons []string
}

func (e *BulkError) Error() string {
	msg := fmt.Sprintf("bulk insert for %q: %d of %d documents failed", e.Index, e.Failed, e.Total)
	if len(e.Reasons) > 0 {
		msg += ": " + strings.Join(e.Reasons, "; ")
	}
	return msg
}
