package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	csvloader "github.com/kurakura967/go-elasticsearch-csvloader"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// main is the entrypoint for es-csv-loader.
func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitFailure
}

// run resolves the arguments, then parses the file, prepares the index and
// bulk loads the records. An existing index without -update ends the run
// without error.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	cfg, shouldExit, err := Parse(args, stderr)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	logger.Debug("arguments resolved", "address", cfg.Address(), "file", cfg.File, "index", cfg.Index)

	client, err := newClient(cfg, stderr)
	if err != nil {
		return err
	}

	loader, err := csvloader.New(client,
		csvloader.File(cfg.File),
		csvloader.Index(cfg.Index),
		csvloader.DocumentType(cfg.Type),
		csvloader.Shards(cfg.Shards),
		csvloader.Replicas(cfg.Replicas),
		csvloader.Delimiter(cfg.Delimiter),
		csvloader.Update(cfg.Update),
		csvloader.WithContext(ctx),
		csvloader.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	res, err := loader.Load()
	if err != nil {
		var bulkErr *csvloader.BulkError
		if errors.As(err, &bulkErr) {
			fmt.Fprintf(stdout, "indexed %s of %s documents into %s\n",
				humanize.Comma(int64(res.Indexed)), humanize.Comma(int64(bulkErr.Total)), cfg.Index)
		}
		return err
	}

	switch res.Outcome {
	case csvloader.Aborted:
		fmt.Fprintf(stdout, "index %s already exists, not updating\n", cfg.Index)
	default:
		fmt.Fprintf(stdout, "indexed %s documents into %s in %s\n",
			humanize.Comma(int64(res.Indexed)), cfg.Index, res.Took.Truncate(time.Millisecond))
	}

	return nil
}
