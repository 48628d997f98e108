package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	csvloader "github.com/kurakura967/go-elasticsearch-csvloader"
)

// ExitError is an error that carries a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...interface{}) *ExitError {
	return &ExitError{Code: exitUsage, Message: fmt.Sprintf(format, args...)}
}

// Config is the fully resolved configuration of a run.
type Config struct {
	File      string
	Index     string
	Type      string
	Host      string
	Port      int
	Shards    int
	Replicas  int
	Delimiter rune
	Update    bool
	Verbose   bool
}

// Address returns the Elasticsearch URL built from Host and Port.
func (c *Config) Address() string {
	port := strconv.Itoa(c.Port)
	if strings.Contains(c.Host, "://") {
		u, err := url.Parse(c.Host)
		if err != nil {
			return c.Host
		}
		if u.Port() == "" {
			u.Host = net.JoinHostPort(u.Hostname(), port)
		}
		return u.String()
	}
	return "http://" + net.JoinHostPort(c.Host, port)
}

// boolFlags may be given a separate value argument, as in "-update true".
var boolFlags = map[string]bool{"update": true, "verbose": true}

// Parse processes command-line arguments. It returns the resolved Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("es-csv-loader", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
es-csv-loader - load a delimited text file into an Elasticsearch index.

Usage:
  es-csv-loader [options] <file_path> <index_name> <type_name>

Arguments:
  file_path    path to the file
  index_name   name of index to be created
  type_name    name of type (pass "" for clusters without mapping types)

Options:
`)
		flagSet.PrintDefaults()
	}

	host := flagSet.String("host", "localhost", "host name of machine running Elasticsearch")
	port := flagSet.Int("port", 9200, "port of machine running Elasticsearch")
	shards := flagSet.Int("num_shards", 1, "number of shards for index")
	replicas := flagSet.Int("num_replicas", 0, "number of replicas for index")
	delimiter := flagSet.String("delimiter", ",", "the delimiter for the file (\\t or tab for TAB)")
	update := flagSet.Bool("update", false, "delete and recreate the index if it already exists")
	verbose := flagSet.Bool("verbose", false, "log debug messages and every Elasticsearch request")
	configPath := flagSet.String("config", "", "optional YAML file with default option values")

	positional, err := parseInterspersed(flagSet, joinBoolValues(args))
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: exitUsage, Message: err.Error()}
	}

	if len(positional) != 3 {
		flagSet.Usage()
		return nil, false, usageError("expected 3 arguments (file_path, index_name, type_name), got %d", len(positional))
	}

	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *configPath != "" {
		fc, err := loadFileConfig(*configPath)
		if err != nil {
			return nil, false, usageError("%v", err)
		}
		fc.applyTo(set, host, port, shards, replicas, delimiter, update, verbose)
		slog.Debug("Config file applied.", "path", *configPath)
	}

	cfg := &Config{
		File:     positional[0],
		Index:    positional[1],
		Type:     positional[2],
		Host:     *host,
		Port:     *port,
		Shards:   *shards,
		Replicas: *replicas,
		Update:   *update,
		Verbose:  *verbose,
	}

	cfg.Delimiter, err = parseDelimiter(*delimiter)
	if err != nil {
		return nil, false, usageError("invalid -delimiter: %v", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, false, err
	}

	return cfg, false, nil
}

func (c *Config) validate() error {
	switch {
	case c.File == "":
		return usageError("file_path must not be empty")
	case c.Index == "":
		return usageError("index_name must not be empty")
	case c.Host == "":
		return usageError("invalid -host: must not be empty")
	case c.Port < 1 || c.Port > 65535:
		return usageError("invalid -port: %d is outside 1-65535", c.Port)
	case c.Shards < 1:
		return usageError("invalid -num_shards: must be at least 1, got %d", c.Shards)
	case c.Replicas < 0:
		return usageError("invalid -num_replicas: must not be negative, got %d", c.Replicas)
	}

	if strings.Contains(c.Host, "://") {
		if _, err := url.Parse(c.Host); err != nil {
			return usageError("invalid -host: %v", err)
		}
	}

	return nil
}

// parseInterspersed lets flags appear before, between and after positional
// arguments. Everything after "--" is positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}

		rest := fs.Args()
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}

		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// joinBoolValues rewrites "-update false" into "-update=false" so boolean
// flags accept a separate value like the other options.
func joinBoolValues(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}

		name := strings.TrimLeft(arg, "-")
		if strings.HasPrefix(arg, "-") && boolFlags[name] && i+1 < len(args) {
			if _, err := strconv.ParseBool(args[i+1]); err == nil {
				out = append(out, arg+"="+args[i+1])
				i++
				continue
			}
		}
		out = append(out, arg)
	}
	return out
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	}

	r, size := utf8.DecodeRuneInString(s)
	if s == "" || size != len(s) {
		return 0, fmt.Errorf("%q is not a single character", s)
	}
	if !csvloader.ValidDelimiter(r) {
		return 0, fmt.Errorf("%q cannot be used as a delimiter", s)
	}
	return r, nil
}
