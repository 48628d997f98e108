package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig holds option defaults read from a YAML file. Unset keys keep the
// built-in defaults and explicit flags always win.
type fileConfig struct {
	Host        *string `yaml:"host"`
	Port        *int    `yaml:"port"`
	NumShards   *int    `yaml:"num_shards"`
	NumReplicas *int    `yaml:"num_replicas"`
	Delimiter   *string `yaml:"delimiter"`
	Update      *bool   `yaml:"update"`
	Verbose     *bool   `yaml:"verbose"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var fc fileConfig
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	return &fc, nil
}

// applyTo copies file values into the flag targets not set on the command line.
func (fc *fileConfig) applyTo(set map[string]bool, host *string, port, shards, replicas *int, delimiter *string, update, verbose *bool) {
	if fc.Host != nil && !set["host"] {
		*host = *fc.Host
	}
	if fc.Port != nil && !set["port"] {
		*port = *fc.Port
	}
	if fc.NumShards != nil && !set["num_shards"] {
		*shards = *fc.NumShards
	}
	if fc.NumReplicas != nil && !set["num_replicas"] {
		*replicas = *fc.NumReplicas
	}
	if fc.Delimiter != nil && !set["delimiter"] {
		*delimiter = *fc.Delimiter
	}
	if fc.Update != nil && !set["update"] {
		*update = *fc.Update
	}
	if fc.Verbose != nil && !set["verbose"] {
		*verbose = *fc.Verbose
	}
}
