package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/suparena/docstore"
	"github.com/suparena/docstore/engine/rest"
)

// cliConfig is the YAML config file shape.
type cliConfig struct {
	Endpoint string `yaml:"endpoint"`
	Key      string `yaml:"key"`
}

// loadConfig merges the config file, environment, and flags. Flags win
// over the environment, which wins over the file.
func loadConfig() (cliConfig, error) {
	var cfg cliConfig

	path := configFlag
	explicit := path != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".docstore.yaml")
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case explicit:
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if v := os.Getenv("DOCSTORE_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("DOCSTORE_KEY"); v != "" {
		cfg.Key = v
	}
	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}
	if keyFlag != "" {
		cfg.Key = keyFlag
	}
	return cfg, nil
}

// newClient builds a client from the merged connection settings.
func newClient() (*docstore.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("no endpoint configured: set --endpoint, DOCSTORE_ENDPOINT, or endpoint in the config file")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("no key configured: set --key, DOCSTORE_KEY, or key in the config file")
	}

	var opts []rest.Option
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		opts = append(opts, rest.WithLogger(logger), rest.Debug(true))
	}
	return docstore.NewClient(cfg.Endpoint, cfg.Key, opts...)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// parseKey interprets a partition key argument. Valid JSON scalars keep
// their type, so --pk 5 is the number five while --pk '"5"' and --pk five
// are strings.
func parseKey(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		switch v.(type) {
		case string, float64, bool:
			return v
		}
	}
	return s
}
