package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when -config is not given.
const DefaultConfigFile = "tally.yaml"

// FileConfig is the schema of tally.yaml. Unknown keys are rejected.
type FileConfig struct {
	LogLevel    string `yaml:"log_level"`
	Timeout     int    `yaml:"timeout"` // seconds
	MaxDepth    int    `yaml:"max_depth"`
	Encoding    string `yaml:"encoding"`
	HistoryFile string `yaml:"history_file"`
}

// LoadConfigFile decodes a YAML config file. An empty file yields the zero
// FileConfig.
func LoadConfigFile(path string) (*FileConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg FileConfig
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// loadConfigFile loads an explicitly named config, or tally.yaml from the
// working directory if it exists. The second result is the path that was
// read, empty when none was.
func loadConfigFile(explicit string) (*FileConfig, string, error) {
	if explicit != "" {
		cfg, err := LoadConfigFile(explicit)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, explicit, nil
	}

	cfg, err := LoadConfigFile(DefaultConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		return &FileConfig{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, DefaultConfigFile, nil
}
