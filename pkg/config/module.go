package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DEFAULT []byte

func readFile(config *Config, path string) error {
	// Check if this is a valid file
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("does not exist")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	extension := filepath.Ext(path)
	switch extension {
	case ".json":
		return json.Unmarshal(data, config)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	}

	return fmt.Errorf("not in a valid format")
}

// Process reads the provided configuration files in order, each one
// layered over the last, all of them layered over the built-in
// defaults.
func Process(configPaths []string) (*Config, error) {
	config := Config{}
	if err := yaml.Unmarshal(DEFAULT, &config); err != nil {
		return nil, fmt.Errorf("invalid default config file: %v", err)
	}

	for _, path := range configPaths {
		if err := readFile(&config, path); err != nil {
			return nil, fmt.Errorf(
				"could not process config file %s: %v",
				path,
				err,
			)
		}
	}

	return &config, nil
}
