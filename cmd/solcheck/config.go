package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

type Config struct {
	//names of contracts that should not be checked (e.g. vendored code)
	SkipContracts []string `yaml:"skip-contracts"`
	NoColor       bool     `yaml:"no-color"`
}

func readConfig(path string) (Config, error) {
	var config Config

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("invalid configuration file %s: %w", path, err)
	}

	return config, nil
}
