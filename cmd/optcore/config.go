package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nbecore/optcore/internal/config"
)

// CLIConfig is the optional YAML project file accepted via -config,
// modeled on the teacher's funxy.yaml loading (internal/ext/config.go):
// plain exported fields with yaml tags, no framework.
type CLIConfig struct {
	RewriteLimit       int      `yaml:"rewriteLimit,omitempty"`
	EnableEtaReduction bool     `yaml:"enableEtaReduction,omitempty"`
	CachePath          string   `yaml:"cache,omitempty"`
	ModuleSets         []string `yaml:"moduleSets"`
}

func loadCLIConfig(path string) (CLIConfig, error) {
	cfg := CLIConfig{RewriteLimit: config.DefaultRewriteLimit}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("optcore: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("optcore: parsing config %s: %w", path, err)
	}
	if cfg.RewriteLimit <= 0 {
		cfg.RewriteLimit = config.DefaultRewriteLimit
	}
	return cfg, nil
}
