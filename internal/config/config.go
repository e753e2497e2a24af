package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/migration"
)

// ConnectionConfig represents a pre-configured connection in the config file.
type ConnectionConfig struct {
	Name       string `yaml:"name"`
	Role       string `yaml:"role"` // "source" or "target"
	Scheme     string `yaml:"scheme"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
	Project    string `yaml:"project"`
	Token      string `yaml:"token"`
	Insecure   bool   `yaml:"insecure"`
}

// Config holds all configuration (CLI flags + config file).
type Config struct {
	Listen      string             `yaml:"listen"`
	Connections []ConnectionConfig `yaml:"connections"`
	Migration   migration.Options  `yaml:"migration"`

	// internal: path to config file (from CLI flag)
	configFile string
}

// Parse reads CLI flags, then overlays config file values.
// CLI flags take precedence over config file values.
func Parse() *Config {
	c := &Config{Migration: migration.DefaultOptions()}
	flag.StringVar(&c.configFile, "config", "", "Path to config file (YAML)")
	flag.StringVar(&c.Listen, "listen", "", "HTTP listen address")
	flag.IntVar(&c.Migration.Workers, "workers", c.Migration.Workers, "Parallel rewrite workers per migration pass")
	flag.Parse()

	// Load config file if specified
	if c.configFile != "" {
		if err := c.loadFile(c.configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
			os.Exit(1)
		}
	}

	// Apply defaults for anything still unset
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Migration.Workers < 1 {
		c.Migration.Workers = 1
	}

	return c
}

// loadFile reads a YAML config file. Values from the file are only applied
// if the corresponding CLI flag was not explicitly set.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	file := Config{Migration: migration.DefaultOptions()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	// Only apply file values if CLI flag wasn't set
	if c.Listen == "" && file.Listen != "" {
		c.Listen = file.Listen
	}

	// Connections and migration options always come from the config file
	c.Connections = file.Connections
	workers := c.Migration.Workers
	c.Migration = file.Migration
	if file.Migration.Workers == 0 {
		c.Migration.Workers = workers
	}

	return nil
}
