// Package config loads the device configuration from a YAML file. Every
// field has a default suited to a single till: SQLite for orders, a JSON
// file directory for session state, HTTP on localhost.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Orders struct {
	// Driver selects the durable order store: sqlite (default), postgres
	// or memory (dev only).
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn"`
}

type Redis struct {
	Addr string `yaml:"addr"`
	// Device namespaces the keys of this till.
	Device string `yaml:"device"`
}

type State struct {
	// Driver selects the session state store: file (default) or redis.
	Driver string `yaml:"driver"`
	// Dir holds the JSON state files for the file driver.
	Dir   string `yaml:"dir"`
	Redis Redis  `yaml:"redis"`
}

type Config struct {
	HTTP   HTTP   `yaml:"http"`
	Orders Orders `yaml:"orders"`
	State  State  `yaml:"state"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		HTTP:   HTTP{Addr: ":8080"},
		Orders: Orders{Driver: "sqlite", Path: "data/orders.db"},
		State:  State{Driver: "file", Dir: "data/state", Redis: Redis{Addr: "localhost:6379", Device: "till-1"}},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Orders.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown orders driver %q", c.Orders.Driver)
	}
	if c.Orders.Driver == "postgres" && c.Orders.DSN == "" {
		return fmt.Errorf("postgres driver needs a dsn")
	}
	switch c.State.Driver {
	case "file", "redis":
	default:
		return fmt.Errorf("unknown state driver %q", c.State.Driver)
	}
	return nil
}
