// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the fakegold configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the content of the configuration file.
type Config struct {
	DataDir string        `yaml:"data_dir"`
	Solver  SolverConfig  `yaml:"solver"`
	Browser BrowserConfig `yaml:"browser"`
	Server  ServerConfig  `yaml:"server"`
}

// SolverConfig configures the solve command.
type SolverConfig struct {
	URL           string        `yaml:"url"`
	ExpectedTitle string        `yaml:"expected_title"`
	Strategy      string        `yaml:"strategy"`
	Coins         string        `yaml:"coins"`
	MaxAttempts   int           `yaml:"max_attempts"`
	Interval      time.Duration `yaml:"interval"`
	Strict        bool          `yaml:"strict"`
	DialogTimeout time.Duration `yaml:"dialog_timeout"`
	Timeout       time.Duration `yaml:"timeout"`
}

// BrowserConfig selects and configures the automation engine.
type BrowserConfig struct {
	Engine        string `yaml:"engine"`
	RemoteURL     string `yaml:"remote_url"`
	Headless      bool   `yaml:"headless"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// ServerConfig configures the puzzle simulator.
type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	Title      string        `yaml:"title"`
	Coins      int           `yaml:"coins"`
	FakeCoin   int           `yaml:"fake_coin"`
	WeighDelay time.Duration `yaml:"weigh_delay"`
	Persist    bool          `yaml:"persist"`
	TLSCert    string        `yaml:"tls_cert"`
	TLSKey     string        `yaml:"tls_key"`
}

// Engines lists the supported automation engines.
var Engines = []string{"chromedp", "rod", "playwright"}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Solver: SolverConfig{
			URL:           "https://fakegold.example.com/",
			ExpectedTitle: "React App",
			Strategy:      "linear",
			Coins:         "0,1,2,3,4,5,6,7,8",
			MaxAttempts:   5,
			Interval:      2000 * time.Millisecond,
			DialogTimeout: 5 * time.Second,
			Timeout:       5 * time.Minute,
		},
		Browser: BrowserConfig{
			Engine:   "chromedp",
			Headless: true,
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8080",
			Title:      "React App",
			Coins:      9,
			FakeCoin:   -1,
			WeighDelay: 500 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the values that cannot be fixed by a default.
func (c *Config) Validate() error {
	if !validEngine(c.Browser.Engine) {
		return fmt.Errorf("unknown engine %q, want one of %v", c.Browser.Engine, Engines)
	}
	if c.Solver.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.Solver.MaxAttempts)
	}
	if c.Solver.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %v", c.Solver.Interval)
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	if c.Server.Coins != 0 && c.Server.FakeCoin >= c.Server.Coins {
		return fmt.Errorf("fake_coin %d out of range for %d coins", c.Server.FakeCoin, c.Server.Coins)
	}
	return nil
}

func validEngine(e string) bool {
	for _, name := range Engines {
		if e == name {
			return true
		}
	}
	return false
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FAKEGOLD_URL"); v != "" {
		c.Solver.URL = v
	}
	if v := os.Getenv("FAKEGOLD_REMOTE_URL"); v != "" {
		c.Browser.RemoteURL = v
	}
	if v := os.Getenv("FAKEGOLD_DATA_DIR"); v != "" {
		c.DataDir = v
	}
}
