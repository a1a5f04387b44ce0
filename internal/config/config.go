/*
 *   Copyright 2024 The TUPW Authors
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// Package config loads CLI defaults from an optional on-disk file
// merged with environment overrides, the way the teacher repo's
// server/client config loader works.
package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v2"
)

// Config carries the CLI defaults a caller may omit on the command
// line.
type Config struct {
	DefaultSubject string `yaml:"defaultSubject" env:"TUPW_SUBJECT"`
	OutputFormat   string `yaml:"outputFormat" env:"TUPW_OUTPUT_FORMAT"`
}

// ConfigPath returns the default on-disk location of the CLI config
// file. It is a variable so tests can override it.
var ConfigPath func() string = defaultConfigPath

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tupw", "cli.yaml")
}

// New returns a Config holding the built-in defaults: no default
// subject and the "text" output format.
func New() *Config {
	return &Config{OutputFormat: "text"}
}

// Load populates c from the on-disk config file (if any) and then
// applies environment overrides.
func (c *Config) Load() error {
	if err := c.loadYAML(); err != nil {
		return err
	}
	return c.loadEnv()
}

func (c *Config) loadYAML() error {
	path := ConfigPath()
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	log.Printf("loading config file %s", path)
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadEnv() error {
	return env.Parse(c)
}
