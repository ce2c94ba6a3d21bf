package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"photoPreProcessor/gallery"
)

// Config holds everything the program can be told from the config file or
// the command line.
type Config struct {
	Directory            string `yaml:"directory"`
	Addr                 string `yaml:"addr"`
	DBDriver             string `yaml:"dbDriver"`
	DBPath               string `yaml:"dbPath"`
	PostgresDSN          string `yaml:"postgresDsn"`
	Exiftool             string `yaml:"exiftool"`
	Editor               string `yaml:"editor"`
	ThumbnailSize        int    `yaml:"thumbnailSize"`
	SortOrder            string `yaml:"sortOrder"`
	Strict               bool   `yaml:"strict"`
	CopyrightMarksEdited bool   `yaml:"copyrightMarksEdited"`
	DryRun               bool   `yaml:"dryRun"`
	Rename               bool   `yaml:"rename"`
	LogLevel             string `yaml:"logLevel"`
}

func defaultConfig() Config {
	dbPath := "photoPreProcessor.db"
	if dir, err := os.UserConfigDir(); err == nil {
		dbPath = filepath.Join(dir, "photoPreProcessor", "photoPreProcessor.db")
	}
	return Config{
		Addr:          "127.0.0.1:7070",
		DBDriver:      "sqlite",
		DBPath:        dbPath,
		Editor:        "gimp",
		ThumbnailSize: 200,
		SortOrder:     "name",
		Rename:        true,
		LogLevel:      "info",
	}
}

// loadConfig reads a YAML file over the defaults. Unknown keys are an error
// so that typos do not go unnoticed.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("dbPath is required for the sqlite driver")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("postgresDsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown dbDriver %q", c.DBDriver)
	}
	if c.ThumbnailSize <= 0 {
		return fmt.Errorf("thumbnailSize must be positive, got %d", c.ThumbnailSize)
	}
	if _, err := gallery.ParseSortOrder(c.SortOrder); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
