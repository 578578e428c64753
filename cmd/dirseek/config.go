package main

import (
	"errors"
	"flag"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the YAML configuration of the dirseek command.
type Config struct {
	Backend  string    `yaml:"backend"`
	Path     string    `yaml:"path"`
	Table    string    `yaml:"table"`
	DupSort  bool      `yaml:"dupsort"`
	DupWidth int       `yaml:"dupwidth"`
	NoSync   bool      `yaml:"nosync"`
	Log      LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultConfig() Config {
	return Config{
		Backend: "mdbx",
		Path:    "dirseek.db",
		Table:   "main",
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// loadConfig reads path over the defaults. A missing file keeps them.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// flags holds the command-line overrides of Config.
type flags struct {
	config    string
	backend   string
	path      string
	table     string
	dupsort   bool
	dupwidth  int
	nosync    bool
	logLevel  string
	logFormat string
}

func (f *flags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "YAML configuration file")
	fs.StringVar(&f.backend, "backend", "", "store: mdbx, bolt, pebble or rocks")
	fs.StringVar(&f.path, "path", "", "database path")
	fs.StringVar(&f.table, "table", "", "collection name")
	fs.BoolVar(&f.dupsort, "dupsort", false, "open the collection with DupSort")
	fs.IntVar(&f.dupwidth, "dupwidth", 0, "order duplicates as unsigned integers of this many bits")
	fs.BoolVar(&f.nosync, "nosync", false, "do not fsync on commit")
	fs.StringVar(&f.logLevel, "log-level", "", "log level")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console or json")
}

// apply overrides cfg with the flags set on fs.
func (f *flags) apply(fs *flag.FlagSet, cfg *Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "backend":
			cfg.Backend = f.backend
		case "path":
			cfg.Path = f.path
		case "table":
			cfg.Table = f.table
		case "dupsort":
			cfg.DupSort = f.dupsort
		case "dupwidth":
			cfg.DupWidth = f.dupwidth
		case "nosync":
			cfg.NoSync = f.nosync
		case "log-level":
			cfg.Log.Level = f.logLevel
		case "log-format":
			cfg.Log.Format = f.logFormat
		}
	})
	if cfg.DupWidth != 0 {
		cfg.DupSort = true
	}
}
