// Package config discovers and loads the weave project configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultFiles are looked up, in order, in the working directory.
var DefaultFiles = []string{"weave.yaml", "weave.yml", "weave.toml", "php-injector.json"}

const reportsDirName = ".weave-reports"

var (
	// ErrNoConfig is returned when neither a file nor the directory flags are given.
	ErrNoConfig = errors.New("no configuration provided")
	// ErrMissingKey is returned when a required directory key is empty.
	ErrMissingKey = errors.New("missing required configuration key")
)

// Config is a resolved project configuration. All directories are absolute.
type Config struct {
	Injections      string
	Src             string
	Cache           string
	Reports         string
	UseDocumentRoot bool
	CallSites       bool
	CopyOther       bool
	Workers         int
	Debug           bool

	// Origin is the directory relative paths were resolved against.
	Origin string
	// File is the configuration file that was loaded, if any.
	File string
}

// Overrides carries command line values that take precedence over files.
type Overrides struct {
	ConfigPath string
	Injections string
	Src        string
	Cache      string
	CopyAll    bool
	CallSites  bool
	Debug      bool
	Workers    int
}

func (o Overrides) hasDirs() bool {
	return o.Injections != "" && o.Src != "" && o.Cache != ""
}

// fileConfig is the on-disk shape shared by YAML, JSON and TOML files.
type fileConfig struct {
	Injections      string `yaml:"injections" toml:"injections"`
	Src             string `yaml:"src" toml:"src"`
	Cache           string `yaml:"cache" toml:"cache"`
	Reports         string `yaml:"reports" toml:"reports"`
	UseDocumentRoot *bool  `yaml:"use_document_root" toml:"use_document_root"`
	CallSites       bool   `yaml:"call_sites" toml:"call_sites"`
	CopyOther       bool   `yaml:"copy_other" toml:"copy_other"`
	Workers         int    `yaml:"workers" toml:"workers"`
}

// Load resolves the configuration: an explicit --config file first, then the
// three directory flags, then the first default file found in workDir.
func Load(workDir string, o Overrides) (Config, error) {
	var (
		cfg Config
		err error
	)

	switch {
	case o.ConfigPath != "":
		path := o.ConfigPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		cfg, err = LoadFile(path)
	case o.hasDirs():
		cfg, err = resolve(fileConfig{Injections: o.Injections, Src: o.Src, Cache: o.Cache}, workDir)
	default:
		path, found := discover(workDir)
		if !found {
			return Config{}, ErrNoConfig
		}

		cfg, err = LoadFile(path)
	}

	if err != nil {
		return Config{}, err
	}

	if o.CopyAll {
		cfg.CopyOther = true
	}

	if o.CallSites {
		cfg.CallSites = true
	}

	if o.Debug {
		cfg.Debug = true
	}

	if o.Workers > 0 {
		cfg.Workers = o.Workers
	}

	return cfg, nil
}

func discover(workDir string) (string, bool) {
	for _, name := range DefaultFiles {
		path := filepath.Join(workDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}

	return "", false
}

// LoadFile reads one configuration file; the format follows its extension.
// JSON is decoded as YAML.
func LoadFile(path string) (Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig

	switch strings.ToLower(filepath.Ext(abs)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&fc); err != nil {
			return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
		}
	case ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("%s: failed to parse config: %w", abs, err)
		}
	default:
		return Config{}, fmt.Errorf("%s: unsupported config format %q", abs, filepath.Ext(abs))
	}

	cfg, err := resolve(fc, filepath.Dir(abs))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", abs, err)
	}

	cfg.File = abs

	return cfg, nil
}

func resolve(fc fileConfig, origin string) (Config, error) {
	origin, err := filepath.Abs(origin)
	if err != nil {
		return Config{}, fmt.Errorf("resolve origin: %w", err)
	}

	required := []struct{ key, value string }{
		{"injections", fc.Injections},
		{"src", fc.Src},
		{"cache", fc.Cache},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Config{}, fmt.Errorf("%w: %s", ErrMissingKey, r.key)
		}
	}

	if fc.Workers < 0 {
		return Config{}, fmt.Errorf("workers must not be negative, got %d", fc.Workers)
	}

	cfg := Config{
		Injections:      within(origin, fc.Injections),
		Src:             within(origin, fc.Src),
		Cache:           within(origin, fc.Cache),
		UseDocumentRoot: true,
		CallSites:       fc.CallSites,
		CopyOther:       fc.CopyOther,
		Workers:         fc.Workers,
		Origin:          origin,
	}

	if fc.UseDocumentRoot != nil {
		cfg.UseDocumentRoot = *fc.UseDocumentRoot
	}

	if fc.Reports != "" {
		cfg.Reports = within(origin, fc.Reports)
	} else {
		cfg.Reports = filepath.Join(cfg.Cache, reportsDirName)
	}

	return cfg, nil
}

func within(origin, dir string) string {
	dir = filepath.FromSlash(strings.TrimSpace(dir))
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}

	return filepath.Join(origin, dir)
}
