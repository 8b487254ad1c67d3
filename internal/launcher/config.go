package launcher

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config names recognized by FindConfig, in order of preference.
var configNames = []string{".enslink.toml", ".enslink.yaml", ".enslink.yml"}

// ProjectConfig describes an analysis-server project. It is loaded from a
// .enslink.toml or .enslink.yaml file at the project root.
type ProjectConfig struct {
	// Name is the project display name. Defaults to the root directory's
	// base name.
	Name string `toml:"name" yaml:"name"`

	// RootDir is the project root. Defaults to the config file's
	// directory.
	RootDir string `toml:"root-dir" yaml:"root-dir"`

	// CacheDir holds the server's scratch state, including the port file
	// and logs. Defaults to <root>/.enslink_cache.
	CacheDir string `toml:"cache-dir" yaml:"cache-dir"`

	// Command and Args launch the analysis server process.
	Command string   `toml:"command" yaml:"command"`
	Args    []string `toml:"args" yaml:"args"`

	// ScalaVersion and JavaHome are passed through to the server
	// bootstrap.
	ScalaVersion string `toml:"scala-version" yaml:"scala-version"`
	JavaHome     string `toml:"java-home" yaml:"java-home"`
}

// LoadConfig reads a project config, choosing the decoder by file
// extension: .toml uses TOML, .yaml/.yml uses YAML.
func LoadConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &ProjectConfig{}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	return cfg, nil
}

func (c *ProjectConfig) applyDefaults(dir string) {
	if c.RootDir == "" {
		c.RootDir = dir
	}
	if abs, err := filepath.Abs(c.RootDir); err == nil {
		c.RootDir = abs
	}
	if c.Name == "" {
		c.Name = filepath.Base(c.RootDir)
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(c.RootDir, ".enslink_cache")
	}
}

// PortFile returns the path of the file where the server publishes its
// HTTP port once it can accept connections.
func (c *ProjectConfig) PortFile() string {
	return filepath.Join(c.CacheDir, "http")
}

// FindConfig walks upward from start looking for a project config file.
// The walk is a plain iterative loop ending at the filesystem root.
func FindConfig(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoConfig
		}
		dir = parent
	}
}
