package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"ufw-inspector/internal/parser"
	"ufw-inspector/internal/ufwcmd"
)

type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Config struct {
	Executable      string   `yaml:"executable"`
	Sudo            bool     `yaml:"sudo"`
	ApplicationsDir string   `yaml:"applications_dir"`
	LogLevel        string   `yaml:"log_level"`
	LogFile         string   `yaml:"log_file,omitempty"`
	Database        Database `yaml:"database"`
	Textfile        string   `yaml:"textfile,omitempty"`
}

func Default() *Config {
	return &Config{
		Executable:      ufwcmd.DefaultExecutable,
		ApplicationsDir: parser.DefaultApplicationsDir,
		LogLevel:        "INFO",
		Database: Database{
			Driver: "sqlite",
			DSN:    "/var/lib/ufw-inspector/snapshots.db",
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(fsys afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Executable == "" {
		errs = append(errs, errors.New("executable must not be empty"))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of DEBUG, INFO, WARN, ERROR", c.LogLevel))
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not sqlite or mysql", c.Database.Driver))
	}
	return errors.Join(errs...)
}
