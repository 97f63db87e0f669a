package shared

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/codewithboateng/jinspect/internal/rules"
)

type Config struct {
	Database struct {
		Driver string `yaml:"driver"` // "sqlite" (default)
		DSN    string `yaml:"dsn"`    // "./jinspect.db"
	} `yaml:"database"`

	Analysis struct {
		Sources []string `yaml:"sources"` // snapshot roots
		Workers int      `yaml:"workers"` // concurrent passes, default 4
		Locale  string   `yaml:"locale"`  // message bundle, default "en"
	} `yaml:"analysis"`

	Rules struct {
		SeverityThreshold string                   `yaml:"severity_threshold"`
		Disabled          []string                 `yaml:"disabled"`
		Options           map[string]rules.Options `yaml:"options"` // rule id -> options
	} `yaml:"rules"`

	Reporting struct {
		OutDir string `yaml:"out_dir"` // "./reports"
	} `yaml:"reporting"`

	Server struct {
		Addr string `yaml:"addr"` // ":8080"
	} `yaml:"server"`

	Logging struct {
		Format string `yaml:"format"` // "json"|"text"
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`
}

func DefaultConfig() Config {
	var c Config
	c.Database.Driver = "sqlite"
	c.Database.DSN = "./jinspect.db"
	c.Analysis.Workers = 4
	c.Analysis.Locale = "en"
	c.Rules.SeverityThreshold = "LOW"
	c.Reporting.OutDir = "./reports"
	c.Server.Addr = ":8080"
	c.Logging.Format = "json"
	c.Logging.Level = "info"
	return c
}

// LoadConfig reads path over the defaults, then applies JINSPECT_* env
// overrides. A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return c, err
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("config %s: %w", path, err)
			}
		}
	}
	if v := os.Getenv("JINSPECT_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("JINSPECT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Analysis.Workers = n
		}
	}
	if v := os.Getenv("JINSPECT_LOCALE"); v != "" {
		c.Analysis.Locale = v
	}
	if v := os.Getenv("JINSPECT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("JINSPECT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("JINSPECT_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if v := os.Getenv("JINSPECT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if c.Analysis.Workers < 1 {
		c.Analysis.Workers = 1
	}
	return c, nil
}

// RuleSettings converts the rules section into engine settings.
func (c Config) RuleSettings() rules.Settings {
	s := rules.Settings{
		SeverityThreshold: c.Rules.SeverityThreshold,
		Disabled:          map[string]bool{},
		Options:           c.Rules.Options,
	}
	for _, id := range c.Rules.Disabled {
		s.Disabled[id] = true
	}
	return s.Normalize()
}
