// Package config loads client settings from defaults, an optional YAML file,
// a .env file and AI_TUTOR_* environment variables, in increasing priority.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "AI_TUTOR"

// Config holds the resolved settings.
type Config struct {
	APIURL             string        `mapstructure:"api_url" yaml:"api_url" json:"api_url"`
	DB                 string        `mapstructure:"db" yaml:"db" json:"db"`
	LogFile            string        `mapstructure:"log_file" yaml:"log_file" json:"log_file"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" json:"request_timeout"`
	AskTimeout         time.Duration `mapstructure:"ask_timeout" yaml:"ask_timeout" json:"ask_timeout"`
	CatalogTTL         time.Duration `mapstructure:"catalog_ttl" yaml:"catalog_ttl" json:"catalog_ttl"`
	HistoryConcurrency int           `mapstructure:"history_concurrency" yaml:"history_concurrency" json:"history_concurrency"`
	NoticeTTL          time.Duration `mapstructure:"notice_ttl" yaml:"notice_ttl" json:"notice_ttl"`
	Render             string        `mapstructure:"render" yaml:"render" json:"render"`
}

// Home is the directory holding the database, logs and config file.
func Home() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ai-tutor")
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("api_url", "http://localhost:7001")
	v.SetDefault("db", filepath.Join(Home(), "tutor.db"))
	v.SetDefault("log_file", filepath.Join(Home(), "logs", "ai-tutor.log"))
	v.SetDefault("log_level", "info")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("ask_timeout", 60*time.Second)
	v.SetDefault("catalog_ttl", 5*time.Minute)
	v.SetDefault("history_concurrency", 4)
	v.SetDefault("notice_ttl", 5*time.Second)
	v.SetDefault("render", "plain")
}

// Load resolves the configuration. An empty path reads
// ~/.ai-tutor/config.yaml when it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	// load .env if it exists (ignore if it does not)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.Wrap(err, "config: load .env")
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", path)
		}
	} else {
		def := filepath.Join(Home(), "config.yaml")
		if _, err := os.Stat(def); err == nil {
			v.SetConfigFile(def)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "config: read %s", def)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.APIURL == "" {
		return nil, errors.New("config: api_url is empty")
	}
	if c.HistoryConcurrency <= 0 {
		c.HistoryConcurrency = 1
	}
	switch strings.ToLower(c.Render) {
	case "plain", "html":
		c.Render = strings.ToLower(c.Render)
	default:
		return nil, errors.Errorf("config: render must be plain or html, got %q", c.Render)
	}
	return &c, nil
}
