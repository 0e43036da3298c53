// Package config loads tds configuration from todosync.yaml and the
// environment, and builds replica accessors from it.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kestrel-tools/todosync/internal/replica"
	"github.com/kestrel-tools/todosync/internal/replica/file"
	"github.com/kestrel-tools/todosync/internal/replica/httpapi"
	"github.com/kestrel-tools/todosync/internal/replica/sqlite"
)

// Replica backend types accepted in configuration.
const (
	TypeMemory = "memory"
	TypeFile   = "file"
	TypeSQLite = "sqlite"
	TypeHTTP   = "http"
)

// Replica describes one side of the sync pair.
type Replica struct {
	Type  string `mapstructure:"type"`
	Name  string `mapstructure:"name"`
	Path  string `mapstructure:"path"`  // file dir or sqlite db
	URL   string `mapstructure:"url"`   // http base URL
	Token string `mapstructure:"token"` // http bearer token
}

// Retry bounds per-operation retries during apply.
type Retry struct {
	Attempts int           `mapstructure:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Watch configures the background daemon.
type Watch struct {
	Interval time.Duration `mapstructure:"interval"`
	Debounce time.Duration `mapstructure:"debounce"`
	LogFile  string        `mapstructure:"log_file"`
}

// Serve configures the HTTP replica API and dashboard.
type Serve struct {
	Addr          string `mapstructure:"addr"`
	Token         string `mapstructure:"token"`
	DashboardAddr string `mapstructure:"dashboard_addr"`
}

// Config is the full tds configuration.
type Config struct {
	Local   Replica `mapstructure:"local"`
	Remote  Replica `mapstructure:"remote"`
	Retry   Retry   `mapstructure:"retry"`
	Watch   Watch   `mapstructure:"watch"`
	Serve   Serve   `mapstructure:"serve"`
	History string  `mapstructure:"history"`
}

// FileName is the config file tds looks for in the working directory.
const FileName = "todosync.yaml"

func setDefaults(v *viper.Viper) {
	v.SetDefault("local.type", TypeFile)
	v.SetDefault("local.name", "local")
	v.SetDefault("local.path", ".todosync/records")
	v.SetDefault("remote.type", TypeSQLite)
	v.SetDefault("remote.name", "remote")
	v.SetDefault("remote.path", ".todosync/remote.db")
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.backoff", time.Second)
	v.SetDefault("retry.timeout", 10*time.Second)
	v.SetDefault("watch.interval", 30*time.Second)
	v.SetDefault("watch.debounce", 250*time.Millisecond)
	v.SetDefault("watch.log_file", ".todosync/watch.log")
	v.SetDefault("serve.addr", ":8334")
	v.SetDefault("serve.dashboard_addr", ":8335")
	v.SetDefault("history", ".todosync/history.db")
}

// Load reads configuration from the given file, or from todosync.yaml
// in the working directory when path is empty. A missing file is fine:
// defaults plus TODOSYNC_* environment overrides apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TODOSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("todosync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that both replica definitions are usable.
func (c *Config) Validate() error {
	for _, r := range []struct {
		label string
		rep   Replica
	}{{"local", c.Local}, {"remote", c.Remote}} {
		switch r.rep.Type {
		case TypeMemory:
		case TypeFile, TypeSQLite:
			if r.rep.Path == "" {
				return fmt.Errorf("%s replica: path is required for type %s", r.label, r.rep.Type)
			}
		case TypeHTTP:
			if r.rep.URL == "" {
				return fmt.Errorf("%s replica: url is required for type http", r.label)
			}
		default:
			return fmt.Errorf("%s replica: unknown type %q", r.label, r.rep.Type)
		}
	}
	return nil
}

// RetryPolicy converts the retry section to reconciler terms.
func (c *Config) RetryPolicy() (attempts int, backoff, timeout time.Duration) {
	return c.Retry.Attempts, c.Retry.Backoff, c.Retry.Timeout
}

// BuildAccessor constructs the accessor for one replica definition.
// The returned closer releases backend resources and may be a no-op.
func BuildAccessor(r Replica, logger *log.Logger) (replica.Accessor, func() error, error) {
	noop := func() error { return nil }

	switch r.Type {
	case TypeMemory:
		return replica.NewMemory(r.Name), noop, nil

	case TypeFile:
		return file.New(r.Path, r.Name, logger), noop, nil

	case TypeSQLite:
		store, err := sqlite.Open(r.Path, r.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s replica: %w", r.Name, err)
		}
		return store, store.Close, nil

	case TypeHTTP:
		client := httpapi.NewClient(r.URL, r.Token, r.Name, httpapi.DefaultTimeout)
		return client, noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown replica type %q", r.Type)
	}
}

// starterFile mirrors the yaml layout of a full config file.
type starterFile struct {
	Local   map[string]string `yaml:"local"`
	Remote  map[string]string `yaml:"remote"`
	Retry   map[string]string `yaml:"retry"`
	Watch   map[string]string `yaml:"watch"`
	Serve   map[string]string `yaml:"serve"`
	History string            `yaml:"history"`
}

// Starter renders a commented-by-example starter config for `tds init`.
func Starter() ([]byte, error) {
	s := starterFile{
		Local: map[string]string{
			"type": TypeFile,
			"name": "local",
			"path": ".todosync/records",
		},
		Remote: map[string]string{
			"type": TypeSQLite,
			"name": "remote",
			"path": ".todosync/remote.db",
		},
		Retry: map[string]string{
			"attempts": "3",
			"backoff":  "1s",
			"timeout":  "10s",
		},
		Watch: map[string]string{
			"interval": "30s",
			"debounce": "250ms",
			"log_file": ".todosync/watch.log",
		},
		Serve: map[string]string{
			"addr":           ":8334",
			"dashboard_addr": ":8335",
		},
		History: ".todosync/history.db",
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to render starter config: %w", err)
	}
	return data, nil
}
