// Package config resolves querydsl settings from flags, environment and a
// config file, in that order of precedence.
//
// The config file is querydsl.yaml, searched in the working directory and
// in $HOME/.querydsl unless a path is given explicitly. Environment
// variables use the QUERYDSL_ prefix, e.g. QUERYDSL_PAGE_SIZE=50.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys understood in files, environment and flags.
const (
	KeyRegistry = "registry"
	KeyCatalog  = "catalog"
	KeyEndpoint = "endpoint"
	KeyIndex    = "index"
	KeyUsername = "username"
	KeyPassword = "password"
	KeyPageSize = "page_size"
	KeyGroups   = "groups"
	KeyColumns  = "columns"
	KeyTimeout  = "timeout"
)

// Defaults.
const (
	DefaultEndpoint = "http://localhost:9200"
	DefaultTimeout  = 30 * time.Second
)

// Config is the resolved, immutable configuration.
type Config struct {
	Registry string        // field registry file (.cue, .yaml, .json)
	Catalog  string        // SQLite catalog database
	Endpoint string        // search backend base URL
	Index    string        // search index name
	Username string        // basic auth user for the backend
	Password string        // basic auth password
	PageSize int           // 0 leaves size/from out of the document
	Groups   []string      // group filter
	Columns  string        // column file (.yaml/.json/.cue registry with columns)
	Timeout  time.Duration // search request timeout

	// File is the config file that was read, empty if none.
	File string
}

// New returns a viper instance with querydsl defaults and environment
// binding. Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("QUERYDSL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyEndpoint, DefaultEndpoint)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyPageSize, 0)

	// AutomaticEnv only answers keys viper knows about.
	for _, k := range []string{KeyRegistry, KeyCatalog, KeyIndex, KeyUsername, KeyPassword, KeyGroups, KeyColumns} {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the config file (explicit path, or querydsl.yaml from the
// search path) into v and returns the resolved Config. A missing file is
// only an error when file is explicit.
func Load(v *viper.Viper, file string, searchPaths ...string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("querydsl")
		v.SetConfigType("yaml")
		if len(searchPaths) == 0 {
			searchPaths = []string{".", "$HOME/.querydsl"}
		}
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Registry: v.GetString(KeyRegistry),
		Catalog:  v.GetString(KeyCatalog),
		Endpoint: v.GetString(KeyEndpoint),
		Index:    v.GetString(KeyIndex),
		Username: v.GetString(KeyUsername),
		Password: v.GetString(KeyPassword),
		PageSize: v.GetInt(KeyPageSize),
		Groups:   splitList(v.GetStringSlice(KeyGroups)),
		Columns:  v.GetString(KeyColumns),
		Timeout:  v.GetDuration(KeyTimeout),
		File:     v.ConfigFileUsed(),
	}
	if cfg.PageSize < 0 {
		return Config{}, fmt.Errorf("config: %s must not be negative, got %d", KeyPageSize, cfg.PageSize)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg, nil
}

// splitList flattens comma separated entries, so QUERYDSL_GROUPS=a,b and
// a YAML list behave the same.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
