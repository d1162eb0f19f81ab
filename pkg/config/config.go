package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Folder delete policies. Cascade removes the metadata of every file that was
// inside a deleted folder; orphan leaves it for the reconciler to clean up.
const (
	FolderDeletePolicyCascade = "cascade"
	FolderDeletePolicyOrphan  = "orphan"
)

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/inkwell.yaml"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	CORSAllowedOrigins        []string      `koanf:"cors_allowed_origins"`
	FolderDeletePolicy        string        `koanf:"folder_delete_policy"`
	JWTSecret                 string        `koanf:"jwt_secret" required:"true"`
	NotesDir                  string        `koanf:"notes_dir"`
	PublicRateLimit           float64       `koanf:"public_rate_limit"`
	ReconcileIntervalMinutes  int           `koanf:"reconcile_interval_minutes"`
	SearchMaxFileBytes        int64         `koanf:"search_max_file_bytes"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
}

func defaults() *Config {
	return &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		CORSAllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:4173",
			"http://127.0.0.1:5173",
			"http://127.0.0.1:4173",
		},
		FolderDeletePolicy:       FolderDeletePolicyCascade,
		NotesDir:                 "./notes",
		PublicRateLimit:          20,
		ReconcileIntervalMinutes: 60,
		SearchMaxFileBytes:       5 << 20,
		ServerHost:               "0.0.0.0",
		ServerPort:               8000,
	}
}

// New loads the configuration from the YAML file named by CONFIG_FILE (if it
// exists) and then from the environment. Environment variables are the upper
// snake case of the config key and take precedence over the file.
func New() (*Config, error) {
	k := koanf.New(".")

	path := os.Getenv(configFileENV)
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	known := knownKeys()
	err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := known[key]; !ok {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a configuration backed by an in-memory database.
func NewForTest() *Config {
	cfg := defaults()
	cfg.DatabaseFilePath = ":memory:"
	cfg.DatabaseConnectRetryDelay = 10 * time.Millisecond
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.NotesDir = os.TempDir()
	return cfg
}

func (cfg *Config) validate() error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("required") != "true" {
			continue
		}
		if v.Field(i).IsZero() {
			key := toSnakeCase(field.Name)
			return errors.Errorf("missing required config: set %s or %s in the config file", strings.ToUpper(key), key)
		}
	}

	switch cfg.FolderDeletePolicy {
	case FolderDeletePolicyCascade, FolderDeletePolicyOrphan:
	default:
		return errors.Errorf("invalid folder_delete_policy %q: must be %q or %q", cfg.FolderDeletePolicy, FolderDeletePolicyCascade, FolderDeletePolicyOrphan)
	}

	return nil
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		keys[t.Field(i).Tag.Get("koanf")] = struct{}{}
	}
	return keys
}

func toSnakeCase(name string) string {
	return strcase.ToSnake(name)
}
