package internal

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/4thel00z/memos/internal/crypt"
	"github.com/4thel00z/memos/internal/database"
)

type AttachmentsConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Encrypt bool   `yaml:"encrypt" mapstructure:"encrypt"`
}

type CryptoConfig struct {
	Iterations int `yaml:"iterations" mapstructure:"iterations"`
}

type LogConfig struct {
	JSON  bool   `yaml:"json" mapstructure:"json"`
	Level string `yaml:"level" mapstructure:"level"`
}

type Config struct {
	SourceName  string            `yaml:"source_name" mapstructure:"source_name"`
	Database    database.Config   `yaml:"database" mapstructure:"database"`
	Attachments AttachmentsConfig `yaml:"attachments" mapstructure:"attachments"`
	Crypto      CryptoConfig      `yaml:"crypto" mapstructure:"crypto"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`

	// Password is only read from MEMO_PASSWORD and never written.
	Password string `yaml:"-" mapstructure:"password"`
}

func DefaultConfig() *Config {
	source, _ := os.Hostname()
	if source == "" {
		source = "memo"
	}
	return &Config{
		SourceName: source,
		Database: database.Config{
			File:        "memos.db",
			BusyTimeout: 5 * time.Second,
		},
		Attachments: AttachmentsConfig{
			Dir: "attachments",
		},
		Crypto: CryptoConfig{
			Iterations: crypt.DefaultIterations,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

func setConfigDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("source_name", d.SourceName)
	v.SetDefault("database.file", d.Database.File)
	v.SetDefault("database.busy_timeout", d.Database.BusyTimeout)
	v.SetDefault("database.debug", d.Database.Debug)
	v.SetDefault("attachments.dir", d.Attachments.Dir)
	v.SetDefault("attachments.encrypt", d.Attachments.Encrypt)
	v.SetDefault("crypto.iterations", d.Crypto.Iterations)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("password", "")
}

// LoadConfig reads the scope's config.yaml, falling back to defaults when it
// does not exist. MEMO_* environment variables override file values, e.g.
// MEMO_LOG_LEVEL or MEMO_DATABASE_DEBUG.
func LoadConfig(scope Scope) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(scope.ConfigPath())
	v.SetConfigType("yaml")
	v.SetEnvPrefix("memo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setConfigDefaults(v)

	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return &cfg, nil
}

func SaveConfig(scope Scope, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	if err := os.WriteFile(scope.ConfigPath(), data, 0o600); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}
