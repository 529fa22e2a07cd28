package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shaiso/tetractl/internal/tetration"
)

// Форматы консольного вывода.
const (
	OutputJSON  = "json"
	OutputYAML  = "yaml"
	OutputTable = "table"
)

// EnvPrefix — префикс переменных окружения.
const EnvPrefix = "TETRA"

// Config — итоговые настройки запуска.
type Config struct {
	Endpoint  string        `mapstructure:"endpoint"`
	APIKey    string        `mapstructure:"api_key"`
	APISecret string        `mapstructure:"api_secret"`
	CredsFile string        `mapstructure:"creds_file"`
	Insecure  bool          `mapstructure:"insecure"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`

	Output     string `mapstructure:"output"`
	SaveToFile string `mapstructure:"save_to_file"`

	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	MetricsFile string `mapstructure:"metrics_file"`

	AuditDBURL   string `mapstructure:"audit_db_url"`
	AuditAMQPURL string `mapstructure:"audit_amqp_url"`
}

// keys — ключ конфигурации → имя флага.
var keys = map[string]string{
	"endpoint":       "endpoint",
	"api_key":        "api-key",
	"api_secret":     "api-secret",
	"creds_file":     "creds-file",
	"insecure":       "insecure",
	"timeout":        "timeout",
	"rate_limit":     "rate-limit",
	"output":         "output",
	"save_to_file":   "save-to-file",
	"log_level":      "log-level",
	"log_format":     "log-format",
	"metrics_file":   "metrics-file",
	"audit_db_url":   "audit-db-url",
	"audit_amqp_url": "audit-amqp-url",
}

// Load читает настройки. flags может быть nil; отсутствующие в нём
// флаги пропускаются. configFile, если задан, должен существовать.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()

	// AutomaticEnv видит при Unmarshal только известные ключи.
	for key := range keys {
		v.SetDefault(key, "")
	}
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("insecure", false)
	v.SetDefault("output", OutputJSON)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")

	if flags != nil {
		for key, name := range keys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("tetractl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tetractl")
		v.AddConfigPath("/etc/tetractl")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Output = strings.ToLower(cfg.Output)

	return &cfg, nil
}

// Validate проверяет общие настройки, не связанные с API.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputJSON, OutputYAML, OutputTable:
	default:
		return fmt.Errorf("%w: %q (want json, yaml or table)", ErrInvalidOutput, c.Output)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidValue, c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative, got %g", ErrInvalidValue, c.RateLimit)
	}
	return nil
}

// ValidateAPI проверяет настройки, нужные для обращения к API.
// Ровно один способ аутентификации: файл или пара ключ/секрет.
func (c *Config) ValidateAPI() error {
	if c.Endpoint == "" {
		return tetration.ErrMissingEndpoint
	}

	direct := c.APIKey != "" || c.APISecret != ""
	switch {
	case direct && c.CredsFile != "":
		return ErrConflictingAuth
	case c.CredsFile != "":
		return nil
	case c.APIKey == "" || c.APISecret == "":
		return tetration.ErrMissingCredentials
	}
	return nil
}

// Credentials возвращает ключ и секрет из файла или из настроек.
func (c *Config) Credentials() (tetration.Credentials, error) {
	if err := c.ValidateAPI(); err != nil {
		return tetration.Credentials{}, err
	}
	if c.CredsFile != "" {
		return tetration.LoadCredentials(c.CredsFile)
	}
	return tetration.Credentials{APIKey: c.APIKey, APISecret: c.APISecret}, nil
}
