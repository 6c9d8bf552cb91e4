package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aussiebroadwan/jobboard/pkg/httpx"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. JOBBOARD_API_URL.
const EnvPrefix = "JOBBOARD"

// Output formats understood by the CLI renderer.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
	OutputText  = "text"
)

type Config struct {
	APIURL        string        `mapstructure:"api_url"`         // Base URL of the job board API (default: http://localhost:5000/api)
	Timeout       time.Duration `mapstructure:"timeout"`         // Per-request timeout (default: 10s)
	DataFile      string        `mapstructure:"data_file"`       // SQLite file holding cookies and prefs (default: ~/.jobboard/jobboard.db)
	MasterKeyFile string        `mapstructure:"master_key_file"` // Key used to seal cookies at rest (default: ~/.jobboard/master.key)
	AccessCookie  string        `mapstructure:"access_cookie"`   // Name of the access token cookie (default: accessToken)
	Env           string        `mapstructure:"env"`             // Environment (dev, prod) (default: prod)
	LogLevel      string        `mapstructure:"log_level"`       // Log level (debug, info, warn, error) (default: warn)
	LogFormat     string        `mapstructure:"log_format"`      // Log format (json, text) (default: text)
	Output        string        `mapstructure:"output"`          // Output format (table, json, yaml, text) (default: table)
	Colors        bool          `mapstructure:"colors"`          // Colored terminal messages (default: true)

	RateLimit httpx.RateLimitConfig `mapstructure:"rate_limit"` // Outbound request pacing (default: 10/s, burst 20)
}

// DataDir is where the CLI keeps its files unless configured otherwise.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jobboard"
	}
	return filepath.Join(home, ".jobboard")
}

func setDefaults(v *viper.Viper) {
	dir := DataDir()

	v.SetDefault("api_url", "http://localhost:5000/api")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("data_file", filepath.Join(dir, "jobboard.db"))
	v.SetDefault("master_key_file", filepath.Join(dir, "master.key"))
	v.SetDefault("access_cookie", "accessToken")
	v.SetDefault("env", "prod")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("output", OutputTable)
	v.SetDefault("colors", true)
	v.SetDefault("rate_limit.requests", httpx.DefaultClientLimit.RequestsPerWindow)
	v.SetDefault("rate_limit.window", httpx.DefaultClientLimit.Window)
	v.SetDefault("rate_limit.burst", httpx.DefaultClientLimit.Burst)
}

// LoadConfig reads defaults, then the config file (configFile, or
// $HOME/.jobboard.yaml when empty and present), then JOBBOARD_* environment
// variables. A missing default config file is not an error.
func LoadConfig(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".jobboard")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("could not read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configs the CLI cannot run with.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url %q: want an http(s) URL", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s", c.Timeout)
	}
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML, OutputText:
	default:
		return fmt.Errorf("invalid output format %q", c.Output)
	}
	if c.DataFile == "" {
		return errors.New("data_file must be set")
	}
	return nil
}
