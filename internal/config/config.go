package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hydrai/cli/internal/api"
	"github.com/hydrai/cli/internal/auth"
)

// Viper keys, shared by flags, environment variables and the config file
const (
	KeyBaseURL  = "base-url"
	KeyTimeout  = "timeout"
	KeyStore    = "store"
	KeyLogLevel = "log-level"
	KeyOutput   = "output"
	KeyUserID   = "user-id"
	KeyNoColor  = "no-color"
)

// EnvPrefix prefixes every environment variable, e.g. HYDRAI_BASE_URL
const EnvPrefix = "HYDRAI"

// EnvKeyReplacer maps dashed keys onto environment variable names
var EnvKeyReplacer = strings.NewReplacer("-", "_")

// OutputFormat represents how command results are rendered
type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

// ValidateOutput checks if the given string is a supported OutputFormat
func ValidateOutput(format string) (OutputFormat, error) {
	switch OutputFormat(format) {
	case "":
		return OutputTable, nil
	case OutputTable, OutputJSON, OutputYAML:
		return OutputFormat(format), nil
	default:
		return "", fmt.Errorf("unsupported output format %q: must be 'table', 'json' or 'yaml'", format)
	}
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogLevels lists the accepted --log-level values
const LogLevels = "debug|info|warn|error"

// ParseLogLevel maps a --log-level value onto a slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	l, ok := logLevels[strings.ToLower(level)]
	if !ok {
		return 0, fmt.Errorf("invalid log level: %s. Valid log levels are: %s", level, LogLevels)
	}
	return l, nil
}

// Config holds the resolved runtime configuration of the CLI
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Store    auth.StoreKind
	LogLevel slog.Level
	Output   OutputFormat
	UserID   string
	NoColor  bool
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, api.DefaultBaseURL)
	v.SetDefault(KeyTimeout, api.DefaultTimeout)
	v.SetDefault(KeyStore, string(auth.StoreHome))
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyOutput, string(OutputTable))
	v.SetDefault(KeyNoColor, false)
}

// Load builds a validated Config from v
func Load(v *viper.Viper) (*Config, error) {
	store, err := auth.ValidateStore(v.GetString(KeyStore))
	if err != nil {
		return nil, err
	}

	output, err := ValidateOutput(v.GetString(KeyOutput))
	if err != nil {
		return nil, err
	}

	level, err := ParseLogLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BaseURL:  strings.TrimRight(v.GetString(KeyBaseURL), "/"),
		Timeout:  v.GetDuration(KeyTimeout),
		Store:    store,
		LogLevel: level,
		Output:   output,
		UserID:   v.GetString(KeyUserID),
		NoColor:  v.GetBool(KeyNoColor),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate the Config making sure all required fields are present and valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.ParseRequestURI(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL: scheme must be http or https, got %q", u.Scheme)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %s", c.Timeout)
	}

	return nil
}

// Print writes the Config for debugging
func (c *Config) Print() {
	slog.Debug("configuration",
		"baseURL", c.BaseURL,
		"timeout", c.Timeout,
		"store", c.Store,
		"output", c.Output,
		"userID", c.UserID,
		"noColor", c.NoColor,
	)
}
