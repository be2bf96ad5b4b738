// Package config provides configuration loading, validation, and management for
// ReplyDesk. Values come from defaults, an optional YAML file, and REPLYDESK_*
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration is wrapped by every error returned from Load.
var ErrConfiguration = errors.New("configuration error")

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. REPLYDESK_HTTP_ADDR for http.addr.
const EnvPrefix = "REPLYDESK"

// Config defines the application configuration for all components.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Review    ReviewConfig    `mapstructure:"review"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// HTTPConfig controls the operator web surface.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
	// AdminUser enables basic auth on the review pages when set.
	AdminUser     string `mapstructure:"admin_user"`
	AdminPassword string `mapstructure:"admin_password" validate:"required_with=AdminUser"`
}

// DatabaseConfig selects the task/credential store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite pgx"`
	DSN    string `mapstructure:"dsn"    validate:"required"`
}

// GatewayConfig configures the messaging channels.
type GatewayConfig struct {
	LineEndpoint      string        `mapstructure:"line_endpoint"       validate:"omitempty,url"`
	TelegramServerURL string        `mapstructure:"telegram_server_url" validate:"omitempty,url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"     validate:"min=1s,max=5m"`
}

// ReviewConfig configures the review workflow.
type ReviewConfig struct {
	DiagnosticMarker    string        `mapstructure:"diagnostic_marker"     validate:"required"`
	ProfileCacheTTL     time.Duration `mapstructure:"profile_cache_ttl"     validate:"min=0"`
	PlaceholderImageURL string        `mapstructure:"placeholder_image_url" validate:"required,url"`
}

// SchedulerConfig holds the scheduled jobs keyed by job name.
type SchedulerConfig struct {
	Jobs map[string]JobConfig `mapstructure:"jobs" validate:"dive"`
}

// JobConfig enables a job on a cron schedule.
type JobConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds the operator-facing texts.
type MessagesConfig struct {
	Title              string `mapstructure:"title"               validate:"required"`
	Subtitle           string `mapstructure:"subtitle"`
	QueueHeader        string `mapstructure:"queue_header"        validate:"required"`
	NothingPending     string `mapstructure:"nothing_pending"     validate:"required"`
	TaskHeader         string `mapstructure:"task_header"         validate:"required"`
	CustomerMessage    string `mapstructure:"customer_message"    validate:"required"`
	EditedResponse     string `mapstructure:"edited_response"     validate:"required"`
	SaveAndSend        string `mapstructure:"save_and_send"       validate:"required"`
	ApproveAndSend     string `mapstructure:"approve_and_send"    validate:"required"`
	Reject             string `mapstructure:"reject"              validate:"required"`
	RefreshProfiles    string `mapstructure:"refresh_profiles"    validate:"required"`
	Sent               string `mapstructure:"sent"                validate:"required"`
	Rejected           string `mapstructure:"rejected"            validate:"required"`
	SendFailed         string `mapstructure:"send_failed"         validate:"required"`
	MissingCredentials string `mapstructure:"missing_credentials" validate:"required"`
	NotPending         string `mapstructure:"not_pending"         validate:"required"`
	NotRecorded        string `mapstructure:"not_recorded"        validate:"required"`
	EmptyResponse      string `mapstructure:"empty_response"      validate:"required"`
	GeneralError       string `mapstructure:"general_error"       validate:"required"`
}

// Load reads configuration from defaults, the YAML file at path (optional; a missing
// file is not an error), and the environment, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isNotExist(err) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %w", ErrConfiguration, path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// JobEnabled reports whether the named scheduler job is enabled.
func (c *Config) JobEnabled(name string) bool {
	job, ok := c.Scheduler.Jobs[name]
	return ok && job.Enabled
}
