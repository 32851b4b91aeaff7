// Package config loads emu-alert settings from the process environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "EMU_ALERT"

	EnvBotToken = "EMU_ALERT_TG_BOT_TOKEN"
	EnvChatID   = "EMU_ALERT_TG_CHAT_ID"
	EnvAPIURL   = "EMU_ALERT_TG_API_URL"
	EnvTimeout  = "EMU_ALERT_TG_TIMEOUT"
	EnvLogLevel = "EMU_ALERT_LOG_LEVEL"

	DefaultAPIURL   = "https://api.telegram.org"
	DefaultTimeout  = 10 * time.Second
	DefaultLogLevel = "warn"
)

// Config holds everything a single invocation needs.
type Config struct {
	BotToken string        `validate:"required"`
	ChatID   string        `validate:"required"`
	APIURL   string        `validate:"required,url"`
	Timeout  time.Duration `validate:"gt=0"`
	LogLevel string        `validate:"oneof=debug info warn warning error"`
}

// envByField maps Config fields to the variable that feeds them.
var envByField = map[string]string{
	"BotToken": EnvBotToken,
	"ChatID":   EnvChatID,
	"APIURL":   EnvAPIURL,
	"Timeout":  EnvTimeout,
	"LogLevel": EnvLogLevel,
}

// MissingError reports a required environment variable that is unset or empty.
type MissingError struct {
	Var string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s is not set in the environment", e.Var)
}

// ErrInvalid wraps values that are present but unusable.
var ErrInvalid = errors.New("invalid configuration")

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set keep their values.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment and validates it.
// Required values are checked in order: bot token first, then chat ID.
func Load() (*Config, error) {
	cfg, timeoutErr := read()

	err := cfg.Validate()
	var missing *MissingError
	if errors.As(err, &missing) {
		return nil, err
	}
	if timeoutErr != nil {
		return nil, timeoutErr
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPartial reads the configuration without requiring credentials.
// Values that are present are normalized the same way Load does; nothing
// is validated.
func LoadPartial() *Config {
	cfg, _ := read()
	return cfg
}

func read() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("tg.api_url", DefaultAPIURL)
	v.SetDefault("tg.timeout", DefaultTimeout.String())
	v.SetDefault("log.level", DefaultLogLevel)

	cfg := &Config{
		BotToken: strings.TrimSpace(v.GetString("tg.bot_token")),
		ChatID:   strings.TrimSpace(v.GetString("tg.chat_id")),
		APIURL:   strings.TrimRight(strings.TrimSpace(v.GetString("tg.api_url")), "/"),
		LogLevel: strings.ToLower(strings.TrimSpace(v.GetString("log.level"))),
	}

	timeout, err := parseTimeout(v.GetString("tg.timeout"))
	cfg.Timeout = timeout
	return cfg, err
}

func parseTimeout(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalid, EnvTimeout, err)
	}
	return d, nil
}

// Validate checks the struct tags. The first failing field wins, in
// declaration order, and a failed "required" rule yields a *MissingError.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	first := verrs[0]
	name := envByField[first.StructField()]
	if first.Tag() == "required" {
		return &MissingError{Var: name}
	}
	return fmt.Errorf("%w: %s: failed %q rule (value %v)", ErrInvalid, name, first.Tag(), first.Value())
}
