package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
)

// DefaultVitalzBaseURL is the public Vitalz backend
const DefaultVitalzBaseURL = "https://exam-vitalz-backend-8267f8929b82.herokuapp.com/api"

// HTTPDisabled turns the HTTP surface off when used as HTTP_PORT
const HTTPDisabled = "off"

type Config struct {
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN" validate:"required"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	Location      *time.Location
	Vitalz        VitalzConfig
	DB            DBConfig
	Redis         RedisConfig
	HTTP          HTTPConfig
	Logger        LoggerConfig
}

type VitalzConfig struct {
	BaseURL     string        `env:"VITALZ_BASE_URL" validate:"required,url"`
	Timeout     time.Duration `env:"VITALZ_TIMEOUT" validate:"gt=0"`
	JoinTimeout time.Duration `env:"VITALZ_JOIN_TIMEOUT" validate:"gt=0"`
	// StatisticsDate is the default date for statistics; empty means today.
	StatisticsDate string `env:"VITALZ_STATISTICS_DATE" validate:"omitempty,datetime=2006-01-02"`
}

type DBConfig struct {
	Driver   string `env:"DB_DRIVER" validate:"oneof=postgres sqlite"`
	Host     string `env:"DB_HOST" validate:"required_if=Driver postgres"`
	Port     string `env:"DB_PORT" validate:"required_if=Driver postgres"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	DBName   string `env:"DB_NAME" validate:"required_if=Driver postgres"`
	Path     string `env:"DB_PATH" validate:"required_if=Driver sqlite"`
}

type RedisConfig struct {
	Host string `env:"REDIS_HOST"`
	Port string `env:"REDIS_PORT" validate:"required_with=Host"`
}

// Enabled reports whether chat state should live in Redis
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type HTTPConfig struct {
	Port           string `env:"HTTP_PORT" validate:"required"`
	AllowedOrigins []string
}

// Enabled reports whether the HTTP surface should be started
func (c HTTPConfig) Enabled() bool {
	return !strings.EqualFold(c.Port, HTTPDisabled)
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string `env:"LOG_OUTPUT"`
	Format     string `env:"LOG_FORMAT" validate:"oneof=json text"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("env")
	})
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration, problems *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*problems = append(*problems, fmt.Errorf("%s: invalid duration %q", key, raw))
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads the configuration from the environment and validates it
func Load() (*Config, error) {
	var problems []error

	tz := getEnvOrDefault("TZ", "UTC")
	location, err := time.LoadLocation(tz)
	if err != nil {
		problems = append(problems, fmt.Errorf("TZ: unknown time zone %q", tz))
		location = time.UTC
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		Location:      location,
		Vitalz: VitalzConfig{
			BaseURL:        strings.TrimRight(getEnvOrDefault("VITALZ_BASE_URL", DefaultVitalzBaseURL), "/"),
			Timeout:        getDurationOrDefault("VITALZ_TIMEOUT", 10*time.Second, &problems),
			JoinTimeout:    getDurationOrDefault("VITALZ_JOIN_TIMEOUT", 20*time.Second, &problems),
			StatisticsDate: os.Getenv("VITALZ_STATISTICS_DATE"),
		},
		DB: DBConfig{
			Driver:   strings.ToLower(getEnvOrDefault("DB_DRIVER", "sqlite")),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "vitalz_dashboard"),
			Path:     getEnvOrDefault("DB_PATH", "data/vitalz.db"),
		},
		Redis: RedisConfig{
			Host: os.Getenv("REDIS_HOST"),
			Port: getEnvOrDefault("REDIS_PORT", "6379"),
		},
		HTTP: HTTPConfig{
			Port:           getEnvOrDefault("HTTP_PORT", "8080"),
			AllowedOrigins: splitList(getEnvOrDefault("HTTP_ALLOWED_ORIGINS", "*")),
		},
		Logger: LoggerConfig{
			Level:      logger.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		problems = append(problems, err)
	}
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}
	return cfg, nil
}

// Validate checks field constraints and reports every violation at once
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	problems := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Errorf("%s: failed %q check", fe.Field(), describeTag(fe)))
	}
	return errors.Join(problems...)
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// DefaultStatisticsDate returns the configured statistics date, or today
// in loc when none is configured.
func (c VitalzConfig) DefaultStatisticsDate(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if c.StatisticsDate != "" {
		if d, err := time.ParseInLocation("2006-01-02", c.StatisticsDate, loc); err == nil {
			return d
		}
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
