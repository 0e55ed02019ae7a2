package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL    string
	LogLevel       string
	Port           string
	PrometheusPort string

	TokenSecret  string
	TokenTime    time.Duration
	DefaultGroup string

	TelegramToken  string
	TelegramChatID int64
	TelegramGroup  string

	// Bootstrap administrator, created on serve when all three are set
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	EventQueueSize int

	LDAP LDAPConfig
}

// LDAPConfig holds the directory authentication settings
type LDAPConfig struct {
	Enabled        bool
	ServerURL      string
	TLSInsecure    bool
	TLSCACertFile  string
	EnableStartTLS bool
	BaseDN         string
	QueryBind      string
	QueryPassword  string
	UserFilter     string
	AdminFilter    string
	IDAttribute    string
	NameAttribute  string
	MailAttribute  string
	Timeout        time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	var err error
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		Port:           getEnvOrDefault("PORT", "8080"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),
		DefaultGroup:   getEnvOrDefault("DEFAULT_GROUP", "Home"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramGroup:  getEnvOrDefault("TELEGRAM_GROUP", getEnvOrDefault("DEFAULT_GROUP", "Home")),
		AdminUsername:  os.Getenv("ADMIN_USERNAME"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
	}

	// Required environment variables
	if cfg.TokenSecret = os.Getenv("TOKEN_SECRET"); cfg.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET environment variable is required")
	}

	tokenHours, err := getEnvInt("TOKEN_TIME", 48)
	if err != nil {
		return nil, err
	}
	cfg.TokenTime = time.Duration(tokenHours) * time.Hour

	if cfg.EventQueueSize, err = getEnvInt("EVENT_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		if cfg.TelegramChatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer: %w", err)
		}
	}

	if cfg.LDAP, err = loadLDAP(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HasAdmin reports whether a bootstrap administrator is configured
func (c *Config) HasAdmin() bool {
	return c.AdminUsername != "" && c.AdminEmail != "" && c.AdminPassword != ""
}

func loadLDAP() (LDAPConfig, error) {
	var err error
	l := LDAPConfig{
		ServerURL:     os.Getenv("LDAP_SERVER_URL"),
		TLSCACertFile: os.Getenv("LDAP_TLS_CACERTFILE"),
		BaseDN:        os.Getenv("LDAP_BASE_DN"),
		QueryBind:     os.Getenv("LDAP_QUERY_BIND"),
		QueryPassword: os.Getenv("LDAP_QUERY_PASSWORD"),
		UserFilter:    os.Getenv("LDAP_USER_FILTER"),
		AdminFilter:   os.Getenv("LDAP_ADMIN_FILTER"),
		IDAttribute:   getEnvOrDefault("LDAP_ID_ATTRIBUTE", "uid"),
		NameAttribute: getEnvOrDefault("LDAP_NAME_ATTRIBUTE", "name"),
		MailAttribute: getEnvOrDefault("LDAP_MAIL_ATTRIBUTE", "mail"),
	}

	if l.Enabled, err = getEnvBool("LDAP_AUTH_ENABLED", false); err != nil {
		return l, err
	}
	if l.TLSInsecure, err = getEnvBool("LDAP_TLS_INSECURE", false); err != nil {
		return l, err
	}
	if l.EnableStartTLS, err = getEnvBool("LDAP_ENABLE_STARTTLS", false); err != nil {
		return l, err
	}
	timeout, err := getEnvInt("LDAP_TIMEOUT", 10)
	if err != nil {
		return l, err
	}
	l.Timeout = time.Duration(timeout) * time.Second

	if !l.Enabled {
		return l, nil
	}

	var missing []string
	if l.ServerURL == "" {
		missing = append(missing, "LDAP_SERVER_URL")
	}
	if l.BaseDN == "" {
		missing = append(missing, "LDAP_BASE_DN")
	}
	if l.UserFilter == "" {
		missing = append(missing, "LDAP_USER_FILTER")
	}
	if len(missing) > 0 {
		return l, fmt.Errorf("LDAP_AUTH_ENABLED requires %s", strings.Join(missing, ", "))
	}
	return l, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}
