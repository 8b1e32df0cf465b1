package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Demo     bool           `yaml:"demo_mode"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Database DatabaseConfig `yaml:"database"`
	Mail     MailConfig     `yaml:"mail"`
	Sending  SendingConfig  `yaml:"sending"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// SupabaseConfig holds the external lead store (PostgREST) settings.
type SupabaseConfig struct {
	URL            string `yaml:"url"`
	AnonKey        string `yaml:"anon_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SupabaseConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Configured reports whether the URL/key pair is usable. Placeholder values
// from a template .env are treated as unconfigured.
func (c SupabaseConfig) Configured() bool {
	return c.URL != "" && c.AnonKey != "" &&
		c.URL != "your-project-url" && c.AnonKey != "your-anon-key"
}

// DatabaseConfig holds the direct Postgres connection for self-hosted setups.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// MailConfig holds the credential sets for every supported transport plus
// the sender identity. Exactly one transport is picked at startup.
type MailConfig struct {
	FromEmail string         `yaml:"from_email"`
	FromName  string         `yaml:"from_name"`
	Mailtrap  MailtrapConfig `yaml:"mailtrap"`
	SMTP      SMTPConfig     `yaml:"smtp"`
	Gmail     GmailConfig    `yaml:"gmail"`
	SES       SESConfig      `yaml:"ses"`
}

// MailtrapConfig holds the sandbox relay credentials (development only).
type MailtrapConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// Configured reports whether the sandbox relay can be used.
func (c MailtrapConfig) Configured() bool { return c.User != "" && c.Pass != "" }

// SMTPConfig holds generic SMTP relay settings.
type SMTPConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Pass   string `yaml:"pass"`
	Secure bool   `yaml:"secure"`
}

// Configured reports whether the generic relay can be used.
func (c SMTPConfig) Configured() bool { return c.Host != "" && c.User != "" }

// GmailConfig holds consumer SMTP (app password) settings.
type GmailConfig struct {
	User        string `yaml:"user"`
	AppPassword string `yaml:"app_password"`
}

// Configured reports whether the consumer relay can be used.
func (c GmailConfig) Configured() bool { return c.User != "" && c.AppPassword != "" }

// SESConfig holds AWS SES API configuration
type SESConfig struct {
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Configured reports whether SES is the intended transport. Having only an
// access key still counts; the dispatcher surfaces the missing secret as a
// configuration error at boot rather than silently simulating.
func (c SESConfig) Configured() bool { return c.AccessKey != "" || c.SecretKey != "" }

// SendingConfig controls the bulk-send loop.
type SendingConfig struct {
	BulkDelayMillis int `yaml:"bulk_delay_millis"`
}

// BulkDelay returns the fixed pause between sequential bulk sends.
func (c SendingConfig) BulkDelay() time.Duration {
	return time.Duration(c.BulkDelayMillis) * time.Millisecond
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Supabase.TimeoutSeconds == 0 {
		c.Supabase.TimeoutSeconds = 30
	}
	if c.Mail.FromEmail == "" {
		c.Mail.FromEmail = "noreply@sales-automator.io"
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = "Sales Automator"
	}
	if c.Mail.Mailtrap.Host == "" {
		c.Mail.Mailtrap.Host = "sandbox.smtp.mailtrap.io"
	}
	if c.Mail.Mailtrap.Port == 0 {
		c.Mail.Mailtrap.Port = 2525
	}
	if c.Mail.SMTP.Port == 0 {
		c.Mail.SMTP.Port = 587
	}
	if c.Mail.SES.Region == "" {
		c.Mail.SES.Region = "us-east-1"
	}
	if c.Mail.SES.TimeoutSeconds == 0 {
		c.Mail.SES.TimeoutSeconds = 30
	}
	if c.Sending.BulkDelayMillis == 0 {
		c.Sending.BulkDelayMillis = 1000
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
// A missing config file is not an error: env vars alone are enough.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{}
		cfg.applyDefaults()
	}

	if v := os.Getenv("DEMO_MODE"); v != "" {
		cfg.Demo, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		cfg.Supabase.AnonKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("MAILTRAP_USER"); v != "" {
		cfg.Mail.Mailtrap.User = v
	}
	if v := os.Getenv("MAILTRAP_PASS"); v != "" {
		cfg.Mail.Mailtrap.Pass = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Mail.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Mail.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.Mail.SMTP.User = v
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		cfg.Mail.SMTP.Pass = v
	}
	if v := os.Getenv("SMTP_SECURE"); v != "" {
		cfg.Mail.SMTP.Secure, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("GMAIL_USER"); v != "" {
		cfg.Mail.Gmail.User = v
	}
	if v := os.Getenv("GMAIL_APP_PASSWORD"); v != "" {
		cfg.Mail.Gmail.AppPassword = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Mail.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Mail.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Mail.SES.Region = v
	}
	if v := os.Getenv("AWS_SES_FROM_EMAIL"); v != "" {
		cfg.Mail.FromEmail = v
	}

	return cfg, nil
}
