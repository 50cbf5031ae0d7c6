package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Paymentez PaymentezConfig `yaml:"paymentez"`
	Mail      MailConfig      `yaml:"mail"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Business  BusinessConfig  `yaml:"business"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type JWTConfig struct {
	Secret        string `yaml:"secret"`
	ExpiryMinutes int    `yaml:"expiry_minutes"`
}

// PaymentezConfig holds the server credentials used for REST calls and the
// client credentials handed to the checkout widget.
type PaymentezConfig struct {
	BaseURL       string `yaml:"base_url"`
	ServerAppCode string `yaml:"server_app_code"`
	ServerAppKey  string `yaml:"server_app_key"`
	ClientAppCode string `yaml:"client_app_code"`
	ClientAppKey  string `yaml:"client_app_key"`
	Currency      string `yaml:"currency"`
	Environment   string `yaml:"environment"` // "stg" or "prod"
}

type MailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	SendIntervalMs int    `yaml:"send_interval_ms"`
	Burst          int    `yaml:"burst"`
}

func (m MailConfig) SendInterval() time.Duration {
	return time.Duration(m.SendIntervalMs) * time.Millisecond
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

type RedisConfig struct {
	Addr           string `yaml:"addr"`
	Password       string `yaml:"password"`
	DB             int    `yaml:"db"`
	CartTTLMinutes int    `yaml:"cart_ttl_minutes"`
}

func (r RedisConfig) CartTTL() time.Duration {
	return time.Duration(r.CartTTLMinutes) * time.Minute
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

type SchedulerConfig struct {
	ReviewReminders string `yaml:"review_reminders"`
}

type BusinessConfig struct {
	HotelPickupFee   string `yaml:"hotel_pickup_fee"`
	RefundCutoffHour int    `yaml:"refund_cutoff_hour"`
	Timezone         string `yaml:"timezone"`
	FrontendURL      string `yaml:"frontend_url"`
}

// Location resolves the business timezone, falling back to a fixed UTC-5 zone
// when tzdata is unavailable.
func (b BusinessConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.FixedZone("ECT", -5*60*60)
	}
	return loc
}

type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads .env, the optional YAML file at configPath, then applies
// environment overrides and defaults.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) overrideWithEnv() {
	// Server
	if val := os.Getenv("PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		c.Server.AllowedOrigins = splitList(val)
	}

	// Database
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.Database.URL = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Paymentez
	if val := os.Getenv("PAYMENTEZ_BASE_URL"); val != "" {
		c.Paymentez.BaseURL = val
	}
	if val := os.Getenv("PAYMENTEZ_SERVER_APP_CODE"); val != "" {
		c.Paymentez.ServerAppCode = val
	}
	if val := os.Getenv("PAYMENTEZ_SERVER_APP_KEY"); val != "" {
		c.Paymentez.ServerAppKey = val
	}
	if val := os.Getenv("PAYMENTEZ_CLIENT_APP_CODE"); val != "" {
		c.Paymentez.ClientAppCode = val
	}
	if val := os.Getenv("PAYMENTEZ_CLIENT_APP_KEY"); val != "" {
		c.Paymentez.ClientAppKey = val
	}
	if val := os.Getenv("PAYMENTEZ_ENVIRONMENT"); val != "" {
		c.Paymentez.Environment = val
	}

	// Mail
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Mail.SendGridAPIKey = val
	}
	if val := os.Getenv("SENDGRID_FROM_EMAIL"); val != "" {
		c.Mail.FromEmail = val
	}
	if val := os.Getenv("SENDGRID_FROM_NAME"); val != "" {
		c.Mail.FromName = val
	}
	if val := os.Getenv("MAIL_SEND_INTERVAL_MS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Mail.SendIntervalMs)
	}

	// Twilio
	if val := os.Getenv("TWILIO_ACCOUNT_SID"); val != "" {
		c.Twilio.AccountSID = val
	}
	if val := os.Getenv("TWILIO_AUTH_TOKEN"); val != "" {
		c.Twilio.AuthToken = val
	}
	if val := os.Getenv("TWILIO_FROM_NUMBER"); val != "" {
		c.Twilio.FromNumber = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Kafka
	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Kafka.Brokers = splitList(val)
	}
	if val := os.Getenv("KAFKA_TOPIC"); val != "" {
		c.Kafka.Topic = val
	}

	// Business
	if val := os.Getenv("HOTEL_PICKUP_FEE"); val != "" {
		c.Business.HotelPickupFee = val
	}
	if val := os.Getenv("FRONTEND_URL"); val != "" {
		c.Business.FrontendURL = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

// Validate fills defaults and rejects values the service cannot run with.
func (c *Config) Validate() error {
	// Primero rechazamos, los valores por defecto solo se aplican si todo es válido
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Mail.SendIntervalMs < 0 {
		return fmt.Errorf("invalid mail send interval: %d", c.Mail.SendIntervalMs)
	}
	if c.Business.RefundCutoffHour < 0 || c.Business.RefundCutoffHour > 23 {
		return fmt.Errorf("invalid refund cutoff hour: %d", c.Business.RefundCutoffHour)
	}
	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.JWT.ExpiryMinutes == 0 {
		c.JWT.ExpiryMinutes = 60
	}

	if c.Paymentez.BaseURL == "" {
		if c.Paymentez.Environment == "prod" {
			c.Paymentez.BaseURL = "https://ccapi.paymentez.com"
		} else {
			c.Paymentez.BaseURL = "https://ccapi-stg.paymentez.com"
		}
	}
	if c.Paymentez.Currency == "" {
		c.Paymentez.Currency = "USD"
	}

	if c.Mail.SendIntervalMs == 0 {
		c.Mail.SendIntervalMs = 600
	}
	if c.Mail.Burst <= 0 {
		c.Mail.Burst = 1
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = "Galápagos Rentals"
	}

	if c.Redis.CartTTLMinutes == 0 {
		c.Redis.CartTTLMinutes = 7 * 24 * 60
	}
	if c.Scheduler.ReviewReminders == "" {
		c.Scheduler.ReviewReminders = "0 0 9 * * *"
	}

	if c.Business.HotelPickupFee == "" {
		c.Business.HotelPickupFee = "5"
	}
	if c.Business.RefundCutoffHour == 0 {
		c.Business.RefundCutoffHour = 17
	}
	if c.Business.Timezone == "" {
		c.Business.Timezone = "America/Guayaquil"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
