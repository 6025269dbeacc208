package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PITCH"

type Config struct {
	HTTP     HTTPConfig     `yaml:"http" envconfig:"HTTP"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Redis    RedisConfig    `yaml:"redis" envconfig:"REDIS"`
	Kafka    KafkaConfig    `yaml:"kafka" envconfig:"KAFKA"`
	Engine   EngineConfig   `yaml:"engine" envconfig:"ENGINE"`
	Push     PushConfig     `yaml:"push" envconfig:"PUSH"`
	Log      LogConfig      `yaml:"log" envconfig:"LOG"`
}

type HTTPConfig struct {
	Address string `yaml:"address" split_words:"true"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" split_words:"true"`
	Port     int    `yaml:"port" split_words:"true"`
	User     string `yaml:"user" split_words:"true"`
	Password string `yaml:"password" split_words:"true"`
	Name     string `yaml:"name" split_words:"true"`
	SSLMode  string `yaml:"ssl_mode" split_words:"true"`

	// AutoMigrate applies the embedded schema migrations on startup.
	AutoMigrate bool `yaml:"auto_migrate" split_words:"true"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// MigrationURL is the database URL in the form the migration driver expects.
func (d DatabaseConfig) MigrationURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `yaml:"addr" split_words:"true"`
	Password string `yaml:"password" split_words:"true"`
	DB       int    `yaml:"db" split_words:"true"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" split_words:"true"`
	BookingEventsTopic string   `yaml:"booking_events_topic" split_words:"true"`
	AlertsTopic        string   `yaml:"alerts_topic" split_words:"true"`
	RewardsTopic       string   `yaml:"rewards_topic" split_words:"true"`
	GroupID            string   `yaml:"group_id" split_words:"true"`
}

// EngineConfig holds the reminder/loyalty timings. Durations are given in seconds.
// Leaf fields read PITCH_<SECTION>_<FIELD> env vars, e.g. PITCH_ENGINE_TOAST_TTL_SECONDS.
type EngineConfig struct {
	ReminderIntervalSeconds int    `yaml:"reminder_interval_seconds" split_words:"true"`
	LoyaltyIntervalSeconds  int    `yaml:"loyalty_interval_seconds" split_words:"true"`
	ToastTTLSeconds         int    `yaml:"toast_ttl_seconds" split_words:"true"`
	InboxLimit              int    `yaml:"inbox_limit" split_words:"true"`
	VenuesCacheTTLSeconds   int    `yaml:"venues_cache_ttl_seconds" split_words:"true"`
	TickLockSeconds         int    `yaml:"tick_lock_seconds" split_words:"true"`
	Timezone                string `yaml:"timezone" split_words:"true"`
	InstanceID              string `yaml:"instance_id" split_words:"true"`
}

// PushConfig throttles device pushes per user.
type PushConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second" split_words:"true"`
	Burst         int     `yaml:"burst" split_words:"true"`
}

func (e EngineConfig) ReminderInterval() time.Duration {
	return time.Duration(e.ReminderIntervalSeconds) * time.Second
}

func (e EngineConfig) LoyaltyInterval() time.Duration {
	return time.Duration(e.LoyaltyIntervalSeconds) * time.Second
}

func (e EngineConfig) ToastTTL() time.Duration {
	return time.Duration(e.ToastTTLSeconds) * time.Second
}

func (e EngineConfig) VenuesCacheTTL() time.Duration {
	return time.Duration(e.VenuesCacheTTLSeconds) * time.Second
}

func (e EngineConfig) TickLockTTL() time.Duration {
	return time.Duration(e.TickLockSeconds) * time.Second
}

// Instance names this engine process for per-device state. It falls back to
// the hostname and returns "" when neither is known.
func (e EngineConfig) Instance() string {
	if e.InstanceID != "" {
		return e.InstanceID
	}
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}

// Location resolves the timezone bookings are scheduled in.
func (e EngineConfig) Location() (*time.Location, error) {
	if e.Timezone == "" || e.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

type LogConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "pitchbooking-engine"
	}
	if c.Engine.ReminderIntervalSeconds <= 0 {
		c.Engine.ReminderIntervalSeconds = 60
	}
	if c.Engine.LoyaltyIntervalSeconds <= 0 {
		c.Engine.LoyaltyIntervalSeconds = 300
	}
	if c.Engine.ToastTTLSeconds <= 0 {
		c.Engine.ToastTTLSeconds = 5
	}
	if c.Engine.InboxLimit <= 0 {
		c.Engine.InboxLimit = 50
	}
	if c.Engine.VenuesCacheTTLSeconds <= 0 {
		c.Engine.VenuesCacheTTLSeconds = 300
	}
	if c.Engine.TickLockSeconds <= 0 {
		c.Engine.TickLockSeconds = 55
	}
	if c.Push.RatePerSecond <= 0 {
		c.Push.RatePerSecond = 1
	}
	if c.Push.Burst <= 0 {
		c.Push.Burst = 3
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
