package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // kiosk images often ship without a zoneinfo database

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Mail       MailConfig       `mapstructure:"mail"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // mysql | postgres
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
}

// DSN builds the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.Timezone,
		)
	}
	// Format: user:password@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=UTC
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, strings.ReplaceAll(c.Timezone, "/", "%2F"),
	)
}

// RedisConfig is optional: an empty Addr keeps session locking in-process.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AttendanceConfig struct {
	Timezone        string        `mapstructure:"timezone"`
	ChallengeTTL    time.Duration `mapstructure:"challenge_ttl"`
	ChallengeSecret string        `mapstructure:"challenge_secret"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
	DefaultPolicy   PolicyConfig  `mapstructure:"policy"`
}

// PolicyConfig applies to locations without a stored policy.
type PolicyConfig struct {
	GraceInMinutes  int    `mapstructure:"grace_in_minutes"`
	GraceOutMinutes int    `mapstructure:"grace_out_minutes"`
	Rounding        string `mapstructure:"rounding"`
	ScheduledStart  string `mapstructure:"scheduled_start"`
	ScheduledEnd    string `mapstructure:"scheduled_end"`
	AfterCheckout   string `mapstructure:"after_checkout"`
}

type AggregatorConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RunAt           string        `mapstructure:"run_at"`
	Workers         int           `mapstructure:"workers"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver"` // local | minio
	LocalDir      string `mapstructure:"local_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	MaxWidth      uint   `mapstructure:"max_width"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
}

type MailConfig struct {
	SMTPHost   string   `mapstructure:"smtp_host"`
	SMTPPort   int      `mapstructure:"smtp_port"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	From       string   `mapstructure:"from"`
	Recipients []string `mapstructure:"recipients"`
}

func (m MailConfig) Enabled() bool {
	return m.SMTPHost != "" && len(m.Recipients) > 0
}

// Load reads configuration. Priority: environment > config file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.host", "127.0.0.1")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.name", "pdks")
	v.SetDefault("db.user", "root")
	v.SetDefault("db.password", "")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("attendance.timezone", "Europe/Istanbul")
	v.SetDefault("attendance.challenge_ttl", "20s")
	v.SetDefault("attendance.challenge_secret", "")
	v.SetDefault("attendance.lock_ttl", "10s")
	v.SetDefault("attendance.policy.grace_in_minutes", 10)
	v.SetDefault("attendance.policy.grace_out_minutes", 0)
	v.SetDefault("attendance.policy.rounding", "NONE")
	v.SetDefault("attendance.policy.scheduled_start", "09:00")
	v.SetDefault("attendance.policy.scheduled_end", "18:00")
	v.SetDefault("attendance.policy.after_checkout", "REJECT")

	v.SetDefault("aggregator.enabled", true)
	v.SetDefault("aggregator.run_at", "01:00")
	v.SetDefault("aggregator.workers", 4)
	v.SetDefault("aggregator.cleanup_interval", "5m")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "./uploads")
	v.SetDefault("storage.public_base_url", "/uploads")
	v.SetDefault("storage.max_width", 640)

	v.SetDefault("mail.smtp_port", 587)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PDKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be within 1-65535")
	}
	if c.Database.Driver != "mysql" && c.Database.Driver != "postgres" {
		return fmt.Errorf("config: db.driver must be mysql or postgres")
	}
	if len(c.Attendance.ChallengeSecret) < 16 {
		return fmt.Errorf("config: attendance.challenge_secret must be at least 16 characters")
	}
	if c.Attendance.ChallengeTTL <= 0 {
		return fmt.Errorf("config: attendance.challenge_ttl must be positive")
	}
	if _, err := time.LoadLocation(c.Attendance.Timezone); err != nil {
		return fmt.Errorf("config: attendance.timezone: %w", err)
	}
	p := c.Attendance.DefaultPolicy
	switch p.Rounding {
	case "NONE", "5", "10", "15":
	default:
		return fmt.Errorf("config: attendance.policy.rounding must be NONE, 5, 10 or 15")
	}
	switch p.AfterCheckout {
	case "REJECT", "NEW_SEGMENT":
	default:
		return fmt.Errorf("config: attendance.policy.after_checkout must be REJECT or NEW_SEGMENT")
	}
	for _, hhmm := range []string{p.ScheduledStart, p.ScheduledEnd, c.Aggregator.RunAt} {
		if _, err := time.Parse("15:04", hhmm); err != nil {
			return fmt.Errorf("config: %q is not HH:MM", hhmm)
		}
	}
	start, _ := time.Parse("15:04", p.ScheduledStart)
	end, _ := time.Parse("15:04", p.ScheduledEnd)
	if !end.After(start) {
		return fmt.Errorf("config: attendance.policy.scheduled_end must be after scheduled_start")
	}
	if c.Storage.Driver != "local" && c.Storage.Driver != "minio" {
		return fmt.Errorf("config: storage.driver must be local or minio")
	}
	return nil
}

// Location is the timezone work dates are computed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Attendance.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper function to get environment variable with fallback default value
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get environment variable as integer with fallback
func GetEnvAsInt(key string, fallback int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
