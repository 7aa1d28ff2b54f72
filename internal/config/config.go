// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host       string `mapstructure:"host"`
		Port       string `mapstructure:"port"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		Name       string `mapstructure:"name"`
		SSLMode    string `mapstructure:"sslmode"`
		SearchPath string `mapstructure:"schema"`
	} `mapstructure:"db"`
	JWT struct {
		Secret       string        `mapstructure:"secret"`
		Issuer       string        `mapstructure:"issuer"`
		ExpiryPeriod time.Duration `mapstructure:"expiry_period"`
	} `mapstructure:"jwt"`
	Server struct {
		Port         string        `mapstructure:"port"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"server"`
	Email struct {
		Provider string `mapstructure:"provider"`
		FromName string `mapstructure:"from_name"`
	} `mapstructure:"email"`
	Sendgrid struct {
		APIKey string `mapstructure:"api_key"`
		From   string `mapstructure:"from"`
	} `mapstructure:"sendgrid"`
	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`
	Invitation struct {
		SweepSchedule string `mapstructure:"sweep_schedule"`
	} `mapstructure:"invitation"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	BaseURL string `mapstructure:"base_url"`
}

// DSN returns the PostgreSQL connection string for the configured database.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
		c.Database.Name, c.Database.SSLMode, c.Database.SearchPath,
	)
}

// Load reads configuration from defaults, an optional file named by
// CONFIG_FILE, and the environment, in increasing order of precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// DB_HOST maps to db.host, SMTP_PORT to smtp.port and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Database configuration
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "orgaccess")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.schema", "public")

	// JWT configuration
	v.SetDefault("jwt.secret", "your-secret-key")
	v.SetDefault("jwt.issuer", "")
	v.SetDefault("jwt.expiry_period", 24*time.Hour)

	// Server configuration
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	// Email configuration
	v.SetDefault("email.provider", "sendgrid")
	v.SetDefault("email.from_name", "Orgaccess")
	v.SetDefault("sendgrid.api_key", "")
	v.SetDefault("sendgrid.from", "")
	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 25)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")

	// An empty schedule disables the background sweep.
	v.SetDefault("invitation.sweep_schedule", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("config_file", "")
}
