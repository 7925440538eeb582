package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds all configuration for the server. It is built once at
// startup and passed by reference into each component; nothing reads the
// environment after LoadConfig returns.
type ServerConfig struct {
	HTTPPort string `mapstructure:"HTTP_PORT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	// PublicBaseURL is the externally visible URL of this API; the OAuth
	// redirect URI is derived from it. CDNBaseURL prefixes uploaded media
	// keys in returned URLs.
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
	CDNBaseURL    string `mapstructure:"CDN_BASE_URL"`

	JWTSecret           string `mapstructure:"JWT_SECRET"`
	TwitterClientID     string `mapstructure:"TWITTER_CLIENT_ID"`
	TwitterClientSecret string `mapstructure:"TWITTER_CLIENT_SECRET"`
	// TwitterUsername is the handle of the single allowed admin account
	// (the username, not the display name or numeric id).
	TwitterUsername string `mapstructure:"TWITTER_USERNAME"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	ProjectsCacheTTLHours int `mapstructure:"PROJECTS_CACHE_TTL_HOURS"`
}

// ProjectsCacheTTL returns the TTL for the public projects aggregate.
func (c *ServerConfig) ProjectsCacheTTL() time.Duration {
	return time.Duration(c.ProjectsCacheTTLHours) * time.Hour
}

// RedirectURI returns the OAuth callback URL registered with the provider.
func (c *ServerConfig) RedirectURI() string {
	return c.PublicBaseURL + "/admin/oauth/callback"
}

// LoadConfig reads configuration from an optional yaml file and the
// environment. A missing config file is fine; env vars and defaults apply.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/portfolio/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// AutomaticEnv only resolves keys viper already knows about. The
	// secrets have no defaults, so they must be bound explicitly or an
	// env-only deployment unmarshals them as empty strings.
	for _, key := range []string{
		"JWT_SECRET",
		"TWITTER_CLIENT_ID",
		"TWITTER_CLIENT_SECRET",
		"TWITTER_USERNAME",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_URL", "postgres://localhost:5432/portfolio?sslmode=disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/portfolio_media")
	v.SetDefault("MONGO_DB_NAME", "portfolio_media")
	v.SetDefault("PUBLIC_BASE_URL", "https://phasenull.dev")
	v.SetDefault("CDN_BASE_URL", "https://cdn.phasenull.dev")
	v.SetDefault("CORS_ORIGINS", []string{
		"http://localhost:5173",
		"https://phasenull.dev",
		"https://www.phasenull.dev",
	})
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("PROJECTS_CACHE_TTL_HOURS", 168)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
