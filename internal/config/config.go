package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Airtable   Airtable   `mapstructure:"airtable"`
	MarketData MarketData `mapstructure:"marketdata"`
	Auth       Auth       `mapstructure:"auth"`
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
}

// Airtable holds the configuration for the remote transactions table.
// The API key is normally supplied through the environment (AIRTABLE_API_KEY)
// rather than written into the config file.
type Airtable struct {
	ApiKey  string `mapstructure:"api_key"`
	BaseID  string `mapstructure:"base_id"`
	Table   string `mapstructure:"table"`
	BaseURL string `mapstructure:"base_url"`
}

// MarketData holds the configuration for the historical price provider.
type MarketData struct {
	ApiKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	MarketSuffix   string  `mapstructure:"market_suffix"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Auth holds the login gate configuration: bcrypt-hashed credentials plus
// the session cookie settings.
type Auth struct {
	CookieName string            `mapstructure:"cookie_name"`
	CookieKey  string            `mapstructure:"cookie_key"`
	ExpiryDays int               `mapstructure:"expiry_days"`
	Users      map[string]string `mapstructure:"users"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the session database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file, so secrets like
	// AIRTABLE_API_KEY never have to live on disk.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("airtable.base_url", "https://api.airtable.com/v0")
	viper.SetDefault("marketdata.base_url", "https://eodhd.com/api")
	viper.SetDefault("marketdata.market_suffix", ".AX")
	viper.SetDefault("marketdata.rate_limit", 5) // requests per second
	viper.SetDefault("marketdata.rate_limit_burst", 2)
	viper.SetDefault("auth.cookie_name", "portfolio_session")
	viper.SetDefault("auth.expiry_days", 30)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "sessions.db")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
