package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the persistence settings. Driver is sqlite3 or
// postgres.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Debug  bool   `mapstructure:"debug"`
}

type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
}

// loadViper reads the config file (BANKFEED_CONFIG or ./bankfeed.yaml) with
// BANKFEED_-prefixed env overrides. The "bankfeed" subtree feeds the engine
// config provider; the rest configures this binary.
func loadViper() (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file:bankfeed.db?_foreign_keys=on")
	v.SetDefault("database.debug", false)

	v.SetConfigType("yaml")
	if cfgPath := os.Getenv("BANKFEED_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("bankfeed")
	}

	v.SetEnvPrefix("BANKFEED")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// config file is optional; env and defaults can carry a deployment
	_ = v.ReadInConfig()

	return v, nil
}

func loadAppConfig(v *viper.Viper) (AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if strings.TrimSpace(cfg.Database.Driver) == "" {
		return AppConfig{}, fmt.Errorf("database.driver is required")
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return AppConfig{}, fmt.Errorf("database.dsn is required")
	}
	return cfg, nil
}

// viperRawLoader exposes the engine subtree as the raw config map the cfgx
// provider consumes.
type viperRawLoader struct {
	v *viper.Viper
}

func (l viperRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if l.v == nil {
		return map[string]any{}, nil
	}
	sub := l.v.Sub("bankfeed")
	if sub == nil {
		return map[string]any{}, nil
	}
	return sub.AllSettings(), nil
}

// persistenceConfig adapts DatabaseConfig to the go-persistence-bun config
// contract.
type persistenceConfig struct {
	cfg DatabaseConfig
}

func (c persistenceConfig) GetDebug() bool {
	return c.cfg.Debug
}

func (c persistenceConfig) GetDriver() string {
	return c.cfg.Driver
}

func (c persistenceConfig) GetServer() string {
	return c.cfg.DSN
}

func (c persistenceConfig) GetPingTimeout() time.Duration {
	return 5 * time.Second
}

func (c persistenceConfig) GetOtelIdentifier() string {
	return "go-bankfeed"
}
