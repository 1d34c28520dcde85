// Package config provides centralized configuration management.
//
// Values come from, in increasing precedence: the Default* constructors in
// this file, an optional config.yaml, and environment variables.
package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP and websocket settings.
type ServerConfig struct {
	Port                int     `mapstructure:"port"`
	WSMaxMessagesPerSec float64 `mapstructure:"ws_max_messages_per_sec"` // Inbound frames per connection
	WSMaxConnsPerIP     int     `mapstructure:"ws_max_conns_per_ip"`
	HTTPRequestsPerSec  float64 `mapstructure:"http_requests_per_sec"` // Per-IP limit on /api

	// AllowedOrigins are browser origins accepted for CORS and websocket
	// upgrades. "http://host:*" allows any port, "https://*.host" any subdomain.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:                3000,
		WSMaxMessagesPerSec: 120, // Two moves per tick plus shots at 60 TPS
		WSMaxConnsPerIP:     8,
		HTTPRequestsPerSec:  20,
		AllowedOrigins:      []string{"http://localhost:*", "http://127.0.0.1:*"},
	}
}

// =============================================================================
// MATCH CONFIGURATION
// =============================================================================

// GameConfig holds match timing and capacity.
type GameConfig struct {
	TickIntervalMS int `mapstructure:"tick_interval_ms"`
	RespawnDelayMS int `mapstructure:"respawn_delay_ms"`
	MaxPlayers     int `mapstructure:"max_players"`
}

// DefaultGame returns the default match configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		TickIntervalMS: 16, // ~60 TPS
		RespawnDelayMS: 2000,
		MaxPlayers:     64,
	}
}

// TickInterval returns the tick period.
func (g GameConfig) TickInterval() time.Duration {
	return time.Duration(g.TickIntervalMS) * time.Millisecond
}

// RespawnDelay returns the time a dead player waits.
func (g GameConfig) RespawnDelay() time.Duration {
	return time.Duration(g.RespawnDelayMS) * time.Millisecond
}

// =============================================================================
// JOURNAL & DEBUG
// =============================================================================

// JournalConfig controls the match event journal.
type JournalConfig struct {
	Path    string `mapstructure:"path"`
	Enabled bool   `mapstructure:"enabled"`
}

// DefaultJournal returns the default journal configuration.
func DefaultJournal() JournalConfig {
	return JournalConfig{
		Path:    "events.jsonl",
		Enabled: true,
	}
}

// DebugConfig controls the localhost pprof/metrics server.
type DebugConfig struct {
	Addr     string `mapstructure:"addr"`
	Disabled bool   `mapstructure:"disabled"`
}

// DefaultDebug returns the default debug server configuration.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Addr: "127.0.0.1:6060",
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Journal JournalConfig `mapstructure:"journal"`
	Debug   DebugConfig   `mapstructure:"debug"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Server:  DefaultServer(),
		Game:    DefaultGame(),
		Journal: DefaultJournal(),
		Debug:   DefaultDebug(),
	}
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"server.port":                    "PORT",
	"server.ws_max_messages_per_sec": "WS_MAX_MESSAGES_PER_SEC",
	"server.ws_max_conns_per_ip":     "WS_MAX_CONNS_PER_IP",
	"server.http_requests_per_sec":   "HTTP_REQUESTS_PER_SEC",
	"server.allowed_origins":         "ALLOWED_ORIGINS",
	"game.tick_interval_ms":          "TICK_INTERVAL_MS",
	"game.respawn_delay_ms":          "RESPAWN_DELAY_MS",
	"game.max_players":               "MAX_PLAYERS",
	"journal.path":                   "EVENT_LOG_PATH",
	"journal.enabled":                "EVENT_LOG_ENABLED",
	"debug.addr":                     "DEBUG_ADDR",
	"debug.disabled":                 "DISABLE_DEBUG_SERVER",
}

// Load reads config.yaml from dir (if present) and the environment on top
// of the defaults. An empty dir means the working directory.
func Load(dir string) (AppConfig, error) {
	v := viper.New()
	setDefaults(v, Default())

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return AppConfig{}, errors.Wrapf(err, "bind %s", env)
		}
	}

	if dir == "" {
		dir = "."
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return AppConfig{}, errors.Wrap(err, "read config.yaml")
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d AppConfig) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.ws_max_messages_per_sec", d.Server.WSMaxMessagesPerSec)
	v.SetDefault("server.ws_max_conns_per_ip", d.Server.WSMaxConnsPerIP)
	v.SetDefault("server.http_requests_per_sec", d.Server.HTTPRequestsPerSec)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("game.tick_interval_ms", d.Game.TickIntervalMS)
	v.SetDefault("game.respawn_delay_ms", d.Game.RespawnDelayMS)
	v.SetDefault("game.max_players", d.Game.MaxPlayers)
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("debug.addr", d.Debug.Addr)
	v.SetDefault("debug.disabled", d.Debug.Disabled)
}

// Validate rejects values the server cannot run with.
func (c AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.WSMaxMessagesPerSec <= 0 {
		return errors.Errorf("ws_max_messages_per_sec must be positive, got %v", c.Server.WSMaxMessagesPerSec)
	}
	if c.Server.WSMaxConnsPerIP <= 0 {
		return errors.Errorf("ws_max_conns_per_ip must be positive, got %d", c.Server.WSMaxConnsPerIP)
	}
	if c.Server.HTTPRequestsPerSec <= 0 {
		return errors.Errorf("http_requests_per_sec must be positive, got %v", c.Server.HTTPRequestsPerSec)
	}
	if c.Game.TickIntervalMS <= 0 {
		return errors.Errorf("tick_interval_ms must be positive, got %d", c.Game.TickIntervalMS)
	}
	if c.Game.RespawnDelayMS <= 0 {
		return errors.Errorf("respawn_delay_ms must be positive, got %d", c.Game.RespawnDelayMS)
	}
	if c.Game.MaxPlayers <= 0 {
		return errors.Errorf("max_players must be positive, got %d", c.Game.MaxPlayers)
	}
	return nil
}
