package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Scanner   ScannerConfig   `yaml:"scanner" mapstructure:"scanner"`
	Security  SecurityConfig  `yaml:"security" mapstructure:"security"`
	Settings  SettingsConfig  `yaml:"settings" mapstructure:"settings"`
	Audit     AuditConfig     `yaml:"audit" mapstructure:"audit"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	WebSocket WebSocketConfig `yaml:"websocket" mapstructure:"websocket"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           int           `yaml:"port" mapstructure:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	RateLimit      RateLimit     `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimit contains per-client request rate limiting configuration
type RateLimit struct {
	Enabled        bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
}

// ScannerConfig contains the detection engine tunables.
//
// ChunkSize is the generic extraction chunk size; FileChunkSize is the larger
// chunk used by the chunked file scanner. SmallFileThresholdKB selects the
// whole-read path, and the worker-scale buckets grow the pool with file size.
type ScannerConfig struct {
	ChunkSize            int     `yaml:"chunk_size" mapstructure:"chunk_size"`
	FileChunkSize        int     `yaml:"file_chunk_size" mapstructure:"file_chunk_size"`
	MaxWorkers           int     `yaml:"max_workers" mapstructure:"max_workers"`
	SmallFileThresholdKB int64   `yaml:"small_file_threshold_kb" mapstructure:"small_file_threshold_kb"`
	MediumFileMB         int64   `yaml:"medium_file_mb" mapstructure:"medium_file_mb"`
	LargeFileMB          int64   `yaml:"large_file_mb" mapstructure:"large_file_mb"`
	MinConfidence        float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
}

// SecurityConfig controls what happens when sensitive content is submitted
// through the inspect endpoint.
type SecurityConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // block, log, or passthrough
}

// SettingsConfig configures the identity settings provider
type SettingsConfig struct {
	Source      string                      `yaml:"source" mapstructure:"source"` // static or postgres
	DatabaseURL string                      `yaml:"database_url" mapstructure:"database_url"`
	Cache       SettingsCacheConfig         `yaml:"cache" mapstructure:"cache"`
	Static      map[string]IdentitySettings `yaml:"static" mapstructure:"static"`
}

// SettingsCacheConfig configures the Redis read-through cache for settings
type SettingsCacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	TTL            time.Duration `yaml:"ttl" mapstructure:"ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// IdentitySettings is a statically configured identity for deployments that
// do not use the database-backed settings store.
type IdentitySettings struct {
	ScanEnabled    bool            `yaml:"scan_enabled" mapstructure:"scan_enabled"`
	ScanLevel      string          `yaml:"scan_level" mapstructure:"scan_level"`
	AutoAnonymize  bool            `yaml:"auto_anonymize" mapstructure:"auto_anonymize"`
	CustomPatterns []CustomPattern `yaml:"custom_patterns" mapstructure:"custom_patterns"`
}

// CustomPattern is a user-supplied detection rule
type CustomPattern struct {
	Name       string  `yaml:"name" mapstructure:"name"`
	Pattern    string  `yaml:"pattern" mapstructure:"pattern"`
	Level      string  `yaml:"level" mapstructure:"level"`
	Confidence float64 `yaml:"confidence" mapstructure:"confidence"`
}

// AuditConfig configures the detection-event store
type AuditConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string  `yaml:"level" mapstructure:"level"`
	Format string  `yaml:"format" mapstructure:"format"` // json or console
	File   LogFile `yaml:"file" mapstructure:"file"`
}

// LogFile contains file logging configuration
type LogFile struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Path     string `yaml:"path" mapstructure:"path"`
	MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
	MaxAge   int    `yaml:"max_age" mapstructure:"max_age"`
	Compress bool   `yaml:"compress" mapstructure:"compress"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	Enabled             bool   `yaml:"enabled" mapstructure:"enabled"`
	Path                string `yaml:"path" mapstructure:"path"`
	BroadcastDetections bool   `yaml:"broadcast_detections" mapstructure:"broadcast_detections"`
	BroadcastSystem     bool   `yaml:"broadcast_system" mapstructure:"broadcast_system"`
	BroadcastConnects   bool   `yaml:"broadcast_connections" mapstructure:"broadcast_connections"`
	Username            string `yaml:"username" mapstructure:"username"`
	Password            string `yaml:"password" mapstructure:"password"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxUploadBytes: 64 << 20, // 64MB
			RateLimit: RateLimit{
				Enabled:        true,
				RequestsPerSec: 20,
				Burst:          40,
			},
		},
		Scanner: ScannerConfig{
			ChunkSize:            1000,
			FileChunkSize:        2000,
			MaxWorkers:           4,
			SmallFileThresholdKB: 500,
			MediumFileMB:         1,
			LargeFileMB:          5,
			MinConfidence:        0.7,
		},
		Security: SecurityConfig{
			Mode: "block",
		},
		Settings: SettingsConfig{
			Source: "static",
			Cache: SettingsCacheConfig{
				Enabled:        false,
				RedisURL:       "redis://localhost:6379/0",
				MaxConnections: 10,
				MinIdleConns:   2,
				TTL:            30 * time.Second,
				KeyPrefix:      "dataveil",
			},
			Static: map[string]IdentitySettings{},
		},
		Audit: AuditConfig{
			Enabled:         false,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File: LogFile{
				Enabled:  false,
				Path:     "logs/dataveil.log",
				MaxSize:  100, // MB
				MaxAge:   30,  // days
				Compress: true,
			},
		},
		WebSocket: WebSocketConfig{
			Enabled:             true,
			Path:                "/ws",
			BroadcastDetections: true,
			BroadcastSystem:     true,
			BroadcastConnects:   true,
		},
	}
}
