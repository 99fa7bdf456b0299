package config

import (
	"github.com/spf13/viper"

	"github.com/leefowlercu/imagedrop/internal/minify"
)

// Default configuration values.
const (
	DefaultLogLevel = "info"
	DefaultLogFile  = "~/.config/imagedrop/imagedrop.log"

	DefaultMinifyEnabled   = false
	DefaultMinifyMaxWidth  = minify.DefaultMaxWidth
	DefaultMinifyMaxHeight = minify.DefaultMaxHeight
	DefaultMinifyQuality   = minify.DefaultQuality

	DefaultProbeTimeoutMs       = 3000
	DefaultProbeRateLimit       = 5.0
	DefaultProbeBurst           = 5
	DefaultProbeCacheTTLSeconds = 300
	DefaultProbeMaxBytes        = 20 << 20
	DefaultProbeUserAgent       = ""
	DefaultProbeRedisAddr       = ""
	DefaultProbeRedisDB         = 0

	DefaultServerBind            = "127.0.0.1"
	DefaultServerPort            = 7610
	DefaultServerMaxBodyBytes    = 32 << 20
	DefaultServerShutdownTimeout = 10
	DefaultServerPIDFile         = "~/.config/imagedrop/imagedrop.pid"
	DefaultServerMCPEnabled      = true
	DefaultServerMCPPath         = "/mcp"
	DefaultServerEventsEnabled   = true
	DefaultServerAuthSecret      = ""

	DefaultWatchDebounceMs   = 500
	DefaultWatchMaxFileBytes = 32 << 20
	DefaultWatchNotify       = false

	DefaultMetricsCollectionInterval = 15
)

// NewDefaultConfig returns a Config populated with defaults.
func NewDefaultConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		LogFile:  DefaultLogFile,
		Minify: MinifyConfig{
			Enabled:   DefaultMinifyEnabled,
			MaxWidth:  DefaultMinifyMaxWidth,
			MaxHeight: DefaultMinifyMaxHeight,
			Quality:   DefaultMinifyQuality,
		},
		Probe: ProbeConfig{
			TimeoutMs:       DefaultProbeTimeoutMs,
			RateLimit:       DefaultProbeRateLimit,
			Burst:           DefaultProbeBurst,
			CacheTTLSeconds: DefaultProbeCacheTTLSeconds,
			MaxBytes:        DefaultProbeMaxBytes,
			UserAgent:       DefaultProbeUserAgent,
			RedisAddr:       DefaultProbeRedisAddr,
			RedisDB:         DefaultProbeRedisDB,
		},
		Server: ServerConfig{
			Bind:            DefaultServerBind,
			Port:            DefaultServerPort,
			MaxBodyBytes:    DefaultServerMaxBodyBytes,
			ShutdownTimeout: DefaultServerShutdownTimeout,
			PIDFile:         DefaultServerPIDFile,
			MCPEnabled:      DefaultServerMCPEnabled,
			MCPPath:         DefaultServerMCPPath,
			EventsEnabled:   DefaultServerEventsEnabled,
			AuthSecret:      DefaultServerAuthSecret,
		},
		Watch: WatchConfig{
			Dirs:         []string{},
			DebounceMs:   DefaultWatchDebounceMs,
			MaxFileBytes: DefaultWatchMaxFileBytes,
			Notify:       DefaultWatchNotify,
		},
		Metrics: MetricsConfig{
			CollectionInterval: DefaultMetricsCollectionInterval,
		},
	}
}

// setViperDefaults registers all default configuration values with a viper instance.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", DefaultLogFile)

	v.SetDefault("minify.enabled", DefaultMinifyEnabled)
	v.SetDefault("minify.max_width", DefaultMinifyMaxWidth)
	v.SetDefault("minify.max_height", DefaultMinifyMaxHeight)
	v.SetDefault("minify.quality", DefaultMinifyQuality)

	v.SetDefault("probe.timeout_ms", DefaultProbeTimeoutMs)
	v.SetDefault("probe.rate_limit", DefaultProbeRateLimit)
	v.SetDefault("probe.burst", DefaultProbeBurst)
	v.SetDefault("probe.cache_ttl_seconds", DefaultProbeCacheTTLSeconds)
	v.SetDefault("probe.max_bytes", DefaultProbeMaxBytes)
	v.SetDefault("probe.user_agent", DefaultProbeUserAgent)
	v.SetDefault("probe.redis_addr", DefaultProbeRedisAddr)
	v.SetDefault("probe.redis_db", DefaultProbeRedisDB)

	v.SetDefault("server.bind", DefaultServerBind)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.max_body_bytes", DefaultServerMaxBodyBytes)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.pid_file", DefaultServerPIDFile)
	v.SetDefault("server.mcp_enabled", DefaultServerMCPEnabled)
	v.SetDefault("server.mcp_path", DefaultServerMCPPath)
	v.SetDefault("server.events_enabled", DefaultServerEventsEnabled)
	v.SetDefault("server.auth_secret", DefaultServerAuthSecret)

	v.SetDefault("watch.dirs", []string{})
	v.SetDefault("watch.debounce_ms", DefaultWatchDebounceMs)
	v.SetDefault("watch.max_file_bytes", DefaultWatchMaxFileBytes)
	v.SetDefault("watch.notify", DefaultWatchNotify)

	v.SetDefault("metrics.collection_interval", DefaultMetricsCollectionInterval)
}
