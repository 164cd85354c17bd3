package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	apperrors "github.com/ZanzyTHEbar/neuropredict/internal/errors"
	"github.com/ZanzyTHEbar/neuropredict/internal/monitoring"
)

// Config is the service configuration.
type Config struct {
	Port            string
	DataDir         string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RateLimitPerMin int
	AssessPerMin    int
	CacheTTL        time.Duration
	CaptureTTL      time.Duration
	MaxClipBytes    int64
	LogLevel        slog.Level
	GinMode         string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	EnableHSTS      bool
}

// Default returns the configuration used when no flags or environment are set.
func Default() Config {
	return Config{
		Port:            "8080",
		DataDir:         "./data",
		RedisDB:         0,
		RateLimitPerMin: 100,
		AssessPerMin:    30,
		CacheTTL:        15 * time.Minute,
		CaptureTTL:      10 * time.Minute,
		MaxClipBytes:    10 << 20,
		LogLevel:        slog.LevelInfo,
		GinMode:         gin.ReleaseMode,
		AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:8080"},
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate reports every invalid field in one configuration error.
func (c Config) Validate() error {
	fields := map[string]string{}

	if c.Port == "" {
		fields["port"] = "must not be empty"
	}
	if c.DataDir == "" {
		fields["data_dir"] = "must not be empty"
	}
	if c.RedisDB < 0 {
		fields["redis_db"] = "must not be negative"
	}
	if c.RateLimitPerMin <= 0 {
		fields["rate_limit_per_min"] = "must be positive"
	}
	if c.AssessPerMin <= 0 {
		fields["assess_per_min"] = "must be positive"
	}
	if c.CacheTTL <= 0 {
		fields["cache_ttl"] = "must be positive"
	}
	if c.CaptureTTL <= 0 {
		fields["capture_ttl"] = "must be positive"
	}
	if c.MaxClipBytes <= 0 {
		fields["max_clip_bytes"] = "must be positive"
	}
	switch c.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		fields["gin_mode"] = fmt.Sprintf("unknown mode %q", c.GinMode)
	}

	if len(fields) == 0 {
		return nil
	}

	appErr := apperrors.NewConfigurationError("invalid configuration", nil)
	appErr.Fields = fields
	return appErr
}

// Flags are the serve flags. Every flag can also be set from the environment.
func Flags() []cli.Flag {
	d := Default()
	return []cli.Flag{
		&cli.StringFlag{Name: "port", Value: d.Port, EnvVars: []string{"PORT"}, Usage: "HTTP listen port"},
		&cli.StringFlag{Name: "data-dir", Value: d.DataDir, EnvVars: []string{"DATA_DIR"}, Usage: "directory holding ranges/<modality>.json overrides"},
		&cli.StringFlag{Name: "redis-addr", EnvVars: []string{"REDIS_ADDR"}, Usage: "redis address for distributed rate limiting (empty uses in-memory limits)"},
		&cli.StringFlag{Name: "redis-password", EnvVars: []string{"REDIS_PASSWORD"}, Usage: "redis password"},
		&cli.IntFlag{Name: "redis-db", Value: d.RedisDB, EnvVars: []string{"REDIS_DB"}, Usage: "redis database number"},
		&cli.IntFlag{Name: "rate-limit", Value: d.RateLimitPerMin, EnvVars: []string{"RATE_LIMIT_PER_MIN"}, Usage: "requests per minute per client IP"},
		&cli.IntFlag{Name: "assess-limit", Value: d.AssessPerMin, EnvVars: []string{"ASSESS_LIMIT_PER_MIN"}, Usage: "assessments per minute per client IP"},
		&cli.DurationFlag{Name: "cache-ttl", Value: d.CacheTTL, EnvVars: []string{"CACHE_TTL"}, Usage: "questionnaire response cache TTL"},
		&cli.DurationFlag{Name: "capture-ttl", Value: d.CaptureTTL, EnvVars: []string{"CAPTURE_TTL"}, Usage: "lifetime of recording sessions and clips"},
		&cli.Int64Flag{Name: "max-clip-bytes", Value: d.MaxClipBytes, EnvVars: []string{"MAX_CLIP_BYTES"}, Usage: "maximum size of one recording or upload"},
		&cli.StringFlag{Name: "log-level", Value: d.LogLevel.String(), EnvVars: []string{"LOG_LEVEL"}, Usage: "debug, info, warn or error"},
		&cli.StringFlag{Name: "gin-mode", Value: d.GinMode, EnvVars: []string{"GIN_MODE"}, Usage: "gin mode: debug, release or test"},
		&cli.StringSliceFlag{Name: "allowed-origins", Value: cli.NewStringSlice(d.AllowedOrigins...), EnvVars: []string{"ALLOWED_ORIGINS"}, Usage: "CORS origins"},
		&cli.DurationFlag{Name: "shutdown-timeout", Value: d.ShutdownTimeout, EnvVars: []string{"SHUTDOWN_TIMEOUT"}, Usage: "graceful shutdown deadline"},
		&cli.BoolFlag{Name: "hsts", EnvVars: []string{"ENABLE_HSTS"}, Usage: "send Strict-Transport-Security"},
	}
}

// FromContext collects the flag values into a validated Config.
func FromContext(c *cli.Context) (Config, error) {
	level, err := monitoring.ParseLevel(c.String("log-level"))
	if err != nil {
		return Config{}, apperrors.NewConfigurationError("invalid log level", err)
	}

	cfg := Config{
		Port:            c.String("port"),
		DataDir:         c.String("data-dir"),
		RedisAddr:       c.String("redis-addr"),
		RedisPassword:   c.String("redis-password"),
		RedisDB:         c.Int("redis-db"),
		RateLimitPerMin: c.Int("rate-limit"),
		AssessPerMin:    c.Int("assess-limit"),
		CacheTTL:        c.Duration("cache-ttl"),
		CaptureTTL:      c.Duration("capture-ttl"),
		MaxClipBytes:    c.Int64("max-clip-bytes"),
		LogLevel:        level,
		GinMode:         c.String("gin-mode"),
		AllowedOrigins:  splitOrigins(c.StringSlice("allowed-origins")),
		ShutdownTimeout: c.Duration("shutdown-timeout"),
		EnableHSTS:      c.Bool("hsts"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitOrigins accepts both repeated flags and comma separated values.
func splitOrigins(values []string) []string {
	var out []string
	for _, v := range values {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
