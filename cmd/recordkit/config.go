package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileName = ".recordkit"
	configFileType = "yaml"
	envPrefix      = "RECORDKIT"

	cfgKeyDriver          = "driver"
	cfgKeyDSN             = "dsn"
	cfgKeyAutoCreate      = "auto_create"
	cfgKeyStrict          = "strict"
	cfgKeyCache           = "cache"
	cfgKeyCacheSize       = "cache_size"
	cfgKeyCacheTTL        = "cache_ttl"
	cfgKeyRedisAddr       = "redis_addr"
	cfgKeyTracing         = "tracing"
	cfgKeyTracingEndpoint = "tracing_endpoint"
	cfgKeyMetricsAddr     = "metrics_addr"
	cfgKeyVerbose         = "verbose"
)

const (
	cacheLRU    = "lru"
	cacheMemory = "memory"
	cacheRedis  = "redis"
	cacheNone   = "none"

	tracingNone   = "none"
	tracingJaeger = "jaeger"
	tracingZipkin = "zipkin"
)

var (
	drivers      = []string{"mysql", "sqlite3", "sqlite"}
	cacheKinds   = []string{cacheLRU, cacheMemory, cacheRedis, cacheNone}
	tracingKinds = []string{tracingNone, tracingJaeger, tracingZipkin}
)

// flagKeys 命令行参数名到配置项的映射
var flagKeys = map[string]string{
	"driver":           cfgKeyDriver,
	"dsn":              cfgKeyDSN,
	"auto-create":      cfgKeyAutoCreate,
	"strict":           cfgKeyStrict,
	"cache":            cfgKeyCache,
	"cache-size":       cfgKeyCacheSize,
	"cache-ttl":        cfgKeyCacheTTL,
	"redis-addr":       cfgKeyRedisAddr,
	"tracing":          cfgKeyTracing,
	"tracing-endpoint": cfgKeyTracingEndpoint,
	"metrics-addr":     cfgKeyMetricsAddr,
	"verbose":          cfgKeyVerbose,
}

type config struct {
	Driver          string
	DSN             string
	AutoCreate      bool
	Strict          bool
	Cache           string
	CacheSize       int
	CacheTTL        time.Duration
	RedisAddr       string
	Tracing         string
	TracingEndpoint string
	MetricsAddr     string
	Verbose         bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(cfgKeyDriver, "sqlite3")
	v.SetDefault(cfgKeyDSN, "recordkit.db")
	v.SetDefault(cfgKeyAutoCreate, false)
	v.SetDefault(cfgKeyStrict, false)
	v.SetDefault(cfgKeyCache, cacheLRU)
	v.SetDefault(cfgKeyCacheSize, 1024)
	v.SetDefault(cfgKeyCacheTTL, 10*time.Minute)
	v.SetDefault(cfgKeyRedisAddr, "localhost:6379")
	v.SetDefault(cfgKeyTracing, tracingNone)
	v.SetDefault(cfgKeyTracingEndpoint, "")
	v.SetDefault(cfgKeyMetricsAddr, "")
	v.SetDefault(cfgKeyVerbose, false)
}

// registerFlags 注册全局参数，默认值和配置文件的默认值保持一致
func registerFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default: ./.recordkit.yaml or ~/.recordkit.yaml)")
	flags.String("driver", "sqlite3", "database driver: mysql, sqlite3 or sqlite")
	flags.String("dsn", "recordkit.db", "data source name passed to the driver")
	flags.Bool("auto-create", false, "create missing tables on first use")
	flags.Bool("strict", false, "reject values that do not fit their field type")
	flags.String("cache", cacheLRU, "record cache: lru, memory, redis or none")
	flags.Int("cache-size", 1024, "rows kept by the lru cache")
	flags.Duration("cache-ttl", 10*time.Minute, "expiration of memory and redis cache entries")
	flags.String("redis-addr", "localhost:6379", "redis address for --cache=redis")
	flags.String("tracing", tracingNone, "trace exporter: none, jaeger or zipkin")
	flags.String("tracing-endpoint", "", "collector endpoint of the trace exporter")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address while the command runs")
	flags.BoolP("verbose", "v", false, "print every statement")
}

// loadConfig 优先级：命令行参数 > RECORDKIT_ 环境变量 > 配置文件 > 默认值。
// 当前目录下的 .env 会先被加载到环境变量里
func loadConfig(flags *pflag.FlagSet) (*config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	configFile, _ := flags.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	cfg := &config{
		Driver:          v.GetString(cfgKeyDriver),
		DSN:             v.GetString(cfgKeyDSN),
		AutoCreate:      v.GetBool(cfgKeyAutoCreate),
		Strict:          v.GetBool(cfgKeyStrict),
		Cache:           v.GetString(cfgKeyCache),
		CacheSize:       v.GetInt(cfgKeyCacheSize),
		CacheTTL:        v.GetDuration(cfgKeyCacheTTL),
		RedisAddr:       v.GetString(cfgKeyRedisAddr),
		Tracing:         v.GetString(cfgKeyTracing),
		TracingEndpoint: v.GetString(cfgKeyTracingEndpoint),
		MetricsAddr:     v.GetString(cfgKeyMetricsAddr),
		Verbose:         v.GetBool(cfgKeyVerbose),
	}
	return cfg, cfg.validate()
}

func (c *config) validate() error {
	if !slices.Contains(drivers, c.Driver) {
		return fmt.Errorf("config: unknown driver %q, want one of %v", c.Driver, drivers)
	}
	if !slices.Contains(cacheKinds, c.Cache) {
		return fmt.Errorf("config: unknown cache %q, want one of %v", c.Cache, cacheKinds)
	}
	if !slices.Contains(tracingKinds, c.Tracing) {
		return fmt.Errorf("config: unknown tracing exporter %q, want one of %v", c.Tracing, tracingKinds)
	}
	if c.Cache == cacheLRU && c.CacheSize <= 0 {
		return fmt.Errorf("config: cache_size must be positive, got %d", c.CacheSize)
	}
	if c.Tracing != tracingNone && c.TracingEndpoint == "" {
		return fmt.Errorf("config: tracing %s needs tracing_endpoint", c.Tracing)
	}
	return nil
}
