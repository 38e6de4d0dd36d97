package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	DB       DBConfig
	Log      LogConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Import   ImportConfig
	Filing   FilingConfig
	S3       S3Config
	Sources  SourcesConfig
	EInvoice EInvoiceConfig
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CacheConfig selects where raw report fetches are cached.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

// RedisConfig is optional; an empty Addr disables the Redis cache backend and
// the distributed run lock.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// ImportConfig holds ERP import settings.
type ImportConfig struct {
	Concurrency int     `mapstructure:"concurrency"`
	TDSPercent  float64 `mapstructure:"tds_percent"`
}

// FilingConfig holds return-generation settings.
type FilingConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Version   string `mapstructure:"version"`
	Upload    bool   `mapstructure:"upload"`
}

// S3Config holds AWS S3 settings for artifact uploads.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// SourcesConfig points the file-backed fetchers at their export folders.
type SourcesConfig struct {
	ERPDir    string `mapstructure:"erp_dir"`
	PortalDir string `mapstructure:"portal_dir"`
}

// EInvoiceConfig holds e-invoice generation settings.
type EInvoiceConfig struct {
	SellerFile string `mapstructure:"seller_file"`
	OutputDir  string `mapstructure:"output_dir"`
	BuyerPin   int    `mapstructure:"buyer_pin"`
	BuyerLoc   string `mapstructure:"buyer_loc"`
	// RedateDays is the document age from which the date is moved to the
	// last day of the period.
	RedateDays int `mapstructure:"redate_days"`
}

// Load reads configuration from environment variables with the GSTFILE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GSTFILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "gstfiling")
	v.SetDefault("db.password", "gstfiling_secret")
	v.SetDefault("db.name", "gstfiling_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", ".cache")

	// Redis defaults (disabled)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "30m")

	// Import defaults
	v.SetDefault("import.concurrency", 10)
	v.SetDefault("import.tds_percent", 2)

	// Filing defaults
	v.SetDefault("filing.output_dir", "static")
	v.SetDefault("filing.version", "GST3.2.1")
	v.SetDefault("filing.upload", false)

	// S3 defaults
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "gstfiling-artifacts")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Source defaults
	v.SetDefault("sources.erp_dir", "exports/erp")
	v.SetDefault("sources.portal_dir", "exports/portal")

	// E-invoice defaults
	v.SetDefault("einvoice.seller_file", "seller.json")
	v.SetDefault("einvoice.output_dir", "static")
	v.SetDefault("einvoice.buyer_pin", 620008)
	v.SetDefault("einvoice.buyer_loc", "TRICHY")
	v.SetDefault("einvoice.redate_days", 28)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"db.host":              "GSTFILE_DB_HOST",
		"db.port":              "GSTFILE_DB_PORT",
		"db.user":              "GSTFILE_DB_USER",
		"db.password":          "GSTFILE_DB_PASSWORD",
		"db.name":              "GSTFILE_DB_NAME",
		"db.sslmode":           "GSTFILE_DB_SSLMODE",
		"db.max_open":          "GSTFILE_DB_MAX_OPEN",
		"db.max_idle":          "GSTFILE_DB_MAX_IDLE",
		"log.level":            "GSTFILE_LOG_LEVEL",
		"log.format":           "GSTFILE_LOG_FORMAT",
		"cache.enabled":        "GSTFILE_CACHE_ENABLED",
		"cache.backend":        "GSTFILE_CACHE_BACKEND",
		"cache.dir":            "GSTFILE_CACHE_DIR",
		"redis.addr":           "GSTFILE_REDIS_ADDR",
		"redis.password":       "GSTFILE_REDIS_PASSWORD",
		"redis.db":             "GSTFILE_REDIS_DB",
		"redis.lock_ttl":       "GSTFILE_REDIS_LOCK_TTL",
		"import.concurrency":   "GSTFILE_IMPORT_CONCURRENCY",
		"import.tds_percent":   "GSTFILE_IMPORT_TDS_PERCENT",
		"filing.output_dir":    "GSTFILE_FILING_OUTPUT_DIR",
		"filing.version":       "GSTFILE_FILING_VERSION",
		"filing.upload":        "GSTFILE_FILING_UPLOAD",
		"s3.region":            "GSTFILE_S3_REGION",
		"s3.bucket":            "GSTFILE_S3_BUCKET",
		"s3.endpoint":          "GSTFILE_S3_ENDPOINT",
		"s3.access_key":        "GSTFILE_S3_ACCESS_KEY",
		"s3.secret_key":        "GSTFILE_S3_SECRET_KEY",
		"s3.presign_expiry":    "GSTFILE_S3_PRESIGN_EXPIRY",
		"sources.erp_dir":      "GSTFILE_SOURCES_ERP_DIR",
		"sources.portal_dir":   "GSTFILE_SOURCES_PORTAL_DIR",
		"einvoice.seller_file": "GSTFILE_EINVOICE_SELLER_FILE",
		"einvoice.output_dir":  "GSTFILE_EINVOICE_OUTPUT_DIR",
		"einvoice.buyer_pin":   "GSTFILE_EINVOICE_BUYER_PIN",
		"einvoice.buyer_loc":   "GSTFILE_EINVOICE_BUYER_LOC",
		"einvoice.redate_days": "GSTFILE_EINVOICE_REDATE_DAYS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("cache.enabled"),
		Backend: strings.ToLower(v.GetString("cache.backend")),
		Dir:     v.GetString("cache.dir"),
	}
	cfg.Redis = RedisConfig{
		Addr:     v.GetString("redis.addr"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
		LockTTL:  v.GetDuration("redis.lock_ttl"),
	}
	cfg.Import = ImportConfig{
		Concurrency: v.GetInt("import.concurrency"),
		TDSPercent:  v.GetFloat64("import.tds_percent"),
	}
	cfg.Filing = FilingConfig{
		OutputDir: v.GetString("filing.output_dir"),
		Version:   v.GetString("filing.version"),
		Upload:    v.GetBool("filing.upload"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Sources = SourcesConfig{
		ERPDir:    v.GetString("sources.erp_dir"),
		PortalDir: v.GetString("sources.portal_dir"),
	}
	cfg.EInvoice = EInvoiceConfig{
		SellerFile: v.GetString("einvoice.seller_file"),
		OutputDir:  v.GetString("einvoice.output_dir"),
		BuyerPin:   v.GetInt("einvoice.buyer_pin"),
		BuyerLoc:   v.GetString("einvoice.buyer_loc"),
		RedateDays: v.GetInt("einvoice.redate_days"),
	}

	if cfg.Cache.Backend != "file" && cfg.Cache.Backend != "redis" {
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend == "redis" && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("cache backend redis requires GSTFILE_REDIS_ADDR")
	}
	if cfg.Import.Concurrency < 1 {
		cfg.Import.Concurrency = 1
	}

	return cfg, nil
}
