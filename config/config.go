package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverFS       = "fs"
	DriverMinio    = "minio"
	DriverRedis    = "redis"
)

type (
	APP struct {
		Name string
		Host string
		Port string
		Env  string
	}
	DB struct {
		Driver   string
		User     string
		Password string
		Name     string
		Host     string
		Port     string
		MaxConns int
	}
	Blob struct {
		Driver          string
		Dir             string
		Endpoint        string
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		Bucket          string
		UseSSL          bool
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	MQ struct {
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}
	Log struct {
		Level      string
		File       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
	// Vault holds the deployment-wide limits of the file vault.
	Vault struct {
		QuotaBytes       int64
		MaxUploadBytes   int64
		RateLimitCalls   int
		RateLimitWindow  time.Duration
		RateLimitDriver  string
		ProtectOriginals bool
		DefaultPageSize  int
		MaxPageSize      int
	}

	Config struct {
		App   APP
		DB    DB
		Blob  Blob
		Redis Redis
		MQ    MQ
		Log   Log
		Vault Vault
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getEnvInt64(key string, def int64) int64 {
	v, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func Load() Config {
	app := APP{
		Name: getEnv("SERVICE_NAME", "filevault"),
		Host: getEnv("SERVICE_HOST", ""),
		Port: getEnv("SERVICE_PORT", "8080"),
		Env:  getEnv("SERVICE_ENV", ""),
	}
	db := DB{
		Driver:   getEnv("DB_DRIVER", DriverPostgres),
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", ""),
		MaxConns: getEnvInt("POSTGRES_MAX_CONNS", 10),
	}
	blob := Blob{
		Driver:          getEnv("BLOB_DRIVER", DriverFS),
		Dir:             getEnv("BLOB_DIR", "data/blobs"),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		Region:          getEnv("S3_REGION", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		Bucket:          getEnv("S3_BUCKET_UPLOADS", "filevault"),
		UseSSL:          getEnvBool("S3_USE_SSL", false),
	}
	redis := Redis{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
	mq := MQ{
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", ""),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "filevault"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "direct"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "filevault.files"),
	}
	log := Log{
		Level:      getEnv("LOG_LEVEL", "info"),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 10),
		MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
	}
	vault := Vault{
		QuotaBytes:       getEnvInt64("VAULT_QUOTA_BYTES", 10<<20),
		MaxUploadBytes:   getEnvInt64("VAULT_MAX_UPLOAD_BYTES", 50<<20),
		RateLimitCalls:   getEnvInt("VAULT_RATE_LIMIT_CALLS", 2),
		RateLimitWindow:  getEnvDuration("VAULT_RATE_LIMIT_WINDOW", time.Second),
		RateLimitDriver:  getEnv("VAULT_RATE_LIMIT_DRIVER", DriverMemory),
		ProtectOriginals: getEnvBool("VAULT_PROTECT_ORIGINALS", false),
		DefaultPageSize:  getEnvInt("VAULT_DEFAULT_PAGE_SIZE", 50),
		MaxPageSize:      getEnvInt("VAULT_MAX_PAGE_SIZE", 200),
	}

	return Config{
		App:   app,
		DB:    db,
		Blob:  blob,
		Redis: redis,
		MQ:    mq,
		Log:   log,
		Vault: vault,
	}
}

func (c Config) Validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver)
	}
	switch c.Blob.Driver {
	case DriverFS:
		if c.Blob.Dir == "" {
			return fmt.Errorf("BLOB_DIR is required for the fs blob driver")
		}
	case DriverMinio:
		if c.Blob.Endpoint == "" || c.Blob.Bucket == "" {
			return fmt.Errorf("S3_ENDPOINT and S3_BUCKET_UPLOADS are required for the minio blob driver")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.Blob.Driver)
	}
	switch c.Vault.RateLimitDriver {
	case DriverMemory:
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis rate limiter")
		}
	default:
		return fmt.Errorf("unknown VAULT_RATE_LIMIT_DRIVER %q", c.Vault.RateLimitDriver)
	}
	if c.Vault.QuotaBytes <= 0 {
		return fmt.Errorf("VAULT_QUOTA_BYTES must be positive")
	}
	if c.Vault.MaxUploadBytes <= 0 {
		return fmt.Errorf("VAULT_MAX_UPLOAD_BYTES must be positive")
	}
	if c.Vault.RateLimitCalls <= 0 || c.Vault.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit calls and window must be positive")
	}
	if c.Vault.DefaultPageSize <= 0 || c.Vault.MaxPageSize < c.Vault.DefaultPageSize {
		return fmt.Errorf("invalid page size limits")
	}

	return nil
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s?pool_max_conns=%d",
		url.UserPassword(c.DB.User, c.DB.Password).String(),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
		c.DB.MaxConns,
	), nil
}

// MQEnabled reports whether file events should be published.
func (c Config) MQEnabled() bool { return c.MQ.Host != "" }

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}
