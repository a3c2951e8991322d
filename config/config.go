// Package config loads the service configuration from an optional TOML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for namespaced environment overrides, e.g. VIDSHARE_SERVER_PORT.
const EnvPrefix = "VIDSHARE"

// DefaultBotSignatures are the lowercase user-agent fragments classified as crawlers.
var DefaultBotSignatures = []string{
	"googlebot",
	"bingbot",
	"slurp",
	"duckduckbot",
	"baiduspider",
	"yandexbot",
	"sogou",
	"exabot",
	"facebookexternalhit",
}

// Config is the root configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Viewer   ViewerConfig   `mapstructure:"viewer"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	// Language for user-facing messages (es-ES, en-US)
	Language string `mapstructure:"language"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // seconds
	StaticDir    string `mapstructure:"static_dir"`
	EnableHTTPS  bool   `mapstructure:"enable_https"`
	EnableHTTP2  bool   `mapstructure:"enable_http2"`
	TLSCertFile  string `mapstructure:"tls_cert_file"`
	TLSKeyFile   string `mapstructure:"tls_key_file"`
}

// DatabaseConfig holds relational store settings.
type DatabaseConfig struct {
	// Driver is one of sqlite, postgres, mysql
	Driver          string `mapstructure:"driver"`
	DSN             string `mapstructure:"dsn"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // seconds
	LogLevel        string `mapstructure:"log_level"`
}

// StorageConfig holds object store settings.
type StorageConfig struct {
	// Provider is one of s3, aliyun, tencent, qiniu, local
	Provider      string `mapstructure:"provider"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Endpoint      string `mapstructure:"endpoint"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	LocalPath     string `mapstructure:"local_path"`
}

// UploadConfig bounds accepted uploads.
type UploadConfig struct {
	MaxFileSize int64  `mapstructure:"max_file_size"` // bytes
	FieldName   string `mapstructure:"field_name"`
}

// ViewerConfig tunes the public video page.
type ViewerConfig struct {
	RelatedCount      int      `mapstructure:"related_count"`
	BotSignatures     []string `mapstructure:"bot_signatures"`
	FacebookSignature string   `mapstructure:"facebook_signature"`
}

// AdminConfig maps admin usernames to passwords.
type AdminConfig struct {
	Accounts map[string]string `mapstructure:"accounts"`
}

// LogConfig mirrors logger.Config so it can be loaded from the same file.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.language", "es-ES")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 3600)
	v.SetDefault("server.write_timeout", 3600)
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("server.enable_https", false)
	v.SetDefault("server.enable_http2", false)
	v.SetDefault("server.tls_cert_file", "")
	v.SetDefault("server.tls_key_file", "")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/vidshare.db")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 3600)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("storage.provider", "s3")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.key_prefix", "videos")
	v.SetDefault("storage.local_path", "data/media")

	v.SetDefault("upload.max_file_size", int64(2000*1024*1024))
	v.SetDefault("upload.field_name", "video")

	v.SetDefault("viewer.related_count", 4)
	v.SetDefault("viewer.bot_signatures", DefaultBotSignatures)
	v.SetDefault("viewer.facebook_signature", "facebookexternalhit")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.file_path", "logs/app.log")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", false)
}

// bindLegacyEnv keeps the variable names of existing deployments working.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"server.port":        {"PORT"},
		"database.dsn":       {"DATABASE_URL"},
		"database.driver":    {"DATABASE_DRIVER"},
		"storage.region":     {"AWS_REGION"},
		"storage.access_key": {"AWS_ACCESS_KEY_ID"},
		"storage.secret_key": {"AWS_SECRET_ACCESS_KEY"},
		"storage.bucket":     {"AWS_S3_BUCKET"},
	}
	for key, envs := range bindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		args := append([]string{key, prefixed}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

// LoadEnvFile exports the variables of a dotenv file into the process
// environment without overriding ones already set. A missing file is ignored.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from path (optional) and the environment.
// A missing file is not an error; defaults and env vars still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Admin.Accounts == nil {
		cfg.Admin.Accounts = make(map[string]string)
	}
	if user := os.Getenv("ADMIN_USERNAME"); user != "" {
		cfg.Admin.Accounts[user] = os.Getenv("ADMIN_PASSWORD")
	}

	return &cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.EnableHTTPS && (c.Server.TLSCertFile == "" || c.Server.TLSKeyFile == "") {
		return fmt.Errorf("server.tls_cert_file and server.tls_key_file are required when https is enabled")
	}

	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	switch c.Storage.Provider {
	case "local":
		if c.Storage.LocalPath == "" {
			return fmt.Errorf("storage.local_path is required for the local provider")
		}
	case "s3", "aliyun", "tencent", "qiniu":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for provider %s", c.Storage.Provider)
		}
	default:
		return fmt.Errorf("unsupported storage provider: %s", c.Storage.Provider)
	}

	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size must be positive")
	}
	if c.Upload.FieldName == "" {
		return fmt.Errorf("upload.field_name is required")
	}
	if c.Viewer.RelatedCount < 0 {
		return fmt.Errorf("viewer.related_count must not be negative")
	}

	if len(c.Admin.Accounts) == 0 {
		return fmt.Errorf("at least one admin account is required")
	}
	for user, pass := range c.Admin.Accounts {
		if user == "" || pass == "" {
			return fmt.Errorf("admin accounts need a non-empty username and password")
		}
	}
	return nil
}
