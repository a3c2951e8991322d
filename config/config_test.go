package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 3000},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"},
		Storage:  StorageConfig{Provider: "s3", Bucket: "videos-bucket"},
		Upload:   UploadConfig{MaxFileSize: 1024, FieldName: "video"},
		Viewer:   ViewerConfig{RelatedCount: 4},
		Admin:    AdminConfig{Accounts: map[string]string{"admin": "secret"}},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "s3", cfg.Storage.Provider)
	assert.Equal(t, "videos", cfg.Storage.KeyPrefix)
	assert.Equal(t, int64(2000*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, "video", cfg.Upload.FieldName)
	assert.Equal(t, 4, cfg.Viewer.RelatedCount)
	assert.Equal(t, DefaultBotSignatures, cfg.Viewer.BotSignatures)
	assert.Equal(t, "facebookexternalhit", cfg.Viewer.FacebookSignature)
	assert.Equal(t, "es-ES", cfg.App.Language)
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/videos")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "shh")
	t.Setenv("AWS_S3_BUCKET", "clips")
	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("ADMIN_PASSWORD", "toor")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@db:5432/videos", cfg.Database.DSN)
	assert.Equal(t, "us-east-1", cfg.Storage.Region)
	assert.Equal(t, "AKIA", cfg.Storage.AccessKey)
	assert.Equal(t, "shh", cfg.Storage.SecretKey)
	assert.Equal(t, "clips", cfg.Storage.Bucket)
	assert.Equal(t, map[string]string{"root": "toor"}, cfg.Admin.Accounts)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("VIDSHARE_SERVER_PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
port = 4000

[storage]
provider = "local"
local_path = "/srv/media"

[viewer]
related_count = 2

[admin.accounts]
alice = "wonderland"
bob = "builder"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, "/srv/media", cfg.Storage.LocalPath)
	assert.Equal(t, 2, cfg.Viewer.RelatedCount)
	assert.Equal(t, "wonderland", cfg.Admin.Accounts["alice"])
	assert.Equal(t, "builder", cfg.Admin.Accounts["bob"])
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "https without certs", mutate: func(c *Config) { c.Server.EnableHTTPS = true }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: true},
		{name: "empty dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.Storage.Provider = "ftp" }, wantErr: true},
		{name: "cloud provider without bucket", mutate: func(c *Config) { c.Storage.Bucket = "" }, wantErr: true},
		{name: "local provider without bucket", mutate: func(c *Config) {
			c.Storage.Provider = "local"
			c.Storage.Bucket = ""
			c.Storage.LocalPath = "/tmp/media"
		}},
		{name: "zero upload limit", mutate: func(c *Config) { c.Upload.MaxFileSize = 0 }, wantErr: true},
		{name: "no admin accounts", mutate: func(c *Config) { c.Admin.Accounts = nil }, wantErr: true},
		{name: "empty admin password", mutate: func(c *Config) { c.Admin.Accounts = map[string]string{"admin": ""} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("VIDSHARE_TEST_DOTENV=from-file\nPORT=9100\n"), 0644))
	t.Setenv("PORT", "9200")
	t.Cleanup(func() { os.Unsetenv("VIDSHARE_TEST_DOTENV") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("VIDSHARE_TEST_DOTENV"))
	// already-set variables win
	assert.Equal(t, "9200", os.Getenv("PORT"))

	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
}
