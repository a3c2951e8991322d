// Package logger wraps a process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the shared logger instance.
var Logger *logrus.Logger

// Config controls level, format and destination.
type Config struct {
	// Level: debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// Format: json, text
	Format string `toml:"format" json:"format"`
	// Output: console, file, both
	Output string `toml:"output" json:"output"`
	// FilePath is used when Output is file or both
	FilePath string `toml:"file_path" json:"file_path"`
	// Rotation settings for FilePath
	MaxSize    int  `toml:"max_size" json:"max_size"` // MB
	MaxBackups int  `toml:"max_backups" json:"max_backups"`
	MaxAge     int  `toml:"max_age" json:"max_age"` // days
	Compress   bool `toml:"compress" json:"compress"`
}

// DefaultConfig returns console text logging at info level.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "text",
		Output:     "console",
		FilePath:   "logs/app.log",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// Init configures the shared logger. A nil config uses DefaultConfig.
func Init(config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}

	Logger = logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
		Logger.Warnf("invalid log level %q, falling back to info", config.Level)
	}
	Logger.SetLevel(level)

	switch config.Format {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case "text", "":
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		Logger.Warnf("invalid log format %q, falling back to text", config.Format)
	}

	if err := setupOutput(config); err != nil {
		return err
	}

	setupGinLogger()
	return nil
}

func setupOutput(config *Config) error {
	switch config.Output {
	case "console", "":
		Logger.SetOutput(os.Stdout)
	case "file":
		f, err := openLogFile(config)
		if err != nil {
			return err
		}
		Logger.SetOutput(f)
	case "both":
		f, err := openLogFile(config)
		if err != nil {
			return err
		}
		Logger.SetOutput(io.MultiWriter(os.Stdout, f))
	default:
		Logger.SetOutput(os.Stdout)
		Logger.Warnf("invalid log output %q, falling back to console", config.Output)
	}
	return nil
}

// openLogFile returns a size-rotated writer for config.FilePath.
func openLogFile(config *Config) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}, nil
}

// setupGinLogger routes gin's own writers into logrus.
func setupGinLogger() {
	w := &GinLogWriter{logger: Logger}
	gin.DefaultWriter = w
	gin.DefaultErrorWriter = w
}

// GinLogWriter adapts logrus to io.Writer for gin.
type GinLogWriter struct {
	logger *logrus.Logger
}

// Write implements io.Writer.
func (w *GinLogWriter) Write(p []byte) (n int, err error) {
	w.logger.Info(string(p))
	return len(p), nil
}

// GetLogger returns the shared logger, initializing defaults on first use.
func GetLogger() *logrus.Logger {
	if Logger == nil {
		if err := Init(nil); err != nil {
			logrus.Error("logger init failed, using logrus standard logger")
			return logrus.StandardLogger()
		}
	}
	return Logger
}

func Debugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

func Info(args ...interface{}) {
	GetLogger().Info(args...)
}

func Infof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	GetLogger().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	GetLogger().Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	GetLogger().Fatalf(format, args...)
}

// WithField starts an entry with one field.
func WithField(key string, value interface{}) *logrus.Entry {
	return GetLogger().WithField(key, value)
}

// WithFields starts an entry with several fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// WithError starts an entry carrying err.
func WithError(err error) *logrus.Entry {
	return GetLogger().WithError(err)
}
