package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Defaults(t *testing.T) {
	require.NoError(t, Init(nil))
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, Logger.Formatter)
}

func TestInit_InvalidValuesFallBack(t *testing.T) {
	require.NoError(t, Init(&Config{Level: "loud", Format: "xml", Output: "pigeon"}))
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, Logger.Formatter)
	assert.Equal(t, os.Stdout, Logger.Out)
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	require.NoError(t, Init(&Config{Level: "debug", Format: "json", Output: "file", FilePath: path}))

	WithField("video_id", "abc").Info("written")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"video_id":"abc"`)
	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())
}
