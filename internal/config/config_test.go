package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOverlaysDefaults(t *testing.T) {
	conf, err := Decode(`
[mainConfig]
port = 9001

[vectorConfig]
engine = "memory"
chunkSize = 300

[[chatConfig.routes]]
name = "extract_items_tool"
collection = "evil_items"
keywords = ["item", "price"]
`)
	require.NoError(t, err)

	assert.Equal(t, 9001, conf.MainConfig.Port)
	assert.Equal(t, "VectorOps", conf.MainConfig.AppName)
	assert.Equal(t, "memory", conf.VectorConfig.Engine)
	assert.Equal(t, 300, conf.VectorConfig.ChunkSize)
	assert.Equal(t, 100, conf.VectorConfig.ChunkOverlap)
	require.Len(t, conf.ChatConfig.Routes, 1)
	assert.Equal(t, "evil_items", conf.ChatConfig.Routes[0].Collection)
}

func TestNormalizeClampsOverlap(t *testing.T) {
	conf, err := Decode(`
[vectorConfig]
chunkSize = 120
chunkOverlap = 500
yearCollectionFormat = "no_placeholder"
`)
	require.NoError(t, err)
	assert.Equal(t, 20, conf.VectorConfig.ChunkOverlap)
	assert.Equal(t, "macro_report_%s", conf.VectorConfig.YearCollectionFormat)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[mainConfig]\nhost = \"127.0.0.1\"\n"), 0o644))

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8000", conf.Addr())

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
