package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimbarashkov/shortcode/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("stdout only", func(t *testing.T) {
		var buf bytes.Buffer

		logger, closeFn := newWithWriter(config.Log{Level: "info", JSON: true}, config.EnvStage, &buf)
		defer closeFn()

		logger.Info("hello")
		logger.Debug("hidden")

		assert.Contains(t, buf.String(), "hello")
		assert.NotContains(t, buf.String(), "hidden")
	})

	t.Run("rotating file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "shortcode.log")

		logger, closeFn := newWithWriter(config.Log{Level: "debug", File: path, MaxSizeMB: 1}, config.EnvProd, &buf)

		logger.Debug("written to file")
		require.NoError(t, closeFn())

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		assert.Contains(t, string(data), "written to file")
		assert.Contains(t, buf.String(), "written to file")
	})
}
