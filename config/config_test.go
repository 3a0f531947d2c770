package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"windquote/calculator"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "windquote.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfigFile, "")

	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", conf.Logging.Level)
	assert.Equal(t, "json", conf.Logging.Format)
	assert.True(t, conf.Seed.PriceItems)
	assert.False(t, conf.Seed.Demo)
	assert.Equal(t, "EUR", conf.Export.Currency)
	assert.Equal(t, calculator.DefaultOnParseFailure, conf.Calculator.SlopeParsePolicy())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: console
seed:
  priceItems: false
  demo: true
export:
  company: "Windquote SAS"
calculator:
  slopePolicy: reject
`)

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", conf.Logging.Level)
	assert.Equal(t, "console", conf.Logging.Format)
	assert.False(t, conf.Seed.PriceItems)
	assert.True(t, conf.Seed.Demo)
	assert.Equal(t, "Windquote SAS", conf.Export.Company)
	assert.Equal(t, "EUR", conf.Export.Currency)
	assert.Equal(t, calculator.RejectOnParseFailure, conf.Calculator.SlopeParsePolicy())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: debug\n")
	t.Setenv("WINDQUOTE_LOGGING_LEVEL", "warn")
	t.Setenv("WINDQUOTE_EXPORT_CURRENCY", "CHF")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", conf.Logging.Level)
	assert.Equal(t, "CHF", conf.Export.Currency)
}

func TestLoad_EnvConfigPath(t *testing.T) {
	path := writeConfig(t, "export:\n  company: FromEnv\n")
	t.Setenv(EnvConfigFile, path)

	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "FromEnv", conf.Export.Company)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err, "an explicit missing file is an error")

	_, err = Load(writeConfig(t, "logging:\n  level: loud\n"))
	assert.ErrorContains(t, err, "logging.level")

	_, err = Load(writeConfig(t, "calculator:\n  slopePolicy: guess\n"))
	assert.ErrorContains(t, err, "slopePolicy")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "warn", Format: "console"}, "")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	logger, err = NewLogger(LoggingConfig{Level: "error"}, "debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel), "override wins")

	_, err = NewLogger(LoggingConfig{Level: "verbose"}, "")
	assert.Error(t, err)
	_, err = NewLogger(LoggingConfig{Format: "xml"}, "")
	assert.Error(t, err)
}

func TestNewLogger_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "windquote.log")

	logger, err := NewLogger(LoggingConfig{OutputFile: path}, "")
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
