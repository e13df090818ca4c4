package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"server": { "url": "http://robot.local:9000" },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	require.NoError(t, Load(dir, nil))

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "http://robot.local:9000", viper.GetString("server.url"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`), nil))

	s := Current()
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "./scribblerlogs", s.LogsDir)
	assert.False(t, s.Headless)
	assert.Equal(t, 500, s.ConsoleMaxLines)
	assert.Equal(t, ServerConfig{URL: "http://localhost:8080", Timeout: 30 * time.Second}, s.Server)
	assert.Equal(t, TraceConfig{
		UpdateInterval:   20 * time.Millisecond,
		SyncThreshold:    0.99,
		SettleDelay:      200 * time.Millisecond,
		SyncInterval:     10 * time.Second,
		StatusRetryDelay: 0,
	}, s.Trace)
	assert.Equal(t, CanvasConfig{Width: 600, Height: 400, ClickRadius: 10}, s.Canvas)
	assert.Equal(t, "localhost", s.DB.Host)
	assert.Equal(t, "scribbler", s.DB.Database)
	assert.False(t, s.Influx.Enabled)
	assert.Equal(t, "http://localhost:8086", s.Influx.URL())
	assert.Equal(t, "trace", s.Influx.Bucket)
	assert.False(t, s.Graylog.Enabled)
	assert.Equal(t, "localhost:12201", s.Graylog.Address)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(t.TempDir(), nil))
	assert.Equal(t, "http://localhost:8080", GetString("server.url"))
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(writeConfig(t, `{"logLevel": `), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{"logLevel": "warn", "server": {"url": "http://file:1"}}`)
	fs := NewFlagSet("scribbler")
	require.NoError(t, fs.Parse([]string{"--server", "http://flag:2", "--headless"}))

	require.NoError(t, Load(dir, fs))

	s := Current()
	assert.Equal(t, "http://flag:2", s.Server.URL)
	assert.True(t, s.Headless)
	assert.Equal(t, "warn", s.LogLevel, "unset flags leave the file value")
}

func TestNewFlagSet_ConfigDir(t *testing.T) {
	fs := NewFlagSet("scribbler")
	require.NoError(t, fs.Parse([]string{"--config-dir", "/etc/scribbler"}))
	dir, err := fs.GetString("config-dir")
	require.NoError(t, err)
	assert.Equal(t, "/etc/scribbler", dir)
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetRecorderConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`), nil))

	cfg := GetRecorderConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, time.Second, cfg.FlushInterval)
	assert.Equal(t, "./recordings", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, "./recordings/scribbler.db", cfg.SQLite.Path)
	assert.Empty(t, cfg.WebSocket.URL)
}

func TestGetRecorderConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"recorder": {
			"type": "sqlite,websocket",
			"flushInterval": "250ms",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"sqlite": { "path": "/tmp/trace.db" },
			"websocket": { "url": "ws://viewer/ws", "secret": "s3" }
		}
	}`), nil))

	rc := GetRecorderConfig()
	assert.Equal(t, "sqlite,websocket", rc.Type)
	assert.Equal(t, 250*time.Millisecond, rc.FlushInterval)
	assert.Equal(t, "/tmp/out", rc.Memory.OutputDir)
	assert.Equal(t, false, rc.Memory.CompressOutput)
	assert.Equal(t, "/tmp/trace.db", rc.SQLite.Path)
	assert.Equal(t, WebSocketConfig{URL: "ws://viewer/ws", Secret: "s3"}, rc.WebSocket)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`), nil))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "scribbler", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4318",
			"insecure": false
		}
	}`), nil))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4318", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "h", Port: "1", Username: "u", Password: "p", Database: "d"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", c.DSN())
}
