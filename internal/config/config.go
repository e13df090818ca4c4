package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the configuration file searched for in the config directory.
const FileName = "scribbler.cfg.json"

// ServerConfig locates the agent.
type ServerConfig struct {
	URL     string        `json:"url" mapstructure:"url"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// TraceConfig holds the trace engine and controller timings.
type TraceConfig struct {
	UpdateInterval   time.Duration `json:"updateInterval" mapstructure:"updateInterval"`
	SyncThreshold    float64       `json:"syncThreshold" mapstructure:"syncThreshold"`
	SettleDelay      time.Duration `json:"settleDelay" mapstructure:"settleDelay"`
	SyncInterval     time.Duration `json:"syncInterval" mapstructure:"syncInterval"`
	StatusRetryDelay time.Duration `json:"statusRetryDelay" mapstructure:"statusRetryDelay"`
}

// CanvasConfig is the drawing surface in canvas units.
type CanvasConfig struct {
	Width       float64 `json:"width" mapstructure:"width"`
	Height      float64 `json:"height" mapstructure:"height"`
	ClickRadius float64 `json:"clickRadius" mapstructure:"clickRadius"`
}

// MemoryConfig holds in-memory/JSON recorder backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds the sqlite recorder backend settings.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// WebSocketConfig holds the streaming recorder backend settings.
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// RecorderConfig selects and configures the flight recorder backends.
// Type is a comma separated list; "none" disables recording.
type RecorderConfig struct {
	Type          string          `json:"type" mapstructure:"type"`
	FlushInterval time.Duration   `json:"flushInterval" mapstructure:"flushInterval"`
	Memory        MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite        SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	WebSocket     WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// DBConfig holds the postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN renders the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// InfluxConfig holds the InfluxDB settings.
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL renders the server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GraylogConfig holds the GELF sink settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Settings is the typed view of the whole configuration.
type Settings struct {
	LogLevel        string
	LogsDir         string
	Headless        bool
	ConsoleMaxLines int
	Server          ServerConfig
	Trace           TraceConfig
	Canvas          CanvasConfig
	Recorder        RecorderConfig
	DB              DBConfig
	Influx          InfluxConfig
	Graylog         GraylogConfig
	OTel            OTelConfig
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./scribblerlogs")
	viper.SetDefault("headless", false)
	viper.SetDefault("console.maxLines", 500)

	viper.SetDefault("server.url", "http://localhost:8080")
	viper.SetDefault("server.timeout", "30s")

	viper.SetDefault("sync.interval", "10s")
	viper.SetDefault("status.retryDelay", "0s")

	viper.SetDefault("trace.updateInterval", "20ms")
	viper.SetDefault("trace.syncThreshold", 0.99)
	viper.SetDefault("trace.settleDelay", "200ms")

	viper.SetDefault("editor.clickRadius", 10)
	viper.SetDefault("canvas.width", 600)
	viper.SetDefault("canvas.height", 400)

	viper.SetDefault("recorder.type", "memory")
	viper.SetDefault("recorder.flushInterval", "1s")
	viper.SetDefault("recorder.memory.outputDir", "./recordings")
	viper.SetDefault("recorder.memory.compressOutput", true)
	viper.SetDefault("recorder.sqlite.path", "./recordings/scribbler.db")
	viper.SetDefault("recorder.websocket.url", "")
	viper.SetDefault("recorder.websocket.secret", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "scribbler")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "scribbler")
	viper.SetDefault("influx.bucket", "trace")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "scribbler")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// NewFlagSet declares the command-line flags that override the file.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config-dir", ".", "directory containing "+FileName)
	fs.String("server", "", "agent base URL (overrides server.url)")
	fs.Bool("headless", false, "run without the terminal UI")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	return fs
}

var flagKeys = map[string]string{
	"server":    "server.url",
	"headless":  "headless",
	"log-level": "logLevel",
}

// Load reads configuration from the JSON file in configDir and sets default
// values. A missing file is not an error. Flags that were set on the command
// line take precedence over the file; flags may be nil.
func Load(configDir string, flags *pflag.FlagSet) error {
	setDefaults()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := viper.BindPFlag(key, f); err != nil {
					return fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetRecorderConfig returns the flight recorder configuration.
func GetRecorderConfig() RecorderConfig {
	return RecorderConfig{
		Type:          viper.GetString("recorder.type"),
		FlushInterval: viper.GetDuration("recorder.flushInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("recorder.memory.outputDir"),
			CompressOutput: viper.GetBool("recorder.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("recorder.sqlite.path"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("recorder.websocket.url"),
			Secret: viper.GetString("recorder.websocket.secret"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// Current returns the typed view of the loaded configuration.
func Current() Settings {
	return Settings{
		LogLevel:        viper.GetString("logLevel"),
		LogsDir:         viper.GetString("logsDir"),
		Headless:        viper.GetBool("headless"),
		ConsoleMaxLines: viper.GetInt("console.maxLines"),
		Server: ServerConfig{
			URL:     viper.GetString("server.url"),
			Timeout: viper.GetDuration("server.timeout"),
		},
		Trace: TraceConfig{
			UpdateInterval:   viper.GetDuration("trace.updateInterval"),
			SyncThreshold:    viper.GetFloat64("trace.syncThreshold"),
			SettleDelay:      viper.GetDuration("trace.settleDelay"),
			SyncInterval:     viper.GetDuration("sync.interval"),
			StatusRetryDelay: viper.GetDuration("status.retryDelay"),
		},
		Canvas: CanvasConfig{
			Width:       viper.GetFloat64("canvas.width"),
			Height:      viper.GetFloat64("canvas.height"),
			ClickRadius: viper.GetFloat64("editor.clickRadius"),
		},
		Recorder: GetRecorderConfig(),
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
		Influx: InfluxConfig{
			Enabled:  viper.GetBool("influx.enabled"),
			Protocol: viper.GetString("influx.protocol"),
			Host:     viper.GetString("influx.host"),
			Port:     viper.GetString("influx.port"),
			Token:    viper.GetString("influx.token"),
			Org:      viper.GetString("influx.org"),
			Bucket:   viper.GetString("influx.bucket"),
		},
		Graylog: GraylogConfig{
			Enabled: viper.GetBool("graylog.enabled"),
			Address: viper.GetString("graylog.address"),
		},
		OTel: GetOTelConfig(),
	}
}
