package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure shared by every rice helper.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	AC       ACConfig       `yaml:"ac"`
	Bulb     BulbConfig     `yaml:"bulb"`
	Battery  BatteryConfig  `yaml:"battery"`
	Audio    AudioConfig    `yaml:"audio"`
	Recorder RecorderConfig `yaml:"recorder"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DatabaseConfig contains SQLite settings for the key-value store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
// Publishing widget state is optional and disabled by default.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	QoS     int              `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// ACConfig addresses the Gree air conditioner.
type ACConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	ID   string `yaml:"id"`
	Key  string `yaml:"key"`

	// Timeout bounds a single round trip (milliseconds).
	Timeout int `yaml:"timeout"`

	// Interval is the listen poll period (seconds).
	Interval int `yaml:"interval"`
}

// BulbConfig addresses the Yeelight bulb.
type BulbConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Timeout  int    `yaml:"timeout"`  // milliseconds
	Interval int    `yaml:"interval"` // seconds
}

// BatteryConfig points at the sysfs battery directory.
type BatteryConfig struct {
	Path     string `yaml:"path"`
	Interval int    `yaml:"interval"` // seconds
}

// AudioConfig configures the pactl scraper.
type AudioConfig struct {
	Pactl string `yaml:"pactl"`
}

// RecorderConfig configures the screen recorder.
type RecorderConfig struct {
	Slurp      string `yaml:"slurp"`
	WFRecorder string `yaml:"wf_recorder"`
	VideosDir  string `yaml:"videos_dir"`
	Interval   int    `yaml:"interval"` // milliseconds
	Notify     bool   `yaml:"notify"`
}

// DefaultBatteryPath is the macsmc battery on Apple silicon laptops.
const DefaultBatteryPath = "/sys/devices/platform/soc/290400000.smc/macsmc-power/power_supply/macsmc-battery"

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// An empty path resolves through $RICE_CONFIG and then the XDG default
// location. Only an explicitly named file is required to exist.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("RICE_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Defaults only.
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/rice/config.yaml.
func DefaultPath() string {
	return filepath.Join(ConfigHome(), "rice", "config.yaml")
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(ConfigHome(), "waybar", "rice.db"),
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "rice",
			},
			QoS: 1,
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			BatchSize:     100,
			FlushInterval: 10,
		},
		AC: ACConfig{
			Port:     7000,
			Timeout:  3000,
			Interval: 1,
		},
		Bulb: BulbConfig{
			Port:     55443,
			Timeout:  1000,
			Interval: 1,
		},
		Battery: BatteryConfig{
			Path:     DefaultBatteryPath,
			Interval: 5,
		},
		Audio: AudioConfig{
			Pactl: "pactl",
		},
		Recorder: RecorderConfig{
			Slurp:      "slurp",
			WFRecorder: "wf-recorder",
			Interval:   350,
			Notify:     true,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RICE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// AC - the key is a secret and is best kept out of the file
	if v := os.Getenv("RICE_AC_HOST"); v != "" {
		cfg.AC.Host = v
	}
	if v := os.Getenv("RICE_AC_ID"); v != "" {
		cfg.AC.ID = v
	}
	if v := os.Getenv("RICE_AC_KEY"); v != "" {
		cfg.AC.Key = v
	}

	// Bulb
	if v := os.Getenv("RICE_BULB_HOST"); v != "" {
		cfg.Bulb.Host = v
	}

	// Database
	if v := os.Getenv("RICE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("RICE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RICE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RICE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("RICE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Device addresses are not required here: each helper checks only the
// section it uses, after command-line flags have been applied.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	errs = append(errs, validatePort("ac.port", c.AC.Port)...)
	errs = append(errs, validatePort("bulb.port", c.Bulb.Port)...)

	if c.AC.Key != "" && len(c.AC.Key) != 16 {
		errs = append(errs, "ac.key must be exactly 16 characters")
	}

	for name, v := range map[string]int{
		"ac.timeout":        c.AC.Timeout,
		"ac.interval":       c.AC.Interval,
		"bulb.timeout":      c.Bulb.Timeout,
		"bulb.interval":     c.Bulb.Interval,
		"battery.interval":  c.Battery.Interval,
		"recorder.interval": c.Recorder.Interval,
	} {
		if v <= 0 {
			errs = append(errs, name+" must be positive")
		}
	}

	if len(errs) > 0 {
		// map iteration above is unordered
		sort.Strings(errs)
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func validatePort(name string, port int) []string {
	if port < 1 || port > 65535 {
		return []string{name + " must be between 1 and 65535"}
	}
	return nil
}

// GetACTimeout returns the AC round trip timeout as a Duration.
func (c *Config) GetACTimeout() time.Duration {
	return time.Duration(c.AC.Timeout) * time.Millisecond
}

// GetACInterval returns the AC poll interval as a Duration.
func (c *Config) GetACInterval() time.Duration {
	return time.Duration(c.AC.Interval) * time.Second
}

// GetBulbTimeout returns the bulb round trip timeout as a Duration.
func (c *Config) GetBulbTimeout() time.Duration {
	return time.Duration(c.Bulb.Timeout) * time.Millisecond
}

// GetBulbInterval returns the bulb poll interval as a Duration.
func (c *Config) GetBulbInterval() time.Duration {
	return time.Duration(c.Bulb.Interval) * time.Second
}

// GetBatteryInterval returns the battery poll interval as a Duration.
func (c *Config) GetBatteryInterval() time.Duration {
	return time.Duration(c.Battery.Interval) * time.Second
}

// GetRecorderInterval returns the recorder status poll interval as a Duration.
func (c *Config) GetRecorderInterval() time.Duration {
	return time.Duration(c.Recorder.Interval) * time.Millisecond
}
