package models

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultScanWindow   = 5 * time.Second
	DefaultScanInterval = 30 * time.Minute
	DefaultLogFile      = "/tmp/tilt.log"
)

type Config struct {
	MQTT          MQTTConfiguration `yaml:"mqtt" json:"mqtt"`
	ScanWindow    Duration          `yaml:"scanWindow" json:"scanWindow"`
	ScanInterval  Duration          `yaml:"scanInterval" json:"scanInterval"`
	LogFile       string            `yaml:"logFile" json:"logFile"`
	StatsServer   string            `yaml:"statsServer" json:"statsServer"`
	MetricsListen string            `yaml:"metricsAddress" json:"metricsAddress"`
}

type MQTTConfiguration struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

func DefaultConfig() Config {
	return Config{
		MQTT: MQTTConfiguration{
			Host:  "127.0.0.1",
			Port:  1883,
			Debug: true,
		},
		ScanWindow:   Duration{DefaultScanWindow},
		ScanInterval: Duration{DefaultScanInterval},
		LogFile:      DefaultLogFile,
	}
}

// LoadConfig builds the configuration from the defaults, the YAML file named
// by TILT_CONFIG (if any) and finally the environment.
func LoadConfig(getenv func(string) string) (Config, error) {
	config := DefaultConfig()
	if filename := getenv("TILT_CONFIG"); filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return config, fmt.Errorf("reading config file: %w", err)
		}
		if err = yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("parsing config file %s: %w", filename, err)
		}
	}
	if err := config.applyEnv(getenv); err != nil {
		return config, err
	}
	if config.ScanWindow.Duration <= 0 || config.ScanInterval.Duration < 0 {
		return config, fmt.Errorf("invalid scan timing: window %v interval %v", config.ScanWindow, config.ScanInterval)
	}
	return config, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if host := getenv("MQTT_IP"); host != "" {
		c.MQTT.Host = host
	}
	if port := getenv("MQTT_PORT"); port != "" {
		value, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid MQTT_PORT %q: %w", port, err)
		}
		c.MQTT.Port = value
	}
	if auth := getenv("MQTT_AUTH"); auth != "" {
		c.MQTT.Username, c.MQTT.Password = ParseAuth(auth)
	}
	if debug := getenv("MQTT_DEBUG"); debug != "" {
		value, err := strconv.ParseBool(debug)
		if err != nil {
			value = true
		}
		c.MQTT.Debug = value
	}
	if logFile := getenv("TILT_LOG_FILE"); logFile != "" {
		c.LogFile = logFile
	}
	if window := getenv("TILT_SCAN_WINDOW"); window != "" {
		if err := c.ScanWindow.Parse(window); err != nil {
			return fmt.Errorf("invalid TILT_SCAN_WINDOW: %w", err)
		}
	}
	if interval := getenv("TILT_SCAN_INTERVAL"); interval != "" {
		if err := c.ScanInterval.Parse(interval); err != nil {
			return fmt.Errorf("invalid TILT_SCAN_INTERVAL: %w", err)
		}
	}
	if server := getenv("STATSD_SERVER"); server != "" {
		c.StatsServer = server
	}
	if address := getenv("METRICS_ADDRESS"); address != "" {
		c.MetricsListen = address
	}
	return nil
}

// ParseAuth splits MQTT_AUTH of the form "user:password". A value without a
// colon is taken as a username with no password.
func ParseAuth(auth string) (string, string) {
	username, password, _ := strings.Cut(auth, ":")
	return username, password
}
