package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration
type Config struct {
	Settings   Settings         `yaml:"settings"`
	Flight     FlightConfig     `yaml:"flight"`
	Sim        SimConfig        `yaml:"sim"`
	Storage    StorageConfig    `yaml:"storage"`
	GroundFeed GroundFeedConfig `yaml:"groundFeed"`
	Bench      BenchConfig      `yaml:"bench"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// Level maps the configured log level name to a slog level, defaulting
// to info.
func (s Settings) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FlightConfig represents the control loop timing. Zero values fall
// back to the flight defaults.
type FlightConfig struct {
	BasePeriod     time.Duration `yaml:"basePeriod"`
	FixTimeoutHot  time.Duration `yaml:"fixTimeoutHot"`
	FixTimeoutCold time.Duration `yaml:"fixTimeoutCold"`
	HotFixMaxAge   time.Duration `yaml:"hotFixMaxAge"`
}

// SimConfig represents the simulated flight parameters
type SimConfig struct {
	Ticks          int           `yaml:"ticks"`
	StartLat       float64       `yaml:"startLat"`
	StartLon       float64       `yaml:"startLon"`
	FloatAltitudeM float64       `yaml:"floatAltitudeM"`
	InitialMv      int           `yaml:"initialMv"`
	DayLength      time.Duration `yaml:"dayLength"`
	NightLength    time.Duration `yaml:"nightLength"`
	PeakSolarMv    int           `yaml:"peakSolarMv"`

	// FreefallAfter schedules a burst this long into the flight. Zero
	// means the balloon never bursts.
	FreefallAfter time.Duration `yaml:"freefallAfter"`

	LossRate float64 `yaml:"lossRate"`
	Seed     int64   `yaml:"seed"`
}

// StorageConfig represents flight log and state persistence settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	StateFile     string `yaml:"stateFile"`
}

// GroundFeedConfig represents the MQTT ground feed settings
type GroundFeedConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"clientId"`
}

// BenchConfig wires a real accelerometer interrupt line into an
// otherwise simulated flight, for hardware-in-the-loop runs on a
// Linux SBC. Empty chip name disables it.
type BenchConfig struct {
	GpioChip string `yaml:"gpioChip"`
	GpioLine int    `yaml:"gpioLine"`
}

const defaultTicks = 1440

// LoadConfig reads and validates the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if config.Sim.Ticks <= 0 {
		config.Sim.Ticks = defaultTicks
	}
	if config.Sim.LossRate < 0 || config.Sim.LossRate >= 1 {
		return nil, fmt.Errorf("loss rate %0.2f outside [0, 1)", config.Sim.LossRate)
	}
	if config.GroundFeed.Enabled && config.GroundFeed.Broker == "" {
		return nil, fmt.Errorf("ground feed enabled without a broker URL")
	}

	return &config, nil
}
