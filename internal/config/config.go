package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"

	"github.com/nikitakuklev/stepperd/pkg/motion"
)

// ConfigVersion is the built-in major version this binary accepts.
// compatible_with in the config document must match.
const ConfigVersion = 1

// Config holds all configuration for the application.
type Config struct {
	CompatibleWith int                    `mapstructure:"compatible_with"`
	Server         ServerConfig           `mapstructure:"server"`
	Logger         LoggerConfig           `mapstructure:"logger"`
	Motors         map[string]MotorConfig `mapstructure:"motors"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggerConfig contains logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MotorConfig is one entry of the motors map, keyed by short name in the
// document. Field names mirror spec §6's YAML layout exactly.
type MotorConfig struct {
	UUID         string `mapstructure:"uuid"`
	FriendlyName string `mapstructure:"friendly_name"`

	PinDirection int `mapstructure:"pin_direction"`
	PinStep      int `mapstructure:"pin_step"`
	PinEnable    int `mapstructure:"pin_enable"`
	PinSleep     int `mapstructure:"pin_sleep"`
	PinLimUp     int `mapstructure:"pin_lim_up"`
	PinLimDn     int `mapstructure:"pin_lim_dn"`

	LimUpState bool `mapstructure:"lim_up_state"`
	LimDnState bool `mapstructure:"lim_dn_state"`

	StepSize      float64 `mapstructure:"step_size"`
	StepPulseTime float64 `mapstructure:"step_pulse_time"`
	StepDelayTime float64 `mapstructure:"step_delay_time"`

	AutoEnable  bool `mapstructure:"autoenable"`
	AutoDisable bool `mapstructure:"autodisable"`

	Jerk         float64 `mapstructure:"jerk"`
	Velocity     float64 `mapstructure:"velocity"`
	Acceleration float64 `mapstructure:"acceleration"`

	AxisLengthSteps int `mapstructure:"axis_length_steps"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults.
	}

	v.SetEnvPrefix("STEPPERD")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("compatible_with", ConfigVersion)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".stepperd")
}

// CheckCompatibility exits the process with code 3 when the document's
// compatible_with field doesn't match the binary's built-in version.
func (c *Config) CheckCompatibility() {
	if c.CompatibleWith != ConfigVersion {
		fmt.Fprintf(os.Stderr, "config: compatible_with=%d does not match binary version %d\n",
			c.CompatibleWith, ConfigVersion)
		os.Exit(3)
	}
}

// Descriptors converts the configured motors map into motion.Descriptor
// values, ordered ascending by short name for deterministic iteration.
// Registry.Register does not reorder; cmd/stepperd re-sorts these names by
// uuid before registering, so control loops start in ascending uuid order.
func (c *Config) Descriptors() ([]string, map[string]*motion.Descriptor) {
	names := make([]string, 0, len(c.Motors))
	for name := range c.Motors {
		names = append(names, name)
	}
	sort.Strings(names)

	descriptors := make(map[string]*motion.Descriptor, len(c.Motors))
	for _, name := range names {
		mc := c.Motors[name]
		descriptors[name] = &motion.Descriptor{
			UUID:              mc.UUID,
			ShortName:         name,
			FriendlyName:      mc.FriendlyName,
			PinDirection:      mc.PinDirection,
			PinStep:           mc.PinStep,
			PinEnable:         mc.PinEnable,
			PinSleep:          mc.PinSleep,
			PinLimitUp:        mc.PinLimUp,
			PinLimitDown:      mc.PinLimDn,
			LimitUpHitLevel:   mc.LimUpState,
			LimitDownHitLevel: mc.LimDnState,
			StepSize:          mc.StepSize,
			PulseWidthSec:     mc.StepPulseTime,
			StepGapSec:        mc.StepDelayTime,
			Jerk:              mc.Jerk,
			Velocity:          mc.Velocity,
			Acceleration:      mc.Acceleration,
			AutoEnable:        mc.AutoEnable,
			AutoDisable:       mc.AutoDisable,
			AxisLengthSteps:   mc.AxisLengthSteps,
		}
	}
	return names, descriptors
}
