package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/timelink/internal/codec"
	"github.com/bft-labs/timelink/internal/domain"
)

// Defaults shared by both roles.
const (
	DefaultDevice     = "/dev/ttyS0"
	DefaultNTPServer  = "pool.ntp.org"
	DefaultBrightness = 10
	DefaultLogLevel   = "info"

	RTCFile     = "file"
	RTCHardware = "hw"
)

// Offsets outside this range are not real timezones.
const (
	MinOffsetHours = -12
	MaxOffsetHours = 14
)

// Config holds CLI configuration for timelink. Source-only and Sink-only
// fields are ignored by the other role.
type Config struct {
	Device      string
	FrameFormat string
	OffsetHours int

	// Source
	NTPServer       string
	NTPTimeout      time.Duration
	Iface           string
	NetworkSSID     string
	NetworkPassword string
	SendInterval    time.Duration
	TickInterval    time.Duration
	ConnectAttempts int
	ConnectPoll     time.Duration

	// Sink
	PollInterval    time.Duration
	MaxRetries      int
	AttemptTimeout  time.Duration
	DisplayInterval time.Duration
	RTC             string
	RTCPath         string
	Sensor          string

	HoldDuration time.Duration
	LED          string
	Brightness   int
	WatchConfig  bool
	LogLevel     string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Device:          DefaultDevice,
		FrameFormat:     codec.FormatRaw,
		NTPServer:       DefaultNTPServer,
		NTPTimeout:      5 * time.Second,
		SendInterval:    60 * time.Second,
		TickInterval:    10 * time.Second,
		ConnectAttempts: 10,
		ConnectPoll:     time.Second,
		PollInterval:    10 * time.Millisecond,
		MaxRetries:      100,
		AttemptTimeout:  2 * time.Second,
		DisplayInterval: time.Second,
		RTC:             RTCFile,
		RTCPath:         "", // Derived from the home directory during ValidateSink
		HoldDuration:    time.Second,
		Brightness:      DefaultBrightness,
		LogLevel:        DefaultLogLevel,
		NetworkPassword: os.Getenv("TIMELINK_NETWORK_PASSWORD"),
	}
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.NetworkPassword != "" {
		c.NetworkPassword = "****"
	}
	return c
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// validateCommon checks the settings both roles use.
func (c *Config) validateCommon() error {
	if c.Device == "" {
		return invalid("device is required")
	}
	if _, err := codec.ParseFormat(c.FrameFormat); err != nil {
		return invalid("%v", err)
	}
	if c.OffsetHours < MinOffsetHours || c.OffsetHours > MaxOffsetHours {
		return invalid("timezone offset %d outside %d..%d", c.OffsetHours, MinOffsetHours, MaxOffsetHours)
	}
	if c.Brightness < 0 || c.Brightness > 255 {
		return invalid("brightness %d outside 0..255", c.Brightness)
	}
	if c.HoldDuration < 0 {
		return invalid("hold duration must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return invalid("log level %q", c.LogLevel)
	}
	return nil
}

// ValidateSource checks the configuration of the sending role.
func (c *Config) ValidateSource() error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	if c.NTPServer == "" {
		return invalid("ntp server is required")
	}
	if c.SendInterval <= 0 {
		return invalid("send interval must be positive")
	}
	if c.TickInterval <= 0 {
		return invalid("tick interval must be positive")
	}
	if c.ConnectAttempts <= 0 {
		return invalid("connect attempts must be positive")
	}
	if c.NetworkPassword != "" && c.NetworkSSID == "" {
		return invalid("network password set without network ssid")
	}
	return nil
}

// ValidateSink checks the configuration of the receiving role and sets
// derived defaults.
func (c *Config) ValidateSink() error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return invalid("poll interval must be positive")
	}
	if c.MaxRetries <= 0 {
		return invalid("max retries must be positive")
	}
	if c.DisplayInterval <= 0 {
		return invalid("display interval must be positive")
	}

	switch c.RTC {
	case RTCHardware:
	case RTCFile:
		if c.RTCPath == "" {
			dir := DefaultConfigDir()
			if dir == "" {
				return invalid("rtc-path is required when the home directory is unknown")
			}
			c.RTCPath = filepath.Join(dir, "rtc.json")
		}
	default:
		return invalid("rtc must be %q or %q, got %q", RTCFile, RTCHardware, c.RTC)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setSignedInt sets an int where zero and negatives are meaningful.
func (s *configSetter) setSignedInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setSignedIntFromString is setIntFromString for values that may be zero or negative.
func (s *configSetter) setSignedIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
