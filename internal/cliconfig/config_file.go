package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Device          string `toml:"device"`
	FrameFormat     string `toml:"frame_format"`
	TimezoneOffset  *int   `toml:"timezone_offset"`
	NTPServer       string `toml:"ntp_server"`
	NTPTimeout      string `toml:"ntp_timeout"`
	Iface           string `toml:"iface"`
	NetworkSSID     string `toml:"network_ssid"`
	NetworkPassword string `toml:"network_password"`
	SendInterval    string `toml:"send_interval"`
	TickInterval    string `toml:"tick_interval"`
	ConnectAttempts int    `toml:"connect_attempts"`
	ConnectPoll     string `toml:"connect_poll"`
	PollInterval    string `toml:"poll_interval"`
	MaxRetries      int    `toml:"max_retries"`
	AttemptTimeout  string `toml:"attempt_timeout"`
	HoldDuration    string `toml:"hold_duration"`
	DisplayInterval string `toml:"display_interval"`
	RTC             string `toml:"rtc"`
	RTCPath         string `toml:"rtc_path"`
	LED             string `toml:"led"`
	Brightness      int    `toml:"brightness"`
	Sensor          string `toml:"sensor"`
	WatchConfig     *bool  `toml:"watch_config"`
	LogLevel        string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigDir returns ~/.timelink, or "" if the home directory is unknown.
func DefaultConfigDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".timelink")
	}
	return ""
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.timelink/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if dir := DefaultConfigDir(); dir != "" {
		return filepath.Join(dir, "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("device", fc.Device, &cfg.Device)
	s.setString("frame-format", fc.FrameFormat, &cfg.FrameFormat)
	s.setString("ntp-server", fc.NTPServer, &cfg.NTPServer)
	s.setString("iface", fc.Iface, &cfg.Iface)
	s.setString("network-ssid", fc.NetworkSSID, &cfg.NetworkSSID)
	s.setString("network-password", fc.NetworkPassword, &cfg.NetworkPassword)
	s.setString("rtc", fc.RTC, &cfg.RTC)
	s.setString("rtc-path", fc.RTCPath, &cfg.RTCPath)
	s.setString("led", fc.LED, &cfg.LED)
	s.setString("sensor", fc.Sensor, &cfg.Sensor)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setSignedInt("timezone-offset", fc.TimezoneOffset, &cfg.OffsetHours)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"ntp-timeout", fc.NTPTimeout, &cfg.NTPTimeout},
		{"send-interval", fc.SendInterval, &cfg.SendInterval},
		{"tick-interval", fc.TickInterval, &cfg.TickInterval},
		{"connect-poll", fc.ConnectPoll, &cfg.ConnectPoll},
		{"poll-interval", fc.PollInterval, &cfg.PollInterval},
		{"attempt-timeout", fc.AttemptTimeout, &cfg.AttemptTimeout},
		{"hold-duration", fc.HoldDuration, &cfg.HoldDuration},
		{"display-interval", fc.DisplayInterval, &cfg.DisplayInterval},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setInt("connect-attempts", fc.ConnectAttempts, &cfg.ConnectAttempts)
	s.setInt("max-retries", fc.MaxRetries, &cfg.MaxRetries)
	s.setInt("brightness", fc.Brightness, &cfg.Brightness)

	s.setBool("watch-config", fc.WatchConfig, &cfg.WatchConfig)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
