// Package config loads agent settings from defaults and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/ad_mute/internal/policy"
	"github.com/eliteGoblin/focusd/ad_mute/internal/scanner"
	"github.com/eliteGoblin/focusd/ad_mute/internal/usecase"
)

// DefaultLivenessInterval is how often the attached process is checked for exit.
const DefaultLivenessInterval = 2 * time.Second

// maxTrackLength bounds the identifier window read from the target.
const maxTrackLength = 256

// Duration is a time.Duration written as a Go duration string ("500ms", "2s").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SignatureConfig describes how the identifier address is located in memory.
type SignatureConfig struct {
	Pattern    string `yaml:"pattern"`
	Correction int64  `yaml:"correction"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Config holds every tunable of the agent.
type Config struct {
	Target           string          `yaml:"target"`   // Policy ID of the monitored app
	User             string          `yaml:"user"`     // Pin one account ("<user>-user"); empty watches all
	DataDir          string          `yaml:"data_dir"` // Override the Spotify Users directory
	SettleDelay      Duration        `yaml:"settle_delay"`
	RetryInterval    Duration        `yaml:"retry_interval"`
	LivenessInterval Duration        `yaml:"liveness_interval"`
	PollInterval     Duration        `yaml:"poll_interval"`
	TrackLength      int             `yaml:"track_length"`
	AdSentinel       string          `yaml:"ad_sentinel"`
	Signature        SignatureConfig `yaml:"signature"`
	Log              LogConfig       `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Target:           policy.DefaultTargetID,
		SettleDelay:      Duration(usecase.DefaultSettleDelay),
		RetryInterval:    Duration(usecase.DefaultRetryInterval),
		LivenessInterval: Duration(DefaultLivenessInterval),
		PollInterval:     0,
		TrackLength:      policy.DefaultTrackLength,
		AdSentinel:       string(policy.AdSentinel),
		Signature: SignatureConfig{
			Pattern:    scanner.DefaultPattern,
			Correction: scanner.DefaultCorrection,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and that the signature pattern parses.
func (c Config) Validate() error {
	if _, err := policy.NewRegistry().Get(c.Target); err != nil {
		return err
	}
	if c.SettleDelay < 0 {
		return errors.New("settle_delay must not be negative")
	}
	if c.RetryInterval <= 0 {
		return errors.New("retry_interval must be positive")
	}
	if c.LivenessInterval <= 0 {
		return errors.New("liveness_interval must be positive")
	}
	if c.PollInterval < 0 {
		return errors.New("poll_interval must not be negative")
	}
	if c.TrackLength <= 0 || c.TrackLength > maxTrackLength {
		return fmt.Errorf("track_length must be in 1..%d", maxTrackLength)
	}
	if c.AdSentinel == "" {
		return errors.New("ad_sentinel must not be empty")
	}
	if _, err := scanner.ParsePattern(c.Signature.Pattern); err != nil {
		return fmt.Errorf("signature.pattern: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
