// Package config provides configuration management for remotepad.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"remotepad/internal/auth"
	"remotepad/internal/input"
	"remotepad/internal/keymap"
	"remotepad/internal/logger"
)

const (
	// EnvPrefix prefixes every environment override, e.g. REMOTEPAD_AUTH_SECRET.
	EnvPrefix = "REMOTEPAD"

	PolicyExclusive = "exclusive"
	PolicyShared    = "shared"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Motion   MotionConfig   `mapstructure:"motion"`
	Actuator ActuatorConfig `mapstructure:"actuator"`
	Keyboard KeyboardConfig `mapstructure:"keyboard"`
	Session  SessionConfig  `mapstructure:"session"`
	Device   DeviceConfig   `mapstructure:"device"`
	Log      LogConfig      `mapstructure:"log"`
	Tray     TrayConfig     `mapstructure:"tray"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	// Listen is the host:port the HTTP server binds
	Listen string `mapstructure:"listen"`

	// FirewallRule adds an inbound Windows firewall rule for the port
	FirewallRule bool `mapstructure:"firewall_rule"`
}

// AuthConfig holds the shared secret
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

// MotionConfig controls pointer velocity scaling
type MotionConfig struct {
	// Speed multiplies movex/movey before truncation
	Speed float64 `mapstructure:"speed"`

	// InvertY flips the vertical axis for y-up joysticks
	InvertY bool `mapstructure:"invert_y"`
}

// ActuatorConfig holds actuation loop timings
type ActuatorConfig struct {
	Warmup       time.Duration `mapstructure:"warmup"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// KeyOverride remaps one key label to a chord such as "Shift+2".
type KeyOverride struct {
	Label string `mapstructure:"label"`
	Chord string `mapstructure:"chord"`
}

// KeyboardConfig selects the key label table
type KeyboardConfig struct {
	// Layout is a built-in layout name ("us", "de")
	Layout string `mapstructure:"layout"`

	// Overrides are applied on top of the layout. A list rather than a map
	// because labels are case-sensitive.
	Overrides []KeyOverride `mapstructure:"overrides"`

	// Fullscreen is the chord sent for fullscreen commands (e.g. "Alt+Enter")
	Fullscreen string `mapstructure:"fullscreen"`
}

// SessionConfig controls concurrent controllers
type SessionConfig struct {
	// Policy is "exclusive" (one controller at a time) or "shared"
	Policy string `mapstructure:"policy"`
}

// DeviceConfig selects the input backend
type DeviceConfig struct {
	// Backend is "system" for the host injector or "log" for a dry run
	Backend string `mapstructure:"backend"`
}

// LogConfig controls logging output
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// TrayConfig controls the system tray icon
type TrayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SetDefaults installs the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", "0.0.0.0:8000")
	v.SetDefault("server.firewall_rule", true)
	v.SetDefault("auth.secret", "")
	v.SetDefault("motion.speed", 10.0)
	v.SetDefault("motion.invert_y", false)
	v.SetDefault("actuator.warmup", time.Second)
	v.SetDefault("actuator.poll_interval", 10*time.Millisecond)
	v.SetDefault("keyboard.layout", keymap.DefaultLayout)
	v.SetDefault("keyboard.overrides", []any{})
	v.SetDefault("keyboard.fullscreen", "Alt+Enter")
	v.SetDefault("session.policy", PolicyExclusive)
	v.SetDefault("device.backend", input.BackendSystem)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("tray.enabled", false)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Auth.Secret == "" {
		return eris.New("auth.secret is required")
	}
	if c.Server.Listen == "" {
		return eris.New("server.listen is required")
	}
	if c.Motion.Speed <= 0 {
		return eris.Errorf("motion.speed must be positive, got %v", c.Motion.Speed)
	}
	if c.Actuator.PollInterval <= 0 {
		return eris.Errorf("actuator.poll_interval must be positive, got %s", c.Actuator.PollInterval)
	}
	if c.Actuator.Warmup < 0 {
		return eris.Errorf("actuator.warmup must not be negative, got %s", c.Actuator.Warmup)
	}
	switch c.Session.Policy {
	case PolicyExclusive, PolicyShared:
	default:
		return eris.Errorf("session.policy must be %q or %q, got %q", PolicyExclusive, PolicyShared, c.Session.Policy)
	}
	switch c.Device.Backend {
	case input.BackendSystem, input.BackendLog:
	default:
		return eris.Errorf("device.backend must be %q or %q, got %q", input.BackendSystem, input.BackendLog, c.Device.Backend)
	}
	layout, err := c.Layout()
	if err != nil {
		return err
	}
	if _, err := layout.ParseCombo(c.Keyboard.Fullscreen); err != nil {
		return eris.Wrap(err, "keyboard.fullscreen")
	}
	return nil
}

// Layout builds the configured layout with overrides applied.
func (c Config) Layout() (*keymap.Layout, error) {
	base, err := keymap.Builtin(c.Keyboard.Layout)
	if err != nil {
		return nil, eris.Wrap(err, "keyboard.layout")
	}
	if len(c.Keyboard.Overrides) == 0 {
		return base, nil
	}
	overrides := make(map[string]string, len(c.Keyboard.Overrides))
	for _, o := range c.Keyboard.Overrides {
		overrides[o.Label] = o.Chord
	}
	layout, err := base.WithOverrides(overrides)
	if err != nil {
		return nil, eris.Wrap(err, "keyboard.overrides")
	}
	return layout, nil
}

// Manager handles loading and watching configuration
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	path      string
	config    Config
	secret    *auth.Secret
	onChanged []func(Config)
	log       zerolog.Logger
}

// NewManager creates a configuration manager. An empty path searches the
// user config directory for remotepad.yaml.
func NewManager(path string, log zerolog.Logger) *Manager {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("remotepad")
		v.SetConfigType("yaml")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Manager{
		v:    v,
		path: path,
		log:  logger.Component(log, "config"),
	}
}

// ConfigDir returns the per-user configuration directory for remotepad.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", eris.Wrap(err, "locate user config dir")
	}
	return filepath.Join(dir, "remotepad"), nil
}

// BindFlag lets a command-line flag override key.
func (m *Manager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return eris.Errorf("bind %s: no such flag", key)
	}
	return eris.Wrapf(m.v.BindPFlag(key, flag), "bind %s", key)
}

// Load reads the configuration from file, environment and flags and
// validates it.
func (m *Manager) Load() error {
	if err := m.readFile(); err != nil {
		return err
	}
	return m.apply()
}

// readFile tolerates a missing file unless one was named explicitly.
func (m *Manager) readFile() error {
	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if m.path != "" || !errors.As(err, &notFound) {
			return eris.Wrap(err, "read config")
		}
	}
	return nil
}

// Read loads file, environment and flags into a Config without validating
// or storing it. Commands that never need the secret use it.
func (m *Manager) Read() (Config, error) {
	if err := m.readFile(); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "unmarshal config")
	}
	return cfg, nil
}

// SetLogger replaces the logger used for reload messages.
func (m *Manager) SetLogger(log zerolog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = logger.Component(log, "config")
}

// Reload re-reads the configuration file. On failure the previous
// configuration stays in effect.
func (m *Manager) Reload() error {
	if err := m.v.ReadInConfig(); err != nil {
		return eris.Wrap(err, "read config")
	}
	if err := m.apply(); err != nil {
		return err
	}
	m.notify()
	return nil
}

func (m *Manager) apply() error {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return eris.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	old := m.secret
	m.config = cfg
	if old == nil || !old.Matches(cfg.Auth.Secret) {
		m.secret = auth.NewSecret(cfg.Auth.Secret)
		old.Destroy()
	}
	m.mu.Unlock()
	return nil
}

func (m *Manager) notify() {
	m.mu.RLock()
	cfg := m.config
	callbacks := append([]func(Config){}, m.onChanged...)
	m.mu.RUnlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// Watch reloads the configuration whenever the config file changes. It is a
// no-op when no file was found.
func (m *Manager) Watch() {
	file := m.v.ConfigFileUsed()
	if file == "" {
		return
	}
	m.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		log := m.logger()
		if err := m.Reload(); err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("config reload failed, keeping previous config")
			return
		}
		log.Info().Str("file", e.Name).Msg("config reloaded")
	})
	m.v.WatchConfig()
	log := m.logger()
	log.Debug().Str("file", file).Msg("watching config file")
}

func (m *Manager) logger() zerolog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.log
}

// Get returns a snapshot of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Secret returns the current shared secret. A rotated secret destroys the
// previous one, so sessions holding it stop authenticating.
func (m *Manager) Secret() *auth.Secret {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.secret
}

// File returns the config file in use, if any.
func (m *Manager) File() string {
	return m.v.ConfigFileUsed()
}

// RegisterChangeCallback registers a function to be called after a successful reload
func (m *Manager) RegisterChangeCallback(fn func(Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = append(m.onChanged, fn)
}
