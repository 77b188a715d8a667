package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"axum-engine/funcnum"
)

// ControlKind identifies how a surface control maps onto MIDI.
type ControlKind string

const (
	KindFader     ControlKind = "fader"      // CC, absolute
	KindEncoder   ControlKind = "encoder"    // CC, relative around 64
	KindEncoder2C ControlKind = "encoder-2c" // CC, relative two's complement
	KindButton    ControlKind = "button"     // note on/off with LED feedback
	KindLED       ControlKind = "led"        // note velocity, output only
	KindDisplay   ControlKind = "display"    // SysEx text, output only
)

// DefaultDisplaySize is the character count of a display control without a size.
const DefaultDisplaySize = 8

// ControlConfig is one control of a surface. Controls become node objects
// in list order, starting at the first custom object.
type ControlConfig struct {
	Function   string      `yaml:"function"`
	Kind       ControlKind `yaml:"kind"`
	Channel    uint8       `yaml:"channel,omitempty"`
	Controller uint8       `yaml:"controller,omitempty"`
	Note       uint8       `yaml:"note,omitempty"`
	Momentary  *int        `yaml:"momentary,omitempty"` // hold ms, unset latching
	Size       int         `yaml:"size,omitempty"`      // display characters
	Min        int         `yaml:"min,omitempty"`
	Max        int         `yaml:"max,omitempty"` // fader range, 0 means 127
}

// SurfaceConfig is a MIDI controller presented to the engine as a node.
type SurfaceConfig struct {
	Name        string          `yaml:"name"`
	Port        string          `yaml:"port"` // substring of the port name
	Address     uint32          `yaml:"address"`
	ProductID   uint16          `yaml:"productId"`
	UniqueID    uint16          `yaml:"uniqueId"`
	AutoConnect bool            `yaml:"autoConnect"`
	SysExHeader []int           `yaml:"sysexHeader,omitempty,flow"` // manufacturer id and model bytes
	Controls    []ControlConfig `yaml:"controls"`
}

// Config is the engine configuration file.
type Config struct {
	TickMs        int             `yaml:"tickMs"`
	MeterDivider  int             `yaml:"meterDivider"`
	StoreDir      string          `yaml:"storeDir,omitempty"`
	BackupSeconds int             `yaml:"backupSeconds"`
	Debug         bool            `yaml:"debug"`
	Palette       string          `yaml:"palette,omitempty"`
	Surfaces      []SurfaceConfig `yaml:"surfaces,omitempty"`
}

// DefaultConfig returns a config with one example surface: eight channel
// strips on console 0 plus a select encoder.
func DefaultConfig() *Config {
	s := SurfaceConfig{
		Name:        "Desk",
		Port:        "nanoKONTROL",
		Address:     0x1000,
		ProductID:   1,
		UniqueID:    1,
		AutoConnect: true,
	}
	for i := 0; i < 8; i++ {
		s.Controls = append(s.Controls,
			ControlConfig{Function: fmt.Sprintf("module/%d/level", i), Kind: KindFader, Controller: uint8(i)},
			ControlConfig{Function: fmt.Sprintf("module/%d/on-off", i), Kind: KindButton, Note: uint8(32 + i), Momentary: Hold(500)},
		)
	}
	s.Controls = append(s.Controls,
		ControlConfig{Function: "console/0/module-select", Kind: KindEncoder, Controller: 16},
		ControlConfig{Function: "module/sel0/label", Kind: KindDisplay, Size: DefaultDisplaySize},
	)

	return &Config{
		TickMs:        10,
		MeterDivider:  5,
		BackupSeconds: 60,
		Surfaces:      []SurfaceConfig{s},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "axum-engine"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Fields the file leaves out keep their
// default values; a missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Surfaces = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Hold returns a momentary hold time for ControlConfig.Momentary.
func Hold(ms int) *int { return &ms }

// Validate checks surface addresses and every control's function name.
func (c *Config) Validate() error {
	if c.TickMs <= 0 {
		return fmt.Errorf("tickMs %d: must be positive", c.TickMs)
	}
	seen := make(map[uint32]string)
	for _, s := range c.Surfaces {
		if s.Address == 0 {
			return fmt.Errorf("surface %q: address 0 is reserved", s.Name)
		}
		if other, ok := seen[s.Address]; ok {
			return fmt.Errorf("surface %q: address 0x%x already used by %q", s.Name, s.Address, other)
		}
		seen[s.Address] = s.Name
		if s.Port == "" {
			return fmt.Errorf("surface %q: no port", s.Name)
		}
		for _, b := range s.SysExHeader {
			if b < 0 || b > 127 {
				return fmt.Errorf("surface %q: sysex header byte %d out of range", s.Name, b)
			}
		}
		for i, ctl := range s.Controls {
			if err := ctl.validate(); err != nil {
				return fmt.Errorf("surface %q control %d: %w", s.Name, i, err)
			}
		}
	}
	return nil
}

func (ctl ControlConfig) validate() error {
	switch ctl.Kind {
	case KindFader, KindEncoder, KindEncoder2C, KindButton, KindLED, KindDisplay:
	default:
		return fmt.Errorf("unknown kind %q", ctl.Kind)
	}
	if ctl.Channel > 15 || ctl.Controller > 127 || ctl.Note > 127 {
		return fmt.Errorf("channel, controller or note out of range")
	}
	if ctl.Max > 127 || ctl.Min < 0 || (ctl.Max != 0 && ctl.Min >= ctl.Max) {
		return fmt.Errorf("bad range %d..%d", ctl.Min, ctl.Max)
	}
	if ctl.Function == "" {
		return nil
	}
	_, err := funcnum.Parse(ctl.Function)
	return err
}

// TickPeriod returns the engine timer period.
func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

// BackupTicks converts the backup interval to timer ticks.
func (c *Config) BackupTicks() int {
	if c.BackupSeconds <= 0 || c.TickMs <= 0 {
		return 0
	}
	return c.BackupSeconds * 1000 / c.TickMs
}

// StorePath returns StoreDir, defaulting to a store directory next to the
// config file.
func (c *Config) StorePath() (string, error) {
	if c.StoreDir != "" {
		return c.StoreDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "store"), nil
}

// FindSurface finds the first surface whose port pattern matches portName.
func (c *Config) FindSurface(portName string) *SurfaceConfig {
	for i := range c.Surfaces {
		if c.Surfaces[i].Matches(portName) {
			return &c.Surfaces[i]
		}
	}
	return nil
}

// Matches reports whether portName contains the surface's port pattern.
func (s *SurfaceConfig) Matches(portName string) bool {
	return s.Port != "" && strings.Contains(strings.ToLower(portName), strings.ToLower(s.Port))
}

// AddSurface adds or updates a surface, keyed by name.
func (c *Config) AddSurface(s SurfaceConfig) {
	for i := range c.Surfaces {
		if c.Surfaces[i].Name == s.Name {
			c.Surfaces[i] = s
			return
		}
	}
	c.Surfaces = append(c.Surfaces, s)
}

// AutoConnectSurfaces returns surfaces with autoConnect enabled
func (c *Config) AutoConnectSurfaces() []SurfaceConfig {
	var result []SurfaceConfig
	for _, s := range c.Surfaces {
		if s.AutoConnect {
			result = append(result, s)
		}
	}
	return result
}
