package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "MODKIT_"

// Config is the framework configuration.
type Config struct {
	Mod          ModConfig         `toml:"mod" envPrefix:"MOD_"`
	Storage      StorageConfig     `toml:"storage" envPrefix:"STORAGE_"`
	Translations TranslationConfig `toml:"translations" envPrefix:"TRANSLATIONS_"`
	Host         HostConfig        `toml:"host" envPrefix:"HOST_"`
	Notice       NoticeConfig      `toml:"notice" envPrefix:"NOTICE_"`
	Log          LogConfig         `toml:"log" envPrefix:"LOG_"`
	Debug        bool              `toml:"debug" env:"DEBUG"`
}

// ModConfig identifies the mod built on the framework.
type ModConfig struct {
	Name    string `toml:"name" env:"NAME"`
	Version string `toml:"version" env:"VERSION"`
}

// StorageConfig locates persisted settings.
type StorageConfig struct {
	// Path is the SQLite database file.
	Path string `toml:"path" env:"PATH"`
	// Slot names the settings slot inside the database. Defaults to the
	// mod name.
	Slot string `toml:"slot" env:"SLOT"`
}

// TranslationConfig locates translation files.
type TranslationConfig struct {
	LibDir          string `toml:"lib_dir" env:"LIB_DIR"`
	ModDir          string `toml:"mod_dir" env:"MOD_DIR"`
	DefaultLanguage string `toml:"default_language" env:"DEFAULT_LANGUAGE"`
	Language        string `toml:"language" env:"LANGUAGE"`
	Fixed           bool   `toml:"fixed" env:"FIXED"`
	Watch           bool   `toml:"watch" env:"WATCH"`
}

// HostConfig names the host functions the framework relies on.
type HostConfig struct {
	// Script is a Lua file defining the host functions.
	Script string `toml:"script" env:"SCRIPT"`
	// LoginFunction is observed to start the framework after login.
	LoginFunction string `toml:"login_function" env:"LOGIN_FUNCTION"`
	// WaitForLogin defers startup until LoginFunction succeeds.
	WaitForLogin bool `toml:"wait_for_login" env:"WAIT_FOR_LOGIN"`
	// NoticeTrigger is the function after which the new-version notice shows.
	NoticeTrigger string `toml:"notice_trigger" env:"NOTICE_TRIGGER"`
	// TextFunctions are text lookups hooked by the Debug module, taking the
	// tag first.
	TextFunctions []string `toml:"text_functions" env:"TEXT_FUNCTIONS" envSeparator:","`
	// ScopedTextFunctions are text lookups taking a file path, then the tag.
	ScopedTextFunctions []string `toml:"scoped_text_functions" env:"SCOPED_TEXT_FUNCTIONS" envSeparator:","`
}

// NoticeConfig is the new-version notice.
type NoticeConfig struct {
	Message string   `toml:"message" env:"MESSAGE"`
	Timeout Duration `toml:"timeout" env:"TIMEOUT"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
}

// Duration is a time.Duration written as a string ("30s").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Mod: ModConfig{
			Name:    "modkit",
			Version: "0.0.0",
		},
		Storage: StorageConfig{
			Path: "modkit.db",
		},
		Translations: TranslationConfig{
			DefaultLanguage: "en",
		},
		Host: HostConfig{
			LoginFunction:       "LoginResponse",
			NoticeTrigger:       "ChatRoomSync",
			TextFunctions:       []string{"TextGet"},
			ScopedTextFunctions: []string{"TextGetInScope"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path, when
// it exists, and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := parse(path, data, cfg); err != nil {
				return nil, err
			}
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadReader parses TOML from r over the defaults, without the environment.
func LoadReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := parse("<reader>", data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func parse(source string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return pe
	}
	return nil
}

// ApplyEnv overlays MODKIT_* environment variables on cfg.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

var versionPattern = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Mod.Name) == "" {
		errs = append(errs, &ValidationError{Field: "mod.name", Message: "is required"})
	}
	if !versionPattern.MatchString(c.Mod.Version) {
		errs = append(errs, &ValidationError{Field: "mod.version", Message: fmt.Sprintf("%q is not a dotted version", c.Mod.Version)})
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		errs = append(errs, &ValidationError{Field: "storage.path", Message: "is required"})
	}
	if c.Notice.Timeout < 0 {
		errs = append(errs, &ValidationError{Field: "notice.timeout", Message: "must not be negative"})
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, &ValidationError{Field: "log.level", Message: err.Error()})
	}
	switch c.Log.Format {
	case "", "text", "json", "logfmt":
	default:
		errs = append(errs, &ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)})
	}
	if c.Host.WaitForLogin && c.Host.LoginFunction == "" {
		errs = append(errs, &ValidationError{Field: "host.login_function", Message: "is required when waiting for login"})
	}
	return errors.Join(errs...)
}

// SlotName returns the storage slot name.
func (c *Config) SlotName() string {
	if c.Storage.Slot != "" {
		return c.Storage.Slot
	}
	return c.Mod.Name
}

// NewLogger creates a logger writing to w as configured.
func (c LogConfig) NewLogger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		level = log.InfoLevel
	}
	formatter := log.TextFormatter
	switch c.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          "modkit",
	})
}
