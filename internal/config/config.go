// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/jeranaias/folio-tui/internal/reveal"
	"github.com/jeranaias/folio-tui/internal/session"
	"github.com/jeranaias/folio-tui/internal/util"
	"github.com/jeranaias/folio-tui/internal/widget"
)

// CurrentVersion is written to new config files.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete folio configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Assistant AssistantConfig `toml:"assistant" json:"assistant"`
	Storage   StorageConfig   `toml:"storage" json:"storage"`
	Reveal    RevealConfig    `toml:"reveal" json:"reveal"`
	UI        UIConfig        `toml:"ui" json:"ui"`
	Voice     VoiceConfig     `toml:"voice" json:"voice"`
	Server    ServerConfig    `toml:"server" json:"server"`
}

// AssistantConfig is the client side of the chat backend.
type AssistantConfig struct {
	// Endpoint is the chat route the widget posts to.
	Endpoint string `toml:"endpoint" json:"endpoint"`

	// ImageBase is prefixed to gallery image paths. Empty means the
	// endpoint's scheme and host.
	ImageBase string `toml:"image_base" json:"image_base"`

	// HistoryWindow is how many recent messages accompany each query.
	HistoryWindow int `toml:"history_window" json:"history_window"`
}

// StorageConfig selects where the conversation is persisted.
type StorageConfig struct {
	Backend string `toml:"backend" json:"backend"` // file, sqlite or memory
	Path    string `toml:"path" json:"path"`       // empty means under ConfigDir
}

// RevealConfig holds the reply reveal timings in milliseconds.
type RevealConfig struct {
	CharDelayMs      int `toml:"char_delay_ms" json:"char_delay_ms"`
	ImageDelayMs     int `toml:"image_delay_ms" json:"image_delay_ms"`
	FadeMs           int `toml:"fade_ms" json:"fade_ms"`
	ScrollThrottleMs int `toml:"scroll_throttle_ms" json:"scroll_throttle_ms"`
}

// UIConfig holds terminal widget preferences.
type UIConfig struct {
	Theme string `toml:"theme" json:"theme"` // dark, light or auto

	// Anchors lists the surface regions present. Empty means all.
	Anchors []string `toml:"anchors" json:"anchors"`

	WelcomePopup    bool     `toml:"welcome_popup" json:"welcome_popup"`
	Roles           []string `toml:"roles" json:"roles"`
	ScrollThreshold int      `toml:"scroll_threshold" json:"scroll_threshold"`
}

// VoiceConfig configures dictation.
type VoiceConfig struct {
	// Command records speech and prints the transcript. Empty disables voice.
	Command string `toml:"command" json:"command"`
}

// ServerConfig configures the development backend started by "folio serve".
type ServerConfig struct {
	Addr           string   `toml:"addr" json:"addr"`
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
	ImageDir       string   `toml:"image_dir" json:"image_dir"`

	GroqAPIKey  string  `toml:"groq_api_key" json:"groq_api_key"`
	Model       string  `toml:"model" json:"model"`
	BaseURL     string  `toml:"base_url" json:"base_url"`
	Temperature float64 `toml:"temperature" json:"temperature"`
	MaxTokens   int     `toml:"max_tokens" json:"max_tokens"`

	MaxTurns      int `toml:"max_turns" json:"max_turns"`
	RatePerMinute int `toml:"rate_per_minute" json:"rate_per_minute"`
}

// Default returns a configuration with the built-in defaults.
func Default() *Config {
	pacing := reveal.DefaultPacing()
	return &Config{
		Version: CurrentVersion,
		Assistant: AssistantConfig{
			Endpoint:      "http://127.0.0.1:8000/api/v1/chat",
			HistoryWindow: 10,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Reveal: RevealConfig{
			CharDelayMs:      int(pacing.CharDelay / time.Millisecond),
			ImageDelayMs:     int(pacing.ImageDelay / time.Millisecond),
			FadeMs:           int(pacing.FadeDelay / time.Millisecond),
			ScrollThrottleMs: int(pacing.ScrollThrottle / time.Millisecond),
		},
		UI: UIConfig{
			Theme:           "auto",
			WelcomePopup:    true,
			Roles:           append([]string(nil), reveal.DefaultRoles...),
			ScrollThreshold: session.DefaultScrollThreshold,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8000",
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:8080"},
			Model:          "meta-llama/llama-4-scout-17b-16e-instruct",
			BaseURL:        "https://api.groq.com/openai/v1",
			Temperature:    0.2,
			MaxTokens:      500,
			MaxTurns:       5,
			RatePerMinute:  30,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the folio directory, ~/.folio unless FOLIO_HOME is set.
func ConfigDir() (string, error) {
	if dir := os.Getenv("FOLIO_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".folio"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return inConfigDir("config.json")
}

// LogPath returns the path of the TUI log file.
func LogPath() (string, error) {
	return inConfigDir("folio.log")
}

// EnsureConfigDir creates the config directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the configuration. It loads an optional .env first, then
// config.toml (or config.json when there is no TOML file), then applies
// FOLIO_* environment overrides. A file that fails to parse is reported
// alongside the defaults-based config.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return nil, err
	}

	switch {
	case fileExists(tomlPath):
		if err := LoadTOML(cfg, tomlPath); err != nil {
			loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			cfg = Default()
		}
	case fileExists(jsonPath):
		if err := LoadJSON(cfg, jsonPath); err != nil {
			loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			cfg = Default()
		}
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finish(cfg *Config) error {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		log.Printf("CONFIG_ENV_INVALID | err=%v", err)
	}
	if err := cfg.Migrate(); err != nil {
		return fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// loadDotEnv loads .env from the working directory and the config
// directory. Variables already set in the environment win.
func loadDotEnv() {
	candidates := []string{".env"}
	if p, err := inConfigDir(".env"); err == nil {
		candidates = append(candidates, p)
	}
	for _, p := range candidates {
		if !fileExists(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("CONFIG_DOTENV_FAILED | path=%s err=%v", p, err)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# folio configuration file\n")
	buf.WriteString("# Edit with care; unknown keys are ignored.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON with owner-only permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Assistant
	if err := validHTTPURL(c.Assistant.Endpoint); err != nil {
		add("assistant.endpoint", "%v", err)
	}
	if c.Assistant.ImageBase != "" {
		if err := validHTTPURL(c.Assistant.ImageBase); err != nil {
			add("assistant.image_base", "%v", err)
		}
	}
	if c.Assistant.HistoryWindow < 1 || c.Assistant.HistoryWindow > 50 {
		add("assistant.history_window", "must be between 1 and 50, got %d", c.Assistant.HistoryWindow)
	}

	// Storage
	switch strings.ToLower(c.Storage.Backend) {
	case "file", "sqlite", "memory":
	default:
		add("storage.backend", "invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend)
	}

	// Reveal
	for field, v := range map[string]int{
		"reveal.char_delay_ms":      c.Reveal.CharDelayMs,
		"reveal.image_delay_ms":     c.Reveal.ImageDelayMs,
		"reveal.fade_ms":            c.Reveal.FadeMs,
		"reveal.scroll_throttle_ms": c.Reveal.ScrollThrottleMs,
	} {
		if v < 0 || v > 60000 {
			add(field, "must be between 0 and 60000, got %d", v)
		}
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)
	}
	for _, name := range c.UI.Anchors {
		if !knownAnchor(name) {
			add("ui.anchors", "unknown anchor '%s'", name)
		}
	}
	if c.UI.ScrollThreshold < 0 {
		add("ui.scroll_threshold", "must not be negative")
	}

	// Server
	if c.Server.Addr == "" {
		add("server.addr", "must not be empty")
	}
	if c.Server.BaseURL != "" {
		if err := validHTTPURL(c.Server.BaseURL); err != nil {
			add("server.base_url", "%v", err)
		}
	}
	if c.Server.Temperature < 0 || c.Server.Temperature > 2 {
		add("server.temperature", "must be between 0 and 2, got %g", c.Server.Temperature)
	}
	if c.Server.MaxTokens < 1 {
		add("server.max_tokens", "must be positive")
	}
	if c.Server.MaxTurns < 1 {
		add("server.max_turns", "must be positive")
	}
	if c.Server.RatePerMinute < 0 {
		add("server.rate_per_minute", "must not be negative")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL '%s': %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL '%s' must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL '%s' has no host", raw)
	}
	return nil
}

func knownAnchor(name string) bool {
	for _, a := range widget.AllAnchors {
		if string(a) == name {
			return true
		}
	}
	return false
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Assistant.Endpoint == "" {
		c.Assistant.Endpoint = d.Assistant.Endpoint
	}
	if c.Assistant.HistoryWindow == 0 {
		c.Assistant.HistoryWindow = d.Assistant.HistoryWindow
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if len(c.UI.Roles) == 0 {
		c.UI.Roles = d.UI.Roles
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.Model == "" {
		c.Server.Model = d.Server.Model
	}
	if c.Server.MaxTokens == 0 {
		c.Server.MaxTokens = d.Server.MaxTokens
	}
	if c.Server.MaxTurns == 0 {
		c.Server.MaxTurns = d.Server.MaxTurns
	}
}

// Migrate upgrades older files. Version-less files predate the [reveal]
// section and are stamped with the current version.
func (c *Config) Migrate() error {
	switch c.Version {
	case "", CurrentVersion:
		c.Version = CurrentVersion
		return nil
	default:
		return fmt.Errorf("unsupported config version %q", c.Version)
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// envOverrides is decoded from the environment. Empty and zero values mean
// the variable is unset.
type envOverrides struct {
	Endpoint       string   `env:"FOLIO_ENDPOINT"`
	ImageBase      string   `env:"FOLIO_IMAGE_BASE"`
	HistoryWindow  int      `env:"FOLIO_HISTORY_WINDOW"`
	StorageBackend string   `env:"FOLIO_STORAGE_BACKEND"`
	StoragePath    string   `env:"FOLIO_STORAGE_PATH"`
	Theme          string   `env:"FOLIO_THEME"`
	Anchors        []string `env:"FOLIO_ANCHORS" envSeparator:","`
	VoiceCommand   string   `env:"FOLIO_VOICE_COMMAND"`
	ServerAddr     string   `env:"FOLIO_SERVER_ADDR"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	GroqAPIKey     string   `env:"GROQ_API_KEY"`
	Model          string   `env:"GROQ_MODEL_EN"`
	BaseURL        string   `env:"FOLIO_LLM_BASE_URL"`
	RatePerMinute  int      `env:"FOLIO_RATE_PER_MINUTE"`
}

// ApplyEnvOverrides applies environment variables over the loaded file.
//
// Supported environment variables:
//   - FOLIO_ENDPOINT, FOLIO_IMAGE_BASE, FOLIO_HISTORY_WINDOW
//   - FOLIO_STORAGE_BACKEND, FOLIO_STORAGE_PATH
//   - FOLIO_THEME, FOLIO_ANCHORS (comma separated)
//   - FOLIO_VOICE_COMMAND
//   - FOLIO_SERVER_ADDR, ALLOWED_ORIGINS, FOLIO_RATE_PER_MINUTE
//   - GROQ_API_KEY, GROQ_MODEL_EN, FOLIO_LLM_BASE_URL
func (c *Config) ApplyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return err
	}

	setString(&c.Assistant.Endpoint, o.Endpoint)
	setString(&c.Assistant.ImageBase, o.ImageBase)
	if o.HistoryWindow != 0 {
		c.Assistant.HistoryWindow = o.HistoryWindow
	}
	setString(&c.Storage.Backend, o.StorageBackend)
	setString(&c.Storage.Path, o.StoragePath)
	setString(&c.UI.Theme, o.Theme)
	if len(o.Anchors) > 0 {
		c.UI.Anchors = trimAll(o.Anchors)
	}
	setString(&c.Voice.Command, o.VoiceCommand)
	setString(&c.Server.Addr, o.ServerAddr)
	if len(o.AllowedOrigins) > 0 {
		c.Server.AllowedOrigins = trimAll(o.AllowedOrigins)
	}
	setString(&c.Server.GroqAPIKey, o.GroqAPIKey)
	setString(&c.Server.Model, o.Model)
	setString(&c.Server.BaseURL, o.BaseURL)
	if o.RatePerMinute != 0 {
		c.Server.RatePerMinute = o.RatePerMinute
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// Pacing returns the reveal timings.
func (c *Config) Pacing() reveal.Pacing {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return reveal.Pacing{
		CharDelay:      ms(c.Reveal.CharDelayMs),
		ImageDelay:     ms(c.Reveal.ImageDelayMs),
		FadeDelay:      ms(c.Reveal.FadeMs),
		ScrollThrottle: ms(c.Reveal.ScrollThrottleMs),
	}
}

// StoragePath returns the storage location, defaulting under ConfigDir.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	switch c.Storage.Backend {
	case "sqlite":
		return inConfigDir("folio.db")
	case "memory":
		return "", nil
	default:
		return inConfigDir("slots")
	}
}

// ImageBase returns the prefix for gallery image URLs.
func (c *Config) ImageBase() string {
	if c.Assistant.ImageBase != "" {
		return strings.TrimRight(c.Assistant.ImageBase, "/")
	}
	u, err := url.Parse(c.Assistant.Endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value by dotted key, e.g. "reveal.char_delay_ms".
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by dotted key. String values are converted to the
// field's type; lists are comma separated.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		name := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(n string) bool {
			return strings.EqualFold(n, name)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a setting", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts snake_case or kebab-case to a Go field name.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(f)
			return nil
		case reflect.Bool:
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				lower := strings.ToLower(strings.TrimSpace(s))
				b = lower == "yes" || lower == "on"
			}
			field.SetBool(b)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(trimAll(strings.Split(s, ","))))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns every settable key in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"assistant.endpoint",
		"assistant.image_base",
		"assistant.history_window",
		"storage.backend",
		"storage.path",
		"reveal.char_delay_ms",
		"reveal.image_delay_ms",
		"reveal.fade_ms",
		"reveal.scroll_throttle_ms",
		"ui.theme",
		"ui.anchors",
		"ui.welcome_popup",
		"ui.roles",
		"ui.scroll_threshold",
		"voice.command",
		"server.addr",
		"server.allowed_origins",
		"server.image_dir",
		"server.groq_api_key",
		"server.model",
		"server.base_url",
		"server.temperature",
		"server.max_tokens",
		"server.max_turns",
		"server.rate_per_minute",
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	clone.UI.Anchors = append([]string(nil), c.UI.Anchors...)
	clone.UI.Roles = append([]string(nil), c.UI.Roles...)
	clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return &clone
}

// String renders the config as TOML with secrets redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Server.GroqAPIKey != "" {
		safe.Server.GroqAPIKey = "[REDACTED]"
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			log.Printf("CONFIG_LOAD_FAILED | err=%v", err)
			if cfg == nil {
				cfg = Default()
			}
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the global state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
