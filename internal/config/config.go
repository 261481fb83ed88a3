package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// MaxOptions is the maximum number of options a spinner may hold. Values
	// above 15 are treated as 15.
	MaxOptions int `json:"max_options"`

	// FullTurns is the number of whole revolutions before the wheel settles.
	FullTurns int `json:"full_turns"`

	// PointerOffsetDeg corrects for the pointer's resting orientation.
	// nil means use the default (90).
	PointerOffsetDeg *float64 `json:"pointer_offset_deg,omitempty"`

	// SpinDurationMs is the total spin animation time. It must match the
	// length of SpinSound.
	SpinDurationMs int `json:"spin_duration_ms"`

	// SpinSound is the audio resource played while the wheel turns.
	SpinSound string `json:"spin_sound"`

	// DefaultColor is assigned to every new spinner.
	DefaultColor string `json:"default_color"`

	// DefaultIcon pre-fills the icon field of the create form.
	DefaultIcon string `json:"default_icon"`

	// StorageDSN selects the key-value backend. Empty means SQLite in the base
	// directory; "postgres://..." uses PostgreSQL.
	StorageDSN string `json:"storage_dsn,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export files.
	// Paths outside ~/.spinit/exports require either being in this list or AllowUnsafePaths=true.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// UIBind and UIPort are the defaults for `spinit ui`.
	UIBind string `json:"ui_bind,omitempty"`
	UIPort int    `json:"ui_port,omitempty"`
}

// DefaultPointerOffsetDeg is the pointer correction used when none is configured.
const DefaultPointerOffsetDeg = 90.0

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	offset := DefaultPointerOffsetDeg
	return &Config{
		MaxOptions:       15,
		FullTurns:        16,
		PointerOffsetDeg: &offset,
		SpinDurationMs:   10580,
		SpinSound:        "spinning_jar_cap.mp3",
		DefaultColor:     "#B8DCD9",
		DefaultIcon:      "🎯",
		UIBind:           "127.0.0.1",
		UIPort:           8787,
	}
}

// PointerOffset returns the configured pointer offset or the default.
func (c *Config) PointerOffset() float64 {
	if c == nil || c.PointerOffsetDeg == nil {
		return DefaultPointerOffsetDeg
	}
	return *c.PointerOffsetDeg
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from the global directory, the nearest
// repo-level .spinit/config.json above startDir, and finally environment
// overrides (baseDir/.env, then the process environment).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	env, err := LoadEnv(globalDir)
	if err != nil {
		return nil, err
	}

	return Merge(Merge(Merge(DefaultConfig(), global), repo), env), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .spinit/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".spinit", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// envKeys maps SPINIT_* variables onto config setters.
var envKeys = map[string]func(*Config, string) error{
	"SPINIT_MAX_OPTIONS":        intSetter(func(c *Config, v int) { c.MaxOptions = v }),
	"SPINIT_FULL_TURNS":         intSetter(func(c *Config, v int) { c.FullTurns = v }),
	"SPINIT_SPIN_DURATION_MS":   intSetter(func(c *Config, v int) { c.SpinDurationMs = v }),
	"SPINIT_UI_PORT":            intSetter(func(c *Config, v int) { c.UIPort = v }),
	"SPINIT_DB_MAX_OPEN_CONNS":  intSetter(func(c *Config, v int) { c.DBMaxOpenConns = v }),
	"SPINIT_DB_MAX_IDLE_CONNS":  intSetter(func(c *Config, v int) { c.DBMaxIdleConns = v }),
	"SPINIT_SPIN_SOUND":         stringSetter(func(c *Config, v string) { c.SpinSound = v }),
	"SPINIT_DEFAULT_COLOR":      stringSetter(func(c *Config, v string) { c.DefaultColor = v }),
	"SPINIT_DEFAULT_ICON":       stringSetter(func(c *Config, v string) { c.DefaultIcon = v }),
	"SPINIT_STORAGE_DSN":        stringSetter(func(c *Config, v string) { c.StorageDSN = v }),
	"SPINIT_UI_BIND":            stringSetter(func(c *Config, v string) { c.UIBind = v }),
	"SPINIT_POINTER_OFFSET_DEG": floatPtrSetter(func(c *Config, v *float64) { c.PointerOffsetDeg = v }),
}

// LoadEnv builds an overlay config from baseDir/.env and SPINIT_* process
// environment variables. Process variables win over the .env file.
func LoadEnv(baseDir string) (*Config, error) {
	values := map[string]string{}

	envPath := filepath.Join(baseDir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		fileValues, err := godotenv.Read(envPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}

	for key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	cfg := &Config{}
	for key, value := range values {
		set, ok := envKeys[key]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if err := set(cfg, strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return cfg, nil
}

func intSetter(apply func(*Config, int)) func(*Config, string) error {
	return func(c *Config, s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		apply(c, v)
		return nil
	}
}

func stringSetter(apply func(*Config, string)) func(*Config, string) error {
	return func(c *Config, s string) error {
		apply(c, s)
		return nil
	}
}

func floatPtrSetter(apply func(*Config, *float64)) func(*Config, string) error {
	return func(c *Config, s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		apply(c, &v)
		return nil
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.MaxOptions = pickInt(overlay.MaxOptions, base.MaxOptions)
	result.FullTurns = pickInt(overlay.FullTurns, base.FullTurns)
	result.SpinDurationMs = pickInt(overlay.SpinDurationMs, base.SpinDurationMs)
	result.DBMaxOpenConns = pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.UIPort = pickInt(overlay.UIPort, base.UIPort)

	result.SpinSound = pickString(overlay.SpinSound, base.SpinSound)
	result.DefaultColor = pickString(overlay.DefaultColor, base.DefaultColor)
	result.DefaultIcon = pickString(overlay.DefaultIcon, base.DefaultIcon)
	result.StorageDSN = pickString(overlay.StorageDSN, base.StorageDSN)
	result.UIBind = pickString(overlay.UIBind, base.UIBind)

	result.PointerOffsetDeg = base.PointerOffsetDeg
	if overlay.PointerOffsetDeg != nil {
		result.PointerOffsetDeg = overlay.PointerOffsetDeg
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
