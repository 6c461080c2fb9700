package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// Built-in defaults.
const (
	DefaultDataPath = "Postsecondary_School_Locations_-_Current.csv"
	DefaultDBPath   = "~/.campusmap/campusmap.db"
	DefaultAddr     = ":8050"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries CLI flag values; empty means "not given".
type ResolveOptions struct {
	ConfigPath   string
	CLIData      string
	CLISchema    string
	CLIDBPath    string
	CLIAddr      string
	CLIState     string
	CLIAttribute string
	CLIScheme    string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DataPath   ResolvedValue `json:"data_path"`
	SchemaPath ResolvedValue `json:"schema_path"`
	DBPath     ResolvedValue `json:"db_path"`
	Addr       ResolvedValue `json:"addr"`

	// Initial selection; empty values fall back to the first control entry.
	State     ResolvedValue `json:"state"`
	Attribute ResolvedValue `json:"attribute"`
	Scheme    ResolvedValue `json:"scheme"`
}

type fileConfig struct {
	Data   string `yaml:"data"`
	Schema string `yaml:"schema"`
	DBPath string `yaml:"db_path"`
	Addr   string `yaml:"addr"`
	Select struct {
		State     string `yaml:"state"`
		Attribute string `yaml:"attribute"`
		Scheme    string `yaml:"scheme"`
	} `yaml:"select"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".campusmap", "config.yaml")
}

// ResolveConfig merges built-in defaults, the YAML config file, CAMPUSMAP_*
// environment variables and CLI flags, in increasing precedence.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	apply(&out.DataPath, DefaultDataPath, SourceDefault, "built-in default")
	apply(&out.DBPath, DefaultDBPath, SourceDefault, "built-in default")
	apply(&out.Addr, DefaultAddr, SourceDefault, "built-in default")

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DataPath, cfg.Data, SourceConfig, path)
		apply(&out.SchemaPath, cfg.Schema, SourceConfig, path)
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.Addr, cfg.Addr, SourceConfig, path)
		apply(&out.State, cfg.Select.State, SourceConfig, path)
		apply(&out.Attribute, cfg.Select.Attribute, SourceConfig, path)
		apply(&out.Scheme, cfg.Select.Scheme, SourceConfig, path)
	}

	applyEnv(&out.DataPath, "CAMPUSMAP_DATA")
	applyEnv(&out.SchemaPath, "CAMPUSMAP_SCHEMA")
	applyEnv(&out.DBPath, "CAMPUSMAP_DB")
	applyEnv(&out.Addr, "CAMPUSMAP_ADDR")
	applyEnv(&out.State, "CAMPUSMAP_STATE")
	applyEnv(&out.Attribute, "CAMPUSMAP_ATTRIBUTE")
	applyEnv(&out.Scheme, "CAMPUSMAP_SCHEME")

	apply(&out.DataPath, opts.CLIData, SourceCLI, "--data")
	apply(&out.SchemaPath, opts.CLISchema, SourceCLI, "--schema")
	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.Addr, opts.CLIAddr, SourceCLI, "--addr")
	apply(&out.State, opts.CLIState, SourceCLI, "--state")
	apply(&out.Attribute, opts.CLIAttribute, SourceCLI, "--attribute")
	apply(&out.Scheme, opts.CLIScheme, SourceCLI, "--scheme")

	for _, v := range []*ResolvedValue{&out.DataPath, &out.SchemaPath, &out.DBPath} {
		if v.Value != "" {
			v.Value = expandUserPath(v.Value)
		}
	}

	return out, nil
}

// Values lists every resolved setting by name, for display.
func (r ResolvedConfig) Values() []NamedValue {
	return []NamedValue{
		{"data", r.DataPath},
		{"schema", r.SchemaPath},
		{"db", r.DBPath},
		{"addr", r.Addr},
		{"state", r.State},
		{"attribute", r.Attribute},
		{"scheme", r.Scheme},
	}
}

// NamedValue pairs a setting name with its resolved value.
type NamedValue struct {
	Name  string
	Value ResolvedValue
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
