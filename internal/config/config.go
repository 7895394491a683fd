package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File names looked up in the config directory, in priority order.
const (
	JSONFileName = "agent_config.json"
	YAMLFileName = "agent_config.yaml"
)

// Defaults applied when the config file omits a value.
const (
	DefaultAgent           = "Agent"
	DefaultMaxContextChars = 4000
	DefaultHandoverKeep    = 10
	DefaultLogLevel        = "warn"
)

// Config holds application configuration.
type Config struct {
	// Agent is this agent's display name. It names the log directory
	// (<shared>/<Agent>/logs) and the inbox file (messages/<lower(Agent)>.md).
	Agent string `json:"agent" yaml:"agent"`

	// SharedPath is the team-shared root holding logs, inbox, handovers and
	// the watched documents. Defaults to the config directory.
	SharedPath string `json:"shared_path" yaml:"shared_path"`

	// AllAgents lists every agent identity on the team. Peers are AllAgents
	// minus Agent. Defaults to [Agent].
	AllAgents []string `json:"all_agents,omitempty" yaml:"all_agents,omitempty"`

	// StateDir holds process-local state (the watch-state database).
	// It is per-installation, never shared. Defaults to os.TempDir().
	StateDir string `json:"state_dir,omitempty" yaml:"state_dir,omitempty"`

	// MaxContextChars is the hard budget for the session-start digest.
	MaxContextChars int `json:"max_context_chars,omitempty" yaml:"max_context_chars,omitempty"`

	// HandoverKeep is how many handover snapshots survive rotation.
	HandoverKeep int `json:"handover_keep,omitempty" yaml:"handover_keep,omitempty"`

	// LogLevel is the slog level for diagnostics on stderr: debug|info|warn|error.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" yaml:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names to disable entirely
	// (e.g. "log" disables log_append).
	DisabledTypes []string `json:"disabled_types,omitempty" yaml:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration rooted at dir.
func DefaultConfig(dir string) *Config {
	return &Config{
		Agent:           DefaultAgent,
		SharedPath:      dir,
		StateDir:        os.TempDir(),
		MaxContextChars: DefaultMaxContextChars,
		HandoverKeep:    DefaultHandoverKeep,
		LogLevel:        DefaultLogLevel,
	}
}

// Load loads configuration from dir/agent_config.json, falling back to
// dir/agent_config.yaml. Returns default config if neither file exists.
// A malformed file is an error; use LoadOrDefault for hook entry points.
func Load(dir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(dir, JSONFileName), json.Unmarshal)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg, err = loadFileRaw(filepath.Join(dir, YAMLFileName), yaml.Unmarshal)
		if err != nil {
			return nil, err
		}
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return finalize(Merge(DefaultConfig(dir), cfg)), nil
}

// LoadOrDefault is Load that never fails. A malformed config file is logged
// and the default configuration is used instead.
func LoadOrDefault(dir string, logger *slog.Logger) *Config {
	cfg, err := Load(dir)
	if err != nil {
		if logger != nil {
			logger.Warn("config unreadable, using defaults", "dir", dir, "error", err)
		}
		return finalize(DefaultConfig(dir))
	}
	return cfg
}

// loadFileRaw loads configuration from a specific file path.
// Returns nil (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string, unmarshal func([]byte, any) error) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(configPath), err)
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Agent = firstNonEmpty(strings.TrimSpace(overlay.Agent), base.Agent)
	result.SharedPath = firstNonEmpty(overlay.SharedPath, base.SharedPath)
	result.StateDir = firstNonEmpty(overlay.StateDir, base.StateDir)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)

	result.MaxContextChars = overlay.MaxContextChars
	if result.MaxContextChars <= 0 {
		result.MaxContextChars = base.MaxContextChars
	}

	result.HandoverKeep = overlay.HandoverKeep
	if result.HandoverKeep <= 0 {
		result.HandoverKeep = base.HandoverKeep
	}

	result.AllAgents = mergeStringSlice(base.AllAgents, overlay.AllAgents)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// finalize fills values derived from other fields.
func finalize(cfg *Config) *Config {
	if len(cfg.AllAgents) == 0 {
		cfg.AllAgents = []string{cfg.Agent}
	}
	return cfg
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
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

// PeerAgents returns AllAgents without this agent, in configured order.
func (c *Config) PeerAgents() []string {
	peers := make([]string, 0, len(c.AllAgents))
	for _, a := range c.AllAgents {
		if a != c.Agent {
			peers = append(peers, a)
		}
	}
	return peers
}

// AgentLogsDir returns <shared>/<agent>/logs.
func (c *Config) AgentLogsDir(agent string) string {
	return filepath.Join(c.SharedPath, agent, "logs")
}

// LogsDir returns this agent's daily log directory.
func (c *Config) LogsDir() string {
	return c.AgentLogsDir(c.Agent)
}

// InboxDir returns the shared messages directory.
func (c *Config) InboxDir() string {
	return filepath.Join(c.SharedPath, "messages")
}

// InboxFile returns this agent's inbox file, messages/<lower(agent)>.md.
func (c *Config) InboxFile() string {
	return filepath.Join(c.InboxDir(), strings.ToLower(c.Agent)+".md")
}

// HandoverDir returns the shared handover directory.
func (c *Config) HandoverDir() string {
	return filepath.Join(c.SharedPath, "handovers")
}

// TasksFile returns the shared task board path.
func (c *Config) TasksFile() string {
	return filepath.Join(c.SharedPath, "TASKS.md")
}

// StateDBDir returns the directory holding the watch-state database. It is a
// subdirectory of StateDir because the database layer tightens permissions
// on its directory.
func (c *Config) StateDBDir() string {
	return filepath.Join(c.StateDir, "carryover")
}
