// Package config adapts the teacher's atomic-swapped, YAML-first
// configuration manager to the cook pipeline's much smaller knob set.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFilename = "tracecook.json"
	DefaultYAMLFilename   = "tracecook.yaml"
	DefaultFormat         = "auto"
	DefaultTiktokenModel  = "cl100k_base"
)

// CookConfig holds the CLI's ambient settings: none of these affect the
// core cook() transform's semantics. The cook command reads only
// TiktokenModel (the encoding for the --stats report); Format, PrettyPrint
// and EmitStats are loaded and saved but not consulted by it.
type CookConfig struct {
	Format        string `json:"format,omitempty" yaml:"format,omitempty"`
	PrettyPrint   bool   `json:"pretty_print" yaml:"pretty_print"`
	TiktokenModel string `json:"tiktoken_model,omitempty" yaml:"tiktoken_model,omitempty"`
	EmitStats     bool   `json:"emit_stats" yaml:"emit_stats"`
}

// Manager owns the atomic-swapped, on-disk-backed CookConfig, mirroring
// the teacher's config.Manager: YAML takes precedence over JSON when both
// exist, and Get() never blocks a caller on disk I/O once Load has run
// once.
type Manager struct {
	baseDir     string
	jsonPath    string
	yamlPath    string
	configValue atomic.Value
}

func NewManager(baseDir string) *Manager {
	return &Manager{
		baseDir:  baseDir,
		jsonPath: filepath.Join(baseDir, DefaultConfigFilename),
		yamlPath: filepath.Join(baseDir, DefaultYAMLFilename),
	}
}

func defaultConfig() CookConfig {
	return CookConfig{
		Format:        DefaultFormat,
		PrettyPrint:   true,
		TiktokenModel: DefaultTiktokenModel,
	}
}

func (m *Manager) Load() (*CookConfig, error) {
	var cfg CookConfig

	var err error

	switch {
	case m.HasYAML():
		cfg, err = m.loadYAML()
		if err != nil {
			return nil, fmt.Errorf("load YAML config: %w", err)
		}
	case m.HasJSON():
		cfg, err = m.loadJSON()
		if err != nil {
			return nil, fmt.Errorf("load JSON config: %w", err)
		}
	default:
		cfg = defaultConfig()
	}

	m.applyDefaults(&cfg)
	m.configValue.Store(&cfg)

	return &cfg, nil
}

func (m *Manager) loadYAML() (CookConfig, error) {
	var cfg CookConfig

	data, err := os.ReadFile(m.yamlPath)
	if err != nil {
		return cfg, fmt.Errorf("read YAML config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal YAML config: %w", err)
	}

	return cfg, nil
}

func (m *Manager) loadJSON() (CookConfig, error) {
	var cfg CookConfig

	data, err := os.ReadFile(m.jsonPath)
	if err != nil {
		return cfg, fmt.Errorf("read JSON config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal JSON config: %w", err)
	}

	return cfg, nil
}

func (m *Manager) applyDefaults(cfg *CookConfig) {
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}

	if cfg.TiktokenModel == "" {
		cfg.TiktokenModel = DefaultTiktokenModel
	}
}

// Get returns the current CookConfig, loading defaults from disk on first
// use and falling back to built-in defaults if loading fails.
func (m *Manager) Get() *CookConfig {
	if v := m.configValue.Load(); v != nil {
		return v.(*CookConfig)
	}

	cfg, err := m.Load()
	if err != nil {
		fallback := defaultConfig()
		return &fallback
	}

	return cfg
}

func (m *Manager) Save(cfg *CookConfig) error {
	return m.SaveAsYAML(cfg)
}

func (m *Manager) SaveAsYAML(cfg *CookConfig) error {
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal YAML config: %w", err)
	}

	if err := os.WriteFile(m.yamlPath, data, 0o644); err != nil {
		return fmt.Errorf("write YAML config file: %w", err)
	}

	m.configValue.Store(cfg)

	return nil
}

func (m *Manager) SaveAsJSON(cfg *CookConfig) error {
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON config: %w", err)
	}

	if err := os.WriteFile(m.jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("write JSON config file: %w", err)
	}

	m.configValue.Store(cfg)

	return nil
}

func (m *Manager) Exists() bool {
	return m.HasYAML() || m.HasJSON()
}

func (m *Manager) HasYAML() bool {
	_, err := os.Stat(m.yamlPath)
	return err == nil
}

func (m *Manager) HasJSON() bool {
	_, err := os.Stat(m.jsonPath)
	return err == nil
}

// Watch starts an fsnotify watch on the config directory and reloads on
// every write/create event to either config file, invoking onChange with
// the freshly loaded CookConfig. It runs until the returned stop function
// is called, reusing the teacher's watcher-goroutine-plus-close shape from
// cmd/root.go's hot-reload loop.
func (m *Manager) Watch(onChange func(*CookConfig)) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}

	if err := watcher.Add(m.baseDir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}

				if ev.Name != m.yamlPath && ev.Name != m.jsonPath {
					continue
				}

				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				if cfg, loadErr := m.Load(); loadErr == nil {
					onChange(cfg)
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher.Close, nil
}
