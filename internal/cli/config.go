package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/shoplist/internal/paths"
	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// Config keys in config.yaml.
const (
	cfgKeyBackend  = "backend"
	cfgKeyDataDir  = "data_dir"
	cfgKeyLogLevel = "log_level"
)

const (
	defaultBackend  = types.BackendSQLite
	defaultLogLevel = "error"
)

// configFile is the structure written to config.yaml.
type configFile struct {
	Backend  string `yaml:"backend"`
	DataDir  string `yaml:"data_dir,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`
}

const configHeader = "# shoplist configuration\n"

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeConfigIfMissing(paths.ConfigFile(configDir), configFile{
		Backend:  defaultBackend,
		LogLevel: defaultLogLevel,
	}); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigFile(paths.ConfigFile(configDir))
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing writes cfg to path unless the file already exists.
func writeConfigIfMissing(path string, cfg configFile) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return writeConfig(path, cfg)
}

// writeConfig renders cfg as YAML to path, replacing any existing file.
func writeConfig(path string, cfg configFile) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
