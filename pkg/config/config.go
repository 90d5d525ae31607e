/*
Package config manages TOML config for mocword.
*/
package config

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/bastiangx/mocword/internal/utils"
	"github.com/bastiangx/mocword/pkg/corpus"
	"github.com/charmbracelet/log"
)

// FileName is the config file looked up in the config directory.
const FileName = utils.AppName + ".toml"

// Config holds the entire config structure
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Engine EngineConfig `toml:"engine"`
	Server ServerConfig `toml:"server"`
	CLI    CliConfig    `toml:"cli"`
}

// StoreConfig locates the corpus.
type StoreConfig struct {
	Path    string `toml:"path"`
	Backend string `toml:"backend"`
}

// EngineConfig holds lookup options.
type EngineConfig struct {
	DefaultLimit int  `toml:"default_limit"`
	Strict       bool `toml:"strict"`
	CacheSize    int  `toml:"cache_size"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit    int `toml:"max_limit"`
	MaxQueryLen int `toml:"max_query_len"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	StopOnError bool `toml:"stop_on_error"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:    "",
			Backend: string(corpus.BackendAuto),
		},
		Engine: EngineConfig{
			DefaultLimit: 10,
			Strict:       false,
			CacheSize:    1024,
		},
		Server: ServerConfig{
			MaxLimit:    64,
			MaxQueryLen: 256,
		},
		CLI: CliConfig{
			StopOnError: false,
		},
	}
}

// MaxRankedLimit is the largest [server].max_limit; ranks are sent as uint16.
const MaxRankedLimit = math.MaxUint16

// Validate checks values that cannot be repaired. Out of range numbers are
// reset to their defaults with a warning.
func (c *Config) Validate() error {
	if _, err := corpus.ParseBackend(c.Store.Backend); err != nil {
		return fmt.Errorf("[store] backend: %w", err)
	}
	def := DefaultConfig()
	if c.Engine.DefaultLimit <= 0 {
		log.Warnf("[engine] default_limit %d is not positive, using %d", c.Engine.DefaultLimit, def.Engine.DefaultLimit)
		c.Engine.DefaultLimit = def.Engine.DefaultLimit
	}
	if c.Engine.CacheSize < 0 {
		log.Warnf("[engine] cache_size %d is negative, disabling the cache", c.Engine.CacheSize)
		c.Engine.CacheSize = 0
	}
	if c.Server.MaxLimit <= 0 {
		log.Warnf("[server] max_limit %d is not positive, using %d", c.Server.MaxLimit, def.Server.MaxLimit)
		c.Server.MaxLimit = def.Server.MaxLimit
	}
	if c.Server.MaxLimit > MaxRankedLimit {
		log.Warnf("[server] max_limit %d is above %d, capping", c.Server.MaxLimit, MaxRankedLimit)
		c.Server.MaxLimit = MaxRankedLimit
	}
	if c.Server.MaxQueryLen <= 0 {
		log.Warnf("[server] max_query_len %d is not positive, using %d", c.Server.MaxQueryLen, def.Server.MaxQueryLen)
		c.Server.MaxQueryLen = def.Server.MaxQueryLen
	}
	return nil
}

// GetDefaultConfigPath returns the default path for mocword.toml
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return "", err
	}
	return pr.GetConfigPath(FileName)
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [UserConfigDir]/mocword/mocword.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if utils.FileExists(customConfigPath) {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, config.Validate()
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s. Trying default path...", customConfigPath)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, config.Validate()
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every value that still decodes and defaults the rest.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "store"); ok {
		extractStoreConfig(section, &config.Store)
	}
	if section, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		extractEngineConfig(section, &config.Engine)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractStoreConfig(data map[string]any, store *StoreConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		store.Path = val
	}
	if val, ok := utils.ExtractString(data, "backend"); ok {
		store.Backend = val
	}
}

func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		engine.DefaultLimit = val
	}
	if val, ok := utils.ExtractBool(data, "strict"); ok {
		engine.Strict = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		engine.CacheSize = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_query_len"); ok {
		server.MaxQueryLen = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractBool(data, "stop_on_error"); ok {
		cli.StopOnError = val
	}
}

// RebuildConfigFile force creates a new mocword.toml at the default path
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
