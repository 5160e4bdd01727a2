package core

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// ConfigurationManager loads the global .vkconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .vkconfig relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func defaultGlobalConfig(basePath string) *models.GlobalConfig {
	return &models.GlobalConfig{
		DataDir:         basePath,
		DefaultType:     "task",
		DefaultPriority: models.PriorityMedium,
		SlugMaxLen:      60,
		EventLogEnabled: true,
	}
}

// LoadGlobalConfig reads the .vkconfig file from the base path. If the
// file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := defaultGlobalConfig(cm.basePath)

	v := viper.New()
	v.SetConfigName(".vkconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("defaults.type", cfg.DefaultType)
	v.SetDefault("defaults.priority", string(cfg.DefaultPriority))
	v.SetDefault("slug_max_len", cfg.SlugMaxLen)
	v.SetDefault("event_log.enabled", cfg.EventLogEnabled)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .vkconfig: %w", err)
	}

	cfg.DataDir = v.GetString("data_dir")
	cfg.DefaultType = v.GetString("defaults.type")
	cfg.DefaultPriority = models.Priority(v.GetString("defaults.priority"))
	cfg.SlugMaxLen = v.GetInt("slug_max_len")
	cfg.EventLogEnabled = v.GetBool("event_log.enabled")

	if cfg.DataDir == "" {
		cfg.DataDir = cm.basePath
	}
	return cfg, nil
}
