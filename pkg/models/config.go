package models

// GlobalConfig holds system-wide settings read from .vkconfig via Viper.
type GlobalConfig struct {
	// DataDir is the root directory holding tasks/ and .veritas-kanban/.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	DefaultType     string   `yaml:"default_type" mapstructure:"default_type"`
	DefaultPriority Priority `yaml:"default_priority" mapstructure:"default_priority"`

	// SlugMaxLen caps the length of the slug portion of task filenames.
	SlugMaxLen int `yaml:"slug_max_len" mapstructure:"slug_max_len"`

	// EventLogEnabled controls whether the JSONL event log is written.
	EventLogEnabled bool `yaml:"event_log_enabled" mapstructure:"event_log_enabled"`
}
