package models

// SyncConfig represents the "sync" section of config.yaml.
type SyncConfig struct {
	GuildID       string `json:"guild_id" mapstructure:"guild_id"`
	PageSize      int    `json:"page_size" mapstructure:"page_size"`
	BatchDelayMs  int    `json:"batch_delay_ms" mapstructure:"batch_delay_ms"`
	SyncAtStartup bool   `json:"sync_at_startup" mapstructure:"sync_at_startup"`
	CronSpec      string `json:"cron_spec" mapstructure:"cron_spec"`
}

// ServerConfig represents the "server" section of config.yaml.
type ServerConfig struct {
	ListenAddr string `json:"listen_addr" mapstructure:"listen_addr"`
}

// StaffConfig maps Discord user IDs to a display tag appended to their alias.
type StaffConfig map[string]string
