package config

import (
	"fmt"
	"log"
	"strings"

	"forum-mirror/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from multiple sources: the .env file,
// config.yaml, and config/staff.json. Environment variables override
// settings of the same name from the config files.
func LoadConfig() {
	// Load environment variables from .env, ignore if the file is missing.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, skipping.")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// A missing base config is fine, env vars and defaults cover it.
			log.Printf("No base config file (config.yaml) found, using environment variables and defaults.")
		} else {
			panic(fmt.Errorf("fatal error parsing base config file: %w", err))
		}
	}

	// Merge the staff tag map (config/staff.json) into the main config.
	viper.SetConfigName("staff")
	viper.SetConfigType("json")
	viper.AddConfigPath("./config")

	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("No staff config file (config/staff.json) found, skipping merge.")
		} else {
			panic(fmt.Errorf("fatal error merging staff config file: %w", err))
		}
	}

	setDefaults()
}

// Sync returns the typed "sync" section of the merged configuration.
func Sync() models.SyncConfig {
	var c models.SyncConfig
	if err := viper.UnmarshalKey("sync", &c); err != nil {
		log.Printf("Malformed sync config section, using defaults: %v", err)
	}
	return c
}

// Server returns the typed "server" section of the merged configuration.
func Server() models.ServerConfig {
	var c models.ServerConfig
	if err := viper.UnmarshalKey("server", &c); err != nil {
		log.Printf("Malformed server config section, using defaults: %v", err)
	}
	return c
}

// Staff returns the staff tag map merged from config/staff.json.
func Staff() models.StaffConfig {
	return viper.GetStringMapString("staff")
}

func setDefaults() {
	viper.SetDefault("database.path", "data/forum.db")
	viper.SetDefault("sync.page_size", 100)
	viper.SetDefault("sync.batch_delay_ms", 100)
	viper.SetDefault("sync.sync_at_startup", false)
	viper.SetDefault("sync.cron_spec", "@hourly")
	viper.SetDefault("server.listen_addr", ":8080")
}
