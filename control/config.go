// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Runtime settings loaded from an optional config file and RELAYBOT_*
// environment variables.

package control

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/momentics/relaybot/internal/storage"
)

// EnvPrefix prefixes every environment variable read by LoadSettings.
const EnvPrefix = "RELAYBOT"

// Settings are fixed for the lifetime of the process.
type Settings struct {
	StateFile        string        // State file name or path; relative names sit next to the executable
	StateName        string        // Key/row name inside shared stores (badger, sqlite)
	Storage          storage.Kind  // Persistence backend
	AutosaveInterval time.Duration // Minimum spacing between autosaves
	LogLevel         string        // zap level name
	Development      bool          // Console logging with colors
	MetricsAddr      string        // Listen address for /metrics; empty disables it
	OwnerID          uint64        // Owner to record when the stored owner is unset
}

// DefaultSettings returns the values used when nothing is configured.
func DefaultSettings() *Settings {
	return &Settings{
		StateFile:        "relaybot.discord.json",
		StateName:        "discord",
		Storage:          storage.KindFile,
		AutosaveInterval: 15 * time.Minute,
		LogLevel:         "info",
		Development:      false,
		MetricsAddr:      "",
		OwnerID:          0,
	}
}

// LoadSettings reads configFile (if non-empty) and overlays environment
// variables such as RELAYBOT_STORAGE or RELAYBOT_AUTOSAVE_INTERVAL.
func LoadSettings(configFile string) (*Settings, error) {
	v := viper.New()
	def := DefaultSettings()
	v.SetDefault("state_file", def.StateFile)
	v.SetDefault("state_name", def.StateName)
	v.SetDefault("storage", string(def.Storage))
	v.SetDefault("autosave_interval", def.AutosaveInterval)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("development", def.Development)
	v.SetDefault("metrics_addr", def.MetricsAddr)
	v.SetDefault("owner_id", def.OwnerID)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", configFile, err)
		}
	}

	kind, err := storage.ParseKind(v.GetString("storage"))
	if err != nil {
		return nil, err
	}

	s := &Settings{
		StateFile:        v.GetString("state_file"),
		StateName:        v.GetString("state_name"),
		Storage:          kind,
		AutosaveInterval: v.GetDuration("autosave_interval"),
		LogLevel:         v.GetString("log_level"),
		Development:      v.GetBool("development"),
		MetricsAddr:      v.GetString("metrics_addr"),
		OwnerID:          v.GetUint64("owner_id"),
	}
	if s.AutosaveInterval <= 0 {
		return nil, fmt.Errorf("autosave_interval must be positive, got %s", s.AutosaveInterval)
	}
	if s.StateFile == "" {
		return nil, fmt.Errorf("state_file must not be empty")
	}
	return s, nil
}

// StatePath resolves StateFile. Absolute paths are kept; anything else is
// placed next to the running executable.
func (s *Settings) StatePath() (string, error) {
	if filepath.IsAbs(s.StateFile) {
		return s.StateFile, nil
	}
	return storage.ExecutablePath(s.StateFile)
}
