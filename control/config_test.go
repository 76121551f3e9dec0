package control

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/relaybot/internal/storage"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadSettingsEnvOverrides(t *testing.T) {
	t.Setenv("RELAYBOT_STORAGE", "sqlite")
	t.Setenv("RELAYBOT_AUTOSAVE_INTERVAL", "90s")
	t.Setenv("RELAYBOT_OWNER_ID", "702171243520032789")

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, storage.KindSQLite, s.Storage)
	assert.Equal(t, 90*time.Second, s.AutosaveInterval)
	assert.Equal(t, uint64(702171243520032789), s.OwnerID)
}

func TestLoadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relaybot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: badger\nstate_file: /var/lib/relaybot\nlog_level: debug\n"), 0o644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, storage.KindBadger, s.Storage)
	assert.Equal(t, "debug", s.LogLevel)

	p, err := s.StatePath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/relaybot", p)
}

func TestLoadSettingsRejectsInvalid(t *testing.T) {
	t.Setenv("RELAYBOT_STORAGE", "floppy")
	_, err := LoadSettings("")
	assert.Error(t, err)

	t.Setenv("RELAYBOT_STORAGE", "file")
	t.Setenv("RELAYBOT_AUTOSAVE_INTERVAL", "0s")
	_, err = LoadSettings("")
	assert.Error(t, err)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStatePathRelativeToExecutable(t *testing.T) {
	s := DefaultSettings()
	p, err := s.StatePath()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p))
	assert.Equal(t, s.StateFile, filepath.Base(p))
}
