package attendance

import (
	"context"

	"github.com/facultyops/attendance-engine/engine"
)

// =============================================================================
// SETTINGS - Process-wide configuration snapshot
// =============================================================================

// Settings is loaded once at startup and passed by value into calculators.
// It is an immutable snapshot per calculation call, replaced wholesale on
// update; nothing reads it as ambient global state.
type Settings struct {
	OnTimeThreshold           string `json:"onTimeThreshold"` // "HH:MM:SS"
	PermissionLimit           int    `json:"permissionLimit"`
	AccountCreationEnabled    bool   `json:"accountCreationEnabled"`
	UserAccountRequestEnabled bool   `json:"userAccountRequestEnabled"`
}

func DefaultSettings() Settings {
	return Settings{
		OnTimeThreshold:           "09:00:00",
		PermissionLimit:           2,
		AccountCreationEnabled:    true,
		UserAccountRequestEnabled: true,
	}
}

// LoadSettings reads the stored settings, merging defaults for absent keys.
// An entirely absent settings record yields the defaults.
func LoadSettings(ctx context.Context, s engine.Store) (Settings, error) {
	settings := DefaultSettings()
	// Decoding into the pre-filled struct keeps defaults for missing keys.
	if _, err := engine.GetJSON(ctx, s, SettingsPath, &settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// SaveSettings replaces the stored settings wholesale. The caller is expected
// to swap its in-memory snapshot for the value it just wrote.
func SaveSettings(ctx context.Context, s engine.Store, settings Settings) error {
	return s.Set(ctx, SettingsPath, engine.MustMarshal(settings))
}
