package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"wonderlens/internal/logging"
	"wonderlens/internal/model"
)

// =============================================================================
// SINGLETON TIER (profile, settings)
// Exactly-one-instance records in a key-value namespace. Save fully
// overwrites; there is never a partial-field merge.
// =============================================================================

const (
	keyProfile  = "profile"
	keySettings = "settings"
)

func (s *LocalStore) getSingleton(key string, out interface{}) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM singletons WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, unavailable("get "+key, err)
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *LocalStore) saveSingleton(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO singletons (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(data),
	)
	if err != nil {
		return unavailable("save "+key, err)
	}
	logging.StoreDebug("Singleton saved: %s (%d bytes)", key, len(data))
	return nil
}

// GetProfile returns the user profile, or ok=false if none was saved yet.
func (s *LocalStore) GetProfile() (model.UserProfile, bool, error) {
	var p model.UserProfile
	ok, err := s.getSingleton(keyProfile, &p)
	return p, ok, err
}

// SaveProfile overwrites the user profile wholesale.
func (s *LocalStore) SaveProfile(p model.UserProfile) error {
	if err := model.ValidateStruct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	p.LastUpdated = time.Now()
	return s.saveSingleton(keyProfile, p)
}

// ClearProfile removes the stored profile.
func (s *LocalStore) ClearProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM singletons WHERE key = ?", keyProfile); err != nil {
		return unavailable("clear profile", err)
	}
	return nil
}

// GetSettings returns the user settings, seeding the canonical defaults
// on first access so exactly one instance exists after first launch.
func (s *LocalStore) GetSettings() (model.UserSettings, error) {
	var settings model.UserSettings
	ok, err := s.getSingleton(keySettings, &settings)
	if err != nil {
		return settings, err
	}
	if ok {
		return settings, nil
	}

	settings = model.DefaultSettings()
	if err := s.saveSingleton(keySettings, settings); err != nil {
		return settings, err
	}
	logging.Store("Seeded default settings (language=%s)", settings.Language)
	return settings, nil
}

// SaveSettings overwrites the user settings wholesale.
func (s *LocalStore) SaveSettings(settings model.UserSettings) error {
	if err := model.ValidateStruct(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	settings.LastUpdated = time.Now()
	return s.saveSingleton(keySettings, settings)
}
