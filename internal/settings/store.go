package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// recordVersion is the version of the persisted (not exported) record layout
const recordVersion = 1

type persistedRecord struct {
	Version  int      `json:"version"`
	SavedAt  string   `json:"savedAt"`
	Settings Settings `json:"settings"`
}

// Store owns the settings record and its persistence. All writes go through
// Save, SaveRaw, Import or Reset; readers get copies via Current.
//
// writeMu serializes writers from read through apply, so appliers observe
// commits in order and a merge never starts from a stale record. Appliers
// must not write to the store from their own goroutine.
type Store struct {
	writeMu  sync.Mutex
	mu       sync.RWMutex
	storage  Storage
	current  Settings
	appliers []func(Change)
	now      func() time.Time
}

// NewStore creates a store over storage, starting from defaults
func NewStore(storage Storage) *Store {
	return &Store{
		storage: storage,
		current: DefaultSettings(),
		now:     time.Now,
	}
}

// OnChange registers an applier invoked after every mutation, in
// registration order. Appliers run outside the read lock.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appliers = append(s.appliers, fn)
}

// Current returns a copy of the current settings
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load reads the persisted record and merges it over defaults. A missing
// record is not an error. Unreadable or corrupt records yield defaults and a
// *PersistenceError; the store stays usable either way.
func (s *Store) Load() (Settings, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := DefaultSettings()
	var loadErr error

	data, err := s.storage.Read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug("No persisted settings found, using defaults")
	case err != nil:
		loadErr = &PersistenceError{Op: "read", Err: err}
		log.Warnf("Failed to read persisted settings: %v, using defaults", err)
	default:
		raw, err := decodeRecord(data)
		if err != nil {
			loadErr = &PersistenceError{Op: "decode", Err: err}
			log.Warnf("Persisted settings are corrupt: %v, using defaults", err)
		} else {
			var fallbacks []string
			next, fallbacks = Merge(next, raw)
			if len(fallbacks) > 0 {
				log.Warnf("Persisted settings had malformed fields, using defaults for: %v", fallbacks)
			}
		}
	}

	s.commit(next, OriginLoad)
	return next, loadErr
}

// decodeRecord returns the settings object from a persisted record. Both the
// versioned envelope and a bare settings object are accepted.
func decodeRecord(data []byte) (map[string]any, error) {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if inner, ok := raw["settings"].(map[string]any); ok {
		return inner, nil
	}
	return raw, nil
}

// Save normalizes candidate, persists it and applies it. The normalized
// record is always returned; a storage failure is reported as a
// *PersistenceError alongside it.
func (s *Store) Save(candidate Settings) (Settings, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, fallbacks := Normalize(candidate)
	if len(fallbacks) > 0 {
		log.Debugf("Save: replaced invalid values with defaults for %v", fallbacks)
	}
	return s.persistAndCommit(next, OriginSave)
}

// SaveRaw merges a loosely typed object (e.g. decoded form or API input)
// over the current settings, then persists and applies it.
func (s *Store) SaveRaw(raw map[string]any) (Settings, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, fallbacks := Merge(s.Current(), raw)
	if len(fallbacks) > 0 {
		log.Debugf("SaveRaw: replaced invalid values with defaults for %v", fallbacks)
	}
	return s.persistAndCommit(next, OriginSave)
}

// Reset clears persisted state and reloads defaults. Confirmation is the
// caller's responsibility.
func (s *Store) Reset() (Settings, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var resetErr error
	if err := s.storage.Remove(); err != nil {
		resetErr = &PersistenceError{Op: "remove", Err: err}
		log.Warnf("Failed to clear persisted settings: %v", err)
	}
	next := DefaultSettings()
	s.commit(next, OriginReset)
	log.Info("Settings reset to defaults")
	return next, resetErr
}

// Export returns the current settings wrapped in an export document
func (s *Store) Export() ExportDocument {
	return ExportDocument{
		Settings:   s.Current(),
		ExportDate: s.now().UTC().Format(time.RFC3339),
		Version:    ExportVersion,
	}
}

// ExportJSON returns the indented JSON form of Export
func (s *Store) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings export: %w", err)
	}
	return data, nil
}

// Import merges the settings object of an export document over the current
// settings. Payloads without a settings object are rejected with an
// *ImportFormatError and change nothing.
func (s *Store) Import(payload []byte) (Settings, error) {
	doc := map[string]any{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return s.Current(), &ImportFormatError{Reason: "payload is not a JSON object", Err: err}
	}
	inner, ok := doc["settings"]
	if !ok {
		return s.Current(), &ImportFormatError{Reason: "missing settings object"}
	}
	raw, ok := inner.(map[string]any)
	if !ok {
		return s.Current(), &ImportFormatError{Reason: "settings is not an object"}
	}
	if v, ok := doc["version"].(string); ok && v != ExportVersion {
		log.Warnf("Importing settings exported with version %s (current %s)", v, ExportVersion)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, fallbacks := Merge(s.Current(), raw)
	if len(fallbacks) > 0 {
		log.Warnf("Import: replaced invalid values with defaults for %v", fallbacks)
	}
	return s.persistAndCommit(next, OriginImport)
}

func (s *Store) persistAndCommit(next Settings, origin Origin) (Settings, error) {
	var persistErr error
	data, err := json.Marshal(persistedRecord{
		Version:  recordVersion,
		SavedAt:  s.now().UTC().Format(time.RFC3339),
		Settings: next,
	})
	if err == nil {
		err = s.storage.Write(data)
	}
	if err != nil {
		persistErr = &PersistenceError{Op: "write", Err: err}
		log.Warnf("Failed to persist settings: %v", err)
	}
	s.commit(next, origin)
	return next, persistErr
}

func (s *Store) commit(next Settings, origin Origin) {
	s.mu.Lock()
	prev := s.current
	s.current = next
	appliers := append([]func(Change){}, s.appliers...)
	s.mu.Unlock()

	changed, effects := Diff(prev, next)
	change := Change{Prev: prev, Next: next, Origin: origin, Changed: changed, Effects: effects}
	log.Debugf("Settings %s: %d field(s) changed %v", origin, len(changed), changed)
	for _, apply := range appliers {
		apply(change)
	}
}
