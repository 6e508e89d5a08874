// Package store provides the durable meal record store: a single JSON array
// document with tolerant loading, append-only writes, atomic saves, and the
// participants schema migration.
package store

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Store holds the in-memory record sequence backed by a JSON file. It is not
// safe for concurrent use; passes must be serialized by the caller.
type Store struct {
	path    string
	logger  *slog.Logger
	records []MealRecord
}

// Open loads the store from path. A missing or unparseable file yields an
// empty store so a pass can proceed from an empty slate; it is never an error.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Store{
		path:   path,
		logger: logger.With("component", "store"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read store file, starting empty", "path", path, "error", err)
		}
		return s
	}

	var records []MealRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("Store file is corrupt, starting empty", "path", path, "error", err)
		return s
	}

	s.records = records
	s.logger.Debug("Store loaded", "path", path, "records", len(records))
	return s
}

// Len returns the number of records currently in the store.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns a copy of the record sequence in storage order.
func (s *Store) Records() []MealRecord {
	out := make([]MealRecord, len(s.records))
	copy(out, s.records)
	return out
}

// KnownIDs returns the set of message ids already recorded, used to skip
// reprocessing before any network work is spent.
func (s *Store) KnownIDs() map[int]struct{} {
	ids := make(map[int]struct{}, len(s.records))
	for _, r := range s.records {
		ids[r.MsgID] = struct{}{}
	}
	return ids
}

// Append adds records to the in-memory sequence, preserving arrival order.
// The change is not durable until Save.
func (s *Store) Append(records ...MealRecord) {
	s.records = append(s.records, records...)
}

// Save serializes the full sequence to the backing file atomically: the
// document is written to a temporary file in the same directory and renamed
// over the previous one, so a failed write leaves the prior file intact.
func (s *Store) Save() error {
	records := s.records
	if records == nil {
		// keep the document a JSON array even before the first append
		records = []MealRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".meals-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to sync store: %w", err)
	}
	// CreateTemp uses 0600; the document is read in place by the dashboard
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to set store permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp store file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	s.logger.Debug("Store saved", "path", s.path, "records", len(s.records))
	return nil
}

// MigrateParticipants backfills the participants field on legacy records,
// defaulting it to a single-element list containing the record's sender.
// It returns the number of records changed and writes the file back only
// when at least one record changed, so a second run is a no-op.
func (s *Store) MigrateParticipants() (int, error) {
	migrated := 0
	for i := range s.records {
		if s.records[i].Participants == nil {
			s.records[i].Participants = []string{s.records[i].Sender}
			migrated++
		}
	}

	if migrated == 0 {
		return 0, nil
	}

	if err := s.Save(); err != nil {
		return 0, fmt.Errorf("failed to save migrated store: %w", err)
	}

	s.logger.Info("Participants migration complete", "migrated", migrated)
	return migrated, nil
}
