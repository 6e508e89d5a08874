package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/burgerquest/bot/internal/store"
)

func testRecord(msgID int, sender string) store.MealRecord {
	return store.MealRecord{
		Analysis: store.Analysis{
			Name:     "Benny's",
			Category: "burger",
			Rating:   8,
			Price:    14.5,
			IsBurger: true,
			Comment:  "solid smash burger",
			Items:    []string{"cheeseburger", "fries"},
		},
		Sender:       sender,
		MsgID:        msgID,
		Timestamp:    "2026-08-30T12:00:00Z",
		Participants: []string{sender},
	}
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	s := store.Open(filepath.Join(t.TempDir(), "meals.json"), nil)
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d records", s.Len())
	}
}

func TestOpenCorruptFile(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
	}{
		{name: "truncated document", content: `[{"sender": "Alice", "msg_id": 1`},
		{name: "not json at all", content: "definitely not json"},
		{name: "wrong top-level type", content: `{"sender": "Alice"}`},
		{name: "empty file", content: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "meals.json")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("failed to write fixture: %v", err)
			}

			s := store.Open(path, nil)
			if s.Len() != 0 {
				t.Errorf("expected empty store for corrupt file, got %d records", s.Len())
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "meals.json")

	withGPS := testRecord(10, "Alice")
	withGPS.GPS = &store.GPS{Lat: -23.5505, Lng: -46.6333}
	cover := "assets/images/abc123.jpg"
	withGPS.ImagePath = &cover
	withGPS.ImagePaths = []string{cover, "assets/images/def456.jpg"}

	noImages := testRecord(11, "Bob")

	s := store.Open(path, nil)
	s.Append(withGPS, noImages)
	if err := s.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded := store.Open(path, nil)
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 records after reload, got %d", reloaded.Len())
	}

	records := reloaded.Records()
	if records[0].GPS == nil || records[0].GPS.Lat != -23.5505 {
		t.Errorf("GPS did not round-trip: %+v", records[0].GPS)
	}
	if records[0].ImagePath == nil || *records[0].ImagePath != cover {
		t.Errorf("cover image did not round-trip: %v", records[0].ImagePath)
	}
	if len(records[0].ImagePaths) != 2 {
		t.Errorf("image paths did not round-trip: %v", records[0].ImagePaths)
	}
	if records[1].GPS != nil {
		t.Errorf("expected nil GPS, got %+v", records[1].GPS)
	}
	if records[1].ImagePath != nil {
		t.Errorf("expected nil cover image, got %v", records[1].ImagePath)
	}
	if records[1].Name != "Benny's" || records[1].Rating != 8 {
		t.Errorf("analysis fields did not round-trip: %+v", records[1].Analysis)
	}
}

func TestKnownIDs(t *testing.T) {
	t.Parallel()

	s := store.Open(filepath.Join(t.TempDir(), "meals.json"), nil)
	s.Append(testRecord(1, "Alice"), testRecord(7, "Bob"))

	ids := s.KnownIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 known ids, got %d", len(ids))
	}
	for _, id := range []int{1, 7} {
		if _, ok := ids[id]; !ok {
			t.Errorf("expected id %d in known set", id)
		}
	}
	if _, ok := ids[2]; ok {
		t.Error("unexpected id 2 in known set")
	}
}

func TestMigrateParticipants(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "meals.json")

	// A legacy store: one record without participants, one already migrated.
	legacy := []map[string]any{
		{"name": "Benny's", "category": "burger", "rating": 8, "price": 14.5,
			"is_burger": true, "comment": "good", "items": []string{"burger"},
			"sender": "Alice", "msg_id": 1, "timestamp": "2026-01-01T00:00:00Z",
			"image_path": nil, "gps": nil},
		{"name": "Ramen-ya", "category": "other", "rating": 9, "price": 12.0,
			"is_burger": false, "comment": "great broth", "items": []string{"ramen"},
			"sender": "Bob", "msg_id": 2, "timestamp": "2026-01-02T00:00:00Z",
			"image_path": nil, "gps": nil, "participants": []string{"Bob", "Carol"}},
	}
	data, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("failed to marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	s := store.Open(path, nil)
	migrated, err := s.MigrateParticipants()
	if err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	if migrated != 1 {
		t.Fatalf("expected 1 migrated record, got %d", migrated)
	}

	reloaded := store.Open(path, nil)
	records := reloaded.Records()
	if got := records[0].Participants; len(got) != 1 || got[0] != "Alice" {
		t.Errorf("expected participants [Alice], got %v", got)
	}
	if got := records[1].Participants; len(got) != 2 || got[0] != "Bob" {
		t.Errorf("existing participants must be untouched, got %v", got)
	}

	// Second run is a no-op and must not write: removing the file proves it.
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove store file: %v", err)
	}
	migrated, err = reloaded.MigrateParticipants()
	if err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
	if migrated != 0 {
		t.Errorf("expected 0 migrated records on second run, got %d", migrated)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("second migration run must not write the store file")
	}
}

func TestSaveEmptyStoreWritesArray(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "meals.json")
	s := store.Open(path, nil)
	if err := s.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "[]" {
		t.Errorf("expected an empty JSON array document, got %q", got)
	}
}

func TestSaveFileIsWorldReadable(t *testing.T) {
	t.Parallel()

	// The document is read in place by the dashboard, so the atomic write
	// must not leave it with temp-file permissions.
	path := filepath.Join(t.TempDir(), "meals.json")
	s := store.Open(path, nil)
	s.Append(testRecord(1, "Alice"))
	if err := s.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat saved file: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o644 {
		t.Errorf("expected mode 0644, got %v", got)
	}
}
