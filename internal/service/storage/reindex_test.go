package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"facecam/internal/dto"
	"facecam/internal/repository/sqlite"
)

func TestParseSnapshotFilename(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		labels  []string
		wantErr bool
	}{
		{"2025-06-15_14-30_00.000_0_Male_0.jpg", "0", []string{"Male"}, false},
		{"2025-06-15_14-30_00.000_clip-one.mp4_Female_Male_1.jpg", "clip-one.mp4", []string{"Female", "Male"}, false},
		{"2025-06-15_14-30_00.000_0_2.jpg", "0", []string{}, false},
		{"holiday.jpg", "", nil, true},
		{"2025-06-15_14-30_00.000_0_Male_0.png", "", nil, true},
		{"not-a-date_xx_yy_0_Male_0.jpg", "", nil, true},
	}

	for _, tt := range tests {
		ts, source, labels, err := ParseSnapshotFilename(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if source != tt.source || !reflect.DeepEqual(labels, tt.labels) {
			t.Errorf("%s: got source %q labels %v", tt.name, source, labels)
		}
		if want := time.Date(2025, 6, 15, 14, 30, 0, 0, time.Local); !ts.Equal(want) {
			t.Errorf("%s: got time %v, want %v", tt.name, ts, want)
		}
	}
}

func TestParseSnapshotFilename_RoundTrip(t *testing.T) {
	s := dto.BufferedSnapshot{Timestamp: "2025-02-03_04-05_06.789", Source: "1", Faces: faces("Female", "Male")}

	ts, source, labels, err := ParseSnapshotFilename(SnapshotFilename(s, 7))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if ts.Format(timestampLayout) != s.Timestamp || source != "1" || !reflect.DeepEqual(labels, []string{"Female", "Male"}) {
		t.Errorf("Round trip mismatch: %v %q %v", ts, source, labels)
	}
}

func TestReindex(t *testing.T) {
	buf, db, dir := newTestBuffer(t, 5)
	buf.AddSnapshot([]byte("kept"), "0", faces("Male"))
	buf.FlushSnapshots()

	os.WriteFile(filepath.Join(dir, "2025-06-15_15-00_00.000_0_Female_Male_0.jpg"), []byte("orphan"), 0644)
	os.WriteFile(filepath.Join(dir, "holiday.jpg"), []byte("other"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644)

	snapshots := sqlite.NewSnapshotRepository(db)
	predictions := sqlite.NewPredictionRepository(db)

	result, err := Reindex(dir, snapshots, predictions)
	if err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}
	if result.Added != 1 || result.Existing != 1 || len(result.Skipped) != 1 {
		t.Errorf("Unexpected result %+v", result)
	}

	count, _ := snapshots.GetTotalCount(&dto.SnapshotFilters{Label: "Female"})
	if count != 1 {
		t.Errorf("Expected reindexed snapshot to be searchable by label, got %d", count)
	}

	again, err := Reindex(dir, snapshots, predictions)
	if err != nil {
		t.Fatalf("Second reindex failed: %v", err)
	}
	if again.Added != 0 || again.Existing != 2 {
		t.Errorf("Reindex should be idempotent, got %+v", again)
	}
}

func TestSnapshotFilename_LabelsWithSeparators(t *testing.T) {
	s := dto.BufferedSnapshot{Timestamp: "2025-02-03_04-05_06.789", Source: "0", Faces: faces("no_mask", "mask", "hat/cap")}

	name := SnapshotFilename(s, 0)
	if strings.Contains(name, "/") {
		t.Fatalf("Filename %q must not contain a path separator", name)
	}

	_, source, labels, err := ParseSnapshotFilename(name)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if want := []string{"no-mask", "mask", "hat-cap"}; source != "0" || !reflect.DeepEqual(labels, want) {
		t.Errorf("Parsed %q %v from %q, want 0 %v", source, labels, name, want)
	}
}

func TestFlushSnapshots_LabelWithSlash(t *testing.T) {
	buf, db, dir := newTestBuffer(t, 5)
	buf.AddSnapshot([]byte("jpeg"), "0", faces("hat/cap"))

	if n := buf.FlushSnapshots(); n != 1 {
		t.Fatalf("Expected snapshot with slash label to be saved, got %d", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "2025-06-15_14-30_00.000_0_hat-cap_0.jpg")); err != nil {
		t.Errorf("Expected sanitized snapshot file: %v", err)
	}

	// The journal keeps the label as the classifier reported it.
	count, _ := sqlite.NewSnapshotRepository(db).GetTotalCount(&dto.SnapshotFilters{Label: "hat/cap"})
	if count != 1 {
		t.Errorf("Expected original label in journal, got %d matches", count)
	}
}
