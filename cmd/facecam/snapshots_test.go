package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"facecam/internal/config"
	"facecam/internal/model"
	"facecam/internal/repository/sqlite"
)

func seedJournal(t *testing.T) *config.Config {
	t.Helper()

	c := &config.Config{DatabasePath: filepath.Join(t.TempDir(), "journal.db")}
	db, err := sqlite.New(c.DatabasePath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	snapshots := sqlite.NewSnapshotRepository(db)
	predictions := sqlite.NewPredictionRepository(db)

	base := time.Date(2025, 5, 4, 12, 0, 0, 0, time.Local)
	for i, label := range []string{"Male", "Female"} {
		id, err := snapshots.Insert(&model.Snapshot{
			Filename:  label + ".jpg",
			Source:    "0",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			FilePath:  "/snapshots/" + label + ".jpg",
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if err := predictions.InsertBatch([]model.Prediction{{SnapshotID: id, Label: label, ClassIndex: 1 - i, Confidence: 0.9}}); err != nil {
			t.Fatalf("Insert prediction failed: %v", err)
		}
	}
	return c
}

func resetSnapshotOpts(t *testing.T) {
	t.Helper()
	saved := snapshotOpts
	t.Cleanup(func() { snapshotOpts = saved })
	snapshotOpts.limit = 20
}

func TestRunSnapshots_List(t *testing.T) {
	resetSnapshotOpts(t)
	c := seedJournal(t)

	var out bytes.Buffer
	if err := runSnapshots(&out, c); err != nil {
		t.Fatalf("runSnapshots failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header, rule and 2 rows, got:\n%s", out.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[2], "Female 90%") || !strings.Contains(lines[3], "Male.jpg") {
		t.Errorf("Unexpected listing:\n%s", out.String())
	}
}

func TestRunSnapshots_LabelFilter(t *testing.T) {
	resetSnapshotOpts(t)
	snapshotOpts.label = "Male"
	c := seedJournal(t)

	var out bytes.Buffer
	if err := runSnapshots(&out, c); err != nil {
		t.Fatalf("runSnapshots failed: %v", err)
	}
	if strings.Contains(out.String(), "Female.jpg") || !strings.Contains(out.String(), "Male.jpg") {
		t.Errorf("Expected only Male snapshot:\n%s", out.String())
	}
}

func TestRunSnapshots_Stats(t *testing.T) {
	resetSnapshotOpts(t)
	snapshotOpts.stats = true
	c := seedJournal(t)

	var out bytes.Buffer
	if err := runSnapshots(&out, c); err != nil {
		t.Fatalf("runSnapshots failed: %v", err)
	}
	if !strings.Contains(out.String(), "LABEL") || !strings.Contains(out.String(), "Female") {
		t.Errorf("Unexpected stats output:\n%s", out.String())
	}
}

func TestRunSnapshots_NoJournal(t *testing.T) {
	resetSnapshotOpts(t)
	c := &config.Config{DatabasePath: filepath.Join(t.TempDir(), "missing.db")}

	var out bytes.Buffer
	if err := runSnapshots(&out, c); err != nil {
		t.Fatalf("runSnapshots failed: %v", err)
	}
	if !strings.Contains(out.String(), "No journal") {
		t.Errorf("Expected hint about missing journal, got %q", out.String())
	}
}
