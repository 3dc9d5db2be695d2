package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"facecam/internal/dto"
	"facecam/internal/logger"
	"facecam/internal/model"
	"facecam/internal/repository/sqlite"
	"facecam/internal/service/websocket"

	gorilla "github.com/gorilla/websocket"
)

// ========================================
// Test Setup Helpers
// ========================================

type fixture struct {
	logger      *logger.Logger
	logDir      string
	snapshotDir string
	snapshots   *sqlite.SnapshotRepository
	predictions *sqlite.PredictionRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	db, err := sqlite.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logDir := filepath.Join(dir, "logs")
	log := logger.NewWithWriters(logDir, io.Discard, io.Discard)
	t.Cleanup(func() { log.Close() })

	snapshotDir := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		t.Fatalf("Failed to create snapshot dir: %v", err)
	}

	return &fixture{
		logger:      log,
		logDir:      logDir,
		snapshotDir: snapshotDir,
		snapshots:   sqlite.NewSnapshotRepository(db),
		predictions: sqlite.NewPredictionRepository(db),
	}
}

// addSnapshot writes a snapshot file and its journal rows.
func (f *fixture) addSnapshot(t *testing.T, name, source string, ts time.Time, labels ...string) int64 {
	t.Helper()

	path := filepath.Join(f.snapshotDir, name)
	if err := os.WriteFile(path, []byte("fake jpeg "+name), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	id, err := f.snapshots.Insert(&model.Snapshot{Filename: name, Source: source, Timestamp: ts, FilePath: path, FileSize: 10})
	if err != nil {
		t.Fatalf("Insert snapshot failed: %v", err)
	}

	var preds []model.Prediction
	for i, label := range labels {
		preds = append(preds, model.Prediction{SnapshotID: id, Label: label, ClassIndex: i, Confidence: 0.75, Width: 50, Height: 50})
	}
	if err := f.predictions.InsertBatch(preds); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	return id
}

type snapshotsResponse struct {
	Snapshots []struct {
		ID        int64            `json:"id"`
		Name      string           `json:"name"`
		Date      string           `json:"date"`
		TimeOfDay string           `json:"timeOfDay"`
		Source    string           `json:"source"`
		Faces     []dto.FaceResult `json:"faces"`
	} `json:"snapshots"`
	Length      int `json:"length"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"pageSize"`
}

// ========================================
// Snapshot API Tests
// ========================================

func TestGetSnapshotsHandler_Pagination(t *testing.T) {
	f := setup(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		f.addSnapshot(t, fmt.Sprintf("snap_%d.jpg", i), "0", base.Add(time.Duration(i)*time.Minute), "Male")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/snapshots?limit=2&page=2", nil)
	rec := httptest.NewRecorder()
	GetSnapshotsHandler(f.logger, f.snapshots, f.predictions)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var resp snapshotsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Length != 3 || resp.TotalPages != 2 || resp.CurrentPage != 2 || resp.Limit != 2 {
		t.Errorf("Unexpected pagination %+v", resp)
	}
	if len(resp.Snapshots) != 1 || resp.Snapshots[0].Name != "snap_0.jpg" {
		t.Fatalf("Expected oldest snapshot on page 2, got %+v", resp.Snapshots)
	}
	if resp.Snapshots[0].Date != "01-03-2025" || resp.Snapshots[0].TimeOfDay != "10:00:00" {
		t.Errorf("Unexpected date formatting %s %s", resp.Snapshots[0].Date, resp.Snapshots[0].TimeOfDay)
	}
	if len(resp.Snapshots[0].Faces) != 1 || resp.Snapshots[0].Faces[0].Label != "Male" {
		t.Errorf("Expected faces attached, got %+v", resp.Snapshots[0].Faces)
	}
}

func TestGetSnapshotsHandler_Filters(t *testing.T) {
	f := setup(t)
	day := time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)
	f.addSnapshot(t, "a.jpg", "0", day, "Male")
	f.addSnapshot(t, "b.jpg", "clip.mp4", day.Add(24*time.Hour), "Female")
	f.addSnapshot(t, "c.jpg", "0", day.Add(48*time.Hour), "Female", "Male")

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?label=Female", 2},
		{"?source=0", 2},
		{"?source=0&label=Female", 1},
		{"?dateAfter=2025-03-02", 2},
		{"?dateBefore=2025-03-02", 2},
		{"?dateAfter=2025-03-02&dateBefore=2025-03-02", 1},
		{"?label=Nobody", 0},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/snapshots"+tt.query, nil)
		rec := httptest.NewRecorder()
		GetSnapshotsHandler(f.logger, f.snapshots, f.predictions)(rec, req)

		var resp snapshotsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("%q: failed to decode response: %v", tt.query, err)
		}
		if resp.Length != tt.want || len(resp.Snapshots) != tt.want {
			t.Errorf("%q: expected %d snapshots, got %d (%d listed)", tt.query, tt.want, resp.Length, len(resp.Snapshots))
		}
	}
}

func TestSnapshotStatsHandler(t *testing.T) {
	f := setup(t)

	rec := httptest.NewRecorder()
	SnapshotStatsHandler(f.logger, f.snapshots, f.predictions)(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/stats", nil))
	if !strings.Contains(rec.Body.String(), `"labels":[]`) {
		t.Errorf("Expected empty label list, got %s", rec.Body.String())
	}

	f.addSnapshot(t, "a.jpg", "0", time.Now(), "Male", "Female")
	f.addSnapshot(t, "b.jpg", "0", time.Now(), "Male")

	rec = httptest.NewRecorder()
	SnapshotStatsHandler(f.logger, f.snapshots, f.predictions)(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/stats", nil))

	var stats dto.SnapshotStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.Snapshots != 2 {
		t.Errorf("Expected 2 snapshots, got %d", stats.Snapshots)
	}
	if len(stats.Labels) != 2 || stats.Labels[0].Label != "Male" || stats.Labels[0].Count != 2 {
		t.Errorf("Unexpected label stats %+v", stats.Labels)
	}
}

func TestViewSnapshotHandler(t *testing.T) {
	f := setup(t)
	f.addSnapshot(t, "view.jpg", "0", time.Now(), "Male")

	rec := httptest.NewRecorder()
	ViewSnapshotHandler(f.snapshotDir)(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/view?name=view.jpg", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "fake jpeg view.jpg" {
		t.Errorf("Expected file content, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ViewSnapshotHandler(f.snapshotDir)(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/view", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without name, got %d", rec.Code)
	}

	outside := filepath.Join(filepath.Dir(f.snapshotDir), "secret.txt")
	os.WriteFile(outside, []byte("secret"), 0644)

	rec = httptest.NewRecorder()
	ViewSnapshotHandler(f.snapshotDir)(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/view?name=..%2Fsecret.txt", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for path outside snapshot dir, got %d", rec.Code)
	}
}

func TestDeleteSnapshotHandler(t *testing.T) {
	f := setup(t)
	id := f.addSnapshot(t, "gone.jpg", "0", time.Now(), "Female")

	rec := httptest.NewRecorder()
	DeleteSnapshotHandler(f.logger, f.snapshots, f.predictions)(rec, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/snapshots/delete?id=%d", id), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(f.snapshotDir, "gone.jpg")); !os.IsNotExist(err) {
		t.Error("Snapshot file should be removed")
	}
	if s, _ := f.snapshots.GetByID(id); s != nil {
		t.Error("Snapshot row should be removed")
	}
	if preds, _ := f.predictions.GetBySnapshotID(id); len(preds) != 0 {
		t.Errorf("Predictions should be removed, got %d", len(preds))
	}

	tests := []struct {
		method string
		query  string
		want   int
	}{
		{http.MethodDelete, fmt.Sprintf("?id=%d", id), http.StatusNotFound},
		{http.MethodDelete, "?id=abc", http.StatusBadRequest},
		{http.MethodDelete, "", http.StatusBadRequest},
		{http.MethodGet, "?id=1", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		DeleteSnapshotHandler(f.logger, f.snapshots, f.predictions)(rec, httptest.NewRequest(tt.method, "/api/snapshots/delete"+tt.query, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %q: expected %d, got %d", tt.method, tt.query, tt.want, rec.Code)
		}
	}
}

func TestClearSnapshotsHandler(t *testing.T) {
	f := setup(t)
	f.addSnapshot(t, "a.jpg", "0", time.Now(), "Male")
	f.addSnapshot(t, "b.jpg", "0", time.Now(), "Female")

	rec := httptest.NewRecorder()
	ClearSnapshotsHandler(f.logger, f.snapshotDir, f.snapshots)(rec, httptest.NewRequest(http.MethodPost, "/api/snapshots/clear", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}

	entries, _ := os.ReadDir(f.snapshotDir)
	if len(entries) != 0 {
		t.Errorf("Expected empty snapshot dir, got %d files", len(entries))
	}
	if count, _ := f.snapshots.GetTotalCount(nil); count != 0 {
		t.Errorf("Expected empty journal, got %d", count)
	}
}

// ========================================
// Log Handler Tests
// ========================================

func TestShowLogsHandler(t *testing.T) {
	f := setup(t)
	f.logger.Info("hello from test")

	rec := httptest.NewRecorder()
	ShowLogsHandler(f.logDir)(rec, httptest.NewRequest(http.MethodGet, "/logs?level=info", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "hello from test") {
		t.Errorf("Expected info log content, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ShowLogsHandler(f.logDir)(rec, httptest.NewRequest(http.MethodGet, "/logs?level=debug", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown level, got %d", rec.Code)
	}
}

func TestClearLogsHandler(t *testing.T) {
	f := setup(t)
	f.logger.Error("something broke")

	rec := httptest.NewRecorder()
	ClearLogsHandler(f.logger)(rec, httptest.NewRequest(http.MethodPost, "/logs/clear?level=error", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}

	data, _ := os.ReadFile(filepath.Join(f.logDir, "error.log"))
	if len(data) != 0 {
		t.Errorf("Expected truncated error log, got %q", data)
	}
}

// ========================================
// Viewer WebSocket Tests
// ========================================

func TestViewWebsocketHandler_RegistersViewer(t *testing.T) {
	f := setup(t)
	hub := websocket.NewHubService(f.logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(ViewWebsocketHandler(hub, f.logger))
	defer server.Close()

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for hub.GetClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Viewer was not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.BroadcastFrame(dto.FrameMessage{Source: "0", Image: "eA=="})
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if !strings.Contains(string(data), `"source":"0"`) {
		t.Errorf("Unexpected frame %s", data)
	}
}
