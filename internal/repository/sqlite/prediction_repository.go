package sqlite

import (
	"fmt"

	"facecam/internal/dto"
	"facecam/internal/model"
)

// PredictionRepository implements repository.PredictionRepository for SQLite.
type PredictionRepository struct {
	db *DB
}

// NewPredictionRepository creates a new SQLite prediction repository.
func NewPredictionRepository(db *DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

const insertPrediction = `
	INSERT INTO predictions (snapshot_id, label, class_index, confidence, x, y, width, height)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertBatch adds multiple predictions in a single transaction.
func (r *PredictionRepository) InsertBatch(predictions []model.Prediction) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertPrediction)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range predictions {
		if _, err := stmt.Exec(p.SnapshotID, p.Label, p.ClassIndex, p.Confidence, p.X, p.Y, p.Width, p.Height); err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}
	}

	return tx.Commit()
}

// GetBySnapshotID retrieves all predictions for a snapshot.
func (r *PredictionRepository) GetBySnapshotID(snapshotID int64) ([]model.Prediction, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, snapshot_id, label, class_index, confidence, x, y, width, height
		FROM predictions WHERE snapshot_id = ? ORDER BY id
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []model.Prediction
	for rows.Next() {
		var p model.Prediction
		if err := rows.Scan(&p.ID, &p.SnapshotID, &p.Label, &p.ClassIndex, &p.Confidence, &p.X, &p.Y, &p.Width, &p.Height); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}

	return predictions, rows.Err()
}

// CountByLabel returns how many faces were recorded per label, most frequent first.
func (r *PredictionRepository) CountByLabel() ([]dto.LabelCount, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT label, COUNT(*) AS cnt
		FROM predictions
		GROUP BY label
		ORDER BY cnt DESC, label
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count labels: %w", err)
	}
	defer rows.Close()

	var counts []dto.LabelCount
	for rows.Next() {
		var c dto.LabelCount
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// DeleteBySnapshotID removes all predictions for a specific snapshot.
func (r *PredictionRepository) DeleteBySnapshotID(snapshotID int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM predictions WHERE snapshot_id = ?`, snapshotID); err != nil {
		return fmt.Errorf("failed to delete predictions: %w", err)
	}
	return nil
}
