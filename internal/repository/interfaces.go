package repository

import (
	"facecam/internal/dto"
	"facecam/internal/model"
)

// SnapshotRepository defines the interface for snapshot data operations.
type SnapshotRepository interface {
	// Create operations
	Insert(s *model.Snapshot) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Snapshot, error)
	GetAll(filter *dto.SnapshotFilters) ([]model.Snapshot, error)
	GetTotalCount(filter *dto.SnapshotFilters) (int, error)

	// Delete operations
	Delete(id int64) error
	DeleteAll() error
}

// PredictionRepository defines the interface for prediction data operations.
type PredictionRepository interface {
	// Create operations
	InsertBatch(predictions []model.Prediction) error

	// Read operations
	GetBySnapshotID(snapshotID int64) ([]model.Prediction, error)
	CountByLabel() ([]dto.LabelCount, error)

	// Delete operations
	DeleteBySnapshotID(snapshotID int64) error
}
