package model

// Prediction represents one classified face inside a snapshot.
type Prediction struct {
	ID         int64   `json:"id"`
	SnapshotID int64   `json:"snapshot_id"`
	Label      string  `json:"label"`
	ClassIndex int     `json:"class_index"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}
