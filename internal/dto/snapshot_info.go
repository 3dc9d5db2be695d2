package dto

import (
	"encoding/json"
	"time"
)

// SnapshotInfo is a recorded snapshot together with the faces found in it.
type SnapshotInfo struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Date      time.Time    `json:"date"`
	TimeOfDay time.Time    `json:"timeOfDay"`
	Source    string       `json:"source"`
	Faces     []FaceResult `json:"faces"`
}

// MarshalJSON customizes JSON output for SnapshotInfo to format date and time-of-day.
func (s SnapshotInfo) MarshalJSON() ([]byte, error) {
	type Alias SnapshotInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      s.Date.Format("02-01-2006"),
		TimeOfDay: s.TimeOfDay.Format("15:04:05"),
		Alias:     (Alias)(s),
	})
}
