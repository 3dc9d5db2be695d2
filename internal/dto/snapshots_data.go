// SnapshotsData is a paginated response payload for the snapshot journal.
package dto

type SnapshotsData struct {
	Snapshots   []SnapshotInfo `json:"snapshots"`
	Length      int            `json:"length"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Limit       int            `json:"pageSize"`
}

// LabelCount is the number of recorded faces per label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FrameMessage is what the live viewer receives for every streamed frame.
type FrameMessage struct {
	Source string       `json:"source"`
	Image  string       `json:"image"`
	Faces  []FaceResult `json:"faces"`
}

// SnapshotStats summarizes the whole journal.
type SnapshotStats struct {
	Snapshots int          `json:"snapshots"`
	Labels    []LabelCount `json:"labels"`
}
