// SnapshotFilters describe user-provided filters to narrow the snapshot list.
package dto

import "time"

type SnapshotFilters struct {
	Source string
	Label  string
	After  time.Time
	Before time.Time
	Limit  int
	Offset int
}
