package executor

import (
	"flsorter/internal/fileutil"
	"flsorter/internal/planner"
)

// DiskOccupancy answers planner occupancy queries from the live filesystem.
// Paths that cannot be inspected count as occupied so the planner never
// schedules a move onto them.
type DiskOccupancy struct{}

var _ planner.Occupancy = DiskOccupancy{}

func (DiskOccupancy) Occupied(path string) bool {
	exists, err := fileutil.Exists(path)
	return exists || err != nil
}
