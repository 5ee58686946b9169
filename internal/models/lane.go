package models

import "time"

// LaneAssignment places one floating message on the display. It lives only
// while the message is traversing the screen.
type LaneAssignment struct {
	LaneIndex           int       `json:"laneIndex"`
	SpawnTime           time.Time `json:"spawnTime"`
	TraversalDurationMs int64     `json:"traversalDurationMs"`
}

// Deadline is the moment the message leaves the render surface.
func (a LaneAssignment) Deadline() time.Time {
	return a.SpawnTime.Add(time.Duration(a.TraversalDurationMs) * time.Millisecond)
}
