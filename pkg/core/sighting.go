// pkg/core/sighting.go
package core

import "time"

// Sighting is one observed hunt mark in the train.
// Instance 0 means the map is not instanced or the instance is unknown.
type Sighting struct {
	Name        string    `json:"name"`
	MobID       uint      `json:"mobId"`
	TerritoryID uint      `json:"territoryId"`
	MapID       uint      `json:"mapId"`
	Instance    uint      `json:"instance"`
	Position    Position  `json:"position"`
	Dead        bool      `json:"dead"`
	LastSeenUTC time.Time `json:"lastSeenUtc"`
}

// TurtleInstance maps an absent instance (0) to 1. All other values pass through.
func TurtleInstance(instance uint) uint {
	if instance == 0 {
		return 1
	}
	return instance
}

// ContributionKey identifies a sighting for deduplication when pushing to a
// collaborative session.
type ContributionKey struct {
	MobID    uint `json:"mobId"`
	Instance uint `json:"instance"`
}

// Key returns the contribution key of the sighting with its instance normalized.
func (s Sighting) Key() ContributionKey {
	return ContributionKey{MobID: s.MobID, Instance: TurtleInstance(s.Instance)}
}

// FindSighting returns the first sighting of mobID in the given instance.
// An instance of 0 matches sightings without an instance.
func FindSighting(sightings []Sighting, mobID, instance uint) (Sighting, bool) {
	for _, s := range sightings {
		if s.MobID == mobID && s.Instance == instance {
			return s, true
		}
	}
	return Sighting{}, false
}
