package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Resolver maps human readable names from the tracker data files to game ids.
// It is provided by the host; lookups are case-insensitive.
type Resolver interface {
	MobID(name string) (uint, bool)
	TerritoryID(name string) (uint, bool)
	// MobTerritory returns the territory a hunt mark spawns in.
	MobTerritory(mobID uint) (uint, bool)
}

// StaticResolver is a Resolver backed by fixed tables.
type StaticResolver struct {
	mobs           map[string]uint
	territories    map[string]uint
	mobTerritories map[uint]uint
}

type staticResolverFile struct {
	Mobs map[string]struct {
		ID        uint `json:"id"`
		Territory uint `json:"territory"`
	} `json:"mobs"`
	Territories map[string]uint `json:"territories"`
}

// NewStaticResolver creates a resolver from name tables.
func NewStaticResolver(mobs map[string]uint, territories map[string]uint, mobTerritories map[uint]uint) *StaticResolver {
	r := &StaticResolver{
		mobs:           make(map[string]uint, len(mobs)),
		territories:    make(map[string]uint, len(territories)),
		mobTerritories: make(map[uint]uint, len(mobTerritories)),
	}
	for name, id := range mobs {
		r.mobs[strings.ToLower(name)] = id
	}
	for name, id := range territories {
		r.territories[strings.ToLower(name)] = id
	}
	for mob, territory := range mobTerritories {
		r.mobTerritories[mob] = territory
	}
	return r
}

// LoadStaticResolver reads a names file shaped as
// {"mobs": {name: {"id": n, "territory": t}}, "territories": {name: id}}.
func LoadStaticResolver(path string) (*StaticResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read names file: %w", err)
	}
	var f staticResolverFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse names file: %w", err)
	}

	mobs := make(map[string]uint, len(f.Mobs))
	mobTerritories := make(map[uint]uint, len(f.Mobs))
	for name, m := range f.Mobs {
		mobs[name] = m.ID
		if m.Territory != 0 {
			mobTerritories[m.ID] = m.Territory
		}
	}
	return NewStaticResolver(mobs, f.Territories, mobTerritories), nil
}

func (r *StaticResolver) MobID(name string) (uint, bool) {
	id, ok := r.mobs[strings.ToLower(name)]
	return id, ok
}

func (r *StaticResolver) TerritoryID(name string) (uint, bool) {
	id, ok := r.territories[strings.ToLower(name)]
	return id, ok
}

func (r *StaticResolver) MobTerritory(mobID uint) (uint, bool) {
	id, ok := r.mobTerritories[mobID]
	return id, ok
}
