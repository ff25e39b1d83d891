package refdata

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/scout-helper/tracker/internal/spawn"
	"github.com/scout-helper/tracker/pkg/core"
)

// LoadSiren reads the Siren data file.
func LoadSiren(path string, resolver Resolver, log *slog.Logger) (*Result[*SirenIndex], error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	res, err := ParseSiren(data, resolver)
	if err != nil {
		return nil, fmt.Errorf("failed to read Siren data: %w", err)
	}
	logWarnings(log, "siren", res.Warnings)
	return res, nil
}

// ParseSiren builds a SirenIndex from the raw contents of a Siren data file.
func ParseSiren(data []byte, resolver Resolver) (*Result[*SirenIndex], error) {
	patches, blocks, err := patchBlocks(data)
	if err != nil {
		return nil, err
	}

	res := &Result[*SirenIndex]{Index: &SirenIndex{
		Patches: make(map[core.Patch]*SirenPatch),
		Mobs:    make(map[uint]core.Patch),
	}}
	for i, patch := range patches {
		members, err := decodeObject(blocks[i])
		if err != nil {
			return nil, fmt.Errorf("patch %s: %w", patch, err)
		}
		sp := &SirenPatch{Patch: patch, Spawns: make(spawn.Catalog)}

		var order []string
		if raw := field(members, "mob order"); raw != nil {
			if err := json.Unmarshal(raw, &order); err != nil {
				return nil, fmt.Errorf("patch %s mob order: %w", patch, err)
			}
		}
		for _, entry := range order {
			name, instance := splitInstance(entry)
			id, ok := resolver.MobID(name)
			if !ok {
				res.warn(fmt.Errorf("%w: no mob id found for mob name %q", ErrUnresolvedName, name))
				continue
			}
			territory, _ := resolver.MobTerritory(id)
			sp.MobOrder = append(sp.MobOrder, SirenMob{MobID: id, TerritoryID: territory, Instance: instance})
			res.Index.Mobs[id] = patch
		}

		if raw := field(members, "maps"); raw != nil {
			maps, err := decodeObject(raw)
			if err != nil {
				return nil, fmt.Errorf("patch %s maps: %w", patch, err)
			}
			for _, m := range maps {
				points, err := parsePointMap(m.Value)
				if err != nil {
					return nil, fmt.Errorf("patch %s map %q: %w", patch, m.Key, err)
				}
				territory, ok := resolver.TerritoryID(m.Key)
				if !ok {
					res.warn(fmt.Errorf("%w: no territory id found for territory name %q", ErrUnresolvedName, m.Key))
					continue
				}
				sp.Spawns[territory] = points
			}
		}
		res.Index.Patches[patch] = sp
	}
	return res, nil
}
