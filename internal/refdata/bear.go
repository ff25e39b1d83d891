package refdata

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// LoadBear reads the Bear data file. Only the "mob order" of each patch is
// used: Bear receives raw coordinates, so its "maps" block is ignored.
func LoadBear(path string, resolver Resolver, log *slog.Logger) (*Result[*BearIndex], error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	res, err := ParseBear(data, resolver)
	if err != nil {
		return nil, fmt.Errorf("failed to read in Bear data: %w", err)
	}
	logWarnings(log, "bear", res.Warnings)
	return res, nil
}

// ParseBear builds a BearIndex from the raw contents of a Bear data file.
func ParseBear(data []byte, resolver Resolver) (*Result[*BearIndex], error) {
	patches, blocks, err := patchBlocks(data)
	if err != nil {
		return nil, err
	}

	res := &Result[*BearIndex]{Index: &BearIndex{Mobs: make(map[uint]BearMob)}}
	for i, patch := range patches {
		members, err := decodeObject(blocks[i])
		if err != nil {
			return nil, fmt.Errorf("patch %s: %w", patch, err)
		}
		var order []string
		if raw := field(members, "mob order"); raw != nil {
			if err := json.Unmarshal(raw, &order); err != nil {
				return nil, fmt.Errorf("patch %s mob order: %w", patch, err)
			}
		}
		for _, entry := range order {
			name, _ := splitInstance(entry)
			id, ok := resolver.MobID(name)
			if !ok {
				res.warn(fmt.Errorf("%w: no mob id found for mob name %q", ErrUnresolvedName, name))
				continue
			}
			if _, seen := res.Index.Mobs[id]; seen {
				continue
			}
			res.Index.Mobs[id] = BearMob{Patch: patch, Name: name}
		}
	}
	return res, nil
}
