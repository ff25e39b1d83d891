package refdata

import (
	"log/slog"
	"path/filepath"
	"sync/atomic"
)

// Data file names inside the data directory.
const (
	BearFile   = "bear.json"
	SirenFile  = "siren.json"
	TurtleFile = "turtle.json"
	// NamesFile feeds LoadStaticResolver. It is not watched.
	NamesFile = "names.json"
)

// Snapshot is one complete, immutable set of tracker indexes.
type Snapshot struct {
	Bear     *BearIndex
	Siren    *SirenIndex
	Turtle   *TurtleIndex
	Warnings []error
}

// Registry holds the current Snapshot. Reloads build a new snapshot off to the
// side and swap it in whole; readers never observe a half-loaded state.
type Registry struct {
	dir      string
	resolver Resolver
	log      *slog.Logger
	current  atomic.Pointer[Snapshot]
}

// NewRegistry loads every data file from dir. Any fatal load error fails the call.
func NewRegistry(dir string, resolver Resolver, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{dir: dir, resolver: resolver, log: log}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the watched data directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Current returns the active snapshot.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Reload rebuilds all indexes. On error the previous snapshot stays active.
func (r *Registry) Reload() error {
	snap, err := LoadAll(r.dir, r.resolver, r.log)
	if err != nil {
		return err
	}
	r.current.Store(snap)
	r.log.Info("Reference data loaded",
		"dir", r.dir,
		"bearMobs", len(snap.Bear.Mobs),
		"sirenPatches", len(snap.Siren.Patches),
		"turtleMobs", len(snap.Turtle.Mobs),
		"warnings", len(snap.Warnings))
	return nil
}

// LoadAll reads the three data files from dir into a fresh Snapshot.
func LoadAll(dir string, resolver Resolver, log *slog.Logger) (*Snapshot, error) {
	bear, err := LoadBear(filepath.Join(dir, BearFile), resolver, log)
	if err != nil {
		return nil, err
	}
	siren, err := LoadSiren(filepath.Join(dir, SirenFile), resolver, log)
	if err != nil {
		return nil, err
	}
	turtle, err := LoadTurtle(filepath.Join(dir, TurtleFile), resolver, log)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Bear: bear.Index, Siren: siren.Index, Turtle: turtle.Index}
	snap.Warnings = append(snap.Warnings, bear.Warnings...)
	snap.Warnings = append(snap.Warnings, siren.Warnings...)
	snap.Warnings = append(snap.Warnings, turtle.Warnings...)
	return snap, nil
}
