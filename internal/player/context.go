// Package player tracks where the local player is: world, territory,
// instance and map position.
package player

import (
	"sync"

	"github.com/scout-helper/tracker/pkg/core"
)

// NoWorld is reported until a world has been set.
const NoWorld = "Not Found"

// Location is a snapshot of the player's whereabouts.
type Location struct {
	World       string
	TerritoryID uint
	Instance    uint
	Position    core.Position
}

// Locator gives read access to the player's location.
type Locator interface {
	WorldName() string
	Location() Location
}

// Context holds the current player state
type Context struct {
	mu       sync.RWMutex
	location Location
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{location: Location{World: NoWorld}}
}

// WorldName returns the current world, or NoWorld.
func (c *Context) WorldName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.location.World
}

// Location returns the current location.
func (c *Context) Location() Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.location
}

// SetWorld changes the world. An empty name resets it to NoWorld.
func (c *Context) SetWorld(world string) {
	if world == "" {
		world = NoWorld
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.location.World = world
}

// Move updates territory, instance and position at once.
func (c *Context) Move(territoryID, instance uint, pos core.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.location.TerritoryID = territoryID
	c.location.Instance = instance
	c.location.Position = pos
}
