// Package collab keeps the Turtle collaboration session: which session is
// joined, whether new sightings are pushed to it, and what was already sent.
package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/scout-helper/tracker/internal/cache"
	"github.com/scout-helper/tracker/internal/store"
	"github.com/scout-helper/tracker/internal/tracker/turtle"
	"github.com/scout-helper/tracker/pkg/core"
)

// ErrNotJoined is returned when an operation needs a joined session.
var ErrNotJoined = errors.New("not in a collaboration session")

// ErrInvalidLink is returned by Join for links that are not collaborate links.
var ErrInvalidLink = errors.New("not a valid collaboration link")

// Updater sends sightings to a Turtle session.
type Updater interface {
	// Update returns the sightings it actually sent.
	Update(ctx context.Context, session turtle.Session, sightings []core.Sighting) (turtle.Status, []core.Sighting, error)
	MarkOccupied(ctx context.Context, session turtle.Session, territoryID, instance uint, pos core.Position, occupied bool) (turtle.Status, error)
}

// Store persists the session between runs.
type Store interface {
	SaveSession(ctx context.Context, s store.Session) error
	ActiveSession(ctx context.Context) (store.Session, error)
	SetCollaborating(ctx context.Context, slug string, collaborating bool) error
}

// Session is the process-wide collaboration state.
type Session struct {
	mu            sync.RWMutex
	current       turtle.Session
	joined        bool
	collaborating bool

	// pushMu serializes pushes so the contributed set is checked and
	// updated atomically with the request.
	pushMu      sync.Mutex
	contributed *cache.ContributedSet

	updater Updater
	store   Store
	log     *slog.Logger
}

// NewSession creates an empty session. st may be nil to keep state in memory only.
func NewSession(updater Updater, st Store, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		contributed: cache.NewContributedSet(),
		updater:     updater,
		store:       st,
		log:         log,
	}
}

// Restore reloads the last active session from the store.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	saved, err := s.store.ActiveSession(ctx)
	if errors.Is(err, store.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	s.mu.Lock()
	s.current = turtle.Session{Slug: saved.Slug, Password: saved.Password}
	s.joined = true
	s.collaborating = saved.Collaborating
	s.contributed = cache.NewContributedSet(saved.Contributed...)
	s.mu.Unlock()

	s.log.Info("Restored collaboration session", "slug", saved.Slug, "contributed", len(saved.Contributed))
	return nil
}

// Join parses a collaborate link and starts collaborating on it.
func (s *Session) Join(ctx context.Context, link string) (turtle.Session, error) {
	parsed, ok := turtle.ParseCollabLink(link)
	if !ok {
		return turtle.Session{}, ErrInvalidLink
	}
	return parsed, s.Start(ctx, parsed)
}

// Start begins collaborating on session, forgetting what was sent before
// unless it is the session already joined.
func (s *Session) Start(ctx context.Context, session turtle.Session) error {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	s.mu.Lock()
	if !s.joined || s.current.Slug != session.Slug {
		s.contributed = cache.NewContributedSet()
	}
	s.current = session
	s.joined = true
	s.collaborating = true
	s.mu.Unlock()

	s.log.Info("Joined collaboration session", "slug", session.Slug)
	return s.persist(ctx)
}

// Leave stops pushing sightings. The session stays remembered so it can be
// rejoined with the same contributed set.
func (s *Session) Leave(ctx context.Context) error {
	s.mu.Lock()
	if !s.joined {
		s.mu.Unlock()
		return ErrNotJoined
	}
	s.collaborating = false
	slug := s.current.Slug
	s.mu.Unlock()

	s.log.Info("Left collaboration session", "slug", slug)
	if s.store == nil {
		return nil
	}
	if err := s.store.SetCollaborating(ctx, slug, false); err != nil && !errors.Is(err, store.ErrNoSession) {
		return fmt.Errorf("failed to persist leaving session: %w", err)
	}
	return nil
}

// Collaborating reports whether new sightings should be pushed.
func (s *Session) Collaborating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collaborating
}

// Current returns the joined session.
func (s *Session) Current() (turtle.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.joined
}

// Contributed returns the keys already pushed to the session.
func (s *Session) Contributed() []core.ContributionKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contributed.Keys()
}

// Push sends the sightings not contributed yet. When every sighting was
// already sent no request is made and NoSupportedMobs is returned. Only
// sightings the session accepted are recorded; unsupported ones stay pending.
func (s *Session) Push(ctx context.Context, sightings []core.Sighting) (turtle.Status, error) {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	s.mu.RLock()
	current, joined, contributed := s.current, s.joined, s.contributed
	s.mu.RUnlock()
	if !joined {
		return turtle.HTTPError, ErrNotJoined
	}

	pending := contributed.Pending(sightings)
	if len(pending) == 0 {
		return turtle.NoSupportedMobs, nil
	}

	status, sent, err := s.updater.Update(ctx, current, pending)
	if status != turtle.Success {
		return status, err
	}

	contributed.MarkAll(sent)
	if err := s.persist(ctx); err != nil {
		s.log.Error("Failed to persist contributed sightings", "error", err)
	}
	return status, nil
}

// MarkOccupied flags the location as occupied (or free) in the joined session.
func (s *Session) MarkOccupied(ctx context.Context, territoryID, instance uint, pos core.Position, occupied bool) (turtle.Status, error) {
	current, joined := s.Current()
	if !joined {
		return turtle.HTTPError, ErrNotJoined
	}
	return s.updater.MarkOccupied(ctx, current, territoryID, instance, pos, occupied)
}

func (s *Session) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.RLock()
	saved := store.Session{
		Slug:          s.current.Slug,
		Password:      s.current.Password,
		Collaborating: s.collaborating,
		Contributed:   s.contributed.Keys(),
	}
	s.mu.RUnlock()
	return s.store.SaveSession(ctx, saved)
}
