// Package app wires reference data, the tracker generators, copy templates
// and the collaboration session into the operations the CLI exposes.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/scout-helper/tracker/internal/collab"
	"github.com/scout-helper/tracker/internal/feed"
	"github.com/scout-helper/tracker/internal/player"
	"github.com/scout-helper/tracker/internal/refdata"
	"github.com/scout-helper/tracker/internal/template"
	"github.com/scout-helper/tracker/internal/tracker"
	"github.com/scout-helper/tracker/internal/tracker/turtle"
	"github.com/scout-helper/tracker/pkg/core"
)

// ErrUnknownTracker is returned for a tracker without a generator.
var ErrUnknownTracker = errors.New("no generator for tracker")

// CopyOptions control CopyText.
type CopyOptions struct {
	Template string
	FullText bool
}

// Dependencies holds everything the service needs.
type Dependencies struct {
	Registry   *refdata.Registry
	Generators []tracker.Generator
	Session    *collab.Session
	Feed       *feed.Feed
	Player     player.Locator
	Copy       func() CopyOptions
	// StoreBackend is reported by Status.
	StoreBackend string
	Log          *slog.Logger
}

// Outcome is the result of an asynchronous link request.
type Outcome struct {
	Tracker tracker.Name
	Link    *tracker.Link
	Err     error
	// Shared is set when the result came from an identical request already
	// in flight.
	Shared bool
}

// Service is the application facade.
type Service struct {
	deps       Dependencies
	generators map[tracker.Name]tracker.Generator
	inflight   singleflight.Group
	log        *slog.Logger
}

// NewService creates a new service.
func NewService(deps Dependencies) *Service {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	gens := make(map[tracker.Name]tracker.Generator, len(deps.Generators))
	for _, g := range deps.Generators {
		gens[g.Name()] = g
	}
	return &Service{deps: deps, generators: gens, log: log}
}

// World is the player's current world name.
func (s *Service) World() string {
	if s.deps.Player == nil {
		return player.NoWorld
	}
	return s.deps.Player.WorldName()
}

// RequestLink generates a link in the background. While an identical request
// (same tracker, world and sightings) is in flight further calls share its
// result instead of sending the train twice. The channel yields exactly one
// Outcome.
func (s *Service) RequestLink(ctx context.Context, name tracker.Name, sightings []core.Sighting) <-chan Outcome {
	out := make(chan Outcome, 1)

	gen, ok := s.generators[name]
	if !ok {
		out <- Outcome{Tracker: name, Err: fmt.Errorf("%w: %s", ErrUnknownTracker, name)}
		close(out)
		return out
	}

	req := tracker.Request{World: s.World(), Sightings: slices.Clone(sightings)}
	res := s.inflight.DoChan(flightKey(name, req), func() (any, error) {
		return gen.Generate(ctx, req)
	})

	go func() {
		defer close(out)
		select {
		case r := <-res:
			link, _ := r.Val.(*tracker.Link)
			out <- Outcome{Tracker: name, Link: link, Err: r.Err, Shared: r.Shared}
		case <-ctx.Done():
			out <- Outcome{Tracker: name, Err: tracker.RequestFailed(s.log, name, ctx.Err())}
		}
	}()
	return out
}

// flightKey identifies a link request by everything that goes into the train.
func flightKey(name tracker.Name, req tracker.Request) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s\x00%t\x00", req.World, req.AllowEmpty)
	for _, s := range req.Sightings {
		fmt.Fprintf(&b, "%d/%d/%d/%d/%g/%g/%t/%d\x00",
			s.MobID, s.TerritoryID, s.MapID, s.Instance,
			s.Position.X, s.Position.Y, s.Dead, s.LastSeenUTC.UnixNano())
	}
	return string(name) + ":" + uuid.NewSHA1(uuid.NameSpaceOID, b.Bytes()).String()
}

// GenerateLink is the blocking form of RequestLink.
func (s *Service) GenerateLink(ctx context.Context, name tracker.Name, sightings []core.Sighting) (*tracker.Link, error) {
	o := <-s.RequestLink(ctx, name, sightings)
	return o.Link, o.Err
}

// GenerateAll requests a link from every tracker at once. Failures are
// reported per tracker; one tracker failing does not stop the others.
func (s *Service) GenerateAll(ctx context.Context, sightings []core.Sighting) []Outcome {
	names := tracker.Names()
	outcomes := make([]Outcome, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			outcomes[i] = <-s.RequestLink(ctx, name, sightings)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// CopyText is what gets copied for link: the bare URL, or the configured
// template rendered for the train in full text mode.
func (s *Service) CopyText(link *tracker.Link, sightings []core.Sighting) string {
	var opts CopyOptions
	if s.deps.Copy != nil {
		opts = s.deps.Copy()
	}
	if !opts.FullText {
		return link.URL
	}
	return template.Format(opts.Template, template.VarsFor(template.Train{
		Count:        len(sightings),
		HighestPatch: link.HighestPatch,
		Link:         link.URL,
		Tracker:      string(link.Tracker),
		World:        s.World(),
	}))
}

// JoinSession joins the collaboration session behind a Turtle collaborate link.
func (s *Service) JoinSession(ctx context.Context, link string) (turtle.Session, error) {
	return s.deps.Session.Join(ctx, link)
}

// LeaveSession stops pushing sightings to the joined session.
func (s *Service) LeaveSession(ctx context.Context) error {
	return s.deps.Session.Leave(ctx)
}

// StartSession creates an empty Turtle train and joins it.
func (s *Service) StartSession(ctx context.Context) (*tracker.Link, error) {
	gen, ok := s.generators[tracker.Turtle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTracker, tracker.Turtle)
	}
	link, err := gen.Generate(ctx, tracker.Request{World: s.World(), AllowEmpty: true})
	if err != nil {
		return nil, err
	}
	session := turtle.Session{Slug: link.Slug, Password: link.Password}
	if err := s.deps.Session.Start(ctx, session); err != nil {
		return link, fmt.Errorf("failed to join new session: %w", err)
	}
	return link, nil
}

// PushSightings sends sightings to the joined session right away.
func (s *Service) PushSightings(ctx context.Context, sightings []core.Sighting) (turtle.Status, error) {
	return s.deps.Session.Push(ctx, sightings)
}

// MarkOccupied flags the player's current location in the joined session.
func (s *Service) MarkOccupied(ctx context.Context, occupied bool) (turtle.Status, error) {
	if s.deps.Player == nil {
		return turtle.HTTPError, errors.New("player location unknown")
	}
	loc := s.deps.Player.Location()
	return s.deps.Session.MarkOccupied(ctx, loc.TerritoryID, loc.Instance, loc.Position, occupied)
}

// ReportSighting queues a sighting for the collaboration worker.
func (s *Service) ReportSighting(ctx context.Context, sighting core.Sighting) error {
	if s.deps.Feed == nil {
		return feed.ErrClosed
	}
	return s.deps.Feed.Publish(ctx, sighting)
}

// Reload rebuilds every tracker index from disk. The previous indexes stay
// active when loading fails.
func (s *Service) Reload() error {
	if s.deps.Registry == nil {
		return errors.New("no reference data registry")
	}
	return s.deps.Registry.Reload()
}
