// Package turtle talks to the Turtle scouter: one-shot train creation plus
// incremental updates of a shared collaboration session.
package turtle

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/scout-helper/tracker/internal/geo"
	"github.com/scout-helper/tracker/internal/httpx"
	"github.com/scout-helper/tracker/internal/refdata"
	"github.com/scout-helper/tracker/internal/tracker"
	"github.com/scout-helper/tracker/pkg/core"
)

const noSupportedMessage = "No mobs supported by Turtle Scouter were found in the train ;-;"

// Status is the outcome of a session update.
type Status int

const (
	Success Status = iota
	NoSupportedMobs
	HTTPError
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case NoSupportedMobs:
		return "no supported mobs"
	case HTTPError:
		return "http error"
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// Session identifies a collaboration session.
type Session struct {
	Slug     string
	Password string
}

var collabLink = regexp.MustCompile(`(?:/scout)?/?(?P<session>\w+)/(?P<password>\w+)/?\s*$`)

// ParseCollabLink extracts the session slug and password from a collaborate
// link. ok is false when the link does not look like one.
func ParseCollabLink(link string) (Session, bool) {
	m := collabLink.FindStringSubmatch(link)
	if m == nil {
		return Session{}, false
	}
	return Session{
		Slug:     m[collabLink.SubexpIndex("session")],
		Password: m[collabLink.SubexpIndex("password")],
	}, true
}

// Settings are the Turtle values read on every request.
type Settings struct {
	TrainPath    string
	OccupiedPath string
	UpdateUser   string
}

// Generator creates and updates Turtle trains.
type Generator struct {
	index    func() *refdata.TurtleIndex
	clients  *httpx.Provider
	settings func() Settings
	log      *slog.Logger
}

// New creates a Turtle generator.
func New(index func() *refdata.TurtleIndex, clients *httpx.Provider, settings func() Settings, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{index: index, clients: clients, settings: settings, log: log.With("tracker", tracker.Turtle)}
}

func (g *Generator) Name() tracker.Name {
	return tracker.Turtle
}

// PointData is one mark placed on a spawn point.
type PointData struct {
	MobID   uint `json:"mob_id"`
	PointID uint `json:"point_id"`
}

// CreateRequest is the body of the train creation call. PointData is keyed by
// Turtle map id, then instance.
type CreateRequest struct {
	CustomPoints []string                          `json:"custom_points"`
	PointData    map[string]map[string][]PointData `json:"point_data"`
}

// CreateResponse is Turtle's answer to a train creation.
type CreateResponse struct {
	Slug                 string `json:"slug"`
	CollaboratorPassword string `json:"collaborator_password"`
	ReadonlyURL          string `json:"readonly_url"`
	CollaborateURL       string `json:"collaborate_url"`
}

// UpdateMark is one sighting pushed to a session.
type UpdateMark struct {
	ZoneID   uint   `json:"zone_id"`
	MobID    uint   `json:"mob_id"`
	Instance uint   `json:"instance_number"`
	X        string `json:"x"`
	Y        string `json:"y"`
}

// UpdateRequest is the body of a session update.
type UpdateRequest struct {
	CollaboratorPassword string       `json:"collaborator_password"`
	UpdateUser           string       `json:"update_user,omitempty"`
	Sightings            []UpdateMark `json:"sightings"`
}

// OccupiedRequest flags a spawn location as taken.
type OccupiedRequest struct {
	CollaboratorPassword string `json:"collaborator_password"`
	UpdateUser           string `json:"update_user,omitempty"`
	ZoneID               uint   `json:"zone_id"`
	Instance             uint   `json:"instance_number"`
	X                    string `json:"x"`
	Y                    string `json:"y"`
	Status               uint   `json:"status"`
}

// BuildCreateRequest places every supported sighting on its nearest spawn
// point. Sightings whose map or spawn point cannot be resolved are dropped.
// supported lists the patches of every Turtle-known mob, dropped or not.
func BuildCreateRequest(index *refdata.TurtleIndex, sightings []core.Sighting) (req CreateRequest, supported []core.Patch) {
	req = CreateRequest{CustomPoints: []string{}, PointData: map[string]map[string][]PointData{}}
	catalog := index.Catalog()
	for _, s := range sightings {
		mob, ok := index.Mob(s.MobID)
		if !ok {
			continue
		}
		supported = append(supported, mob.Patch)

		m, ok := index.Map(s.TerritoryID)
		if !ok {
			continue
		}
		point, ok := catalog.Nearest(s.TerritoryID, s.Position)
		if !ok {
			continue
		}

		mapKey := strconv.FormatUint(uint64(m.TurtleID), 10)
		instanceKey := strconv.FormatUint(uint64(core.TurtleInstance(s.Instance)), 10)
		if req.PointData[mapKey] == nil {
			req.PointData[mapKey] = map[string][]PointData{}
		}
		req.PointData[mapKey][instanceKey] = append(req.PointData[mapKey][instanceKey], PointData{MobID: mob.TurtleID, PointID: point.ID})
	}
	return req, supported
}

// BuildUpdateRequest converts the supported sightings to raw-coordinate marks
// and returns the sightings that made it into the request.
// Turtle matches spawn points itself on updates.
func BuildUpdateRequest(index *refdata.TurtleIndex, session Session, user string, sightings []core.Sighting) (UpdateRequest, []core.Sighting) {
	req := UpdateRequest{CollaboratorPassword: session.Password, UpdateUser: user}
	var sent []core.Sighting
	for _, s := range sightings {
		mob, ok := index.Mob(s.MobID)
		if !ok {
			continue
		}
		m, ok := index.Map(s.TerritoryID)
		if !ok {
			continue
		}
		req.Sightings = append(req.Sightings, UpdateMark{
			ZoneID:   m.TurtleID,
			MobID:    mob.TurtleID,
			Instance: core.TurtleInstance(s.Instance),
			X:        geo.FormatCoordinate(s.Position.X),
			Y:        geo.FormatCoordinate(s.Position.Y),
		})
		sent = append(sent, s)
	}
	return req, sent
}

// Generate creates a new train. With AllowEmpty set an empty train is
// created even when nothing is supported, which bootstraps a fresh session.
func (g *Generator) Generate(ctx context.Context, r tracker.Request) (*tracker.Link, error) {
	g.log.Debug("Generating a Turtle link", "sightings", len(r.Sightings), "allowEmpty", r.AllowEmpty)

	req, supported := BuildCreateRequest(g.index(), r.Sightings)
	if len(supported) == 0 && !r.AllowEmpty {
		return nil, tracker.NoSupportedMobs(noSupportedMessage)
	}
	highest := core.LatestPatch
	if !r.AllowEmpty {
		highest, _ = core.HighestPatch(supported)
	}

	client, err := g.clients.Client()
	if err != nil {
		return nil, tracker.RequestFailed(g.log, tracker.Turtle, err)
	}
	var resp CreateResponse
	if err := client.Do(ctx, http.MethodPost, g.settings().TrainPath, req, &resp); err != nil {
		return nil, tracker.RequestFailed(g.log, tracker.Turtle, err)
	}

	return &tracker.Link{
		Tracker:        tracker.Turtle,
		URL:            resp.ReadonlyURL,
		Password:       resp.CollaboratorPassword,
		Slug:           resp.Slug,
		ReadonlyURL:    resp.ReadonlyURL,
		CollaborateURL: resp.CollaborateURL,
		HighestPatch:   highest,
	}, nil
}

// Update pushes the supported sightings to a joined session. On Success it
// also returns the sightings that were sent; unsupported ones are left out.
func (g *Generator) Update(ctx context.Context, session Session, sightings []core.Sighting) (Status, []core.Sighting, error) {
	settings := g.settings()
	req, sent := BuildUpdateRequest(g.index(), session, settings.UpdateUser, sightings)
	if len(sent) == 0 {
		return NoSupportedMobs, nil, nil
	}
	path := strings.TrimRight(settings.TrainPath, "/") + "/" + session.Slug
	if err := g.send(ctx, http.MethodPatch, path, req); err != nil {
		g.logFailure("post updates to turtle session", err)
		return HTTPError, nil, err
	}
	return Success, sent, nil
}

// MarkOccupied flags a spawn location of a session as occupied or free.
func (g *Generator) MarkOccupied(ctx context.Context, session Session, territoryID, instance uint, pos core.Position, occupied bool) (Status, error) {
	m, ok := g.index().Map(territoryID)
	if !ok {
		return NoSupportedMobs, nil
	}
	settings := g.settings()
	req := OccupiedRequest{
		CollaboratorPassword: session.Password,
		UpdateUser:           settings.UpdateUser,
		ZoneID:               m.TurtleID,
		Instance:             core.TurtleInstance(instance),
		X:                    geo.FormatCoordinate(pos.X),
		Y:                    geo.FormatCoordinate(pos.Y),
	}
	if occupied {
		req.Status = 1
	}
	path := strings.ReplaceAll(settings.OccupiedPath, "{slug}", session.Slug)
	if err := g.send(ctx, http.MethodPatch, path, req); err != nil {
		g.logFailure("mark a spawn point occupied in turtle session", err)
		return HTTPError, err
	}
	return Success, nil
}

func (g *Generator) send(ctx context.Context, method, path string, body any) error {
	client, err := g.clients.Client()
	if err != nil {
		return err
	}
	return client.Do(ctx, method, path, body, nil)
}

func (g *Generator) logFailure(action string, err error) {
	switch httpx.Classify(err) {
	case httpx.Timeout:
		g.log.Warn("timed out while trying to " + action)
	case httpx.Canceled:
		g.log.Warn("operation canceled while trying to " + action)
	case httpx.HTTPException:
		g.log.Error("http exception while trying to "+action, "error", err)
	default:
		g.log.Error("unknown exception while trying to "+action, "error", err)
	}
}
