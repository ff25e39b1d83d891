// Package bear creates hunt trains on the Bear toolkit tracker.
package bear

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/scout-helper/tracker/internal/httpx"
	"github.com/scout-helper/tracker/internal/refdata"
	"github.com/scout-helper/tracker/internal/tracker"
	"github.com/scout-helper/tracker/pkg/core"
)

const noSupportedMessage = "No mobs in the train are supported by Bear ;-;"

// Settings are the Bear values read on every request.
type Settings struct {
	TrainPath    string
	SiteTrainURL string
	TrainName    string
}

// Generator posts trains to Bear.
type Generator struct {
	index    func() *refdata.BearIndex
	clients  *httpx.Provider
	settings func() Settings
	log      *slog.Logger
}

// New creates a Bear generator. index and settings are read per request so a
// reload or config change applies to the next link.
func New(index func() *refdata.BearIndex, clients *httpx.Provider, settings func() Settings, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{index: index, clients: clients, settings: settings, log: log.With("tracker", tracker.Bear)}
}

func (g *Generator) Name() tracker.Name {
	return tracker.Bear
}

// SpawnPoint is one mark of a train.
type SpawnPoint struct {
	HuntName string  `json:"huntName"`
	PosX     float64 `json:"pos_x"`
	PosY     float64 `json:"pos_y"`
	Time     string  `json:"time"`
}

// TrainRequest is the body of the train creation call.
type TrainRequest struct {
	WorldName   string       `json:"worldName"`
	TrainName   string       `json:"trainName"`
	PatchName   string       `json:"patchName"`
	SpawnPoints []SpawnPoint `json:"spawnpoints"`
}

type Train struct {
	TrainID  string `json:"trainId"`
	Password string `json:"password"`
}

type TrainResponse struct {
	Trains []Train `json:"trains"`
}

// PatchName is the patch label Bear expects.
func PatchName(p core.Patch) string {
	switch p {
	case core.ARR:
		return "ARR"
	case core.HW:
		return "HW"
	case core.SB:
		return "SB"
	case core.SHB:
		return "ShB"
	case core.EW:
		return "EW"
	case core.DT:
		return "DT"
	}
	panic(fmt.Sprintf("bear: no name for %v", p))
}

// HuntName appends the instance to the mob name when it is between 1 and 9.
func HuntName(name string, instance uint) string {
	if instance >= 1 && instance <= 9 {
		return fmt.Sprintf("%s %d", name, instance)
	}
	return name
}

// BuildRequest turns the supported sightings into a train request. It returns
// false when none of the sightings are known to Bear.
func BuildRequest(index *refdata.BearIndex, world, trainName string, sightings []core.Sighting) (TrainRequest, core.Patch, bool) {
	req := TrainRequest{WorldName: world, TrainName: trainName, SpawnPoints: []SpawnPoint{}}
	var patches []core.Patch
	for _, s := range sightings {
		mob, ok := index.Mob(s.MobID)
		if !ok {
			continue
		}
		patches = append(patches, mob.Patch)
		req.SpawnPoints = append(req.SpawnPoints, SpawnPoint{
			HuntName: HuntName(mob.Name, s.Instance),
			PosX:     s.Position.X,
			PosY:     s.Position.Y,
			Time:     s.LastSeenUTC.UTC().Format(time.RFC3339),
		})
	}
	highest, ok := core.HighestPatch(patches)
	if !ok {
		return TrainRequest{}, 0, false
	}
	req.PatchName = PatchName(highest)
	return req, highest, true
}

// Generate creates a train and returns its public URL and admin password.
func (g *Generator) Generate(ctx context.Context, r tracker.Request) (*tracker.Link, error) {
	g.log.Debug("Generating a Bear link", "sightings", len(r.Sightings))
	settings := g.settings()

	req, highest, ok := BuildRequest(g.index(), r.World, settings.TrainName, r.Sightings)
	if !ok {
		return nil, tracker.NoSupportedMobs(noSupportedMessage)
	}

	client, err := g.clients.Client()
	if err != nil {
		return nil, tracker.RequestFailed(g.log, tracker.Bear, err)
	}

	var resp TrainResponse
	if err := client.Do(ctx, http.MethodPost, settings.TrainPath, req, &resp); err != nil {
		return nil, tracker.RequestFailed(g.log, tracker.Bear, err)
	}
	if len(resp.Trains) == 0 {
		return nil, tracker.RequestFailed(g.log, tracker.Bear, errors.New("bear returned no trains"))
	}

	t := resp.Trains[0]
	return &tracker.Link{
		Tracker:      tracker.Bear,
		URL:          strings.TrimRight(settings.SiteTrainURL, "/") + "/" + t.TrainID,
		Password:     t.Password,
		HighestPatch: highest,
	}, nil
}
