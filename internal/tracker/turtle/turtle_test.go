package turtle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scout-helper/tracker/internal/httpx"
	"github.com/scout-helper/tracker/internal/refdata"
	"github.com/scout-helper/tracker/internal/spawn"
	"github.com/scout-helper/tracker/internal/tracker"
	"github.com/scout-helper/tracker/pkg/core"
)

func testIndex() *refdata.TurtleIndex {
	return &refdata.TurtleIndex{
		Mobs: map[uint]refdata.TurtleMob{
			1:  {Patch: core.SHB, TurtleID: 41},
			2:  {Patch: core.SHB, TurtleID: 42},
			10: {Patch: core.EW, TurtleID: 51},
		},
		Maps: map[uint]refdata.TurtleMap{
			100: {TurtleID: 7, Points: []spawn.Point{
				{Label: "101", ID: 101, Pos: core.Pos(10, 10)},
				{Label: "102", ID: 102, Pos: core.Pos(20, 20)},
			}},
			101: {TurtleID: 8, Points: []spawn.Point{
				{Label: "201", ID: 201, Pos: core.Pos(5, 5)},
			}},
		},
	}
}

type recorded struct {
	method string
	path   string
	body   []byte
}

type recorder struct {
	mu       sync.Mutex
	requests []recorded
}

func (r *recorder) handler(status int, response string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var raw json.RawMessage
		_ = json.NewDecoder(req.Body).Decode(&raw)
		r.mu.Lock()
		r.requests = append(r.requests, recorded{method: req.Method, path: req.URL.Path, body: raw})
		r.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.requests...)
}

func newGenerator(t *testing.T, url string, user string) *Generator {
	t.Helper()
	clients := httpx.NewProvider(func() httpx.Config {
		return httpx.Config{BaseURL: url, Timeout: time.Second}
	}, nil)
	settings := func() Settings {
		return Settings{TrainPath: "/api/v1/scout", OccupiedPath: "/api/v1/scout/{slug}/occupied", UpdateUser: user}
	}
	return New(func() *refdata.TurtleIndex { return testIndex() }, clients, settings, nil)
}

func TestParseCollabLink(t *testing.T) {
	tests := []struct {
		link string
		want Session
		ok   bool
	}{
		{"https://scout.wobbuffet.net/scout/abc123/pass456", Session{"abc123", "pass456"}, true},
		{"https://scout.wobbuffet.net/scout/abc123/pass456/", Session{"abc123", "pass456"}, true},
		{"/abc/def", Session{"abc", "def"}, true},
		{"abc/def  ", Session{"abc", "def"}, true},
		{"hello", Session{}, false},
		{"", Session{}, false},
		{"https://scout.wobbuffet.net/", Session{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			got, ok := ParseCollabLink(tt.link)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildCreateRequest(t *testing.T) {
	sightings := []core.Sighting{
		{MobID: 1, TerritoryID: 100, Instance: 0, Position: core.Pos(19, 19)},
		{MobID: 2, TerritoryID: 100, Instance: 2, Position: core.Pos(9, 9)},
		{MobID: 10, TerritoryID: 300, Position: core.Pos(1, 1)}, // map not indexed
		{MobID: 99, TerritoryID: 100, Position: core.Pos(1, 1)}, // mob not supported
	}
	req, supported := BuildCreateRequest(testIndex(), sightings)
	assert.Equal(t, []core.Patch{core.SHB, core.SHB, core.EW}, supported)
	assert.Equal(t, []string{}, req.CustomPoints)
	assert.Equal(t, map[string]map[string][]PointData{
		"7": {
			"1": {{MobID: 41, PointID: 102}},
			"2": {{MobID: 42, PointID: 101}},
		},
	}, req.PointData)

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"custom_points": [], "point_data": {"7": {"1": [{"mob_id": 41, "point_id": 102}], "2": [{"mob_id": 42, "point_id": 101}]}}}`, string(raw))
}

func TestBuildUpdateRequest(t *testing.T) {
	supported := core.Sighting{MobID: 2, TerritoryID: 101, Position: core.Pos(5.126, 7)}
	req, sent := BuildUpdateRequest(testIndex(), Session{Slug: "s", Password: "p"}, "", []core.Sighting{
		supported,
		{MobID: 99, TerritoryID: 101},
		{MobID: 1, TerritoryID: 999},
	})
	assert.Equal(t, []core.Sighting{supported}, sent)
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"collaborator_password": "p", "sightings": [{"zone_id": 8, "mob_id": 42, "instance_number": 1, "x": "5.13", "y": "7.00"}]}`, string(raw))

	_, sent = BuildUpdateRequest(testIndex(), Session{}, "", []core.Sighting{{MobID: 99}})
	assert.Empty(t, sent)
}

func TestGenerate(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec.handler(http.StatusOK, `{"slug": "abc", "collaborator_password": "pw", "readonly_url": "https://scout.wobbuffet.net/scout/abc", "collaborate_url": "https://scout.wobbuffet.net/scout/abc/pw"}`))
	defer server.Close()

	g := newGenerator(t, server.URL, "")
	link, err := g.Generate(context.Background(), tracker.Request{Sightings: []core.Sighting{
		{MobID: 10, TerritoryID: 300},
		{MobID: 1, TerritoryID: 100, Position: core.Pos(11, 11)},
	}})
	require.NoError(t, err)
	assert.Equal(t, "abc", link.Slug)
	assert.Equal(t, "pw", link.Password)
	assert.Equal(t, "https://scout.wobbuffet.net/scout/abc", link.URL)
	assert.Equal(t, "https://scout.wobbuffet.net/scout/abc/pw", link.CollaborateURL)
	assert.Equal(t, core.EW, link.HighestPatch)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].method)
	assert.Equal(t, "/api/v1/scout", reqs[0].path)
	assert.JSONEq(t, `{"custom_points": [], "point_data": {"7": {"1": [{"mob_id": 41, "point_id": 101}]}}}`, string(reqs[0].body))
}

func TestGenerate_EmptyAllowed(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec.handler(http.StatusOK, `{"slug": "new", "collaborator_password": "pw"}`))
	defer server.Close()

	g := newGenerator(t, server.URL, "")
	link, err := g.Generate(context.Background(), tracker.Request{AllowEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, core.LatestPatch, link.HighestPatch)
	assert.JSONEq(t, `{"custom_points": [], "point_data": {}}`, string(rec.all()[0].body))

	_, err = g.Generate(context.Background(), tracker.Request{})
	assert.ErrorIs(t, err, tracker.ErrNoSupportedMobs)
	assert.Len(t, rec.all(), 1)
}

func TestGenerate_HTTPFailure(t *testing.T) {
	server := httptest.NewServer((&recorder{}).handler(http.StatusInternalServerError, ""))
	defer server.Close()

	g := newGenerator(t, server.URL, "")
	_, err := g.Generate(context.Background(), tracker.Request{Sightings: []core.Sighting{{MobID: 1, TerritoryID: 100}}})
	require.Error(t, err)
	assert.Equal(t, "Something failed when communicating with Turtle :T", err.Error())
	var herr *httpx.Error
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusInternalServerError, herr.Status)
}

func TestUpdate(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec.handler(http.StatusOK, `{}`))
	defer server.Close()

	g := newGenerator(t, server.URL, "scouty")
	session := Session{Slug: "abc", Password: "pw"}

	supported := core.Sighting{MobID: 1, TerritoryID: 100, Instance: 3, Position: core.Pos(1, 2)}
	status, sent, err := g.Update(context.Background(), session, []core.Sighting{supported, {MobID: 99, TerritoryID: 100}})
	require.NoError(t, err)
	assert.Equal(t, Success, status)
	assert.Equal(t, []core.Sighting{supported}, sent)

	status, sent, err = g.Update(context.Background(), session, []core.Sighting{{MobID: 99, TerritoryID: 100}})
	require.NoError(t, err)
	assert.Equal(t, NoSupportedMobs, status)
	assert.Empty(t, sent)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPatch, reqs[0].method)
	assert.Equal(t, "/api/v1/scout/abc", reqs[0].path)
	assert.JSONEq(t, `{"collaborator_password": "pw", "update_user": "scouty", "sightings": [{"zone_id": 7, "mob_id": 41, "instance_number": 3, "x": "1.00", "y": "2.00"}]}`, string(reqs[0].body))
}

func TestUpdate_HTTPError(t *testing.T) {
	server := httptest.NewServer((&recorder{}).handler(http.StatusForbidden, ""))
	defer server.Close()

	g := newGenerator(t, server.URL, "")
	status, sent, err := g.Update(context.Background(), Session{Slug: "abc"}, []core.Sighting{{MobID: 1, TerritoryID: 100}})
	assert.Equal(t, HTTPError, status)
	assert.Empty(t, sent)
	assert.Equal(t, httpx.HTTPException, httpx.Classify(err))
}

func TestMarkOccupied(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec.handler(http.StatusOK, ``))
	defer server.Close()

	g := newGenerator(t, server.URL, "")
	session := Session{Slug: "abc", Password: "pw"}

	status, err := g.MarkOccupied(context.Background(), session, 101, 0, core.Pos(3.333, 4), true)
	require.NoError(t, err)
	assert.Equal(t, Success, status)

	status, err = g.MarkOccupied(context.Background(), session, 999, 0, core.Pos(3, 4), true)
	require.NoError(t, err)
	assert.Equal(t, NoSupportedMobs, status)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/v1/scout/abc/occupied", reqs[0].path)
	assert.JSONEq(t, `{"collaborator_password": "pw", "zone_id": 8, "instance_number": 1, "x": "3.33", "y": "4.00", "status": 1}`, string(reqs[0].body))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "no supported mobs", NoSupportedMobs.String())
	assert.Equal(t, "http error", HTTPError.String())
	assert.Equal(t, "Status(7)", Status(7).String())
}
