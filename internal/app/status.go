package app

import (
	"encoding/json"
	"fmt"
	"time"
)

// DataStatus summarizes the loaded reference data.
type DataStatus struct {
	Dir          string   `json:"dir"`
	BearMobs     int      `json:"bearMobs"`
	SirenPatches int      `json:"sirenPatches"`
	SirenMobs    int      `json:"sirenMobs"`
	TurtleMobs   int      `json:"turtleMobs"`
	TurtleMaps   int      `json:"turtleMaps"`
	Warnings     []string `json:"warnings,omitempty"`
}

// SessionStatus describes the collaboration session.
type SessionStatus struct {
	Slug          string `json:"slug,omitempty"`
	Joined        bool   `json:"joined"`
	Collaborating bool   `json:"collaborating"`
	Contributed   int    `json:"contributed"`
}

// Status is a point in time view of the service.
type Status struct {
	Time         time.Time     `json:"time"`
	World        string        `json:"world"`
	Data         DataStatus    `json:"data"`
	Session      SessionStatus `json:"session"`
	FeedQueue    int           `json:"feedQueue"`
	StoreBackend string        `json:"storeBackend,omitempty"`
}

// Status collects the current status.
func (s *Service) Status() Status {
	st := Status{
		Time:         time.Now().UTC(),
		World:        s.World(),
		StoreBackend: s.deps.StoreBackend,
	}

	if r := s.deps.Registry; r != nil {
		st.Data.Dir = r.Dir()
		if snap := r.Current(); snap != nil {
			st.Data.BearMobs = len(snap.Bear.Mobs)
			st.Data.SirenPatches = len(snap.Siren.Patches)
			st.Data.SirenMobs = len(snap.Siren.Mobs)
			st.Data.TurtleMobs = len(snap.Turtle.Mobs)
			st.Data.TurtleMaps = len(snap.Turtle.Maps)
			for _, w := range snap.Warnings {
				st.Data.Warnings = append(st.Data.Warnings, w.Error())
			}
		}
	}

	if sess := s.deps.Session; sess != nil {
		current, joined := sess.Current()
		st.Session = SessionStatus{
			Slug:          current.Slug,
			Joined:        joined,
			Collaborating: sess.Collaborating(),
			Contributed:   len(sess.Contributed()),
		}
	}

	if s.deps.Feed != nil {
		st.FeedQueue = s.deps.Feed.Len()
	}
	return st
}

// StatusReport renders Status as indented JSON.
func (s *Service) StatusReport() string {
	out, err := json.MarshalIndent(s.Status(), "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(out)
}
