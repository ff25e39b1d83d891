// Package tracker holds the types shared by the Bear, Siren and Turtle link generators.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/scout-helper/tracker/internal/httpx"
	"github.com/scout-helper/tracker/pkg/core"
)

// Name identifies a tracking website.
type Name string

const (
	Bear   Name = "bear"
	Siren  Name = "siren"
	Turtle Name = "turtle"
)

// Names lists every tracker in menu order.
func Names() []Name {
	return []Name{Bear, Siren, Turtle}
}

// ParseName resolves a tracker name given on the command line.
func ParseName(s string) (Name, error) {
	for _, n := range Names() {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown tracker: %s", s)
}

// Title is the tracker's display name.
func (n Name) Title() string {
	switch n {
	case Bear:
		return "Bear"
	case Siren:
		return "Siren"
	case Turtle:
		return "Turtle"
	default:
		return string(n)
	}
}

var (
	// ErrNoSupportedMobs means none of the sightings are known to the tracker.
	ErrNoSupportedMobs = errors.New("no supported mobs")
	// ErrNoInstancedLocations means a Siren patch segment would contain no glyphs.
	ErrNoInstancedLocations = errors.New("no instanced locations")
)

// Link is a generated tracker link.
type Link struct {
	Tracker Name
	URL     string
	// Password is the Bear admin password or the Turtle collaborator password.
	Password       string
	Slug           string
	ReadonlyURL    string
	CollaborateURL string
	HighestPatch   core.Patch
	// Failures holds per-patch problems that did not prevent the link.
	Failures []error
}

// Failure is a user facing error. Message is shown as is; Cause keeps the
// classified error for errors.Is and errors.As.
type Failure struct {
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// NoSupportedMobs builds the expected "nothing to send" outcome.
func NoSupportedMobs(message string) *Failure {
	return &Failure{Message: message, Cause: ErrNoSupportedMobs}
}

// RequestFailed turns a classified transport error into the message shown for
// tracker t and logs it at the level the kind warrants.
func RequestFailed(log *slog.Logger, t Name, err error) *Failure {
	title := t.Title()
	var msg string
	switch httpx.Classify(err) {
	case httpx.Timeout:
		msg = fmt.Sprintf("Timed out posting the train to %s ;-;", title)
		log.Error(msg, "error", err)
	case httpx.Canceled:
		msg = fmt.Sprintf("Generating the %s link was canceled >_>", title)
		log.Warn(msg, "error", err)
	case httpx.HTTPException:
		msg = fmt.Sprintf("Something failed when communicating with %s :T", title)
		log.Error(fmt.Sprintf("Posting the train to %s failed.", title), "error", err)
	default:
		msg = fmt.Sprintf("An unknown error happened while generating the %s link D:", title)
		log.Error(msg, "error", err)
	}
	return &Failure{Message: msg, Cause: err}
}

// Generator builds a link for one tracker.
type Generator interface {
	Name() Name
	Generate(ctx context.Context, req Request) (*Link, error)
}

// Request is everything a generator may need to build a link.
type Request struct {
	World     string
	Sightings []core.Sighting
	// AllowEmpty lets Turtle create an empty session.
	AllowEmpty bool
}
