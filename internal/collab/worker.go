package collab

import (
	"context"
	"log/slog"
	"sync"

	"github.com/scout-helper/tracker/internal/feed"
	"github.com/scout-helper/tracker/internal/tracker/turtle"
	"github.com/scout-helper/tracker/pkg/core"
)

// Result reports what happened to one sighting from the feed.
type Result struct {
	Sighting core.Sighting
	Status   turtle.Status
	Err      error
}

// Worker pushes every sighting from the feed to the session while collaborating.
type Worker struct {
	session *Session
	feed    *feed.Feed
	notify  func(Result)
	log     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a worker. notify, if set, is called after each push.
func NewWorker(session *Session, f *feed.Feed, notify func(Result), log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{session: session, feed: f, notify: notify, log: log}
}

// Start runs the worker in the background until Stop, ctx end or feed close.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		w.feed.Consume(ctx, w.handle)
	}(w.done)
}

// Stop ends the worker and waits for the in-flight push.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if done == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the running worker exits. It is nil before Start.
func (w *Worker) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

func (w *Worker) handle(ctx context.Context, s core.Sighting) error {
	if !w.session.Collaborating() {
		return nil
	}
	status, err := w.session.Push(ctx, []core.Sighting{s})
	switch status {
	case turtle.Success:
		w.log.Info("Added mark to the turtle session", "mob", s.Name)
	case turtle.NoSupportedMobs:
		w.log.Debug("Mark not added to the turtle session", "mob", s.Name)
	}
	if w.notify != nil {
		w.notify(Result{Sighting: s, Status: status, Err: err})
	}
	return err
}
