package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/scout-helper/tracker/internal/app"
	"github.com/scout-helper/tracker/internal/collab"
	"github.com/scout-helper/tracker/internal/config"
	"github.com/scout-helper/tracker/internal/feed"
	"github.com/scout-helper/tracker/internal/httpx"
	"github.com/scout-helper/tracker/internal/logging"
	"github.com/scout-helper/tracker/internal/player"
	"github.com/scout-helper/tracker/internal/refdata"
	"github.com/scout-helper/tracker/internal/store"
	"github.com/scout-helper/tracker/internal/tracker"
	"github.com/scout-helper/tracker/internal/tracker/bear"
	"github.com/scout-helper/tracker/internal/tracker/siren"
	"github.com/scout-helper/tracker/internal/tracker/turtle"
)

const appName = "scout_helper"

// Version is set at build time.
var Version = "dev"

func userAgent() string {
	return "ScoutHelper/" + Version
}

type runtimeOptions struct {
	ConfigDir string
	World     string
	// Watch keeps the data directory and config file under watch and runs
	// the collaboration worker. Only long running commands want it.
	Watch bool
}

// runtime holds every component a command may need.
type runtime struct {
	logs     *logging.SlogManager
	log      *slog.Logger
	zlog     zerolog.Logger
	store    *store.Manager
	registry *refdata.Registry
	watcher  *refdata.Watcher
	bearHTTP *httpx.Provider
	turtHTTP *httpx.Provider
	session  *collab.Session
	feed     *feed.Feed
	worker   *collab.Worker
	player   *player.Context
	svc      *app.Service
}

func newRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	rt := &runtime{logs: logging.NewSlogManager()}
	start := time.Now()

	cfgErr := config.Load(opts.ConfigDir)

	var logFile io.Writer
	if dir := config.GetString("logsDir"); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			logFile = rt.logs.OpenFile(logging.LogFilePath(dir, appName, start))
		}
	}
	level := config.GetString("logLevel")
	rt.logs.Setup(logging.Options{
		Level: level,
		File:  logFile,
		Context: func() []slog.Attr {
			if rt.session == nil {
				return nil
			}
			current, _ := rt.session.Current()
			return logging.SessionAttrs(current.Slug, rt.session.Collaborating())
		},
	})
	rt.log = rt.logs.Logger()
	rt.zlog = logging.NewZerolog(level, logFile)
	if cfgErr != nil {
		rt.log.Warn("Failed to load config, using defaults!", "error", cfgErr)
	} else {
		rt.log.Info("Loaded config")
	}

	if err := rt.loadData(ctx, opts); err != nil {
		rt.Close()
		return nil, err
	}
	if err := rt.openStore(); err != nil {
		rt.Close()
		return nil, err
	}
	rt.buildService(ctx, opts)
	return rt, nil
}

func (rt *runtime) loadData(ctx context.Context, opts runtimeOptions) error {
	dc := config.GetDataConfig()
	resolver, err := refdata.LoadStaticResolver(filepath.Join(dc.Dir, refdata.NamesFile))
	if err != nil {
		return err
	}
	rt.registry, err = refdata.NewRegistry(dc.Dir, resolver, rt.log)
	if err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	if !opts.Watch || !dc.Watch {
		return nil
	}
	rt.watcher, err = refdata.NewWatcher(rt.registry, rt.log)
	if err != nil {
		rt.log.Warn("Reference data will not hot reload", "error", err)
		return nil
	}
	if err := rt.watcher.Start(ctx); err != nil {
		rt.log.Warn("Reference data will not hot reload", "error", err)
		rt.watcher = nil
	}
	return nil
}

func (rt *runtime) openStore() error {
	sc := config.GetStoreConfig()
	rt.store = store.NewManager(rt.zlog)
	err := rt.store.Connect(store.Options{
		Type: sc.Type,
		Path: sc.Path,
		Postgres: store.PostgresOptions{
			Host:     sc.Postgres.Host,
			Port:     sc.Postgres.Port,
			Username: sc.Postgres.Username,
			Password: sc.Postgres.Password,
			Database: sc.Postgres.Database,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	if err := rt.store.Setup(); err != nil {
		return fmt.Errorf("failed to set up session store: %w", err)
	}
	return nil
}

func (rt *runtime) buildService(ctx context.Context, opts runtimeOptions) {
	rt.bearHTTP = httpx.NewProvider(func() httpx.Config {
		c := config.GetBearConfig()
		return httpx.Config{BaseURL: c.APIBaseURL, Timeout: c.Timeout, UserAgent: userAgent()}
	}, rt.log)
	rt.turtHTTP = httpx.NewProvider(func() httpx.Config {
		c := config.GetTurtleConfig()
		return httpx.Config{BaseURL: c.APIBaseURL, Timeout: c.Timeout, UserAgent: userAgent()}
	}, rt.log)

	snap := rt.registry.Current
	bearGen := bear.New(
		func() *refdata.BearIndex { return snap().Bear },
		rt.bearHTTP,
		func() bear.Settings {
			c := config.GetBearConfig()
			return bear.Settings{TrainPath: c.TrainPath, SiteTrainURL: c.SiteTrainURL, TrainName: c.TrainName}
		},
		rt.log,
	)
	sirenGen := siren.New(
		func() *refdata.SirenIndex { return snap().Siren },
		config.GetInstances,
		func() string { return config.GetSirenConfig().BaseURL },
		rt.log,
	)
	turtleGen := turtle.New(
		func() *refdata.TurtleIndex { return snap().Turtle },
		rt.turtHTTP,
		func() turtle.Settings {
			c := config.GetTurtleConfig()
			return turtle.Settings{TrainPath: c.TrainPath, OccupiedPath: c.OccupiedPath, UpdateUser: c.UpdateUser}
		},
		rt.log,
	)

	rt.session = collab.NewSession(turtleGen, rt.store, rt.log)
	if err := rt.session.Restore(ctx); err != nil {
		rt.log.Error("Failed to restore collaboration session", "error", err)
	}

	var err error
	rt.feed, err = feed.New(logging.NewZerologAdapter(rt.zlog), feed.Source("cli"), feed.Blocking(), feed.Logged())
	if err != nil {
		rt.log.Error("Failed to create sighting feed", "error", err)
	}
	if rt.feed != nil && opts.Watch {
		rt.worker = collab.NewWorker(rt.session, rt.feed, func(r collab.Result) {
			if r.Err != nil {
				rt.log.Warn("Sighting was not pushed", "mob", r.Sighting.Name, "status", r.Status, "error", r.Err)
			}
		}, rt.log)
		rt.worker.Start(ctx)
		config.Watch(func() { rt.log.Info("Config file changed") })
	}

	rt.player = player.NewContext()
	rt.player.SetWorld(opts.World)

	rt.svc = app.NewService(app.Dependencies{
		Registry:   rt.registry,
		Generators: []tracker.Generator{bearGen, sirenGen, turtleGen},
		Session:    rt.session,
		Feed:       rt.feed,
		Player:     rt.player,
		Copy: func() app.CopyOptions {
			c := config.GetCopyConfig()
			return app.CopyOptions{Template: c.Template, FullText: c.FullText}
		},
		StoreBackend: rt.store.Backend,
		Log:          rt.log,
	})
}

// Close releases everything newRuntime opened, in reverse order.
func (rt *runtime) Close() error {
	if rt.worker != nil {
		rt.worker.Stop()
	}
	if rt.feed != nil {
		rt.feed.Close()
	}
	if rt.watcher != nil {
		rt.watcher.Stop()
	}
	if rt.bearHTTP != nil {
		rt.bearHTTP.Close()
	}
	if rt.turtHTTP != nil {
		rt.turtHTTP.Close()
	}
	var errs []error
	if rt.store != nil && rt.store.DB != nil {
		errs = append(errs, rt.store.Close())
	}
	errs = append(errs, rt.logs.Close())
	return errors.Join(errs...)
}
