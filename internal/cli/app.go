// Package cli implements the quantcache command line.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"QuantCache/internal/catalog"
	"QuantCache/internal/collector"
	"QuantCache/internal/config"
	"QuantCache/internal/model"
	"QuantCache/internal/recorder"
	"QuantCache/internal/store"
	"QuantCache/internal/syncer"
)

// App carries the global flags and the wiring shared by every command.
type App struct {
	ConfigPath string
	Plain      bool

	Out    io.Writer
	Err    io.Writer
	Now    func() time.Time
	Source collector.QuoteSource // overrides the configured provider when set
}

// NewApp returns an App writing to the process stdout and stderr.
func NewApp() *App {
	return &App{Out: os.Stdout, Err: os.Stderr, Now: time.Now}
}

// SetFlags registers the global flags.
func (a *App) SetFlags(f *flag.FlagSet) {
	path := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	f.StringVar(&a.ConfigPath, "config", path, "Path to the YAML config file (env CONFIG_PATH)")
	f.BoolVar(&a.Plain, "plain", false, "Print raw Markdown instead of rendering it")
}

// Register adds every command to c.
func Register(c *subcommands.Commander, a *App) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&syncCmd{app: a}, "store")
	c.Register(&updateCmd{app: a}, "store")
	c.Register(&backfillCmd{app: a}, "store")
	c.Register(&daemonCmd{app: a}, "store")

	c.Register(&analyzeCmd{app: a}, "analysis")
	c.Register(&cointCmd{app: a}, "analysis")

	c.Register(&catalogCmd{app: a}, "catalog")
}

// env is what a command needs once the configuration is loaded.
type env struct {
	cfg      *config.Config
	log      *logrus.Logger
	store    *store.SQLiteStore
	catalog  *catalog.Catalog
	recorder recorder.Recorder
	closers  []io.Closer
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			e.log.Warnf("close: %v", err)
		}
	}
}

// open loads the configuration, the logger, the catalog and the store.
// A missing catalog is only fatal when requireCatalog is set.
func (a *App) open(ctx context.Context, requireCatalog bool) (*env, error) {
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	log, logCloser, err := config.InitLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: log, closers: []io.Closer{logCloser}}

	cat, err := catalog.LoadDir(cfg.Catalog.Dir)
	switch {
	case err == nil:
		log.WithField("symbols", cat.Len()).Debug("catalog loaded")
	case errors.Is(err, model.ErrNotFound) && !requireCatalog:
		log.Warnf("catalog: %v, continuing without metadata", err)
		cat = catalog.New()
	default:
		e.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	e.catalog = cat

	st, err := store.NewSQLiteStore(ctx, cfg.Database.SQLitePath, log)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.store = st
	e.closers = append(e.closers, st)

	rec, err := recorder.NewSQLiteRecorder(ctx, cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warnf("init run history failed, using noop: %v", err)
		e.recorder = recorder.NewNoopRecorder()
	} else {
		e.recorder = rec
		e.closers = append(e.closers, rec)
	}
	return e, nil
}

// source builds the configured quote source.
func (a *App) source(cfg *config.Config, log logrus.FieldLogger) collector.QuoteSource {
	if a.Source != nil {
		return a.Source
	}
	opts := collector.HTTPOptions{
		ProxyURL:   cfg.Source.Proxy,
		Timeout:    cfg.Source.Timeout,
		MaxRetries: cfg.Source.MaxRetries,
	}
	switch cfg.Source.Provider {
	case config.ProviderEODHD:
		return collector.NewEODHDSource(cfg.Source.EODHDAPIKey, opts, log)
	case config.ProviderAlpaca:
		return collector.NewAlpacaSource(cfg.Source.AlpacaAPIKey, cfg.Source.AlpacaAPISecret)
	case config.ProviderMock:
		return &collector.MockSource{Price: 100}
	default:
		return collector.NewYahooSource(opts, log)
	}
}

// synchronizer wires a Synchronizer on e with the configured batch settings.
func (a *App) synchronizer(e *env) *syncer.Synchronizer {
	src := a.source(e.cfg, e.log)
	e.log.WithField("source", src.Name()).Debug("quote source ready")
	s := syncer.New(src, e.store, e.catalog, e.log)
	s.Workers = e.cfg.Sync.Workers
	s.Window = e.cfg.Window()
	if a.Now != nil {
		s.Now = a.Now
	}
	return s
}

func (a *App) today() time.Time {
	if a.Now == nil {
		return model.Day(time.Now())
	}
	return model.Day(a.Now())
}

// fail prints err and maps it to an exit status.
func (a *App) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(a.Err, "Error: %v\n", err)
	if errors.Is(err, model.ErrValidation) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

func (a *App) usage(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(a.Err, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}
