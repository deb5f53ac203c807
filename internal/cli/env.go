package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/jsonfilter/internal/compiler"
	"github.com/roach88/jsonfilter/internal/config"
	"github.com/roach88/jsonfilter/internal/metadata"
	"github.com/roach88/jsonfilter/internal/quicksearch"
	"github.com/roach88/jsonfilter/internal/resolve"
	"github.com/roach88/jsonfilter/internal/store"
)

// environment is the metadata and logging every filter command runs with.
type environment struct {
	cfg     config.Config
	catalog *metadata.Catalog
	cache   *metadata.Cache
	store   *store.Store
	aliases resolve.AliasResolver
	logger  *slog.Logger
}

// loadEnvironment reads settings, the catalog and (when configured) the
// reference list store. Close must be called on the result.
func loadEnvironment(opts *RootOptions, stderr io.Writer) (*environment, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.Catalog != "" {
		cfg.Catalog = opts.Catalog
	}
	if cfg.Catalog == "" {
		return nil, fmt.Errorf("no catalog configured: pass --catalog or set %s_CATALOG", config.EnvPrefix)
	}

	logger, err := newLogger(cfg, opts.Verbose, stderr)
	if err != nil {
		return nil, err
	}

	catalog, err := metadata.LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	env := &environment{cfg: cfg, catalog: catalog, logger: logger}
	var lists metadata.ReferenceListSource = catalog
	if cfg.ReferenceDB != "" {
		if _, err := os.Stat(cfg.ReferenceDB); err != nil {
			return nil, fmt.Errorf("reference list store: %w", err)
		}
		s, err := store.Open(cfg.ReferenceDB)
		if err != nil {
			return nil, err
		}
		env.store = s
		lists = s
		logger.Debug("reference lists served from store", slog.String("path", cfg.ReferenceDB))
	}
	env.cache = metadata.NewCache(catalog, lists, metadata.WithLogger(logger))

	// A nil AliasMap must stay a nil interface so the compiler falls back
	// to its own resolver.
	if m := cfg.AliasMap(); m != nil {
		env.aliases = m
	}
	return env, nil
}

func newLogger(cfg config.Config, verbose bool, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func (e *environment) compiler() *compiler.Compiler {
	return compiler.New(e.cache, e.cache, compiler.Options{
		EntityAlias: e.cfg.EntityAlias,
		Aliases:     e.aliases,
		Logger:      e.logger,
	})
}

func (e *environment) quickSearch() *quicksearch.Builder {
	return quicksearch.New(e.cache, e.cache, e.aliases, quicksearch.WithLogger(e.logger))
}

// Close releases the reference list store, if one was opened.
func (e *environment) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}
