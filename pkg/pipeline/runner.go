package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/traitmix/pkg/blacklist"
	"github.com/matzehuels/traitmix/pkg/catalog"
	"github.com/matzehuels/traitmix/pkg/compose"
	"github.com/matzehuels/traitmix/pkg/config"
	"github.com/matzehuels/traitmix/pkg/generate"
	"github.com/matzehuels/traitmix/pkg/observability"
	"github.com/matzehuels/traitmix/pkg/sampler"
	"github.com/matzehuels/traitmix/pkg/uniq"
)

// ErrSkipped marks a project that generated successfully but was not
// composed because the run stopped early.
var ErrSkipped = stderrors.New("skipped after an earlier failure")

// Runner encapsulates pipeline execution against one uniqueness set.
//
// The Runner is stateless except for the set and logger - it doesn't
// store pipeline results. A Runner given a persistent store (sqlite, redis)
// keeps rejecting fingerprints of earlier runs.
type Runner struct {
	Store  uniq.Set
	Logger *log.Logger
}

// NewRunner creates a runner with the given store.
// If store is nil, each Execute opens the store selected by its Options and
// closes it when done.
func NewRunner(store uniq.Set, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:  store,
		Logger: logger,
	}
}

// Execute runs the complete load → generate → compose pipeline.
//
// The returned error joins the failures of individual projects. Result is
// non-nil whenever the configuration itself could be loaded, so callers can
// report partial success.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	store := r.Store
	if store == nil {
		s, err := OpenStore(ctx, opts)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		store = s
	}

	result := &Result{RunID: uuid.NewString(), Seed: opts.Seed}
	if result.Seed == 0 {
		result.Seed = rand.Uint64()
	}

	// Stage 1: Load
	loadStart := time.Now()
	projects, table, err := r.load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Projects = projects
	result.Stats.Projects = len(projects)
	result.Stats.LoadTime = time.Since(loadStart)

	var errs []error
	var runnable []generate.Project
	var index []int
	for i, p := range projects {
		if p.Err != nil {
			errs = append(errs, p.Err)
			if opts.FailFast {
				return result, p.Err
			}
			continue
		}
		runnable = append(runnable, generate.Project{
			Name:      p.Name,
			Config:    p.Config,
			Catalog:   p.Catalog,
			Blacklist: table,
			Sampler:   sampler.NewSeeded(result.Seed + uint64(i)),
		})
		index = append(index, i)
	}

	r.Logger.Info("loaded projects", "projects", len(projects), "runnable", len(runnable),
		"seed", result.Seed, "duration", result.Stats.LoadTime)

	// Stage 2: Generate
	genStart := time.Now()
	generated, err := generate.Run(ctx, runnable, store,
		generate.WithLogger(opts.Logger),
		generate.WithConcurrency(opts.Concurrency),
		generate.WithFailFast(opts.FailFast),
		generate.WithProjectScope(opts.ProjectScoped()),
	)
	result.Stats.GenerateTime = time.Since(genStart)
	for j, g := range generated {
		pr := &result.Projects[index[j]]
		pr.Accepted = g.Accepted
		pr.Stats = g.Stats
		pr.Err = g.Err
		result.Stats.Attempts += g.Stats.Attempts
		if g.Err == nil {
			result.Stats.Accepted += len(g.Accepted)
		}
	}
	if err != nil {
		errs = append(errs, err)
		if opts.FailFast || ctx.Err() != nil {
			// Nothing gets composed, so the successful projects' claims go back too.
			for i := range result.Projects {
				if pr := &result.Projects[i]; pr.Err == nil {
					r.skip(ctx, store, opts, result, pr)
				}
			}
			return result, stderrors.Join(errs...)
		}
	}

	// Stage 3: Compose
	composeStart := time.Now()
	writer := compose.NewWriter(opts.OutputDir,
		compose.WithWorkers(opts.Workers),
		compose.WithLogger(opts.Logger),
		compose.WithRunID(result.RunID),
	)
	stopped := false
	for i := range result.Projects {
		pr := &result.Projects[i]
		if pr.Err != nil {
			continue
		}
		if stopped {
			r.skip(ctx, store, opts, result, pr)
			continue
		}
		job := compose.Job{Project: pr.Config, Catalog: pr.Catalog, Accepted: pr.Accepted}
		if err := writer.Write(ctx, job); err != nil {
			pr.Err = fmt.Errorf("project %q: compose: %w", pr.Name, err)
			errs = append(errs, pr.Err)
			result.Stats.Accepted -= len(pr.Accepted)
			if cerr := compose.Clean(writer.ProjectDir(pr.Config)); cerr != nil {
				r.Logger.Warn("could not remove partial output", "project", pr.Name, "err", cerr)
			}
			r.release(ctx, store, opts, pr)
			stopped = opts.FailFast || ctx.Err() != nil
		}
	}
	result.Stats.ComposeTime = time.Since(composeStart)

	r.Logger.Info("composed outputs", "accepted", result.Stats.Accepted,
		"attempts", result.Stats.Attempts, "dir", opts.OutputDir, "duration", result.Stats.ComposeTime)

	return result, stderrors.Join(errs...)
}

// Load reads every project document in opts.ConfigDir and builds its
// catalog. A document that cannot be read fails the whole load; a catalog
// that cannot be built is recorded on its ProjectResult.
func (r *Runner) Load(ctx context.Context, opts Options) ([]ProjectResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	projects, _, err := r.load(ctx, opts)
	return projects, err
}

func (r *Runner) load(ctx context.Context, opts Options) ([]ProjectResult, *blacklist.Table, error) {
	configs, err := config.LoadDir(opts.ConfigDir)
	if err != nil {
		return nil, nil, err
	}

	doc, err := config.LoadBlacklist(opts.BlacklistFile)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		r.Logger.Warn("no blacklist config found", "path", opts.BlacklistFile)
	} else {
		r.Logger.Info("found blacklist config", "rules", len(doc.List),
			"case_sensitive", doc.IsCaseSensitive(opts.BlacklistCaseSensitive))
	}
	table, err := blacklist.FromDocument(doc, opts.BlacklistCaseSensitive)
	if err != nil {
		return nil, nil, err
	}

	hooks := observability.Generation()
	projects := make([]ProjectResult, len(configs))
	for i, cfg := range configs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		start := time.Now()
		cat, err := catalog.Load(ctx, cfg.Path, cfg.Layers,
			catalog.WithDisabled(cfg.OffTraitSet()),
			catalog.WithLogger(opts.Logger.With("project", cfg.ConfigName)),
		)
		hooks.OnCatalogLoaded(ctx, cfg.ConfigName, traitCount(cat), time.Since(start), err)

		projects[i] = ProjectResult{Name: cfg.ConfigName, Config: cfg, Catalog: cat}
		if err != nil {
			projects[i].Err = fmt.Errorf("project %q: %w", cfg.ConfigName, err)
			r.Logger.Error("catalog failed", "project", cfg.ConfigName, "err", err)
			continue
		}
		r.Logger.Debug("catalog loaded", "project", cfg.ConfigName, "layers", cat.Len(),
			"traits", cat.TraitCount(), "combinations", cat.Combinations())
	}
	return projects, table, nil
}

// release hands a project's fingerprints back to store when its images are
// not written. Projects that failed in generate were released by
// generate.Run.
func (r *Runner) release(ctx context.Context, store uniq.Set, opts Options, pr *ProjectResult) {
	if len(pr.Accepted) == 0 {
		return
	}
	err := generate.Release(ctx, pr.Name, pr.Accepted, store, generate.WithProjectScope(opts.ProjectScoped()))
	if err != nil {
		r.Logger.Error("could not release fingerprints", "project", pr.Name, "err", err)
		return
	}
	r.Logger.Debug("released fingerprints", "project", pr.Name, "count", len(pr.Accepted))
}

// skip marks a generated project as not composed and releases it.
func (r *Runner) skip(ctx context.Context, store uniq.Set, opts Options, result *Result, pr *ProjectResult) {
	pr.Err = fmt.Errorf("project %q: %w", pr.Name, ErrSkipped)
	result.Stats.Accepted -= len(pr.Accepted)
	r.release(ctx, store, opts, pr)
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func traitCount(cat *catalog.Catalog) int {
	if cat == nil {
		return 0
	}
	return cat.TraitCount()
}
