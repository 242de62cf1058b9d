// Package generate runs the retry loop that turns random draws into a fixed
// number of unique, non-blacklisted combinations.
//
// Each attempt samples a combination, checks it against the blacklist,
// fingerprints it and inserts the fingerprint into a shared [uniq.Set].
// Blacklisted and duplicate attempts both count as failures. The failure
// counter is cumulative for the whole project and never reset; once it
// exceeds the project's tolerance the project stops with a
// [errors.ToleranceExceededError].
//
// [Run] fans several projects out over goroutines. All projects of a run
// share one uniqueness set unless [WithProjectScope] is given.
package generate

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/traitmix/pkg/blacklist"
	"github.com/matzehuels/traitmix/pkg/catalog"
	"github.com/matzehuels/traitmix/pkg/config"
	"github.com/matzehuels/traitmix/pkg/errors"
	"github.com/matzehuels/traitmix/pkg/fingerprint"
	"github.com/matzehuels/traitmix/pkg/observability"
	"github.com/matzehuels/traitmix/pkg/sampler"
	"github.com/matzehuels/traitmix/pkg/uniq"
)

// Project bundles everything the retry loop needs for one configuration.
type Project struct {
	Name      string
	Config    *config.Project
	Catalog   *catalog.Catalog
	Blacklist *blacklist.Table // nil rejects nothing
	Sampler   *sampler.Sampler // owned by this project's goroutine
}

// Accepted is one unique combination.
type Accepted struct {
	Combination sampler.Combination
	Fingerprint string
	Traits      []sampler.Pair
}

// Stats summarizes one project's loop.
type Stats struct {
	Attempts    int
	Blacklisted int
	Duplicates  int
	Duration    time.Duration
}

// Failures returns the number of rejected attempts.
func (s Stats) Failures() int {
	return s.Blacklisted + s.Duplicates
}

// Option configures [Generate] and [Run].
type Option func(*options)

type options struct {
	logger      *log.Logger
	hooks       observability.GenerationHooks
	concurrency int
	failFast    bool
	scoped      bool
}

// WithLogger sets the logger for progress messages.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHooks overrides the globally registered generation hooks.
func WithHooks(h observability.GenerationHooks) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = h
		}
	}
}

// WithConcurrency bounds how many projects [Run] processes at once.
// Zero or negative means no bound.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithFailFast makes [Run] cancel the remaining projects on the first
// failure instead of letting them finish.
func WithFailFast(v bool) Option {
	return func(o *options) { o.failFast = v }
}

// WithProjectScope gives each project in [Run] its own namespace in the
// shared set, so equal combinations in different projects are both kept.
func WithProjectScope(v bool) Option {
	return func(o *options) { o.scoped = v }
}

func newOptions(opts []Option) options {
	o := options{
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		hooks:  observability.Generation(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Generate produces the project's amount of unique combinations.
//
// On error the combinations accepted so far are returned alongside it. A
// cancelled ctx stops the loop between attempts with ctx.Err().
func Generate(ctx context.Context, p Project, set uniq.Set, opts ...Option) ([]Accepted, error) {
	o := newOptions(opts)
	accepted, stats, err := generate(ctx, p, set, o)
	o.hooks.OnProjectComplete(ctx, p.Name, len(accepted), stats.Attempts, stats.Duration, err)
	return accepted, err
}

func generate(ctx context.Context, p Project, set uniq.Set, o options) (accepted []Accepted, stats Stats, err error) {
	if p.Config == nil || p.Catalog == nil || p.Sampler == nil {
		return nil, stats, errors.New(errors.ErrCodeInternal, "project %q is missing its config, catalog or sampler", p.Name)
	}

	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	amount := p.Config.Amount
	tolerance := p.Config.EffectiveTolerance()
	logger := o.logger.With("project", p.Name)
	logger.Debug("generating", "amount", amount, "tolerance", tolerance, "layers", p.Catalog.Len())

	accepted = make([]Accepted, 0, amount)
	for len(accepted) < amount {
		if err := ctx.Err(); err != nil {
			return accepted, stats, err
		}
		stats.Attempts++

		draw := p.Sampler.Sample(p.Catalog)
		if p.Blacklist.IsRejected(draw.Names()) {
			stats.Blacklisted++
			o.hooks.OnAttempt(ctx, p.Name, observability.OutcomeBlacklisted)
			logger.Debug("blacklisted combination", "traits", draw.Names())
		} else {
			fp := fingerprint.Of(draw.Resolved)
			added, err := set.Insert(ctx, fp)
			if err != nil {
				return accepted, stats, err
			}
			if added {
				accepted = append(accepted, Accepted{
					Combination: draw.Combination,
					Fingerprint: fp,
					Traits:      draw.Resolved,
				})
				o.hooks.OnAttempt(ctx, p.Name, observability.OutcomeAccepted)
				continue
			}
			stats.Duplicates++
			o.hooks.OnAttempt(ctx, p.Name, observability.OutcomeDuplicate)
		}

		if stats.Failures() > tolerance {
			return accepted, stats, &errors.ToleranceExceededError{
				Project:   p.Name,
				Amount:    amount,
				Accepted:  len(accepted),
				Tolerance: tolerance,
				Attempts:  stats.Attempts,
			}
		}
	}

	logger.Debug("generated", "accepted", len(accepted), "attempts", stats.Attempts,
		"blacklisted", stats.Blacklisted, "duplicates", stats.Duplicates)
	return accepted, stats, nil
}
