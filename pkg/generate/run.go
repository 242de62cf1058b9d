package generate

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/traitmix/pkg/errors"
	"github.com/matzehuels/traitmix/pkg/uniq"
)

// Result is the outcome of one project in a [Run].
type Result struct {
	Project  string
	Accepted []Accepted
	Stats    Stats
	Err      error
}

// Run generates every project concurrently against set.
//
// By default a failing project does not stop its siblings: every project
// runs to completion or to its own error, and the returned error joins all
// project errors. With [WithFailFast] the first error cancels the others.
// Results are returned in input order, including partial results of failed
// projects. A failed project's fingerprints are released from set before
// Run returns, so they never count against siblings or later runs.
func Run(ctx context.Context, projects []Project, set uniq.Set, opts ...Option) ([]Result, error) {
	o := newOptions(opts)

	results := make([]Result, len(projects))
	var (
		mu   sync.Mutex
		errs []error
	)

	g := &errgroup.Group{}
	gctx := ctx
	if o.failFast {
		g, gctx = errgroup.WithContext(ctx)
	}
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	for i, p := range projects {
		g.Go(func() error {
			projectSet := scopeFor(set, p.Name, o)

			accepted, stats, err := generate(gctx, p, projectSet, o)
			o.hooks.OnProjectComplete(gctx, p.Name, len(accepted), stats.Attempts, stats.Duration, err)
			if err != nil {
				err = projectError(p.Name, err)
				o.logger.Error("project failed", "project", p.Name, "accepted", len(accepted), "err", err)
				if rerr := release(gctx, projectSet, accepted); rerr != nil {
					o.logger.Error("could not release fingerprints", "project", p.Name, "err", rerr)
				}
			} else {
				o.logger.Info("project complete", "project", p.Name, "accepted", len(accepted),
					"attempts", stats.Attempts, "elapsed", stats.Duration.Round(time.Millisecond))
			}
			results[i] = Result{Project: p.Name, Accepted: accepted, Stats: stats, Err: err}

			if err == nil {
				return nil
			}
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			if o.failFast {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && o.failFast {
		return results, err
	}
	return results, stderrors.Join(errs...)
}

// projectError makes sure err names its project.
func projectError(name string, err error) error {
	if errors.Is(err, errors.ErrCodeToleranceExceeded) {
		return err
	}
	return fmt.Errorf("project %q: %w", name, err)
}

// Release removes the fingerprints of accepted from set, scoped the way
// [Run] scopes project name under opts. Callers use it when the outputs of
// a generated project are not written after all.
func Release(ctx context.Context, name string, accepted []Accepted, set uniq.Set, opts ...Option) error {
	return release(ctx, scopeFor(set, name, newOptions(opts)), accepted)
}

// release runs even when ctx is cancelled; the claims must be handed back.
// It stops at the first backend error.
func release(ctx context.Context, set uniq.Set, accepted []Accepted) error {
	ctx = context.WithoutCancel(ctx)
	for _, a := range accepted {
		if _, err := set.Remove(ctx, a.Fingerprint); err != nil {
			return err
		}
	}
	return nil
}

func scopeFor(set uniq.Set, name string, o options) uniq.Set {
	if o.scoped {
		return uniq.Scoped(set, name+":")
	}
	return set
}
