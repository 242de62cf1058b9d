// Package observability provides hooks for metrics and tracing.
//
// Library packages emit events through small hook interfaces whose default
// implementations do nothing. The CLI registers a real implementation (see
// [Prometheus]) at startup, so the generator itself never depends on a
// metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    prom := observability.NewPrometheus(nil)
//	    observability.SetGenerationHooks(prom)
//	    observability.SetComposeHooks(prom)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Generation().OnAttempt(ctx, project, observability.OutcomeDuplicate)
package observability

import (
	"context"
	"sync"
	"time"
)

// Outcome classifies one sampling attempt.
type Outcome string

const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeBlacklisted Outcome = "blacklisted"
	OutcomeDuplicate   Outcome = "duplicate"
)

// =============================================================================
// Generation Hooks
// =============================================================================

// GenerationHooks receives events from catalog loading and the retry loop.
type GenerationHooks interface {
	// OnCatalogLoaded records a finished catalog build.
	OnCatalogLoaded(ctx context.Context, project string, traits int, duration time.Duration, err error)

	// OnAttempt records the outcome of one sampling attempt.
	OnAttempt(ctx context.Context, project string, outcome Outcome)

	// OnProjectComplete records the end of a project's retry loop.
	OnProjectComplete(ctx context.Context, project string, accepted, attempts int, duration time.Duration, err error)
}

// =============================================================================
// Compose Hooks
// =============================================================================

// ComposeHooks receives events from the image writer.
type ComposeHooks interface {
	// OnImageWritten records one composite image and its sidecar.
	OnImageWritten(ctx context.Context, project string, bytes int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnCatalogLoaded(context.Context, string, int, time.Duration, error) {}
func (NoopGenerationHooks) OnAttempt(context.Context, string, Outcome)                         {}
func (NoopGenerationHooks) OnProjectComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopComposeHooks is a no-op implementation of ComposeHooks.
type NoopComposeHooks struct{}

func (NoopComposeHooks) OnImageWritten(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generationHooks GenerationHooks = NoopGenerationHooks{}
	composeHooks    ComposeHooks    = NoopComposeHooks{}
	hooksMu         sync.RWMutex
)

// SetGenerationHooks registers custom generation hooks.
// This should be called once at application startup before any run starts.
func SetGenerationHooks(h GenerationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generationHooks = h
	}
}

// SetComposeHooks registers custom compose hooks.
func SetComposeHooks(h ComposeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		composeHooks = h
	}
}

// Generation returns the registered generation hooks.
func Generation() GenerationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generationHooks
}

// Compose returns the registered compose hooks.
func Compose() ComposeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return composeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	generationHooks = NoopGenerationHooks{}
	composeHooks = NoopComposeHooks{}
}
