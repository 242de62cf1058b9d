// Package pipeline provides the generation pipeline for traitmix.
//
// This package implements the complete load → generate → compose pipeline
// used by the CLI. By centralizing this logic, every entry point loads
// configuration, seeds samplers and scopes the uniqueness set the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read project and blacklist documents, build one trait catalog
//     per project
//  2. Generate: Run every project's retry loop against one uniqueness set
//  3. Compose: Write images, attribute sidecars and reports
//
// A project that fails in stage 1 or 2 is reported and skipped; its
// siblings continue unless FailFast is set.
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ConfigDir: "configs",
//	    OutputDir: "output",
//	})
//	for _, p := range result.Projects {
//	    fmt.Println(p.Name, len(p.Accepted))
//	}
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/traitmix/pkg/catalog"
	"github.com/matzehuels/traitmix/pkg/config"
	"github.com/matzehuels/traitmix/pkg/errors"
	"github.com/matzehuels/traitmix/pkg/generate"
	"github.com/matzehuels/traitmix/pkg/uniq"
)

// =============================================================================
// Default Values - Single Source of Truth for the CLI
// =============================================================================

const (
	// DefaultConfigDir holds one project document per file.
	DefaultConfigDir = "configs"

	// DefaultBlacklistFile is resolved against the working directory.
	DefaultBlacklistFile = "blacklist.json"

	// DefaultOutputDir receives one subdirectory per project.
	DefaultOutputDir = "output"

	// DefaultSQLitePath is used by the sqlite store when no path is given.
	DefaultSQLitePath = ".traitmix/fingerprints.db"
)

// Uniqueness scopes.
const (
	ScopeRun     = "run"
	ScopeProject = "project"
)

// Uniqueness store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// ValidScopes is the set of supported uniqueness scopes.
var ValidScopes = map[string]bool{
	ScopeRun:     true,
	ScopeProject: true,
}

// ValidStores is the set of supported store backends.
var ValidStores = map[string]bool{
	StoreMemory: true,
	StoreRedis:  true,
	StoreSQLite: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a generation run.
type Options struct {
	// Load options
	ConfigDir              string `json:"config_dir"`
	BlacklistFile          string `json:"blacklist_file,omitempty"`
	BlacklistCaseSensitive bool   `json:"blacklist_case_sensitive,omitempty"`

	// Generate options
	Seed        uint64 `json:"seed,omitempty"` // 0 picks a random seed
	Scope       string `json:"scope,omitempty"`
	Store       string `json:"store,omitempty"`
	RedisURL    string `json:"-"`
	RedisKey    string `json:"redis_key,omitempty"`
	SQLitePath  string `json:"sqlite_path,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"` // projects generated at once
	FailFast    bool   `json:"fail_fast,omitempty"`

	// Compose options
	OutputDir string `json:"output_dir,omitempty"`
	Workers   int    `json:"workers,omitempty"` // images encoded at once

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in metadata documents.
	RunID string

	// Seed is the seed the samplers were derived from. Passing it back in
	// Options reproduces the run.
	Seed uint64

	// Projects holds one entry per loaded project, in config file order.
	Projects []ProjectResult

	// Stats contains timing and size information.
	Stats Stats
}

// ProjectResult is the outcome of one project.
type ProjectResult struct {
	Name     string
	Config   *config.Project
	Catalog  *catalog.Catalog
	Accepted []generate.Accepted
	Stats    generate.Stats
	Err      error
}

// Failed returns the projects that ended with an error.
func (r *Result) Failed() []ProjectResult {
	var out []ProjectResult
	for _, p := range r.Projects {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Projects     int
	Accepted     int
	Attempts     int
	LoadTime     time.Duration
	GenerateTime time.Duration
	ComposeTime  time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateScope checks that a scope is valid.
func ValidateScope(scope string) error {
	if !ValidScopes[scope] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid scope: %q (must be one of: run, project)", scope)
	}
	return nil
}

// ValidateStore checks that a store backend is valid.
func ValidateStore(store string) error {
	if !ValidStores[store] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid store: %q (must be one of: memory, redis, sqlite)", store)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ConfigDir == "" {
		o.ConfigDir = DefaultConfigDir
	}
	if o.BlacklistFile == "" {
		o.BlacklistFile = DefaultBlacklistFile
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Scope == "" {
		o.Scope = ScopeRun
	}
	if o.Store == "" {
		o.Store = StoreMemory
	}
	if o.Store == StoreSQLite && o.SQLitePath == "" {
		o.SQLitePath = DefaultSQLitePath
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if err := ValidateScope(o.Scope); err != nil {
		return err
	}
	if err := ValidateStore(o.Store); err != nil {
		return err
	}
	if o.Store == StoreRedis && o.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "the redis store needs a redis url")
	}
	if o.Workers < 0 || o.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers and concurrency cannot be negative")
	}
	for _, p := range []string{o.ConfigDir, o.OutputDir} {
		if err := errors.ValidatePath(p); err != nil {
			return err
		}
	}
	o.validated = true
	return nil
}

// ProjectScoped reports whether each project gets its own uniqueness scope.
func (o *Options) ProjectScoped() bool {
	return o.Scope == ScopeProject
}

// OpenStore opens the uniqueness set selected by opts. The caller closes it.
func OpenStore(ctx context.Context, opts Options) (uniq.Set, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	switch opts.Store {
	case StoreRedis:
		r, err := uniq.OpenRedis(ctx, opts.RedisURL, opts.RedisKey)
		if err != nil {
			return nil, err
		}
		return r, nil
	case StoreSQLite:
		s, err := uniq.OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return uniq.NewMemory(), nil
	}
}

// String returns a short description for logs.
func (o *Options) String() string {
	return fmt.Sprintf("config=%s output=%s scope=%s store=%s", o.ConfigDir, o.OutputDir, o.Scope, o.Store)
}
