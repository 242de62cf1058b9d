// Package config defines the project and blacklist documents that drive a
// generation run.
//
// A project document describes one collection: where its trait catalog lives,
// how many unique combinations to produce, how many rejected attempts to
// tolerate and how each layer behaves. Documents may be written as JSON, TOML
// or YAML; all three are normalized to the same JSON shape and validated
// against one embedded schema before decoding, so a field means the same
// thing regardless of the file format.
//
// Every field except name, path and layers is optional. Older document
// variants (with or without sets, extra metadata or a case-sensitivity flag)
// all load through the same [Project] type.
package config

import (
	"fmt"

	"github.com/matzehuels/traitmix/pkg/errors"
)

// DefaultToleranceFactor scales the amount into a tolerance when a project
// does not declare one.
const DefaultToleranceFactor = 1

// Project is one configuration document.
type Project struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name,omitempty"`
	PolicyID    string         `json:"policy_id,omitempty"`
	Amount      int            `json:"amount,omitempty"`
	Tolerance   *int           `json:"tolerance,omitempty"`
	Path        string         `json:"path"`
	OffTraits   []string       `json:"off_traits,omitempty"`
	Layers      []Layer        `json:"layers"`
	Sets        []Set          `json:"sets,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`

	// ConfigName is the document's file name up to the first dot. It names
	// the project's output directory and keys its uniqueness scope.
	ConfigName string `json:"-"`
}

// Layer configures one axis of variation. Name is also the directory name
// under the project's path.
type Layer struct {
	Name            string          `json:"name"`
	DisplayName     string          `json:"display_name,omitempty"`
	None            *uint32         `json:"none,omitempty"`
	ExcludeIfTraits []ExclusionRule `json:"exclude_if_traits,omitempty"`
}

// ExclusionRule forces its owning layer to the no-trait entry when it
// matches another layer's selection. An empty Layer means any layer; empty
// Traits means any visual trait of Layer.
type ExclusionRule struct {
	Layer  string   `json:"layer"`
	Traits []string `json:"traits"`
}

// Set is a named slice of a project's output.
type Set struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

// Label returns the name shown for the layer in attribute documents.
func (l Layer) Label() string {
	if l.DisplayName != "" {
		return l.DisplayName
	}
	return l.Name
}

// HasNone reports whether the layer needs a no-trait entry in its catalog.
func (l Layer) HasNone() bool {
	return l.None != nil || len(l.ExcludeIfTraits) > 0
}

// Matches reports whether ref names this layer by directory or display name.
func (l Layer) Matches(ref string) bool {
	return ref == l.Name || (l.DisplayName != "" && ref == l.DisplayName)
}

// Label returns the project's display name, falling back to its name.
func (p *Project) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// EffectiveTolerance returns the declared tolerance or the default derived
// from the amount.
func (p *Project) EffectiveTolerance() int {
	if p.Tolerance != nil {
		return *p.Tolerance
	}
	return p.Amount * DefaultToleranceFactor
}

// OffTraitSet returns the disabled trait names as a set.
func (p *Project) OffTraitSet() map[string]bool {
	if len(p.OffTraits) == 0 {
		return nil
	}
	set := make(map[string]bool, len(p.OffTraits))
	for _, t := range p.OffTraits {
		set[t] = true
	}
	return set
}

// ApplyDefaults fills derived fields. The amount defaults to the sum of the
// set amounts.
func (p *Project) ApplyDefaults() {
	if p.Amount == 0 && len(p.Sets) > 0 {
		for _, s := range p.Sets {
			p.Amount += s.Amount
		}
	}
	if p.ConfigName == "" {
		p.ConfigName = p.Name
	}
}

// Validate checks the invariants the schema cannot express.
func (p *Project) Validate() error {
	if p.Name == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "project name is required")
	}
	if err := errors.ValidateName("project", p.ConfigName); err != nil {
		return err
	}
	if err := errors.ValidatePath(p.Path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "project %q", p.Name)
	}
	if p.Amount <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "project %q: amount must be positive", p.Name)
	}
	if p.Tolerance != nil && *p.Tolerance < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "project %q: tolerance cannot be negative", p.Name)
	}
	if len(p.Layers) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "project %q: at least one layer is required", p.Name)
	}

	seen := make(map[string]bool, len(p.Layers))
	labels := make(map[string]string, len(p.Layers))
	for _, l := range p.Layers {
		if err := errors.ValidateName("layer", l.Name); err != nil {
			return err
		}
		if seen[l.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "project %q: layer %q declared twice", p.Name, l.Name)
		}
		seen[l.Name] = true
		if prev, ok := labels[l.Label()]; ok {
			return errors.New(errors.ErrCodeInvalidConfig,
				"project %q: layers %q and %q share the display name %q", p.Name, prev, l.Name, l.Label())
		}
		labels[l.Label()] = l.Name
		for i, r := range l.ExcludeIfTraits {
			if r.Layer == "" && len(r.Traits) == 0 {
				return errors.New(errors.ErrCodeInvalidConfig,
					"project %q: layer %q: exclusion rule %d needs a layer or traits", p.Name, l.Name, i)
			}
		}
	}

	if len(p.Sets) > 0 {
		total := 0
		names := make(map[string]bool, len(p.Sets))
		for _, s := range p.Sets {
			if err := errors.ValidateName("set", s.Name); err != nil {
				return err
			}
			if names[s.Name] {
				return errors.New(errors.ErrCodeInvalidConfig, "project %q: set %q declared twice", p.Name, s.Name)
			}
			names[s.Name] = true
			total += s.Amount
		}
		if total != p.Amount {
			return errors.New(errors.ErrCodeInvalidConfig,
				"project %q: set amounts sum to %d but amount is %d", p.Name, total, p.Amount)
		}
	}
	return nil
}

// String returns a short description for logs.
func (p *Project) String() string {
	return fmt.Sprintf("%s (amount=%d tolerance=%d layers=%d)", p.ConfigName, p.Amount, p.EffectiveTolerance(), len(p.Layers))
}
