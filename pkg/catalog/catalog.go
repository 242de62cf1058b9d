// Package catalog builds the per-project trait catalog from a directory tree.
//
// The catalog layout is one subdirectory per layer and one PNG per trait:
//
//	root/<layer>/<trait>[#weight].png
//
// A trait without a weight suffix gets [DefaultWeight]. Layers that declare a
// none weight or exclusion rules receive a synthetic no-trait entry as their
// last element; it is represented by a nil [Trait.Visual], never by a
// sentinel name, so a real trait called "None" is not ambiguous.
//
// A [Catalog] is built once per project and is read-only afterwards, so it
// can be shared by any number of sampling and compositing goroutines.
package catalog

import (
	"math"

	"github.com/matzehuels/traitmix/pkg/config"
)

// DefaultWeight is assigned to traits whose file name has no weight suffix.
const DefaultWeight uint32 = 50

// ImageExt is the file extension of trait images.
const ImageExt = ".png"

// NoneLabel is how a no-trait selection is written in attribute documents.
const NoneLabel = "None"

// Visual references the image rendered for a trait.
type Visual struct {
	Path string
}

// Trait is one selectable option within a layer.
type Trait struct {
	Layer  string  // display label of the owning layer
	Name   string  // unique across the catalog for visual traits
	Weight uint32  // relative selection weight
	Visual *Visual // nil for the no-trait entry
}

// IsVisual reports whether the trait renders an image.
func (t Trait) IsVisual() bool {
	return t.Visual != nil
}

// DisplayName returns the trait name, or [NoneLabel] for the no-trait entry.
func (t Trait) DisplayName() string {
	if t.Visual == nil {
		return NoneLabel
	}
	return t.Name
}

// Layer is the ordered trait set of one configured layer.
type Layer struct {
	Config    config.Layer
	Traits    []Trait
	NoneIndex int // index of the no-trait entry, or -1
}

// Name returns the layer's directory name.
func (l *Layer) Name() string { return l.Config.Name }

// Label returns the layer's display name.
func (l *Layer) Label() string { return l.Config.Label() }

// TotalWeight returns the sum of all trait weights in the layer.
func (l *Layer) TotalWeight() uint64 {
	var total uint64
	for _, t := range l.Traits {
		total += uint64(t.Weight)
	}
	return total
}

// VisualCount returns the number of traits with an image.
func (l *Layer) VisualCount() int {
	n := 0
	for _, t := range l.Traits {
		if t.IsVisual() {
			n++
		}
	}
	return n
}

// Catalog holds every layer of one project in configuration order.
type Catalog struct {
	Root   string
	Layers []Layer
	Width  int
	Height int
}

// Len returns the number of layers.
func (c *Catalog) Len() int { return len(c.Layers) }

// Trait returns the trait at index i of layer l.
func (c *Catalog) Trait(l, i int) Trait {
	return c.Layers[l].Traits[i]
}

// TraitCount returns the number of entries across all layers.
func (c *Catalog) TraitCount() int {
	n := 0
	for i := range c.Layers {
		n += len(c.Layers[i].Traits)
	}
	return n
}

// Combinations returns the upper bound on distinct combinations: the product
// of layer sizes, saturating at math.MaxUint64. Exclusion rules and zero
// weights can make the reachable number smaller.
func (c *Catalog) Combinations() uint64 {
	if len(c.Layers) == 0 {
		return 0
	}
	total := uint64(1)
	for i := range c.Layers {
		n := uint64(len(c.Layers[i].Traits))
		if n == 0 {
			return 0
		}
		if total > math.MaxUint64/n {
			return math.MaxUint64
		}
		total *= n
	}
	return total
}
