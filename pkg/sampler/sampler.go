// Package sampler draws one trait per layer from a catalog.
//
// A draw happens in two passes. The first pass picks an index per layer by
// weighted random selection. The second pass walks the layers once, in
// catalog order, and forces a layer to its no-trait entry when one of its
// exclusion rules matches the current selection of another layer.
//
// The exclusion pass is deliberately not iterated to a fixed point. Because
// an override always lands on the no-trait entry, it can only switch other
// layers' rules off, never on, so a single pass terminates trivially and is
// deterministic for a given draw.
//
// The random source is injected so draws are reproducible under a seed.
// A [Sampler] is not safe for concurrent use; give each goroutine its own.
package sampler

import (
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/traitmix/pkg/catalog"
	"github.com/matzehuels/traitmix/pkg/config"
)

// Combination holds one trait index per catalog layer.
type Combination []int

// Pair is a resolved (layer, trait) selection. Layer is the layer's
// directory name.
type Pair struct {
	Layer string
	Trait string
}

// Draw is the result of one sampling attempt.
type Draw struct {
	Combination Combination
	// Resolved lists the visual selections in layer order.
	Resolved []Pair
}

// Names returns the trait names of the visual selections.
func (d Draw) Names() []string {
	names := make([]string, len(d.Resolved))
	for i, p := range d.Resolved {
		names[i] = p.Trait
	}
	return names
}

// Sampler draws combinations from a catalog.
type Sampler struct {
	rng *rand.Rand
}

// New returns a sampler reading from rng.
func New(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// NewSeeded returns a sampler with a PCG source derived from seed.
func NewSeeded(seed uint64) *Sampler {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Sample draws one combination from cat and resolves its exclusion rules.
func (s *Sampler) Sample(cat *catalog.Catalog) Draw {
	comb := make(Combination, len(cat.Layers))
	for i := range cat.Layers {
		comb[i] = s.pick(&cat.Layers[i])
	}

	Resolve(cat, comb)

	var resolved []Pair
	for i, idx := range comb {
		t := cat.Layers[i].Traits[idx]
		if t.IsVisual() {
			resolved = append(resolved, Pair{Layer: cat.Layers[i].Name(), Trait: t.Name})
		}
	}
	return Draw{Combination: comb, Resolved: resolved}
}

// pick performs the weighted draw for one layer: n = floor(r * total), then
// subtract each weight in order until n goes negative. A layer whose total
// weight is zero selects its last entry.
func (s *Sampler) pick(layer *catalog.Layer) int {
	total := layer.TotalWeight()
	last := len(layer.Traits) - 1
	if total == 0 {
		return last
	}

	n := int64(s.rng.Float64() * float64(total))
	for i, t := range layer.Traits {
		n -= int64(t.Weight)
		if n < 0 {
			return i
		}
	}
	return last
}

// Resolve applies exclusion rules to comb in place, one pass in layer order.
// It is exported so callers replaying a stored combination get the same
// resolution as a fresh draw.
func Resolve(cat *catalog.Catalog, comb Combination) {
	for i := range cat.Layers {
		layer := &cat.Layers[i]
		if layer.NoneIndex < 0 || len(layer.Config.ExcludeIfTraits) == 0 {
			continue
		}
		if excluded(cat, comb, i) {
			comb[i] = layer.NoneIndex
		}
	}
}

// excluded reports whether any rule of layer owner matches the current
// selection of another layer.
func excluded(cat *catalog.Catalog, comb Combination, owner int) bool {
	for _, rule := range cat.Layers[owner].Config.ExcludeIfTraits {
		for j := range cat.Layers {
			if j == owner {
				continue
			}
			if ruleMatches(rule, &cat.Layers[j], cat.Layers[j].Traits[comb[j]]) {
				return true
			}
		}
	}
	return false
}

func ruleMatches(rule config.ExclusionRule, layer *catalog.Layer, t catalog.Trait) bool {
	if !t.IsVisual() {
		return false
	}
	switch {
	case len(rule.Traits) == 0:
		return layer.Config.Matches(rule.Layer)
	case rule.Layer == "":
		return slices.Contains(rule.Traits, t.Name)
	default:
		return layer.Config.Matches(rule.Layer) && slices.Contains(rule.Traits, t.Name)
	}
}
