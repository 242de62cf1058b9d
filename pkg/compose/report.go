package compose

import (
	"time"

	"github.com/matzehuels/traitmix/pkg/buildinfo"
	"github.com/matzehuels/traitmix/pkg/catalog"
	"github.com/matzehuels/traitmix/pkg/config"
	"github.com/matzehuels/traitmix/pkg/generate"
)

// TraitRarity is how often one trait occurs among the accepted combinations.
type TraitRarity struct {
	Trait   string  `json:"trait"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// LayerRarity lists the occurrence of every trait in one layer.
type LayerRarity struct {
	Layer  string        `json:"layer"`
	Traits []TraitRarity `json:"traits"`
}

// Rarity counts trait occurrences per layer, in catalog order. Traits that
// were never selected are listed with a zero count.
func Rarity(cat *catalog.Catalog, accepted []generate.Accepted) []LayerRarity {
	counts := make([][]int, cat.Len())
	for l := range cat.Layers {
		counts[l] = make([]int, len(cat.Layers[l].Traits))
	}
	for _, acc := range accepted {
		for l, idx := range acc.Combination {
			counts[l][idx]++
		}
	}

	out := make([]LayerRarity, cat.Len())
	for l := range cat.Layers {
		layer := &cat.Layers[l]
		lr := LayerRarity{Layer: layer.Label(), Traits: make([]TraitRarity, len(layer.Traits))}
		for i, t := range layer.Traits {
			tr := TraitRarity{Trait: t.DisplayName(), Count: counts[l][i]}
			if len(accepted) > 0 {
				tr.Percent = float64(tr.Count) * 100 / float64(len(accepted))
			}
			lr.Traits[i] = tr
		}
		out[l] = lr
	}
	return out
}

// Metadata describes one project's output directory.
type Metadata struct {
	Project     string         `json:"project"`
	DisplayName string         `json:"display_name"`
	PolicyID    string         `json:"policy_id,omitempty"`
	Amount      int            `json:"amount"`
	Generated   int            `json:"generated"`
	Sets        []config.Set   `json:"sets,omitempty"`
	RunID       string         `json:"run_id,omitempty"`
	Version     string         `json:"version"`
	GeneratedAt time.Time      `json:"generated_at"`
	Extra       map[string]any `json:"extra,omitempty"`
}

func (w *Writer) metadata(job Job) Metadata {
	p := job.Project
	return Metadata{
		Project:     p.Name,
		DisplayName: p.Label(),
		PolicyID:    p.PolicyID,
		Amount:      p.Amount,
		Generated:   len(job.Accepted),
		Sets:        p.Sets,
		RunID:       w.runID,
		Version:     buildinfo.Version,
		GeneratedAt: time.Now().UTC(),
		Extra:       p.Extra,
	}
}
