package catalog

import (
	"context"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/traitmix/pkg/config"
	"github.com/matzehuels/traitmix/pkg/errors"
)

// WeightDelimiter separates a trait name from its weight in a file stem.
const WeightDelimiter = "#"

// Option configures [Load].
type Option func(*loader)

type loader struct {
	disabled map[string]bool
	logger   *log.Logger
}

// WithDisabled skips traits whose name (or full file stem) is in set.
func WithDisabled(set map[string]bool) Option {
	return func(l *loader) { l.disabled = set }
}

// WithLogger sets the logger used for skipped layers and traits.
func WithLogger(logger *log.Logger) Option {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Load builds the catalog for layers under root.
//
// Layers whose directory does not exist are skipped. The first image read
// fixes the catalog dimensions; mismatched sizes are left to the compositor.
func Load(ctx context.Context, root string, layers []config.Layer, opts ...Option) (*Catalog, error) {
	ld := loader{logger: log.NewWithOptions(io.Discard, log.Options{})}
	for _, opt := range opts {
		opt(&ld)
	}

	cat := &Catalog{Root: root}
	names := make(map[string]string)

	for _, lc := range layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := filepath.Join(root, lc.Name)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			ld.logger.Warn("skipping layer without directory", "layer", lc.Name, "path", dir)
			continue
		}

		layer, err := ld.loadLayer(cat, lc, dir, names)
		if err != nil {
			return nil, err
		}
		cat.Layers = append(cat.Layers, layer)
	}

	ld.logger.Debug("catalog loaded", "root", root, "layers", len(cat.Layers),
		"traits", cat.TraitCount(), "width", cat.Width, "height", cat.Height)
	return cat, nil
}

func (ld *loader) loadLayer(cat *Catalog, lc config.Layer, dir string, names map[string]string) (Layer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Layer{}, errors.Wrap(errors.ErrCodeLayerUnreadable, err, "%s is not a readable folder", dir)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	layer := Layer{Config: lc, NoneIndex: -1}
	label := lc.Label()

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ImageExt) {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if ld.disabled[stem] {
			ld.logger.Debug("skipping disabled trait", "layer", lc.Name, "trait", stem)
			continue
		}
		name, weight, err := ParseStem(stem)
		if err != nil {
			return Layer{}, err
		}
		if ld.disabled[name] {
			ld.logger.Debug("skipping disabled trait", "layer", lc.Name, "trait", name)
			continue
		}

		path := filepath.Join(dir, e.Name())
		if err := cat.measure(path); err != nil {
			return Layer{}, err
		}

		if prev, ok := names[name]; ok {
			return Layer{}, errors.New(errors.ErrCodeDuplicateTraitName,
				"duplicated trait name %q in layers %q and %q", name, prev, lc.Name)
		}
		names[name] = lc.Name

		layer.Traits = append(layer.Traits, Trait{
			Layer:  label,
			Name:   name,
			Weight: weight,
			Visual: &Visual{Path: path},
		})
	}

	if lc.HasNone() {
		var w uint32
		if lc.None != nil {
			w = *lc.None
		}
		layer.Traits = append(layer.Traits, Trait{Layer: label, Name: NoneLabel, Weight: w})
		layer.NoneIndex = len(layer.Traits) - 1
	}

	if len(layer.Traits) == 0 {
		return Layer{}, errors.New(errors.ErrCodeEmptyLayer, "layer %q has no traits in %s", lc.Name, dir)
	}
	return layer, nil
}

// measure decodes the image header at path and fixes the catalog size on
// the first call.
func (c *Catalog) measure(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "failed to load image %s", path)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "failed to load image %s", path)
	}
	if c.Width == 0 && c.Height == 0 {
		c.Width, c.Height = cfg.Width, cfg.Height
	}
	return nil
}

// ParseStem splits a file stem into trait name and weight. A stem without
// [WeightDelimiter] gets [DefaultWeight].
func ParseStem(stem string) (string, uint32, error) {
	name, weightStr, ok := strings.Cut(stem, WeightDelimiter)
	if err := errors.ValidateTraitName(name); err != nil {
		return "", 0, err
	}
	if !ok {
		return name, DefaultWeight, nil
	}
	w, err := strconv.ParseUint(weightStr, 10, 32)
	if err != nil {
		return "", 0, errors.Wrap(errors.ErrCodeUnparsableWeight, err, "%s is not a parsable number", weightStr)
	}
	return name, uint32(w), nil
}
