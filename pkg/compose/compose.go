// Package compose renders accepted combinations to disk.
//
// For every accepted combination the writer stacks the visual traits in
// layer order onto a transparent canvas of the catalog's size and writes
// two files named by the fingerprint:
//
//	<dir>/<project>/[<set>/]<fingerprint>.png
//	<dir>/<project>/[<set>/]<fingerprint>.json
//
// The JSON sidecar maps each layer's display name to the selected trait
// name, with "None" for a no-trait selection. Each project directory also
// receives a rarity report and a metadata document.
package compose

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/traitmix/pkg/catalog"
	"github.com/matzehuels/traitmix/pkg/config"
	"github.com/matzehuels/traitmix/pkg/errors"
	"github.com/matzehuels/traitmix/pkg/generate"
	"github.com/matzehuels/traitmix/pkg/observability"
)

// File names written next to the images of a project.
const (
	RarityFile   = "rarity.json"
	MetadataFile = "_metadata.json"
)

// Job is one project's accepted combinations.
type Job struct {
	Project  *config.Project
	Catalog  *catalog.Catalog
	Accepted []generate.Accepted
}

// Option configures a [Writer].
type Option func(*Writer)

// WithWorkers bounds the number of images encoded concurrently.
func WithWorkers(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(l *log.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithHooks overrides the globally registered compose hooks.
func WithHooks(h observability.ComposeHooks) Option {
	return func(w *Writer) {
		if h != nil {
			w.hooks = h
		}
	}
}

// WithRunID sets the run identifier recorded in metadata documents.
func WithRunID(id string) Option {
	return func(w *Writer) { w.runID = id }
}

// Writer composes images into Dir. Decoded trait images are cached for the
// writer's lifetime; a Writer is safe for concurrent use.
type Writer struct {
	dir     string
	workers int
	runID   string
	logger  *log.Logger
	hooks   observability.ComposeHooks

	mu     sync.Mutex
	images map[string]image.Image
}

// NewWriter returns a writer rooted at dir.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{
		dir:     dir,
		workers: runtime.GOMAXPROCS(0),
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
		hooks:   observability.Compose(),
		images:  make(map[string]image.Image),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output root.
func (w *Writer) Dir() string {
	return w.dir
}

// ProjectDir returns the output directory of a project.
func (w *Writer) ProjectDir(p *config.Project) string {
	return filepath.Join(w.dir, p.ConfigName)
}

// Write renders every accepted combination of job and writes the project's
// rarity and metadata documents.
func (w *Writer) Write(ctx context.Context, job Job) error {
	if job.Project == nil || job.Catalog == nil {
		return errors.New(errors.ErrCodeInternal, "compose job is missing its project or catalog")
	}
	root := w.ProjectDir(job.Project)
	targets := partition(root, job.Project.Sets, len(job.Accepted))

	for _, dir := range uniqueDirs(targets) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "create %s", dir)
		}
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for i, acc := range job.Accepted {
		dir := targets[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return w.writeOne(gctx, job, dir, acc)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(root, RarityFile), Rarity(job.Catalog, job.Accepted)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(root, MetadataFile), w.metadata(job)); err != nil {
		return err
	}

	w.logger.Info("images written", "project", job.Project.ConfigName, "count", len(job.Accepted),
		"dir", root, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func (w *Writer) writeOne(ctx context.Context, job Job, dir string, acc generate.Accepted) (err error) {
	start := time.Now()
	size := 0
	defer func() {
		w.hooks.OnImageWritten(ctx, job.Project.ConfigName, size, time.Since(start), err)
	}()

	img, err := w.Composite(job.Catalog, acc)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "encode %s", acc.Fingerprint)
	}
	size = buf.Len()

	imgPath := filepath.Join(dir, acc.Fingerprint+catalog.ImageExt)
	if err := os.WriteFile(imgPath, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", imgPath)
	}
	w.logger.Debug("image written", "path", imgPath, "bytes", size)

	return writeJSON(filepath.Join(dir, acc.Fingerprint+".json"), Attributes(job.Catalog, acc))
}

// Composite draws the visual traits of acc onto a transparent canvas of
// the catalog's size, in layer order. Trait images of a different size are
// scaled to the canvas.
func (w *Writer) Composite(cat *catalog.Catalog, acc generate.Accepted) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, cat.Width, cat.Height))
	bounds := canvas.Bounds()

	for l, idx := range acc.Combination {
		t := cat.Trait(l, idx)
		if !t.IsVisual() {
			continue
		}
		src, err := w.load(t.Visual.Path)
		if err != nil {
			return nil, err
		}
		sb := src.Bounds()
		if sb.Dx() == bounds.Dx() && sb.Dy() == bounds.Dy() {
			draw.Draw(canvas, bounds, src, sb.Min, draw.Over)
		} else {
			draw.CatmullRom.Scale(canvas, bounds, src, sb, draw.Over, nil)
		}
	}
	return canvas, nil
}

// load decodes the image at path once per writer.
func (w *Writer) load(path string) (image.Image, error) {
	w.mu.Lock()
	img, ok := w.images[path]
	w.mu.Unlock()
	if ok {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to load image %s", path)
	}
	defer f.Close()

	img, _, err = image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to decode image %s", path)
	}

	w.mu.Lock()
	if cached, ok := w.images[path]; ok {
		img = cached
	} else {
		w.images[path] = img
	}
	w.mu.Unlock()
	return img, nil
}

// Attributes maps each layer's display name to the selected trait name.
func Attributes(cat *catalog.Catalog, acc generate.Accepted) map[string]string {
	attrs := make(map[string]string, len(acc.Combination))
	for l, idx := range acc.Combination {
		t := cat.Trait(l, idx)
		attrs[cat.Layers[l].Label()] = t.DisplayName()
	}
	return attrs
}

// partition returns the output directory for each of n accepted
// combinations. Without sets everything goes to root; with sets the
// combinations fill the sets in declaration order.
func partition(root string, sets []config.Set, n int) []string {
	dirs := make([]string, n)
	i := 0
	for _, s := range sets {
		for j := 0; j < s.Amount && i < n; j++ {
			dirs[i] = filepath.Join(root, s.Name)
			i++
		}
	}
	for ; i < n; i++ {
		dirs[i] = root
	}
	return dirs
}

func uniqueDirs(dirs []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range dirs {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}
