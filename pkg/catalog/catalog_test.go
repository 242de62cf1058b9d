package catalog

import (
	"context"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/matzehuels/traitmix/internal/testutils"
	"github.com/matzehuels/traitmix/pkg/config"
	"github.com/matzehuels/traitmix/pkg/errors"
)

func TestParseStem(t *testing.T) {
	tests := []struct {
		stem    string
		name    string
		weight  uint32
		code    errors.Code
		wantErr bool
	}{
		{stem: "Gold", name: "Gold", weight: DefaultWeight},
		{stem: "Gold#10", name: "Gold", weight: 10},
		{stem: "Gold#0", name: "Gold", weight: 0},
		{stem: "Red Cap#4294967295", name: "Red Cap", weight: math.MaxUint32},
		{stem: "Gold#ten", wantErr: true, code: errors.ErrCodeUnparsableWeight},
		{stem: "Gold#-1", wantErr: true, code: errors.ErrCodeUnparsableWeight},
		{stem: "Gold#", wantErr: true, code: errors.ErrCodeUnparsableWeight},
		{stem: "Gold#1#2", wantErr: true, code: errors.ErrCodeUnparsableWeight},
		{stem: "#5", wantErr: true, code: errors.ErrCodeInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			name, weight, err := ParseStem(tt.stem)
			if tt.wantErr {
				if !errors.Is(err, tt.code) {
					t.Errorf("ParseStem(%q) error = %v, want %v", tt.stem, err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStem(%q): %v", tt.stem, err)
			}
			if name != tt.name || weight != tt.weight {
				t.Errorf("ParseStem(%q) = %q, %d; want %q, %d", tt.stem, name, weight, tt.name, tt.weight)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	root := testutils.CatalogDir(t, map[string][]string{
		"Background": {"Blue#10.png", "Red.png", "notes.txt"},
		"Hat":        {"Cap#5.png", "Crown#1.png"},
	})
	layers := []config.Layer{
		{Name: "Background", DisplayName: "BG"},
		{Name: "Hat", None: testutils.Uint32(20)},
		{Name: "Missing"},
	}

	cat, err := Load(context.Background(), root, layers)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cat.Len() != 2 {
		t.Fatalf("layers = %d, want 2 (missing directory skipped)", cat.Len())
	}
	if cat.Width != 4 || cat.Height != 4 {
		t.Errorf("size = %dx%d, want 4x4", cat.Width, cat.Height)
	}

	bg := cat.Layers[0]
	if len(bg.Traits) != 2 || bg.NoneIndex != -1 {
		t.Fatalf("Background traits = %+v", bg.Traits)
	}
	if bg.Traits[0].Name != "Blue" || bg.Traits[0].Weight != 10 || bg.Traits[0].Layer != "BG" {
		t.Errorf("Background[0] = %+v", bg.Traits[0])
	}
	if bg.Traits[1].Name != "Red" || bg.Traits[1].Weight != DefaultWeight {
		t.Errorf("Background[1] = %+v", bg.Traits[1])
	}
	if !bg.Traits[0].IsVisual() || filepath.Base(bg.Traits[0].Visual.Path) != "Blue#10.png" {
		t.Errorf("Background[0] visual = %+v", bg.Traits[0].Visual)
	}

	hat := cat.Layers[1]
	if len(hat.Traits) != 3 {
		t.Fatalf("Hat traits = %d, want 3", len(hat.Traits))
	}
	none := hat.Traits[hat.NoneIndex]
	if hat.NoneIndex != 2 || none.IsVisual() || none.Weight != 20 {
		t.Errorf("Hat none entry = %+v at %d", none, hat.NoneIndex)
	}
	if none.DisplayName() != NoneLabel {
		t.Errorf("none DisplayName = %q", none.DisplayName())
	}
	if hat.TotalWeight() != 26 {
		t.Errorf("Hat TotalWeight = %d, want 26", hat.TotalWeight())
	}
	if hat.VisualCount() != 2 {
		t.Errorf("Hat VisualCount = %d, want 2", hat.VisualCount())
	}
	if cat.Combinations() != 6 {
		t.Errorf("Combinations = %d, want 6", cat.Combinations())
	}
}

func TestLoadExclusionAddsZeroWeightNone(t *testing.T) {
	root := testutils.CatalogDir(t, map[string][]string{
		"Hair":   {"Mohawk.png"},
		"Helmet": {"Iron.png"},
	})
	layers := []config.Layer{
		{Name: "Hair", ExcludeIfTraits: []config.ExclusionRule{{Layer: "Helmet"}}},
		{Name: "Helmet"},
	}

	cat, err := Load(context.Background(), root, layers)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	hair := cat.Layers[0]
	if hair.NoneIndex != 1 || hair.Traits[1].Weight != 0 || hair.Traits[1].IsVisual() {
		t.Errorf("Hair traits = %+v", hair.Traits)
	}
	if cat.Layers[1].NoneIndex != -1 {
		t.Error("Helmet should not get a none entry")
	}
}

func TestLoadDisabledTraits(t *testing.T) {
	root := testutils.CatalogDir(t, map[string][]string{
		"Eyes": {"Laser#2.png", "Sleepy.png", "Wide.png"},
	})

	cat, err := Load(context.Background(), root, []config.Layer{{Name: "Eyes"}},
		WithDisabled(map[string]bool{"Laser#2": true, "Wide": true}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	traits := cat.Layers[0].Traits
	if len(traits) != 1 || traits[0].Name != "Sleepy" {
		t.Errorf("traits = %+v, want only Sleepy", traits)
	}
}

func TestLoadDisabledStemSkipsWeightParsing(t *testing.T) {
	root := testutils.CatalogDir(t, map[string][]string{
		"Eyes": {"Gold#x.png", "Sleepy.png"},
	})

	cat, err := Load(context.Background(), root, []config.Layer{{Name: "Eyes"}},
		WithDisabled(map[string]bool{"Gold#x": true}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if traits := cat.Layers[0].Traits; len(traits) != 1 || traits[0].Name != "Sleepy" {
		t.Errorf("traits = %+v, want only Sleepy", traits)
	}
}

func TestLoadDuplicateTraitName(t *testing.T) {
	root := testutils.CatalogDir(t, map[string][]string{
		"Necklace": {"Gold.png"},
		"Ring":     {"Gold#3.png"},
	})
	layers := []config.Layer{{Name: "Necklace"}, {Name: "Ring"}}

	_, err := Load(context.Background(), root, layers)
	if !errors.Is(err, errors.ErrCodeDuplicateTraitName) {
		t.Errorf("Load error = %v, want DUPLICATE_TRAIT_NAME", err)
	}
}

func TestLoadUnparsableWeight(t *testing.T) {
	root := testutils.CatalogDir(t, map[string][]string{
		"Mouth": {"Smile#lots.png"},
	})

	_, err := Load(context.Background(), root, []config.Layer{{Name: "Mouth"}})
	if !errors.Is(err, errors.ErrCodeUnparsableWeight) {
		t.Errorf("Load error = %v, want UNPARSABLE_WEIGHT", err)
	}
}

func TestLoadEmptyLayer(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "Empty"), 0755); err != nil {
		t.Fatal(err)
	}

	_, err := Load(context.Background(), root, []config.Layer{{Name: "Empty"}})
	if !errors.Is(err, errors.ErrCodeEmptyLayer) {
		t.Errorf("Load error = %v, want EMPTY_LAYER", err)
	}

	cat, err := Load(context.Background(), root, []config.Layer{{Name: "Empty", None: testutils.Uint32(1)}})
	if err != nil {
		t.Fatalf("none-only layer: %v", err)
	}
	if len(cat.Layers[0].Traits) != 1 || cat.Layers[0].NoneIndex != 0 {
		t.Errorf("none-only layer traits = %+v", cat.Layers[0].Traits)
	}
}

func TestLoadLayerUnreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced")
	}
	root := testutils.CatalogDir(t, map[string][]string{"Locked": {"A.png"}})
	dir := filepath.Join(root, "Locked")
	if err := os.Chmod(dir, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	_, err := Load(context.Background(), root, []config.Layer{{Name: "Locked"}})
	if !errors.Is(err, errors.ErrCodeLayerUnreadable) {
		t.Errorf("Load error = %v, want LAYER_UNREADABLE", err)
	}
}

func TestLoadCorruptImage(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Body")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Broken.png"), []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(context.Background(), root, []config.Layer{{Name: "Body"}})
	if !errors.Is(err, errors.ErrCodeIO) {
		t.Errorf("Load error = %v, want IO_ERROR", err)
	}
}

func TestLoadFirstImageFixesSize(t *testing.T) {
	root := t.TempDir()
	testutils.WritePNG(t, filepath.Join(root, "A", "Big.png"), 8, 6, color.White)
	testutils.WritePNG(t, filepath.Join(root, "B", "Small.png"), 2, 2, color.Black)

	cat, err := Load(context.Background(), root, []config.Layer{{Name: "A"}, {Name: "B"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Width != 8 || cat.Height != 6 {
		t.Errorf("size = %dx%d, want 8x6", cat.Width, cat.Height)
	}
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, t.TempDir(), []config.Layer{{Name: "A"}}); err != context.Canceled {
		t.Errorf("Load error = %v, want context.Canceled", err)
	}
}
