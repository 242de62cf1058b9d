package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/traitmix/pkg/errors"
)

const apesJSON = `{
  "name": "Apes",
  "display_name": "Bored Apes",
  "amount": 20,
  "tolerance": 5,
  "path": "assets/apes",
  "off_traits": ["Ugly"],
  "layers": [
    {"name": "Background"},
    {"name": "Hat", "none": 30, "exclude_if_traits": [{"layer": "Helmet", "traits": []}]},
    {"name": "Helmet", "display_name": "Head Gear"}
  ],
  "extra": {"creator": "matze"}
}`

const apesTOML = `
name = "Apes"
display_name = "Bored Apes"
amount = 20
tolerance = 5
path = "assets/apes"
off_traits = ["Ugly"]

[extra]
creator = "matze"

[[layers]]
name = "Background"

[[layers]]
name = "Hat"
none = 30
  [[layers.exclude_if_traits]]
  layer = "Helmet"
  traits = []

[[layers]]
name = "Helmet"
display_name = "Head Gear"
`

const apesYAML = `
name: Apes
display_name: Bored Apes
amount: 20
tolerance: 5
path: assets/apes
off_traits: [Ugly]
layers:
  - name: Background
  - name: Hat
    none: 30
    exclude_if_traits:
      - layer: Helmet
        traits: []
  - name: Helmet
    display_name: Head Gear
extra:
  creator: matze
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadProjectFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file    string
		content string
	}{
		{"apes.json", apesJSON},
		{"apes.toml", apesTOML},
		{"apes.yaml", apesYAML},
	}

	var first *Project
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			p, err := LoadProject(writeFile(t, dir, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadProject: %v", err)
			}
			if p.ConfigName != "apes" {
				t.Errorf("ConfigName = %q, want apes", p.ConfigName)
			}
			if p.Amount != 20 || p.EffectiveTolerance() != 5 {
				t.Errorf("amount/tolerance = %d/%d, want 20/5", p.Amount, p.EffectiveTolerance())
			}
			if len(p.Layers) != 3 {
				t.Fatalf("layers = %d, want 3", len(p.Layers))
			}
			hat := p.Layers[1]
			if hat.None == nil || *hat.None != 30 {
				t.Errorf("Hat.None = %v, want 30", hat.None)
			}
			if len(hat.ExcludeIfTraits) != 1 || hat.ExcludeIfTraits[0].Layer != "Helmet" {
				t.Errorf("Hat rules = %+v", hat.ExcludeIfTraits)
			}
			if p.Layers[2].Label() != "Head Gear" {
				t.Errorf("Helmet label = %q", p.Layers[2].Label())
			}
			if p.Extra["creator"] != "matze" {
				t.Errorf("extra = %v", p.Extra)
			}
			if !p.OffTraitSet()["Ugly"] {
				t.Error("off_traits should contain Ugly")
			}

			if first == nil {
				first = p
				return
			}
			if !reflect.DeepEqual(first.Layers, p.Layers) {
				t.Errorf("layers differ from JSON form:\n%+v\n%+v", first.Layers, p.Layers)
			}
		})
	}
}

func TestLoadProjectErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    errors.Code
	}{
		{"broken json", "a.json", `{"name":`, errors.ErrCodeConfigParse},
		{"broken toml", "a.toml", `name = `, errors.ErrCodeConfigParse},
		{"missing layers", "a.json", `{"name":"a","path":"p","amount":1}`, errors.ErrCodeConfigParse},
		{"negative tolerance", "a.json", `{"name":"a","path":"p","amount":1,"tolerance":-1,"layers":[{"name":"L"}]}`, errors.ErrCodeConfigParse},
		{"zero amount", "a.json", `{"name":"a","path":"p","layers":[{"name":"L"}]}`, errors.ErrCodeInvalidConfig},
		{"duplicate layer", "a.json", `{"name":"a","path":"p","amount":1,"layers":[{"name":"L"},{"name":"L"}]}`, errors.ErrCodeInvalidConfig},
		{"shared display name", "a.json", `{"name":"a","path":"p","amount":1,"layers":[{"name":"A","display_name":"Head"},{"name":"B","display_name":"Head"}]}`, errors.ErrCodeInvalidConfig},
		{"display name equals other layer", "a.json", `{"name":"a","path":"p","amount":1,"layers":[{"name":"Hat"},{"name":"B","display_name":"Hat"}]}`, errors.ErrCodeInvalidConfig},
		{"layer with slash", "a.json", `{"name":"a","path":"p","amount":1,"layers":[{"name":"x/y"}]}`, errors.ErrCodeInvalidName},
		{"empty rule", "a.json", `{"name":"a","path":"p","amount":1,"layers":[{"name":"L","exclude_if_traits":[{"layer":"","traits":[]}]}]}`, errors.ErrCodeInvalidConfig},
		{"sets mismatch", "a.json", `{"name":"a","path":"p","amount":5,"sets":[{"name":"s","amount":2}],"layers":[{"name":"L"}]}`, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProject(writeFile(t, t.TempDir(), tt.file, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (err: %v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestSetsDefaultAmount(t *testing.T) {
	path := writeFile(t, t.TempDir(), "drop.json",
		`{"name":"d","path":"p","sets":[{"name":"gold","amount":3},{"name":"silver","amount":7}],"layers":[{"name":"L"}]}`)
	p, err := LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if p.Amount != 10 {
		t.Errorf("Amount = %d, want 10", p.Amount)
	}
	if p.EffectiveTolerance() != 10*DefaultToleranceFactor {
		t.Errorf("EffectiveTolerance = %d", p.EffectiveTolerance())
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zeta.json", `{"name":"z","path":"p","amount":1,"layers":[{"name":"L"}]}`)
	writeFile(t, dir, "alpha.v2.yaml", "name: a\npath: p\namount: 2\nlayers:\n  - name: L\n")
	writeFile(t, dir, "README.md", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	projects, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(projects))
	}
	if projects[0].ConfigName != "alpha" || projects[1].ConfigName != "zeta" {
		t.Errorf("order = %s, %s", projects[0].ConfigName, projects[1].ConfigName)
	}
}

func TestLoadDirConflictingNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "apes.json", `{"name":"a","path":"p","amount":1,"layers":[{"name":"L"}]}`)
	writeFile(t, dir, "apes.yaml", "name: b\npath: p\namount: 1\nlayers:\n  - name: L\n")

	if _, err := LoadDir(dir); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("LoadDir error = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, errors.ErrCodeConfigParse) {
		t.Errorf("error = %v, want CONFIG_PARSE", err)
	}
}

func TestLoadBlacklist(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		bl, err := LoadBlacklist(filepath.Join(t.TempDir(), "blacklist.json"))
		if err != nil || bl != nil {
			t.Errorf("LoadBlacklist = %v, %v; want nil, nil", bl, err)
		}
	})

	t.Run("json", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "blacklist.json",
			`{"list":[{"trait_name":"Crown","excludes":["Mohawk","Cap"]}]}`)
		bl, err := LoadBlacklist(path)
		if err != nil {
			t.Fatalf("LoadBlacklist: %v", err)
		}
		if len(bl.List) != 1 || bl.List[0].TraitName != "Crown" || len(bl.List[0].Excludes) != 2 {
			t.Errorf("list = %+v", bl.List)
		}
		if bl.IsCaseSensitive(false) {
			t.Error("case sensitivity should default to false")
		}
	})

	t.Run("yaml with flag", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "blacklist.yaml",
			"case_sensitive: true\nlist:\n  - trait_name: Crown\n    excludes: [Mohawk]\n")
		bl, err := LoadBlacklist(path)
		if err != nil {
			t.Fatalf("LoadBlacklist: %v", err)
		}
		if !bl.IsCaseSensitive(false) {
			t.Error("document flag should enable case sensitivity")
		}
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "blacklist.json", `{"list":[{"trait_name":"Crown"}]}`)
		if _, err := LoadBlacklist(path); !errors.Is(err, errors.ErrCodeConfigParse) {
			t.Errorf("error = %v, want CONFIG_PARSE", err)
		}
	})
}

func TestExampleDocuments(t *testing.T) {
	root := filepath.Join("..", "..", "examples")

	projects, err := LoadDir(filepath.Join(root, "configs"))
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(projects))
	}
	punks, robots := projects[0], projects[1]
	if punks.ConfigName != "punks" || punks.Label() != "Pixel Punks" || len(punks.Sets) != 2 {
		t.Errorf("punks = %s", punks)
	}
	if robots.ConfigName != "robots" || robots.EffectiveTolerance() != 12 {
		t.Errorf("robots = %s", robots)
	}
	if got := robots.Layers[1].ExcludeIfTraits; len(got) != 2 || got[1].Layer != "" {
		t.Errorf("robots Antenna rules = %+v", got)
	}

	bl, err := LoadBlacklist(filepath.Join(root, "blacklist.json"))
	if err != nil {
		t.Fatalf("LoadBlacklist: %v", err)
	}
	if len(bl.List) != 2 || bl.IsCaseSensitive(false) {
		t.Errorf("blacklist = %+v", bl)
	}
}
