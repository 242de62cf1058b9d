package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/traitmix/pkg/errors"
)

// Supported document extensions.
const (
	ExtJSON = ".json"
	ExtTOML = ".toml"
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// Supported reports whether path has a document extension this package reads.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtJSON, ExtTOML, ExtYAML, ExtYML:
		return true
	}
	return false
}

// LoadDir loads every project document in dir, sorted by file name.
// Files with other extensions and subdirectories are ignored.
func LoadDir(dir string) ([]*Project, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigParse, err, "read config folder %s", dir)
	}

	var projects []*Project
	names := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		p, err := LoadProject(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := names[p.ConfigName]; ok {
			return nil, errors.New(errors.ErrCodeInvalidConfig,
				"config files %s and %s both map to output %q", prev, e.Name(), p.ConfigName)
		}
		names[p.ConfigName] = e.Name()
		projects = append(projects, p)
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].ConfigName < projects[j].ConfigName })
	return projects, nil
}

// LoadProject reads, validates and decodes one project document.
// The config name is the file name up to its first dot.
func LoadProject(path string) (*Project, error) {
	data, err := normalize(path, projectSchemaURL)
	if err != nil {
		return nil, err
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigParse, err, "unable to parse config file: %s", filepath.Base(path))
	}
	p.ConfigName = configName(path)
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Blacklist is the process-wide list of forbidden trait pairings.
type Blacklist struct {
	CaseSensitive *bool           `json:"case_sensitive,omitempty"`
	List          []BlacklistRule `json:"list"`
}

// BlacklistRule forbids TraitName from appearing with any of Excludes.
type BlacklistRule struct {
	TraitName string   `json:"trait_name"`
	Excludes  []string `json:"excludes"`
}

// IsCaseSensitive resolves the document flag against the caller's default.
// An explicit true in either place makes matching case sensitive.
func (b *Blacklist) IsCaseSensitive(flag bool) bool {
	if b == nil {
		return flag
	}
	return flag || (b.CaseSensitive != nil && *b.CaseSensitive)
}

// LoadBlacklist reads a blacklist document. A missing file is not an error:
// it returns nil, nil and generation runs without a blacklist.
func LoadBlacklist(path string) (*Blacklist, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := normalize(path, blacklistSchemaURL)
	if err != nil {
		return nil, err
	}
	var bl Blacklist
	if err := json.Unmarshal(data, &bl); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigParse, err, "unable to parse blacklist file: %s", filepath.Base(path))
	}
	return &bl, nil
}

// normalize decodes the file by extension, re-encodes it as JSON and
// validates it against the schema at schemaURL.
func normalize(path, schemaURL string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigParse, err, "read %s", path)
	}

	data, err := toJSON(path, raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigParse, err, "unable to parse config file: %s", filepath.Base(path))
	}
	if err := validateJSON(schemaURL, data); err != nil {
		if errors.GetCode(err) == errors.ErrCodeInternal {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeConfigParse, err, "invalid document %s", filepath.Base(path))
	}
	return data, nil
}

func toJSON(path string, raw []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtJSON:
		if !json.Valid(raw) {
			var v any
			return nil, json.Unmarshal(raw, &v)
		}
		return raw, nil
	case ExtTOML:
		var doc map[string]any
		if err := toml.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return json.Marshal(doc)
	case ExtYAML, ExtYML:
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return json.Marshal(doc)
	}
	return nil, fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
}

func configName(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
