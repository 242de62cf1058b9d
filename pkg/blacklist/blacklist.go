// Package blacklist rejects combinations that contain a forbidden pair of
// trait names.
//
// Each rule {trait_name, excludes} is expanded into a lookup from every
// excluded partner to its subject. A combination is rejected when any of its
// trait names maps to a subject that is also present, which makes the check
// symmetric without storing both directions.
package blacklist

import (
	"strings"

	"github.com/matzehuels/traitmix/pkg/config"
	"github.com/matzehuels/traitmix/pkg/errors"
)

// Table maps an excluded trait to the subject it cannot appear with.
// The zero value and a nil *Table reject nothing.
type Table struct {
	partners      map[string]string
	caseSensitive bool
}

// Build expands rules into a Table. When caseSensitive is false, names are
// folded to lower case both here and in [Table.IsRejected].
func Build(rules []config.BlacklistRule, caseSensitive bool) (*Table, error) {
	t := &Table{
		partners:      make(map[string]string),
		caseSensitive: caseSensitive,
	}
	for _, rule := range rules {
		subject := t.fold(rule.TraitName)
		for _, exclude := range rule.Excludes {
			key := t.fold(exclude)
			if prev, ok := t.partners[key]; ok {
				return nil, errors.New(errors.ErrCodeAmbiguousBlacklist,
					"blacklist already contains exclude %q (for %q); merge it into the excludes of trait_name %q",
					exclude, prev, prev)
			}
			t.partners[key] = subject
		}
	}
	return t, nil
}

// FromDocument builds a Table from a loaded blacklist document. A nil
// document yields a nil Table.
func FromDocument(doc *config.Blacklist, caseSensitive bool) (*Table, error) {
	if doc == nil {
		return nil, nil
	}
	return Build(doc.List, doc.IsCaseSensitive(caseSensitive))
}

// Len returns the number of partner entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.partners)
}

// IsRejected reports whether names contains a forbidden pair.
func (t *Table) IsRejected(names []string) bool {
	if t.Len() == 0 {
		return false
	}
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[t.fold(n)] = true
	}
	for n := range present {
		if subject, ok := t.partners[n]; ok && present[subject] {
			return true
		}
	}
	return false
}

func (t *Table) fold(s string) string {
	if t.caseSensitive {
		return s
	}
	return strings.ToLower(s)
}
