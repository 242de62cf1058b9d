// Package fingerprint derives the canonical identifier of a combination.
//
// Each visual selection contributes the label "<layer>-<trait>". Labels are
// sorted by their raw bytes, concatenated and hashed with Keccak-256, so the
// result does not depend on the order layers were visited. Selections of the
// no-trait entry contribute nothing: two combinations that render the same
// image get the same fingerprint.
package fingerprint

import (
	"bytes"
	"encoding/hex"
	"slices"

	"golang.org/x/crypto/sha3"

	"github.com/matzehuels/traitmix/pkg/sampler"
)

// Size is the length of a fingerprint string in hex characters.
const Size = 64

// Label returns the byte label for one resolved selection.
func Label(p sampler.Pair) []byte {
	b := make([]byte, 0, len(p.Layer)+1+len(p.Trait))
	b = append(b, p.Layer...)
	b = append(b, '-')
	b = append(b, p.Trait...)
	return b
}

// Labels returns the sorted labels for pairs. Duplicate pairs collapse to
// one label.
func Labels(pairs []sampler.Pair) [][]byte {
	labels := make([][]byte, 0, len(pairs))
	for _, p := range pairs {
		labels = append(labels, Label(p))
	}
	slices.SortFunc(labels, bytes.Compare)
	return slices.CompactFunc(labels, bytes.Equal)
}

// Of returns the hex-encoded Keccak-256 digest of the sorted labels.
func Of(pairs []sampler.Pair) string {
	h := sha3.NewLegacyKeccak256()
	for _, l := range Labels(pairs) {
		h.Write(l)
	}
	return hex.EncodeToString(h.Sum(nil))
}
