package fingerprint

import (
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/traitmix/pkg/sampler"
)

func TestOfIsOrderIndependent(t *testing.T) {
	pairs := []sampler.Pair{
		{Layer: "Background", Trait: "Blue"},
		{Layer: "Hat", Trait: "Crown"},
		{Layer: "Eyes", Trait: "Laser"},
		{Layer: "Mouth", Trait: "Grin"},
	}
	want := Of(pairs)

	rng := rand.New(rand.NewPCG(1, 1))
	for i := 0; i < 50; i++ {
		shuffled := append([]sampler.Pair(nil), pairs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := Of(shuffled); got != want {
			t.Fatalf("Of(%v) = %s, want %s", shuffled, got, want)
		}
	}
}

func TestOfFormat(t *testing.T) {
	fp := Of([]sampler.Pair{{Layer: "Hat", Trait: "Crown"}})
	if len(fp) != Size {
		t.Errorf("len = %d, want %d", len(fp), Size)
	}
	for _, r := range fp {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'f') {
			t.Fatalf("fingerprint %q is not lowercase hex", fp)
		}
	}
}

func TestOfKnownVector(t *testing.T) {
	// Keccak-256 of the empty input.
	const empty = "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got := Of(nil); got != empty {
		t.Errorf("Of(nil) = %s, want %s", got, empty)
	}
}

func TestOfDistinguishesLayers(t *testing.T) {
	a := Of([]sampler.Pair{{Layer: "Hat", Trait: "Gold"}})
	b := Of([]sampler.Pair{{Layer: "Ring", Trait: "Gold"}})
	if a == b {
		t.Error("same trait on different layers should not collide")
	}
}

func TestLabelsSortedByBytes(t *testing.T) {
	labels := Labels([]sampler.Pair{
		{Layer: "b", Trait: "x"},
		{Layer: "B", Trait: "x"},
		{Layer: "a", Trait: "x"},
		{Layer: "a", Trait: "x"},
	})
	want := []string{"B-x", "a-x", "b-x"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %q, want %q", labels, want)
	}
	for i := range want {
		if string(labels[i]) != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], want[i])
		}
	}
}
