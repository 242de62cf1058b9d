// Package pkg provides the core libraries for traitmix, a generator of unique
// layered trait combinations.
//
// # Overview
//
// A project names a folder of layers, each layer a folder of PNG traits whose
// file names carry their weights ("Gold#10.png"). traitmix draws one trait per
// layer, applies the layer's exclusion rules, rejects blacklisted pairings and
// duplicates, and composites every accepted combination into an image with an
// attribute sidecar.
//
// # Architecture
//
// The data flow of one run:
//
//	configs/*.{json,toml,yaml} + blacklist
//	         ↓
//	    [config] + [catalog] (documents, weighted trait catalog)
//	         ↓
//	    [sampler] → [blacklist] → [fingerprint] → [uniq] (draw and filter)
//	         ↓
//	    [generate] (per-project loop with a failure tolerance)
//	         ↓
//	    [compose] (PNG images, sidecars, rarity report)
//
// [pipeline] ties the stages together for the CLI. [observability] exposes
// hooks around each stage and a Prometheus implementation of them.
//
// # Quick Start
//
//	opts := pipeline.Options{ConfigDir: "configs", OutputDir: "output"}
//	res, err := pipeline.NewRunner(nil, logger).Execute(ctx, opts)
//	if err != nil {
//	    // res still describes the projects that succeeded
//	}
//	fmt.Println(res.Stats.Accepted, "images written")
//
// # Uniqueness Stores
//
// [uniq] keeps the fingerprints of accepted combinations. Memory is the
// default; Redis and SQLite stores persist across runs so a second run never
// repeats a combination from the first.
//
// [config]: https://pkg.go.dev/github.com/matzehuels/traitmix/pkg/config
// [catalog]: https://pkg.go.dev/github.com/matzehuels/traitmix/pkg/catalog
// [sampler]: https://pkg.go.dev/github.com/matzehuels/traitmix/pkg/sampler
// [blacklist]: https://pkg.go.dev/github.com/matzehuels/traitmix/pkg/blacklist
// [fingerprint]: https://pkg.go.dev/github.com/matzehuels/traitmix/pkg/fingerprint
// [uniq]: https://pkg.go.dev/github.com/matzehuels/traitmix/pkg/uniq
// [generate]: https://pkg.go.dev/github.com/matzehuels/traitmix/pkg/generate
// [compose]: https://pkg.go.dev/github.com/matzehuels/traitmix/pkg/compose
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/traitmix/pkg/pipeline
// [observability]: https://pkg.go.dev/github.com/matzehuels/traitmix/pkg/observability
package pkg
