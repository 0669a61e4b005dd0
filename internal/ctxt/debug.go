// Copyright 2023 Gustavo C. Viegas. All rights reserved.

//go:build debug

package ctxt

import (
	"github.com/davecgh/go-spew/spew"

	"github.com/aqsis/aqsis-sub002/sample"
)

// DumpBucket writes a deep dump of a bucket's pixel/sample state to
// standard output. Built only with -tags debug: the full per-sample record
// list is too costly to format on every run, but invaluable when
// chasing a compositing or occlusion bug bucket by bucket.
func DumpBucket(label string, b *sample.Bucket) {
	spew.Printf("%s: %#v\n", label, b)
}
