// Copyright 2016 CoreOS, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package codec declares the capability shared by every blob-diff codec:
// produce a Patch from two whole blobs, and reconstruct a blob from a base
// and a Patch. rsync.Machine and bidiff.Machine both implement it so that
// archivedelta.Diff/Apply can dispatch on patch.DiffAlgorithm without
// depending on either codec's internals.
package codec

import "github.com/coreos/archivedelta/patch"

// Machine is the closed-set capability implemented by exactly two codecs:
// rsync.Machine (patch.Rsync020) and bidiff.Machine (patch.Bidiff1). Dispatch
// on patch.DiffAlgorithm selects which Machine to use; there is no open
// extension point.
type Machine interface {
	// Diff produces a Patch transforming before into after, compressing the
	// delta payload with compress.
	Diff(before, after []byte, compress patch.CompressAlgorithm) (*patch.Patch, error)
	// Apply reconstructs the blob p describes, given its base.
	Apply(base []byte, p *patch.Patch) ([]byte, error)
}
