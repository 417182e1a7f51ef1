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

// Package archivedelta is the top-level entry point of the binary delta
// engine: Diff/Apply dispatch whole-blob work to the rsync or bidiff codec
// by patch.DiffAlgorithm, and DiffZip/ApplyZip extend that to ZIP archive
// trees (C7/C8).
package archivedelta

import (
	"github.com/coreos/pkg/capnslog"

	"github.com/coreos/archivedelta/bidiff"
	"github.com/coreos/archivedelta/codec"
	"github.com/coreos/archivedelta/patch"
	"github.com/coreos/archivedelta/rsync"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/archivedelta", "archivedelta")

func machineFor(algo patch.DiffAlgorithm) (codec.Machine, error) {
	switch algo {
	case patch.Rsync020:
		return rsync.Machine{}, nil
	case patch.Bidiff1:
		return bidiff.Machine{}, nil
	default:
		return nil, patch.NewErrorf(patch.ArchiveError, "unknown diff algorithm %v", algo)
	}
}

// Diff routes to the codec named by algo and produces a Patch transforming
// before into after.
func Diff(before, after []byte, algo patch.DiffAlgorithm, compress patch.CompressAlgorithm) (*patch.Patch, error) {
	plog.Debugf("Diff: algo=%v compress=%v before=%d bytes after=%d bytes", algo, compress, len(before), len(after))
	m, err := machineFor(algo)
	if err != nil {
		return nil, err
	}
	return m.Diff(before, after, compress)
}

// Apply routes on p.DiffAlgorithm (never on a caller-supplied algorithm) and
// reconstructs the blob p describes from base.
func Apply(base []byte, p *patch.Patch) ([]byte, error) {
	m, err := machineFor(p.DiffAlgorithm)
	if err != nil {
		return nil, err
	}
	return m.Apply(base, p)
}
