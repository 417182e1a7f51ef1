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

package archivedelta

import (
	"bytes"
	"errors"
	"testing"

	"github.com/coreos/archivedelta/compress"
	"github.com/coreos/archivedelta/hash"
	"github.com/coreos/archivedelta/patch"
)

func TestDiffApplyRoundTripBothCodecs(t *testing.T) {
	before := []byte("Hello World")
	after := []byte("Hello Modified World")

	for _, algo := range []patch.DiffAlgorithm{patch.Rsync020, patch.Bidiff1} {
		p, err := Diff(before, after, algo, compress.None)
		if err != nil {
			t.Fatalf("Diff(%v): %v", algo, err)
		}
		if p.BeforeHash != hash.Sum(before) || p.AfterHash != hash.Sum(after) {
			t.Fatalf("Diff(%v) hash mismatch", algo)
		}

		got, err := Apply(before, p)
		if err != nil {
			t.Fatalf("Apply(%v): %v", algo, err)
		}
		if !bytes.Equal(got, after) {
			t.Errorf("Apply(%v) = %q, want %q", algo, got, after)
		}
	}
}

func TestApplyDispatchesOnPatchAlgorithm(t *testing.T) {
	before := []byte("some content to diff against")
	after := []byte("some content to diff against, modified")

	p, err := Diff(before, after, patch.Bidiff1, compress.None)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	// Apply must dispatch on p.DiffAlgorithm, not on any caller-supplied
	// value — there is no algorithm parameter to Apply at all.
	got, err := Apply(before, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(got, after) {
		t.Errorf("Apply = %q, want %q", got, after)
	}
}

func TestWrongBeforeHashFails(t *testing.T) {
	before := []byte("correct source bytes")
	wrongBefore := []byte("incorrect source bytes!")
	after := []byte("correct source bytes, changed")

	p, err := Diff(before, after, patch.Rsync020, compress.None)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	_, err = Apply(wrongBefore, p)
	var perr *patch.Error
	if !errors.As(err, &perr) || perr.Kind != patch.BeforeHashMismatch {
		t.Fatalf("Apply(wrongBefore) error = %v, want BeforeHashMismatch", err)
	}
}
