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

package bidiff

import (
	"bytes"
	"errors"
	"testing"

	"github.com/coreos/archivedelta/compress"
	"github.com/coreos/archivedelta/hash"
	"github.com/coreos/archivedelta/patch"
)

func TestDiffApplyRoundTrip(t *testing.T) {
	before := []byte("Hello World")
	after := []byte("Hello Modified World")

	var m Machine
	p, err := m.Diff(before, after, compress.None)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	if !bytes.HasPrefix(p.Payload, Magic[:]) {
		t.Errorf("payload %v does not start with magic %v", p.Payload[:4], Magic)
	}
	if p.BeforeHash != hash.Sum(before) {
		t.Errorf("BeforeHash = %s, want %s", p.BeforeHash, hash.Sum(before))
	}
	if p.AfterHash != hash.Sum(after) {
		t.Errorf("AfterHash = %s, want %s", p.AfterHash, hash.Sum(after))
	}

	got, err := m.Apply(before, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(got, after) {
		t.Errorf("Apply result = %q, want %q", got, after)
	}
}

// TestDiffApplyInteriorEdit replaces a same-length word in the middle of
// the string, forcing the copy entry that follows the replacement to seek
// forward past the stale bytes in before rather than resuming exactly where
// the previous copy left off — the case an end-of-string edit never
// produces, since the final copy's seek is always 0.
func TestDiffApplyInteriorEdit(t *testing.T) {
	before := []byte("the quick brown fox jumps over the lazy dog near the riverbank")
	after := []byte("the quick brown fox leaps over the lazy dog near the riverbank")

	var m Machine
	p, err := m.Diff(before, after, compress.None)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	got, err := m.Apply(before, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(got, after) {
		t.Errorf("Apply result = %q, want %q", got, after)
	}
}

func TestDiffApplyEmptyInputs(t *testing.T) {
	var m Machine

	p, err := m.Diff(nil, nil, compress.None)
	if err != nil {
		t.Fatalf("Diff(nil, nil): %v", err)
	}
	got, err := m.Apply(nil, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Apply result = %q, want empty", got)
	}
}

func TestDiffApplyCompletelyDifferent(t *testing.T) {
	before := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	after := []byte("the quick brown fox jumps over the lazy dog, completely unrelated content here")

	var m Machine
	p, err := m.Diff(before, after, compress.None)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	got, err := m.Apply(before, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(got, after) {
		t.Errorf("Apply result = %q, want %q", got, after)
	}
}

func TestApplyWrongBeforeHash(t *testing.T) {
	before := []byte("Hello World")
	wrongBefore := []byte("Goodbye World")
	after := []byte("Hello Modified World")

	var m Machine
	p, err := m.Diff(before, after, compress.None)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	_, err = m.Apply(wrongBefore, p)
	if err == nil {
		t.Fatal("Apply with wrong base succeeded, want BeforeHashMismatch")
	}
	var perr *patch.Error
	if !errors.As(err, &perr) || perr.Kind != patch.BeforeHashMismatch {
		t.Errorf("Apply error = %v, want BeforeHashMismatch", err)
	}
}

func TestCorruptPayloadDetected(t *testing.T) {
	before := []byte("Hello World, this is a reasonably long test string for diffing")
	after := []byte("Hello Modified World, this is a reasonably long test string for patching")

	var m Machine
	p, err := m.Diff(before, after, compress.None)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	corrupted := make([]byte, len(p.Payload))
	copy(corrupted, p.Payload)
	corrupted[len(corrupted)-1] ^= 0xFF
	p.Payload = corrupted

	_, err = m.Apply(before, p)
	if err == nil {
		t.Fatal("Apply with corrupted payload succeeded, want an error")
	}
}
