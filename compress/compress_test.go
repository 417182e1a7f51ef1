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

package compress

import (
	"bytes"
	"testing"
)

func TestNoneRoundTrip(t *testing.T) {
	in := []byte("Hello Modified World")
	out, err := Compress(None, in)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Fatalf("None compress changed bytes: got %x want %x", out, in)
	}

	back, err := Decompress(None, out)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(in, back) {
		t.Fatalf("None round trip mismatch: got %x want %x", back, in)
	}
}

func TestZstdRoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 64)
	out, err := Compress(Zstd, in)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !IsZstdFrame(out) {
		t.Fatalf("Zstd output missing magic: %x", out[:4])
	}

	back, err := Decompress(Zstd, out)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(in, back) {
		t.Fatalf("Zstd round trip mismatch")
	}
}

func TestUnknownAlgorithm(t *testing.T) {
	if _, err := Compress(Algorithm(99), []byte("x")); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
	if _, err := Decompress(Algorithm(99), []byte("x")); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestAlgorithmString(t *testing.T) {
	if got := None.String(); got != "none" {
		t.Errorf("None.String() = %q", got)
	}
	if got := Zstd.String(); got != "zstd" {
		t.Errorf("Zstd.String() = %q", got)
	}
}
