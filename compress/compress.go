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

// Package compress implements the two-way byte transform wrapped around
// every patch payload: a no-op identity and a zstd codec pinned to its
// highest compression level.
package compress

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Algorithm identifies the compression transform applied to a patch payload.
// The tag is persisted inside every Patch; decompression must dispatch on it.
type Algorithm uint8

const (
	// None leaves the payload untouched.
	None Algorithm = iota
	// Zstd compresses with a standard zstd frame at ZstdLevel.
	Zstd
)

// ZstdLevel is the fixed compression level used by the Zstd algorithm. It is
// part of the on-disk format assumption: only the decompressor cares about
// framing, but the level is pinned here so diff output stays reproducible.
const ZstdLevel = 21

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
}

// zstd's Go encoder exposes a small set of named speed/ratio levels rather
// than librzstd's 1-22 integer scale. Level 21 maps onto the library's
// best-compression mode; anything else in the 1-22 range is out of scope
// for this format.
func zstdEncoderLevel(level int) (zstd.EncoderLevel, error) {
	if level != ZstdLevel {
		return 0, errors.Errorf("unsupported zstd level %d, only %d is defined by this format", level, ZstdLevel)
	}
	return zstd.SpeedBestCompression, nil
}

// Compress transforms b according to algo. For None it returns a copy of b;
// for Zstd it produces a standard zstd frame at ZstdLevel.
func Compress(algo Algorithm, b []byte) ([]byte, error) {
	switch algo {
	case None:
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case Zstd:
		level, err := zstdEncoderLevel(ZstdLevel)
		if err != nil {
			return nil, err
		}
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		if err != nil {
			return nil, errors.Wrap(err, "constructing zstd encoder")
		}
		defer enc.Close()
		return enc.EncodeAll(b, make([]byte, 0, len(b))), nil
	default:
		return nil, errors.Errorf("unknown compress algorithm %v", algo)
	}
}

// Decompress reverses Compress. For None it returns a copy of b; for Zstd it
// accepts any valid zstd frame, independent of the level used to produce it.
func Decompress(algo Algorithm, b []byte) ([]byte, error) {
	switch algo {
	case None:
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case Zstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrap(err, "constructing zstd decoder")
		}
		defer dec.Close()
		out, err := dec.DecodeAll(b, nil)
		if err != nil {
			return nil, errors.Wrap(err, "decoding zstd frame")
		}
		return out, nil
	default:
		return nil, errors.Errorf("unknown compress algorithm %v", algo)
	}
}

// IsZstdFrame reports whether b begins with the standard zstd magic number,
// used by diagnostic tooling that inspects a payload without a Patch header.
func IsZstdFrame(b []byte) bool {
	return bytes.HasPrefix(b, []byte{0x28, 0xb5, 0x2f, 0xfd})
}
