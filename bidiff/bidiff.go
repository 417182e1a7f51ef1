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

// Package bidiff implements the suffix-array bidirectional-diff blob codec
// (patch.Bidiff1). Deltas are a magic-prefixed control stream of
// literal/copy/seek triples in the bsdiff family, covering the target blob
// with copies out of the source wherever the suffix array finds a long
// enough match. See DESIGN.md for the wire-format notes.
package bidiff

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/coreos/pkg/capnslog"

	"github.com/coreos/archivedelta/compress"
	"github.com/coreos/archivedelta/hash"
	"github.com/coreos/archivedelta/patch"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/archivedelta", "bidiff")

// Magic is the fixed 4-byte prefix of every uncompressed Bidiff1 delta
// payload.
var Magic = [4]byte{0xDF, 0xB1, 0x00, 0x00}

// MinMatchLen is the shortest suffix-array match this codec will emit as a
// copy entry; shorter matches are folded into the surrounding literal run,
// since encoding overhead would exceed the savings.
const MinMatchLen = 4

// Machine implements codec.Machine for the Bidiff1 diff algorithm.
type Machine struct{}

// Diff builds a suffix array over before with SortPartitions parallel
// workers, then greedily covers after with copy entries (references into
// before) and literal entries (bytes not found in before), writing a
// Magic-prefixed control stream.
func (Machine) Diff(before, after []byte, compressAlgo patch.CompressAlgorithm) (*patch.Patch, error) {
	plog.Debugf("bidiff diff: before=%d bytes after=%d bytes partitions=%d", len(before), len(after), SortPartitions)

	delta, err := diffBytes(before, after)
	if err != nil {
		return nil, patch.NewError(patch.BidiffError, err)
	}

	compressed, err := compress.Compress(compressAlgo, delta)
	if err != nil {
		return nil, patch.NewError(patch.CompressionError, err)
	}

	p := &patch.Patch{
		DiffAlgorithm:     patch.Bidiff1,
		CompressAlgorithm: compressAlgo,
		BeforeHash:        hash.Sum(before),
		AfterHash:         hash.Sum(after),
		Payload:           compressed,
	}
	plog.Debugf("bidiff diff: payload=%d bytes", len(p.Payload))
	return p, nil
}

// Apply verifies base against p.BeforeHash, replays the control stream to
// reconstruct the target blob, and verifies the result against p.AfterHash.
func (Machine) Apply(base []byte, p *patch.Patch) ([]byte, error) {
	if got := hash.Sum(base); got != p.BeforeHash {
		plog.Warningf("bidiff apply: before-hash mismatch (got %s want %s)", got, p.BeforeHash)
		return nil, patch.NewError(patch.BeforeHashMismatch, nil)
	}

	delta, err := compress.Decompress(p.CompressAlgorithm, p.Payload)
	if err != nil {
		return nil, patch.NewError(patch.CompressionError, err)
	}

	result, err := applyBytes(base, delta)
	if err != nil {
		return nil, patch.NewError(patch.BidiffError, err)
	}

	if got := hash.Sum(result); got != p.AfterHash {
		plog.Warningf("bidiff apply: after-hash mismatch (got %s want %s)", got, p.AfterHash)
		return nil, patch.NewError(patch.AfterHashMismatch, nil)
	}
	return result, nil
}

func diffBytes(before, after []byte) ([]byte, error) {
	sa := buildSuffixArray(before)

	var buf bytes.Buffer
	buf.Write(Magic[:])
	writeUvarint(&buf, uint64(len(after)))

	oldpos := 0
	newpos := 0
	nextScanLog := ScanChunkSize

	for newpos < len(after) {
		if newpos >= nextScanLog {
			plog.Debugf("bidiff scan progress: %d/%d bytes", newpos, len(after))
			nextScanLog += ScanChunkSize
		}

		mp, ml := longestMatch(sa, before, after, newpos)
		if ml >= MinMatchLen && mp >= 0 {
			writeEntry(&buf, nil, ml, int64(mp-oldpos))
			newpos += ml
			oldpos = mp + ml
			continue
		}

		litStart := newpos
		newpos++
		mp, ml = -1, 0
		for newpos < len(after) {
			mp, ml = longestMatch(sa, before, after, newpos)
			if ml >= MinMatchLen && mp >= 0 {
				break
			}
			newpos++
		}

		literal := after[litStart:newpos]
		if newpos >= len(after) {
			writeEntry(&buf, literal, 0, 0)
			break
		}
		writeEntry(&buf, literal, ml, int64(mp-oldpos))
		newpos += ml
		oldpos = mp + ml
	}

	return buf.Bytes(), nil
}

func applyBytes(base, payload []byte) ([]byte, error) {
	if len(payload) < len(Magic) || [4]byte(payload[:4]) != Magic {
		return nil, io.ErrUnexpectedEOF
	}

	r := bytes.NewReader(payload[4:])
	newSize, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, newSize)
	oldpos := 0
	for uint64(len(out)) < newSize {
		litLen, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		copyLen, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		seek, err := binary.ReadVarint(r)
		if err != nil {
			return nil, err
		}

		if litLen > 0 {
			lit := make([]byte, litLen)
			if _, err := io.ReadFull(r, lit); err != nil {
				return nil, err
			}
			out = append(out, lit...)
		}

		oldpos += int(seek)

		if copyLen > 0 {
			end := oldpos + int(copyLen)
			if oldpos < 0 || end > len(base) {
				return nil, io.ErrUnexpectedEOF
			}
			out = append(out, base[oldpos:end]...)
		}
		oldpos += int(copyLen)
	}

	return out, nil
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

// writeEntry appends one control triple (literalLen, copyLen, seekDelta)
// followed immediately by the literal bytes themselves.
func writeEntry(buf *bytes.Buffer, literal []byte, copyLen int, seek int64) {
	writeUvarint(buf, uint64(len(literal)))
	writeUvarint(buf, uint64(copyLen))
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], seek)
	buf.Write(tmp[:n])
	buf.Write(literal)
}
