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

// Package rsync implements the signature/rolling-hash blob-diff codec
// (patch.Rsync020), wrapping github.com/balena-os/librsync-go: calculate a
// signature over the source blob, diff the target against it, and on the
// other end verify and reconstruct via the signature-guided patch.
package rsync

import (
	"bytes"
	"io"

	librsync "github.com/balena-os/librsync-go"
	"github.com/coreos/pkg/capnslog"
	"github.com/pkg/errors"

	"github.com/coreos/archivedelta/compress"
	"github.com/coreos/archivedelta/hash"
	"github.com/coreos/archivedelta/patch"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/archivedelta", "rsync")

// BlockSize and StrongHashSize are the signature parameters this format
// pins. Both are format-defining: changing either invalidates every
// previously persisted Rsync020 patch.
const (
	BlockSize      = 1024
	StrongHashSize = 16
)

// SigMagic is the librsync signature variant used to build signatures. MD4
// keeps the strong-hash size pinned at StrongHashSize.
const SigMagic = librsync.MD4_SIG_MAGIC

// Machine implements codec.Machine for the Rsync020 diff algorithm.
type Machine struct{}

// Diff computes a signature over before, indexes it, and emits a delta of
// after against that signature.
func (Machine) Diff(before, after []byte, compressAlgo patch.CompressAlgorithm) (*patch.Patch, error) {
	plog.Debugf("rsync diff: before=%d bytes after=%d bytes", len(before), len(after))

	// Signature serializes to its output writer and returns the in-memory,
	// already-indexed signature; only the latter is needed here.
	sig, err := librsync.Signature(bytes.NewReader(before), io.Discard, BlockSize, StrongHashSize, SigMagic)
	if err != nil {
		return nil, patch.NewError(patch.RsyncDiffError, errors.Wrap(err, "calculating signature"))
	}

	var deltaBuf bytes.Buffer
	if err := librsync.Delta(sig, bytes.NewReader(after), &deltaBuf); err != nil {
		return nil, patch.NewError(patch.RsyncDiffError, errors.Wrap(err, "computing delta"))
	}

	compressed, err := compress.Compress(compressAlgo, deltaBuf.Bytes())
	if err != nil {
		return nil, patch.NewError(patch.CompressionError, err)
	}

	p := &patch.Patch{
		DiffAlgorithm:     patch.Rsync020,
		CompressAlgorithm: compressAlgo,
		BeforeHash:        hash.Sum(before),
		AfterHash:         hash.Sum(after),
		Payload:           compressed,
	}
	plog.Debugf("rsync diff: payload=%d bytes", len(p.Payload))
	return p, nil
}

// Apply verifies base against p.BeforeHash, reconstructs the target blob by
// applying the delta, and verifies the result against p.AfterHash.
func (Machine) Apply(base []byte, p *patch.Patch) ([]byte, error) {
	if p.DiffAlgorithm != patch.Rsync020 {
		return nil, patch.NewErrorf(patch.RsyncApplyError, "patch has diff algorithm %v, not %v", p.DiffAlgorithm, patch.Rsync020)
	}

	if got := hash.Sum(base); got != p.BeforeHash {
		plog.Warningf("rsync apply: before-hash mismatch (got %s want %s)", got, p.BeforeHash)
		return nil, patch.NewError(patch.BeforeHashMismatch, nil)
	}

	delta, err := compress.Decompress(p.CompressAlgorithm, p.Payload)
	if err != nil {
		return nil, patch.NewError(patch.CompressionError, err)
	}

	var out bytes.Buffer
	if err := librsync.Patch(bytes.NewReader(base), bytes.NewReader(delta), &out); err != nil {
		return nil, patch.NewError(patch.RsyncApplyError, errors.Wrap(err, "applying delta"))
	}

	result := out.Bytes()
	if got := hash.Sum(result); got != p.AfterHash {
		plog.Warningf("rsync apply: after-hash mismatch (got %s want %s)", got, p.AfterHash)
		return nil, patch.NewError(patch.AfterHashMismatch, nil)
	}
	return result, nil
}
