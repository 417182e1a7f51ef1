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

// Package patch holds the data model shared by every codec and by the
// archive-level differ/applier: the Patch and PatchSet records, the
// Operation tagged union, and the closed Error type. It has no dependency
// on any codec so that rsync and bidiff can both depend on it without a
// cycle.
package patch

import (
	"fmt"

	"github.com/coreos/archivedelta/compress"
)

// DiffAlgorithm identifies which blob-diff codec produced a Patch. The tag
// is recorded in every Patch; Apply must dispatch on it rather than on a
// caller-supplied algorithm.
type DiffAlgorithm uint8

const (
	// Rsync020 is the signature/rolling-hash codec (see package rsync).
	Rsync020 DiffAlgorithm = iota
	// Bidiff1 is the suffix-array bidirectional-diff codec (see package
	// bidiff).
	Bidiff1
)

func (a DiffAlgorithm) String() string {
	switch a {
	case Rsync020:
		return "rsync020"
	case Bidiff1:
		return "bidiff1"
	default:
		return fmt.Sprintf("DiffAlgorithm(%d)", uint8(a))
	}
}

// CompressAlgorithm is an alias for compress.Algorithm so that Patch's
// field type matches the vocabulary callers already use when invoking
// compress.Compress/Decompress directly.
type CompressAlgorithm = compress.Algorithm

// Patch is the immutable, self-describing delta artifact produced by a
// blob-diff codec. Once constructed it is never mutated.
type Patch struct {
	DiffAlgorithm     DiffAlgorithm
	CompressAlgorithm CompressAlgorithm
	BeforeHash        string
	AfterHash         string
	Payload           []byte
}

// Size reports the payload length plus the two hash strings plus the two
// tag sizes. It is for reporting only, never a framing field.
func (p *Patch) Size() int {
	return len(p.Payload) + len(p.BeforeHash) + len(p.AfterHash) + 2
}

// OperationKind is the closed set of per-archive-member directives.
type OperationKind uint8

const (
	// OpPatch indicates the member exists in both archives with differing
	// contents; Patch holds the codec delta between them.
	OpPatch OperationKind = iota
	// OpPutFile indicates the member exists only in the target archive.
	OpPutFile
	// OpDeleteFile indicates the member exists only in the source archive.
	OpDeleteFile
	// OpFileStaysSame indicates the member exists in both archives with
	// byte-identical contents.
	OpFileStaysSame
)

func (k OperationKind) String() string {
	switch k {
	case OpPatch:
		return "Patch"
	case OpPutFile:
		return "PutFile"
	case OpDeleteFile:
		return "DeleteFile"
	case OpFileStaysSame:
		return "FileStaysSame"
	default:
		return fmt.Sprintf("OperationKind(%d)", uint8(k))
	}
}

// Operation is a tagged union over one archive member. Exactly one of
// Patch or PutFileData is meaningful, selected by Kind; OpDeleteFile and
// OpFileStaysSame carry no payload.
type Operation struct {
	Kind        OperationKind
	Patch       *Patch
	PutFileData []byte
}

// Size reports an approximate reporting-only size for the operation,
// mirroring Patch.Size's "reporting only" contract.
func (op Operation) Size() int {
	switch op.Kind {
	case OpPatch:
		return op.Patch.Size()
	case OpPutFile:
		return len(op.PutFileData)
	default:
		return 0
	}
}

// Filename is the exact archive-internal path string, including any
// trailing "/" for directory entries.
type Filename = string

// NamedOperation pairs a Filename with its Operation. Operations preserves
// order; it is the order the archive applier will emit entries in.
type NamedOperation struct {
	Name Filename
	Op   Operation
}

// Operations is an ordered sequence of (Filename, Operation) pairs.
type Operations []NamedOperation

// PatchSet is the archive-level deliverable: an ordered list of operations
// plus the integrity metadata needed to verify it against a specific
// source archive before applying it.
type PatchSet struct {
	Operations     Operations
	HashBefore     string
	OperationsHash string
}
