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

package patch

import "fmt"

// ErrorKind is the closed set of distinguishable failure modes this engine
// can produce. Callers should switch on Kind (or use errors.Is with an
// &Error{Kind: ...} target, see Error.Is) rather than match on message text.
type ErrorKind uint8

const (
	// RsyncDiffError indicates the rolling-hash codec failed while
	// generating a delta.
	RsyncDiffError ErrorKind = iota
	// RsyncApplyError indicates the rolling-hash codec failed while
	// reconstructing a blob from a delta.
	RsyncApplyError
	// BidiffError indicates the suffix-array codec failed, in either
	// direction; this kind is used for both diff and apply failures.
	BidiffError
	// BeforeHashMismatch indicates the source blob or source archive
	// digest did not match the patch's stored digest. Always fatal;
	// never retried.
	BeforeHashMismatch
	// AfterHashMismatch indicates the reconstructed blob's digest did not
	// match the patch's stored after-digest.
	AfterHashMismatch
	// OperationsHashMismatch indicates PatchSet.OperationsHash did not
	// match a recomputed digest. Fatal before any write.
	OperationsHashMismatch
	// IoError indicates a filesystem or buffer I/O failure.
	IoError
	// ArchiveError indicates a ZIP parse/emit failure. Compression
	// failures are reported separately as CompressionError.
	ArchiveError
	// CompressionError indicates a zstd framing failure.
	CompressionError
	// SerializeError indicates a Patch/PatchSet could not be encoded.
	SerializeError
	// DeserializeError indicates a Patch/PatchSet could not be decoded.
	DeserializeError
)

func (k ErrorKind) String() string {
	switch k {
	case RsyncDiffError:
		return "RsyncDiffError"
	case RsyncApplyError:
		return "RsyncApplyError"
	case BidiffError:
		return "BidiffError"
	case BeforeHashMismatch:
		return "BeforeHashMismatch"
	case AfterHashMismatch:
		return "AfterHashMismatch"
	case OperationsHashMismatch:
		return "OperationsHashMismatch"
	case IoError:
		return "IoError"
	case ArchiveError:
		return "ArchiveError"
	case CompressionError:
		return "CompressionError"
	case SerializeError:
		return "SerializeError"
	case DeserializeError:
		return "DeserializeError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// Error is the single error type this engine returns. It carries a closed
// Kind and an optional wrapped Cause, so callers can distinguish failure
// modes with errors.Is/errors.As while still seeing the underlying cause in
// Error().
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// NewError constructs an Error of the given kind wrapping cause, which may
// be nil for kinds that carry no underlying error (e.g. hash mismatches).
func NewError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// NewErrorf constructs an Error of the given kind with a formatted message
// and no wrapped cause.
func NewErrorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Cause != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	default:
		return e.Kind.String()
	}
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, &Error{Kind: BeforeHashMismatch}) works without requiring
// callers to construct a full matching Cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
