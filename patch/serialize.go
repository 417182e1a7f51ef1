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

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	hashpkg "github.com/coreos/archivedelta/hash"
)

// The binary layout here is a hand-written, fixed-field-order encoding
// rather than a reflection-based or schema-compiled one: the schema is five
// fields (Patch) or three (PatchSet), and operations_hash is computed over
// this exact byte stream, so the layout needs to be auditable and immune to
// a serialization library's own version drift. See DESIGN.md for the
// rationale against pulling in a protobuf-style dependency for this.

func putUint32(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func putHash(w *bytes.Buffer, h string) error {
	if len(h) != hashpkg.Size {
		return errors.Errorf("hash %q has length %d, want %d", h, len(h), hashpkg.Size)
	}
	w.WriteString(h)
	return nil
}

func readHash(r *bytes.Reader) (string, error) {
	b := make([]byte, hashpkg.Size)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// MarshalBinary encodes p in this module's stable Patch wire format:
// diff-algorithm tag, compress-algorithm tag, before-hash, after-hash,
// length-prefixed payload.
func (p *Patch) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(p.DiffAlgorithm))
	buf.WriteByte(byte(p.CompressAlgorithm))
	if err := putHash(&buf, p.BeforeHash); err != nil {
		return nil, NewError(SerializeError, err)
	}
	if err := putHash(&buf, p.AfterHash); err != nil {
		return nil, NewError(SerializeError, err)
	}
	putUint32(&buf, uint32(len(p.Payload)))
	buf.Write(p.Payload)
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a Patch previously produced by MarshalBinary.
func (p *Patch) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	diffAlgo, err := r.ReadByte()
	if err != nil {
		return NewError(DeserializeError, err)
	}
	compressAlgo, err := r.ReadByte()
	if err != nil {
		return NewError(DeserializeError, err)
	}
	before, err := readHash(r)
	if err != nil {
		return NewError(DeserializeError, err)
	}
	after, err := readHash(r)
	if err != nil {
		return NewError(DeserializeError, err)
	}
	plen, err := readUint32(r)
	if err != nil {
		return NewError(DeserializeError, err)
	}
	payload := make([]byte, plen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return NewError(DeserializeError, err)
	}

	if r.Len() != 0 {
		return NewErrorf(DeserializeError, "%d trailing bytes after Patch encoding", r.Len())
	}

	p.DiffAlgorithm = DiffAlgorithm(diffAlgo)
	p.CompressAlgorithm = CompressAlgorithm(compressAlgo)
	p.BeforeHash = before
	p.AfterHash = after
	p.Payload = payload
	return nil
}

// marshalOperations encodes Operations deterministically (same sequence of
// values, in the stored order, always produces the same bytes). This is the
// byte stream PatchSet.OperationsHash is computed over.
func (ops Operations) marshalOperations() ([]byte, error) {
	var buf bytes.Buffer
	putUint32(&buf, uint32(len(ops)))
	for _, no := range ops {
		nameBytes := []byte(no.Name)
		putUint32(&buf, uint32(len(nameBytes)))
		buf.Write(nameBytes)
		buf.WriteByte(byte(no.Op.Kind))
		switch no.Op.Kind {
		case OpPatch:
			pbytes, err := no.Op.Patch.MarshalBinary()
			if err != nil {
				return nil, err
			}
			putUint32(&buf, uint32(len(pbytes)))
			buf.Write(pbytes)
		case OpPutFile:
			putUint32(&buf, uint32(len(no.Op.PutFileData)))
			buf.Write(no.Op.PutFileData)
		case OpDeleteFile, OpFileStaysSame:
			// no payload
		default:
			return nil, NewErrorf(SerializeError, "unknown operation kind %v for %q", no.Op.Kind, no.Name)
		}
	}
	return buf.Bytes(), nil
}

func unmarshalOperations(r *bytes.Reader) (Operations, error) {
	count, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	ops := make(Operations, 0, count)
	for i := uint32(0); i < count; i++ {
		nlen, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		nameBytes := make([]byte, nlen)
		if _, err := io.ReadFull(r, nameBytes); err != nil {
			return nil, err
		}
		kindByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		kind := OperationKind(kindByte)

		op := Operation{Kind: kind}
		switch kind {
		case OpPatch:
			plen, err := readUint32(r)
			if err != nil {
				return nil, err
			}
			pbytes := make([]byte, plen)
			if _, err := io.ReadFull(r, pbytes); err != nil {
				return nil, err
			}
			p := &Patch{}
			if err := p.UnmarshalBinary(pbytes); err != nil {
				return nil, err
			}
			op.Patch = p
		case OpPutFile:
			dlen, err := readUint32(r)
			if err != nil {
				return nil, err
			}
			data := make([]byte, dlen)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, err
			}
			op.PutFileData = data
		case OpDeleteFile, OpFileStaysSame:
			// no payload
		default:
			return nil, errors.Errorf("unknown operation kind %d for %q", kindByte, string(nameBytes))
		}

		ops = append(ops, NamedOperation{Name: string(nameBytes), Op: op})
	}
	return ops, nil
}

// HashOperations computes the content hash of ops' canonical encoding. This
// is the value that must be stored as PatchSet.OperationsHash and
// recomputed at apply time to detect tampering.
func HashOperations(ops Operations) (string, error) {
	b, err := ops.marshalOperations()
	if err != nil {
		return "", err
	}
	return hashpkg.Sum(b), nil
}

// MarshalBinary encodes ps in this module's stable PatchSet wire format:
// the canonical operations encoding, followed by hash-before and
// operations-hash.
func (ps *PatchSet) MarshalBinary() ([]byte, error) {
	opsBytes, err := ps.Operations.marshalOperations()
	if err != nil {
		return nil, NewError(SerializeError, err)
	}
	var buf bytes.Buffer
	buf.Write(opsBytes)
	if err := putHash(&buf, ps.HashBefore); err != nil {
		return nil, NewError(SerializeError, err)
	}
	if err := putHash(&buf, ps.OperationsHash); err != nil {
		return nil, NewError(SerializeError, err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a PatchSet previously produced by MarshalBinary.
func (ps *PatchSet) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	ops, err := unmarshalOperations(r)
	if err != nil {
		return NewError(DeserializeError, err)
	}
	hashBefore, err := readHash(r)
	if err != nil {
		return NewError(DeserializeError, err)
	}
	opsHash, err := readHash(r)
	if err != nil {
		return NewError(DeserializeError, err)
	}

	if r.Len() != 0 {
		return NewErrorf(DeserializeError, "%d trailing bytes after PatchSet encoding", r.Len())
	}

	ps.Operations = ops
	ps.HashBefore = hashBefore
	ps.OperationsHash = opsHash
	return nil
}
