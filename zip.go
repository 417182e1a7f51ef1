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
	"archive/zip"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/coreos/archivedelta/hash"
	"github.com/coreos/archivedelta/patch"
)

// readZipMember reads the full, uncompressed contents of f. A directory
// entry (trailing "/") opens to a zero-length reader under archive/zip, so
// this never distinguishes "empty file" from "directory" — both read as a
// zero-length []byte, which is the policy decision recorded in DESIGN.md for
// the directory-member edge case.
func readZipMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func indexZipByName(r *zip.Reader) map[string]*zip.File {
	idx := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		idx[f.Name] = f
	}
	return idx
}

// directoriesOf returns the strictly-ascending list of parent path prefixes
// of path, built by splitting on "/" and discarding the last segment; empty
// segments (consecutive slashes, or path's own trailing slash) are skipped.
func directoriesOf(path string) []string {
	parts := strings.Split(path, "/")
	if len(parts) == 0 {
		return nil
	}
	parts = parts[:len(parts)-1]

	var dirs []string
	var current string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if current == "" {
			current = part
		} else {
			current = current + "/" + part
		}
		dirs = append(dirs, current)
	}
	return dirs
}

// DiffZip enumerates the union of member names across the two archives at
// pathBefore and pathAfter (a Go map, so the enumeration order, and with it
// the order of PatchSet.Operations, is unspecified; see DESIGN.md's
// "Determinism gap" entry), classifies each by presence in before/after,
// and assembles a PatchSet.
func DiffZip(pathBefore, pathAfter string, algo patch.DiffAlgorithm, compress patch.CompressAlgorithm) (*patch.PatchSet, error) {
	before, err := os.ReadFile(pathBefore)
	if err != nil {
		return nil, patch.NewError(patch.IoError, err)
	}
	after, err := os.ReadFile(pathAfter)
	if err != nil {
		return nil, patch.NewError(patch.IoError, err)
	}
	plog.Infof("DiffZip: before=%s (%d bytes) after=%s (%d bytes)", pathBefore, len(before), pathAfter, len(after))

	hashBefore := hash.Sum(before)

	zipBefore, err := zip.NewReader(bytes.NewReader(before), int64(len(before)))
	if err != nil {
		return nil, patch.NewError(patch.ArchiveError, errors.Wrap(err, "opening before archive"))
	}
	zipAfter, err := zip.NewReader(bytes.NewReader(after), int64(len(after)))
	if err != nil {
		return nil, patch.NewError(patch.ArchiveError, errors.Wrap(err, "opening after archive"))
	}

	beforeIdx := indexZipByName(zipBefore)
	afterIdx := indexZipByName(zipAfter)

	names := make(map[string]struct{}, len(beforeIdx)+len(afterIdx))
	for name := range beforeIdx {
		names[name] = struct{}{}
	}
	for name := range afterIdx {
		names[name] = struct{}{}
	}

	var ops patch.Operations
	for name := range names {
		beforeFile, inBefore := beforeIdx[name]
		afterFile, inAfter := afterIdx[name]

		switch {
		case inBefore && inAfter:
			beforeContents, err := readZipMember(beforeFile)
			if err != nil {
				return nil, patch.NewError(patch.ArchiveError, errors.Wrapf(err, "reading %q from before archive", name))
			}
			afterContents, err := readZipMember(afterFile)
			if err != nil {
				return nil, patch.NewError(patch.ArchiveError, errors.Wrapf(err, "reading %q from after archive", name))
			}

			if bytes.Equal(beforeContents, afterContents) {
				plog.Debugf("DiffZip: %q unchanged", name)
				ops = append(ops, patch.NamedOperation{Name: name, Op: patch.Operation{Kind: patch.OpFileStaysSame}})
				continue
			}

			plog.Debugf("DiffZip: %q modified", name)
			p, err := Diff(beforeContents, afterContents, algo, compress)
			if err != nil {
				return nil, err
			}
			ops = append(ops, patch.NamedOperation{Name: name, Op: patch.Operation{Kind: patch.OpPatch, Patch: p}})

		case inBefore && !inAfter:
			plog.Debugf("DiffZip: %q deleted", name)
			ops = append(ops, patch.NamedOperation{Name: name, Op: patch.Operation{Kind: patch.OpDeleteFile}})

		case !inBefore && inAfter:
			afterContents, err := readZipMember(afterFile)
			if err != nil {
				// An unreadable new member is silently skipped rather than
				// failing the whole diff.
				plog.Warningf("DiffZip: %q could not be read from after archive, skipping: %v", name, err)
				continue
			}
			plog.Debugf("DiffZip: %q added", name)
			ops = append(ops, patch.NamedOperation{Name: name, Op: patch.Operation{Kind: patch.OpPutFile, PutFileData: afterContents}})

		default:
			// Unreachable by construction: name came from beforeIdx or afterIdx.
		}
	}

	opsHash, err := patch.HashOperations(ops)
	if err != nil {
		return nil, err
	}

	plog.Infof("DiffZip: %d operations", len(ops))
	return &patch.PatchSet{
		Operations:     ops,
		HashBefore:     hashBefore,
		OperationsHash: opsHash,
	}, nil
}

// ApplyZip verifies ps against the archive at pathBefore, then materialises
// every operation into a new archive at pathAfter. Both integrity checks
// happen before any write to pathAfter.
func ApplyZip(pathBefore string, ps *patch.PatchSet, pathAfter string) error {
	source, err := os.ReadFile(pathBefore)
	if err != nil {
		return patch.NewError(patch.IoError, err)
	}

	if got := hash.Sum(source); got != ps.HashBefore {
		plog.Warningf("ApplyZip: before-hash mismatch (got %s want %s)", got, ps.HashBefore)
		return patch.NewError(patch.BeforeHashMismatch, nil)
	}

	recomputed, err := patch.HashOperations(ps.Operations)
	if err != nil {
		return err
	}
	if recomputed != ps.OperationsHash {
		plog.Warningf("ApplyZip: operations-hash mismatch (got %s want %s)", recomputed, ps.OperationsHash)
		return patch.NewError(patch.OperationsHashMismatch, nil)
	}

	sourceZip, err := zip.NewReader(bytes.NewReader(source), int64(len(source)))
	if err != nil {
		return patch.NewError(patch.ArchiveError, errors.Wrap(err, "opening source archive"))
	}
	sourceIdx := indexZipByName(sourceZip)

	outFile, err := os.Create(pathAfter)
	if err != nil {
		return patch.NewError(patch.IoError, err)
	}
	defer outFile.Close()

	w := zip.NewWriter(outFile)

	directories := make(map[string]struct{})

	writeStored := func(name string, contents []byte) error {
		fh := &zip.FileHeader{Name: name, Method: zip.Store}
		fw, err := w.CreateHeader(fh)
		if err != nil {
			return patch.NewError(patch.ArchiveError, errors.Wrapf(err, "creating %q in target archive", name))
		}
		if _, err := fw.Write(contents); err != nil {
			return patch.NewError(patch.IoError, errors.Wrapf(err, "writing %q to target archive", name))
		}
		return nil
	}

	for _, no := range ps.Operations {
		name, op := no.Name, no.Op
		switch op.Kind {
		case patch.OpPatch:
			baseFile, ok := sourceIdx[name]
			if !ok {
				return patch.NewErrorf(patch.ArchiveError, "patch operation for %q has no matching source member", name)
			}
			baseContents, err := readZipMember(baseFile)
			if err != nil {
				return patch.NewError(patch.ArchiveError, errors.Wrapf(err, "reading %q from source archive", name))
			}
			newContents, err := Apply(baseContents, op.Patch)
			if err != nil {
				return err
			}
			if err := writeStored(name, newContents); err != nil {
				return err
			}
			for _, d := range directoriesOf(name) {
				directories[d] = struct{}{}
			}

		case patch.OpPutFile:
			if err := writeStored(name, op.PutFileData); err != nil {
				return err
			}
			for _, d := range directoriesOf(name) {
				directories[d] = struct{}{}
			}

		case patch.OpDeleteFile:
			plog.Debugf("ApplyZip: %q deleted, not written", name)

		case patch.OpFileStaysSame:
			baseFile, ok := sourceIdx[name]
			if !ok {
				return patch.NewErrorf(patch.ArchiveError, "unchanged operation for %q has no matching source member", name)
			}
			contents, err := readZipMember(baseFile)
			if err != nil {
				return patch.NewError(patch.ArchiveError, errors.Wrapf(err, "reading %q from source archive", name))
			}
			if err := writeStored(name, contents); err != nil {
				return err
			}
			for _, d := range directoriesOf(name) {
				directories[d] = struct{}{}
			}

		default:
			return patch.NewErrorf(patch.ArchiveError, "unknown operation kind %v for %q", op.Kind, name)
		}
	}

	for dir := range directories {
		name := dir
		if !strings.HasSuffix(name, "/") {
			name += "/"
		}
		if _, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store}); err != nil {
			return patch.NewError(patch.ArchiveError, errors.Wrapf(err, "creating directory entry %q", name))
		}
	}

	if err := w.Close(); err != nil {
		return patch.NewError(patch.ArchiveError, errors.Wrap(err, "finalizing target archive"))
	}
	plog.Infof("ApplyZip: wrote %s from %s (%d operations)", pathAfter, pathBefore, len(ps.Operations))
	return nil
}
