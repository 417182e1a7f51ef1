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
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/coreos/archivedelta/compress"
	"github.com/coreos/archivedelta/patch"
)

func writeTestZip(t *testing.T, path string, files []struct {
	name     string
	contents []byte
}) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create(%q): %v", path, err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, e := range files {
		fh := &zip.FileHeader{Name: e.name, Method: zip.Store}
		fw, err := w.CreateHeader(fh)
		if err != nil {
			t.Fatalf("CreateHeader(%q): %v", e.name, err)
		}
		if _, err := fw.Write(e.contents); err != nil {
			t.Fatalf("Write(%q): %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip.Writer.Close: %v", err)
	}
}

func readZipMembers(t *testing.T, path string) map[string][]byte {
	t.Helper()

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("zip.OpenReader(%q): %v", path, err)
	}
	defer r.Close()

	out := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %q: %v", f.Name, err)
		}
		contents, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %q: %v", f.Name, err)
		}
		out[f.Name] = contents
	}
	return out
}

func opNames(ops patch.Operations) map[string]patch.OperationKind {
	out := make(map[string]patch.OperationKind, len(ops))
	for _, no := range ops {
		out[no.Name] = no.Op.Kind
	}
	return out
}

func TestDiffZipApplyZipDeletion(t *testing.T) {
	dir := t.TempDir()
	before := filepath.Join(dir, "before.zip")
	after := filepath.Join(dir, "after.zip")
	out := filepath.Join(dir, "out.zip")

	writeTestZip(t, before, []struct {
		name     string
		contents []byte
	}{
		{"file1.txt", []byte("File 1 content")},
		{"file2.txt", []byte("File 2 content")},
	})
	writeTestZip(t, after, []struct {
		name     string
		contents []byte
	}{
		{"file1.txt", []byte("File 1 content")},
	})

	ps, err := DiffZip(before, after, patch.Rsync020, compress.None)
	if err != nil {
		t.Fatalf("DiffZip: %v", err)
	}

	kinds := opNames(ps.Operations)
	if len(kinds) != 2 {
		t.Fatalf("got %d operations, want 2: %+v", len(kinds), kinds)
	}
	if kinds["file1.txt"] != patch.OpFileStaysSame {
		t.Errorf("file1.txt operation = %v, want FileStaysSame", kinds["file1.txt"])
	}
	if kinds["file2.txt"] != patch.OpDeleteFile {
		t.Errorf("file2.txt operation = %v, want DeleteFile", kinds["file2.txt"])
	}

	if err := ApplyZip(before, ps, out); err != nil {
		t.Fatalf("ApplyZip: %v", err)
	}

	members := readZipMembers(t, out)
	if len(members) != 1 {
		t.Fatalf("output archive has %d members, want 1: %+v", len(members), members)
	}
	if string(members["file1.txt"]) != "File 1 content" {
		t.Errorf("file1.txt contents = %q", members["file1.txt"])
	}
}

func TestDiffZipApplyZipNestedPaths(t *testing.T) {
	dir := t.TempDir()
	before := filepath.Join(dir, "before.zip")
	after := filepath.Join(dir, "after.zip")
	out := filepath.Join(dir, "out.zip")

	writeTestZip(t, before, []struct {
		name     string
		contents []byte
	}{
		{"dir1/file1.txt", []byte("File 1")},
		{"dir2/file2.txt", []byte("File 2")},
	})
	writeTestZip(t, after, []struct {
		name     string
		contents []byte
	}{
		{"dir1/file1.txt", []byte("File 1 Modified")},
		{"dir3/file3.txt", []byte("File 3")},
	})

	ps, err := DiffZip(before, after, patch.Bidiff1, compress.None)
	if err != nil {
		t.Fatalf("DiffZip: %v", err)
	}

	kinds := opNames(ps.Operations)
	if kinds["dir1/file1.txt"] != patch.OpPatch {
		t.Errorf("dir1/file1.txt operation = %v, want Patch", kinds["dir1/file1.txt"])
	}
	if kinds["dir2/file2.txt"] != patch.OpDeleteFile {
		t.Errorf("dir2/file2.txt operation = %v, want DeleteFile", kinds["dir2/file2.txt"])
	}
	if kinds["dir3/file3.txt"] != patch.OpPutFile {
		t.Errorf("dir3/file3.txt operation = %v, want PutFile", kinds["dir3/file3.txt"])
	}

	if err := ApplyZip(before, ps, out); err != nil {
		t.Fatalf("ApplyZip: %v", err)
	}

	members := readZipMembers(t, out)
	if string(members["dir1/file1.txt"]) != "File 1 Modified" {
		t.Errorf("dir1/file1.txt = %q, want %q", members["dir1/file1.txt"], "File 1 Modified")
	}
	if string(members["dir3/file3.txt"]) != "File 3" {
		t.Errorf("dir3/file3.txt = %q, want %q", members["dir3/file3.txt"], "File 3")
	}
	if _, ok := members["dir2/file2.txt"]; ok {
		t.Errorf("dir2/file2.txt should have been deleted")
	}

	r, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("zip.OpenReader: %v", err)
	}
	defer r.Close()
	var dirs []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			dirs = append(dirs, f.Name)
		}
	}
	wantDirs := map[string]bool{"dir1/": true, "dir3/": true}
	if len(dirs) != len(wantDirs) {
		t.Fatalf("directory entries = %v, want %v", dirs, wantDirs)
	}
	for _, d := range dirs {
		if !wantDirs[d] {
			t.Errorf("unexpected directory entry %q", d)
		}
	}
}

func TestMultiVersionChain(t *testing.T) {
	dir := t.TempDir()
	v1 := filepath.Join(dir, "v1.zip")
	v2 := filepath.Join(dir, "v2.zip")
	v3 := filepath.Join(dir, "v3.zip")

	writeTestZip(t, v1, []struct {
		name     string
		contents []byte
	}{
		{"a.txt", []byte("version one")},
		{"b.txt", []byte("stays the same")},
	})
	writeTestZip(t, v2, []struct {
		name     string
		contents []byte
	}{
		{"a.txt", []byte("version two")},
		{"b.txt", []byte("stays the same")},
		{"c.txt", []byte("new in v2")},
	})
	writeTestZip(t, v3, []struct {
		name     string
		contents []byte
	}{
		{"a.txt", []byte("version three")},
		{"c.txt", []byte("new in v2, changed in v3")},
	})

	v2Patched := filepath.Join(dir, "v2_patched.zip")
	ps12, err := DiffZip(v1, v2, patch.Rsync020, compress.Zstd)
	if err != nil {
		t.Fatalf("DiffZip(v1, v2): %v", err)
	}
	if err := ApplyZip(v1, ps12, v2Patched); err != nil {
		t.Fatalf("ApplyZip(v1 -> v2): %v", err)
	}
	if !archivesEqual(t, v2, v2Patched) {
		t.Fatalf("v2_patched does not match v2")
	}

	v3Patched := filepath.Join(dir, "v3_patched.zip")
	ps23, err := DiffZip(v2Patched, v3, patch.Bidiff1, compress.None)
	if err != nil {
		t.Fatalf("DiffZip(v2, v3): %v", err)
	}
	if err := ApplyZip(v2Patched, ps23, v3Patched); err != nil {
		t.Fatalf("ApplyZip(v2 -> v3): %v", err)
	}
	if !archivesEqual(t, v3, v3Patched) {
		t.Fatalf("v3_patched does not match v3")
	}
}

func archivesEqual(t *testing.T, a, b string) bool {
	t.Helper()
	ma := readZipMembers(t, a)
	mb := readZipMembers(t, b)
	if len(ma) != len(mb) {
		return false
	}
	for name, contents := range ma {
		if !bytes.Equal(contents, mb[name]) {
			return false
		}
	}
	return true
}

func TestApplyZipWrongSourceFails(t *testing.T) {
	dir := t.TempDir()
	before := filepath.Join(dir, "before.zip")
	after := filepath.Join(dir, "after.zip")
	wrongBefore := filepath.Join(dir, "wrong.zip")
	out := filepath.Join(dir, "out.zip")

	writeTestZip(t, before, []struct {
		name     string
		contents []byte
	}{{"f.txt", []byte("original")}})
	writeTestZip(t, after, []struct {
		name     string
		contents []byte
	}{{"f.txt", []byte("changed")}})
	writeTestZip(t, wrongBefore, []struct {
		name     string
		contents []byte
	}{{"f.txt", []byte("not the original")}})

	ps, err := DiffZip(before, after, patch.Rsync020, compress.None)
	if err != nil {
		t.Fatalf("DiffZip: %v", err)
	}

	err = ApplyZip(wrongBefore, ps, out)
	var perr *patch.Error
	if !errors.As(err, &perr) || perr.Kind != patch.BeforeHashMismatch {
		t.Fatalf("ApplyZip(wrongBefore) error = %v, want BeforeHashMismatch", err)
	}
	if _, statErr := os.Stat(out); statErr == nil {
		t.Errorf("ApplyZip wrote an output file despite BeforeHashMismatch")
	}
}

func TestApplyZipOperationsHashTamperDetected(t *testing.T) {
	dir := t.TempDir()
	before := filepath.Join(dir, "before.zip")
	after := filepath.Join(dir, "after.zip")
	out := filepath.Join(dir, "out.zip")

	writeTestZip(t, before, []struct {
		name     string
		contents []byte
	}{{"f.txt", []byte("original")}})
	writeTestZip(t, after, []struct {
		name     string
		contents []byte
	}{{"f.txt", []byte("changed")}})

	ps, err := DiffZip(before, after, patch.Rsync020, compress.None)
	if err != nil {
		t.Fatalf("DiffZip: %v", err)
	}

	ps.Operations = append(ps.Operations, patch.NamedOperation{Name: "injected.txt", Op: patch.Operation{Kind: patch.OpDeleteFile}})

	err = ApplyZip(before, ps, out)
	var perr *patch.Error
	if !errors.As(err, &perr) || perr.Kind != patch.OperationsHashMismatch {
		t.Fatalf("ApplyZip(tampered operations) error = %v, want OperationsHashMismatch", err)
	}
}
