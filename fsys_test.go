package squashfs_test

import (
	"bytes"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/kestrelfs/squashfs"
	"github.com/kestrelfs/squashfs/internal/sqfsimage"
)

func buildFsysTree(t *testing.T) *squashfs.Superblock {
	t.Helper()
	tree := sqfsimage.Dir{
		Entries: []sqfsimage.Entry{
			{File: &sqfsimage.File{Name: "top.txt", Data: []byte("top level")}},
			{Dir: &sqfsimage.Dir{
				Name: "pkg",
				Entries: []sqfsimage.Entry{
					{File: &sqfsimage.File{Name: "a.go", Data: []byte("package pkg")}},
					{File: &sqfsimage.File{Name: "b.go", Data: []byte("package pkg // b")}},
				},
			}},
		},
	}
	img := sqfsimage.Build(tree, sqfsimage.Options{BlockSize: 4096})
	sb, err := squashfs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sb
}

func TestFSReadFile(t *testing.T) {
	sb := buildFsysTree(t)
	got, err := fs.ReadFile(sb, "pkg/a.go")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "package pkg" {
		t.Errorf("got %q", got)
	}
}

func TestFSReadDir(t *testing.T) {
	sb := buildFsysTree(t)
	entries, err := fs.ReadDir(sb, "pkg")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	names := map[string]bool{entries[0].Name(): true, entries[1].Name(): true}
	if !names["a.go"] || !names["b.go"] {
		t.Errorf("names = %v", names)
	}
}

func TestFSStat(t *testing.T) {
	sb := buildFsysTree(t)
	info, err := fs.Stat(sb, "top.txt")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.IsDir() {
		t.Error("top.txt should not be a directory")
	}
	if info.Size() != int64(len("top level")) {
		t.Errorf("size = %d, want %d", info.Size(), len("top level"))
	}

	dinfo, err := fs.Stat(sb, "pkg")
	if err != nil {
		t.Fatalf("Stat(pkg): %v", err)
	}
	if !dinfo.IsDir() {
		t.Error("pkg should be a directory")
	}
}

func TestFSWalkDir(t *testing.T) {
	sb := buildFsysTree(t)
	var paths []string
	err := fs.WalkDir(sb, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir: %v", err)
	}
	want := map[string]bool{".": true, "top.txt": true, "pkg": true, "pkg/a.go": true, "pkg/b.go": true}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want keys of %v", paths, want)
	}
	for _, p := range paths {
		if !want[p] {
			t.Errorf("unexpected path %q", p)
		}
	}
}

func TestFSTestFS(t *testing.T) {
	sb := buildFsysTree(t)
	if err := fstest.TestFS(sb, "top.txt", "pkg", "pkg/a.go", "pkg/b.go"); err != nil {
		t.Fatalf("fstest.TestFS: %v", err)
	}
}

func TestOpenInvalidPath(t *testing.T) {
	sb := buildFsysTree(t)
	if _, err := sb.Open("../escape"); err == nil {
		t.Error("expected an error opening an invalid fs.FS path")
	}
}

func TestOpenNotFound(t *testing.T) {
	sb := buildFsysTree(t)
	if _, err := sb.Open("nope.txt"); err == nil {
		t.Error("expected an error opening a missing file")
	}
}
