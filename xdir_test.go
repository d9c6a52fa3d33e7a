package squashfs_test

import (
	"bytes"
	"testing"

	"github.com/kestrelfs/squashfs"
	"github.com/kestrelfs/squashfs/internal/sqfsimage"
)

func TestReadExtendedDirectoryInode(t *testing.T) {
	tree := sqfsimage.Dir{
		Extended: true,
		Entries: []sqfsimage.Entry{
			{File: &sqfsimage.File{Name: "a.txt", Data: []byte("a")}},
			{Dir: &sqfsimage.Dir{
				Name:     "sub",
				Extended: true,
				Entries: []sqfsimage.Entry{
					{File: &sqfsimage.File{Name: "b.txt", Data: []byte("b")}},
				},
			}},
		},
	}
	img := sqfsimage.Build(tree, sqfsimage.Options{BlockSize: 4096})
	sb, err := squashfs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	root, err := sb.ReadInode(sb.RootInodeRef)
	if err != nil {
		t.Fatalf("ReadInode(root): %v", err)
	}
	rootDir, ok := root.(*squashfs.DirectoryInode)
	if !ok {
		t.Fatalf("root type = %T, want *DirectoryInode", root)
	}
	if !rootDir.Common().Type.IsDir() {
		t.Error("root Type.IsDir() = false")
	}

	entries, err := sb.ReadDir(rootDir)
	if err != nil {
		t.Fatalf("ReadDir(root): %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	var subRef squashfs.InodeRef
	found := false
	for _, e := range entries {
		if e.Name == "sub" {
			subRef = e.InodeRef
			found = true
		}
	}
	if !found {
		t.Fatalf("entries = %+v, missing sub", entries)
	}

	subInode, err := sb.ReadInode(subRef)
	if err != nil {
		t.Fatalf("ReadInode(sub): %v", err)
	}
	sub, ok := subInode.(*squashfs.DirectoryInode)
	if !ok {
		t.Fatalf("sub type = %T, want *DirectoryInode", subInode)
	}
	if sub.FileSize == 0 {
		t.Error("extended directory FileSize is 0")
	}

	subEntries, err := sb.ReadDir(sub)
	if err != nil {
		t.Fatalf("ReadDir(sub): %v (StartBlock=%d Offset=%d FileSize=%d)", err, sub.StartBlock, sub.Offset, sub.FileSize)
	}
	if len(subEntries) != 1 || subEntries[0].Name != "b.txt" {
		t.Errorf("subEntries = %+v, want one entry named b.txt", subEntries)
	}
}
