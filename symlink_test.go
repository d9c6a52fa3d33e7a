package squashfs_test

import (
	"bytes"
	"testing"

	"github.com/kestrelfs/squashfs"
	"github.com/kestrelfs/squashfs/internal/sqfsimage"
)

func TestReadSymlinkInode(t *testing.T) {
	tree := sqfsimage.Dir{
		Entries: []sqfsimage.Entry{
			{File: &sqfsimage.File{Name: "target.txt", Data: []byte("x")}},
			{Symlink: &sqfsimage.Symlink{Name: "link", Target: "target.txt"}},
		},
	}
	img := sqfsimage.Build(tree, sqfsimage.Options{BlockSize: 4096})
	sb, err := squashfs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ref, err := sb.LookupPath("/link")
	if err != nil {
		t.Fatalf("LookupPath: %v", err)
	}
	inode, err := sb.ReadInode(ref)
	if err != nil {
		t.Fatalf("ReadInode: %v", err)
	}
	sym, ok := inode.(*squashfs.SymlinkInode)
	if !ok {
		t.Fatalf("type = %T, want *SymlinkInode", inode)
	}
	if !sym.Common().Type.IsSymlink() {
		t.Error("Type.IsSymlink() = false")
	}
	if got := sb.Readlink(sym); got != "target.txt" {
		t.Errorf("Readlink = %q, want target.txt", got)
	}
}

func TestReadDirIncludesSymlinkType(t *testing.T) {
	tree := sqfsimage.Dir{
		Entries: []sqfsimage.Entry{
			{Symlink: &sqfsimage.Symlink{Name: "l", Target: "/etc/passwd"}},
		},
	}
	img := sqfsimage.Build(tree, sqfsimage.Options{BlockSize: 4096})
	sb, err := squashfs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root, err := sb.ReadInode(sb.RootInodeRef)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := sb.ReadDir(root.(*squashfs.DirectoryInode))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "l" || !entries[0].Type.IsSymlink() {
		t.Errorf("entries = %+v, want one symlink named l", entries)
	}
}
