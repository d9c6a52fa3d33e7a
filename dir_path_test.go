package squashfs_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kestrelfs/squashfs"
	"github.com/kestrelfs/squashfs/internal/sqfsimage"
)

func buildTree(t *testing.T) *squashfs.Superblock {
	t.Helper()
	tree := sqfsimage.Dir{
		Entries: []sqfsimage.Entry{
			{File: &sqfsimage.File{Name: "readme.txt", Data: []byte("hello world")}},
			{Dir: &sqfsimage.Dir{
				Name: "etc",
				Entries: []sqfsimage.Entry{
					{File: &sqfsimage.File{Name: "passwd", Data: []byte("root:x:0:0\n")}},
					{Dir: &sqfsimage.Dir{
						Name: "nested",
						Entries: []sqfsimage.Entry{
							{File: &sqfsimage.File{Name: "deep.txt", Data: []byte("deep")}},
						},
					}},
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

func TestReadDirOrderingAndTypes(t *testing.T) {
	sb := buildTree(t)
	root, err := sb.ReadInode(sb.RootInodeRef)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := sb.ReadDir(root.(*squashfs.DirectoryInode))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "readme.txt" || !entries[0].Type.IsRegular() {
		t.Errorf("entries[0] = %+v, want regular readme.txt", entries[0])
	}
	if entries[1].Name != "etc" || !entries[1].Type.IsDir() {
		t.Errorf("entries[1] = %+v, want dir etc", entries[1])
	}
}

func TestLookupPathNested(t *testing.T) {
	sb := buildTree(t)
	ref, err := sb.LookupPath("/etc/nested/deep.txt")
	if err != nil {
		t.Fatalf("LookupPath: %v", err)
	}
	inode, err := sb.ReadInode(ref)
	if err != nil {
		t.Fatal(err)
	}
	reg, ok := inode.(*squashfs.RegularInode)
	if !ok {
		t.Fatalf("type = %T, want *RegularInode", inode)
	}
	if reg.FileSize != 4 {
		t.Errorf("file size = %d, want 4", reg.FileSize)
	}
}

func TestLookupPathNotFound(t *testing.T) {
	sb := buildTree(t)
	_, err := sb.LookupPath("/etc/does-not-exist")
	if !errors.Is(err, squashfs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLookupPathThroughFileFails(t *testing.T) {
	sb := buildTree(t)
	_, err := sb.LookupPath("/readme.txt/nope")
	if !errors.Is(err, squashfs.ErrNotDirectory) {
		t.Fatalf("err = %v, want ErrNotDirectory", err)
	}
}

func TestLookupPathRoot(t *testing.T) {
	sb := buildTree(t)
	ref, err := sb.LookupPath("/")
	if err != nil {
		t.Fatal(err)
	}
	if ref != sb.RootInodeRef {
		t.Errorf("LookupPath(\"/\") = %v, want root ref %v", ref, sb.RootInodeRef)
	}
}
