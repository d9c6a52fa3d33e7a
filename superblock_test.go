package squashfs_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kestrelfs/squashfs"
	"github.com/kestrelfs/squashfs/internal/sqfsimage"
)

func buildEmpty(t *testing.T) []byte {
	t.Helper()
	return sqfsimage.Build(sqfsimage.Dir{}, sqfsimage.Options{BlockSize: 4096})
}

func TestNewEmptyRoot(t *testing.T) {
	img := buildEmpty(t)
	sb, err := squashfs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sb.VMajor != 4 || sb.VMinor != 0 {
		t.Errorf("version = %d.%d, want 4.0", sb.VMajor, sb.VMinor)
	}
	if sb.BlockSize != 4096 {
		t.Errorf("block size = %d, want 4096", sb.BlockSize)
	}
	if sb.CompressionName() != "gzip" {
		t.Errorf("compression name = %q, want gzip", sb.CompressionName())
	}

	root, err := sb.ReadInode(sb.RootInodeRef)
	if err != nil {
		t.Fatalf("ReadInode(root): %v", err)
	}
	dir, ok := root.(*squashfs.DirectoryInode)
	if !ok {
		t.Fatalf("root inode type = %T, want *DirectoryInode", root)
	}
	entries, err := sb.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(root): %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("root has %d entries, want 0", len(entries))
	}
}

func TestNewBadMagic(t *testing.T) {
	img := buildEmpty(t)
	img[0] ^= 0xff
	_, err := squashfs.New(bytes.NewReader(img))
	if !errors.Is(err, squashfs.ErrInvalidMagic) {
		t.Fatalf("err = %v, want ErrInvalidMagic", err)
	}
}

func TestNewBadVersion(t *testing.T) {
	img := buildEmpty(t)
	// vminor lives at offset 30:32, little-endian.
	img[30] = 9
	_, err := squashfs.New(bytes.NewReader(img))
	if !errors.Is(err, squashfs.ErrInvalidVersion) {
		t.Fatalf("err = %v, want ErrInvalidVersion", err)
	}
}

func TestGetSuperIsACopy(t *testing.T) {
	img := buildEmpty(t)
	sb, err := squashfs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatal(err)
	}
	cp := sb.GetSuper()
	cp.BlockSize = 0
	if sb.BlockSize == 0 {
		t.Error("mutating GetSuper() result affected the live Superblock")
	}
}
