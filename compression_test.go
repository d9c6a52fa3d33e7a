package squashfs_test

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/flate"

	"github.com/kestrelfs/squashfs"
	"github.com/kestrelfs/squashfs/internal/sqfsimage"
)

// gzipCompress implements sqfsimage.BlockCompressor using raw DEFLATE, matching the
// codec comp_gzip.go decodes.
func gzipCompress(raw []byte) ([]byte, bool) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return nil, false
	}
	if _, err := w.Write(raw); err != nil {
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func TestReadFileWithCompressedDataAndMetadata(t *testing.T) {
	data := bytes.Repeat([]byte("The quick brown fox jumps over the lazy dog. "), 50)
	tree := sqfsimage.Dir{
		Entries: []sqfsimage.Entry{
			{File: &sqfsimage.File{Name: "compressed.bin", Data: data, Compress: gzipCompress}},
		},
	}
	img := sqfsimage.Build(tree, sqfsimage.Options{
		BlockSize:    4096,
		Comp:         uint16(squashfs.GZip),
		MetaCompress: gzipCompress,
	})
	sb, err := squashfs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ref, err := sb.LookupPath("/compressed.bin")
	if err != nil {
		t.Fatalf("LookupPath: %v", err)
	}
	inode, err := sb.ReadInode(ref)
	if err != nil {
		t.Fatalf("ReadInode: %v", err)
	}
	reg := inode.(*squashfs.RegularInode)
	buf := make([]byte, reg.FileSize)
	var off int64
	for uint64(off) < reg.FileSize {
		n, err := sb.ReadFile(reg, buf[off:], off)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		off += int64(n)
	}
	if !bytes.Equal(buf, data) {
		t.Error("decompressed content mismatch")
	}
}
