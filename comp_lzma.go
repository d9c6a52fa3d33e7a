package squashfs

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// SquashFS's LZMA (id 2) codec is a raw LZMA1 stream prefixed by the classic 5-byte
// properties header (1 byte lc/lp/pb, 4 bytes dictionary size), which is exactly what
// lzma.NewReader expects without a .xz container around it.
func init() {
	registerCompression(LZMA, decompressorFunc(lzmaDecompress))
}

func lzmaDecompress(dst, src []byte) (int, error) {
	r, err := lzma.NewReader(bytes.NewReader(src))
	if err != nil {
		return 0, err
	}
	n, err := io.ReadFull(r, dst)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	return n, nil
}
