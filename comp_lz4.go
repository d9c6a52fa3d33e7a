package squashfs

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// SquashFS's LZ4 (id 5) codec is a raw LZ4 frame (not a bare block); lz4.NewReader
// decodes the frame format pierrec/lz4/v4 implements.
func init() {
	registerCompression(LZ4, decompressorFunc(lz4Decompress))
}

func lz4Decompress(dst, src []byte) (int, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	n, err := io.ReadFull(r, dst)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	return n, nil
}
