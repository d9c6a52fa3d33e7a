package squashfs

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// SquashFS's GZIP codec is raw DEFLATE (no zlib or gzip wrapper), the same "−15
// window" framing klauspost/compress/flate.NewReader expects directly.
func init() {
	registerCompression(GZip, decompressorFunc(gzipDecompress))
}

func gzipDecompress(dst, src []byte) (int, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()
	n, err := io.ReadFull(r, dst)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	return n, nil
}
