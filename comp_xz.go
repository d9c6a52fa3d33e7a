package squashfs

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz"
)

// SquashFS's XZ (id 4) codec is a full .xz container; xz.NewReader auto-detects the
// stream header and checksum type.
func init() {
	registerCompression(XZ, decompressorFunc(xzDecompress))
}

func xzDecompress(dst, src []byte) (int, error) {
	r, err := xz.NewReader(bytes.NewReader(src))
	if err != nil {
		return 0, err
	}
	n, err := io.ReadFull(r, dst)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	return n, nil
}
