package squashfs

import (
	"github.com/klauspost/compress/zstd"
)

// A single shared decoder, reused across calls via DecodeAll as the teacher's
// comp_zstd.go does via zstd.ZipDecompressor() — avoids paying decoder setup cost on
// every metadata block.
var zstdDecoder *zstd.Decoder

func init() {
	d, err := zstd.NewReader(nil)
	if err != nil {
		panic(err) // zstd.NewReader(nil) only fails on invalid options, never at runtime
	}
	zstdDecoder = d
	registerCompression(ZSTD, decompressorFunc(zstdDecompress))
}

func zstdDecompress(dst, src []byte) (int, error) {
	out, err := zstdDecoder.DecodeAll(src, make([]byte, 0, len(dst)))
	if err != nil {
		return 0, err
	}
	if len(out) > len(dst) {
		return 0, ErrDecompressionFailed
	}
	return copy(dst, out), nil
}
