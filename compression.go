package squashfs

import "fmt"

// decompressor is the strategy interface selected by compression id (spec.md §4.2):
// given compressed input and a destination buffer sized to the caller's output
// capacity (8192 for metadata, block_size for data), produce the decompressed bytes.
// Implementations MUST NOT write past len(dst) and MUST NOT retain src or dst.
type decompressor interface {
	Decompress(dst, src []byte) (n int, err error)
}

// decompressorFunc adapts a plain function to the decompressor interface.
type decompressorFunc func(dst, src []byte) (int, error)

func (f decompressorFunc) Decompress(dst, src []byte) (int, error) { return f(dst, src) }

var compRegistry = map[SquashComp]decompressor{}

// registerCompression installs the decoder for a compression id. Called from each
// comp_*.go file's init(), one file per codec, matching the teacher's per-codec-file
// layout (comp_xz.go, comp_zstd.go) generalized to all six ids.
func registerCompression(id SquashComp, d decompressor) {
	compRegistry[id] = d
}

// unsupportedCompression always fails with ErrCompressionNotSupported. Used for
// compression ids that are part of the on-disk format but have no available Go
// implementation in this build (LZO).
func unsupportedCompression(id SquashComp) decompressor {
	return decompressorFunc(func(dst, src []byte) (int, error) {
		return 0, fmt.Errorf("%w: %s", ErrCompressionNotSupported, id)
	})
}

func init() {
	registerCompression(LZO, unsupportedCompression(LZO))
}

// lookupCompressor resolves the decoder for id, or ErrCompression if id is outside
// the defined 1..6 range, or ErrCompressionNotSupported if it is defined but has no
// registered decoder.
func lookupCompressor(id SquashComp) (decompressor, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrCompression, id)
	}
	d, ok := compRegistry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCompressionNotSupported, id)
	}
	return d, nil
}
