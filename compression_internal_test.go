package squashfs

import (
	"errors"
	"testing"
)

func TestLookupCompressorLZOUnsupported(t *testing.T) {
	d, err := lookupCompressor(LZO)
	if err != nil {
		t.Fatalf("lookupCompressor(LZO): %v", err)
	}
	_, err = d.Decompress(nil, nil)
	if !errors.Is(err, ErrCompressionNotSupported) {
		t.Fatalf("err = %v, want ErrCompressionNotSupported", err)
	}
}

func TestLookupCompressorInvalidID(t *testing.T) {
	_, err := lookupCompressor(SquashComp(99))
	if !errors.Is(err, ErrCompression) {
		t.Fatalf("err = %v, want ErrCompression", err)
	}
}

func TestLookupCompressorAllCodecsRegistered(t *testing.T) {
	for _, c := range []SquashComp{GZip, LZMA, LZO, XZ, LZ4, ZSTD} {
		if _, err := lookupCompressor(c); err != nil {
			t.Errorf("lookupCompressor(%s): %v", c, err)
		}
	}
}
