package squashfs

import (
	"encoding/binary"
	"fmt"
	"io"
)

const metadataBlockCap = 8192

// region bounds the absolute offsets a metaReader is allowed to load blocks from:
// [start, end). Every metaReader enforces this independently of any other region, per
// spec.md §4.1 ("the caller specifies which region bound to enforce").
type region struct {
	start, end uint64
}

// metaReader is the Metastream Reader of spec.md §4.1: a cursor over the
// concatenation of compressed metadata blocks that lets callers ask for "n more
// bytes" via the stdlib io.Reader contract (io.ReadFull/binary.Read already loop
// across short reads, so metaReader only needs to hand back one block's worth of
// decompressed bytes per call and load the next block on demand — this is the
// correct generalization of the arbitrary-block-span pattern used by the on-disk
// format's directory records, applied uniformly to inode records too).
type metaReader struct {
	sb      *Superblock
	region  region
	nextAbs uint64 // absolute offset of the block to load when buf is exhausted
	buf     []byte // undelivered decompressed bytes of the current block
}

// newMetaReader positions a metaReader at (blockAbs, offset): blockAbs is the
// absolute offset of a metadata block header, offset is a byte position inside that
// block's decompressed payload.
func (sb *Superblock) newMetaReader(r region, blockAbs uint64, offset int) (*metaReader, error) {
	mr := &metaReader{sb: sb, region: r, nextAbs: blockAbs}
	if err := mr.advance(); err != nil {
		return nil, err
	}
	if offset < 0 || offset > len(mr.buf) {
		return nil, fmt.Errorf("%w: in-block offset %d exceeds block length %d", ErrInvalidBlock, offset, len(mr.buf))
	}
	mr.buf = mr.buf[offset:]
	return mr, nil
}

// readMetadataBlockAt implements read_block: load and decompress the metadata block
// whose header starts at abs, without any region bound check (callers that need the
// bound use metaReader; table loaders that already validated their index pointers
// call this directly).
func (sb *Superblock) readMetadataBlockAt(abs uint64) (decompressed []byte, compressedLen int, err error) {
	var hdr [2]byte
	if _, err := sb.src.ReadAt(hdr[:], int64(abs)); err != nil {
		return nil, 0, fmt.Errorf("%w: reading block header at %d: %v", ErrIO, abs, err)
	}
	raw := binary.LittleEndian.Uint16(hdr[:])
	size := int(raw &^ 0x8000)
	compressed := raw&0x8000 == 0
	if size == 0 || size > metadataBlockCap {
		return nil, 0, fmt.Errorf("%w: declared block size %d at offset %d", ErrInvalidBlock, size, abs)
	}
	payload := make([]byte, size)
	if _, err := sb.src.ReadAt(payload, int64(abs)+2); err != nil {
		return nil, 0, fmt.Errorf("%w: reading block payload at %d: %v", ErrIO, abs+2, err)
	}
	if !compressed {
		return payload, size, nil
	}
	d, err := lookupCompressor(sb.Comp)
	if err != nil {
		return nil, 0, err
	}
	dst := make([]byte, metadataBlockCap)
	n, err := d.Decompress(dst, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
	}
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: decompressed length 0 at offset %d", ErrInvalidBlock, abs)
	}
	return dst[:n], size, nil
}

func (mr *metaReader) advance() error {
	abs := mr.nextAbs
	if abs < mr.region.start || abs >= mr.region.end {
		return fmt.Errorf("%w: block at %d outside region [%d,%d)", ErrInvalidBlock, abs, mr.region.start, mr.region.end)
	}
	buf, compLen, err := mr.sb.readMetadataBlockAt(abs)
	if err != nil {
		return err
	}
	mr.buf = buf
	mr.nextAbs = abs + 2 + uint64(compLen)
	return nil
}

// Read implements io.Reader, handing back bytes from the current block and loading
// successor blocks on demand. Never performs read-ahead beyond the block needed to
// satisfy the current call, per spec.md §4.1.
func (mr *metaReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(mr.buf) == 0 {
		if err := mr.advance(); err != nil {
			return 0, err
		}
	}
	n := copy(p, mr.buf)
	mr.buf = mr.buf[n:]
	return n, nil
}

// readSpan reads exactly n bytes, transparently spanning as many successor blocks as
// needed (spec.md §4.1's read_span).
func (mr *metaReader) readSpan(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(mr, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
	return buf, nil
}
