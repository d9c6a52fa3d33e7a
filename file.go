package squashfs

import (
	"fmt"
	"io"
)

// ReadFile implements spec.md §4.6's File Reader and §6's read_file operation:
// random-access reads over a regular inode's block list plus optional fragment tail,
// grounded on original_source/src/squash_file.c's squash_read_file.
func (sb *Superblock) ReadFile(ino *RegularInode, buf []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, ErrInvalidArgument
	}
	if uint64(offset) >= ino.FileSize {
		return 0, nil
	}
	remain := ino.FileSize - uint64(offset)
	if uint64(len(buf)) > remain {
		buf = buf[:remain]
	}
	if len(buf) == 0 {
		return 0, nil
	}

	blockSize := uint64(sb.BlockSize)
	fragmentOnly := ino.HasFragment() && ino.FileSize <= blockSize
	nblocks := len(ino.BlockList)

	idx := int(uint64(offset) / blockSize)
	blockOff := uint64(offset) % blockSize
	dst := buf
	n := 0

	for len(dst) > 0 {
		if !fragmentOnly && idx < nblocks {
			c, err := sb.readDataBlockInto(dst, ino, idx, blockOff)
			if err != nil {
				return n, err
			}
			dst = dst[c:]
			n += c
			idx++
			blockOff = 0
			continue
		}

		if !ino.HasFragment() {
			return n, fmt.Errorf("%w: read past block list with no fragment", ErrIO)
		}
		c, err := sb.readFragmentInto(dst, ino, blockOff)
		if err != nil {
			return n, err
		}
		n += c
		break // the fragment tail is always the last contiguous span of a file
	}
	return n, nil
}

func (sb *Superblock) readDataBlockInto(dst []byte, ino *RegularInode, idx int, blockOff uint64) (int, error) {
	blockSize := uint64(sb.BlockSize)
	entry := ino.BlockList[idx]
	size := entry & 0xFFFFFF
	compressed := entry&0x1000000 == 0

	remainInFile := ino.FileSize - uint64(idx)*blockSize
	want := blockSize
	if remainInFile < want {
		want = remainInFile
	}

	if size == 0 {
		if !compressed {
			return 0, fmt.Errorf("%w: zero-size block without sparse flag", ErrIO)
		}
		zcount := want - blockOff
		if uint64(len(dst)) < zcount {
			zcount = uint64(len(dst))
		}
		for i := range dst[:zcount] {
			dst[i] = 0
		}
		return int(zcount), nil
	}

	abs := ino.blockOffsets[idx]
	if size > uint32(blockSize) || abs+uint64(size) > sb.BytesUsed {
		return 0, fmt.Errorf("%w: data block at %d size %d out of bounds", ErrIO, abs, size)
	}
	raw := make([]byte, size)
	if _, err := sb.src.ReadAt(raw, int64(abs)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	data := raw
	if compressed {
		d, err := lookupCompressor(sb.Comp)
		if err != nil {
			return 0, err
		}
		scratch := make([]byte, blockSize)
		m, err := d.Decompress(scratch, raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
		}
		data = scratch[:m]
	}
	if uint64(len(data)) < blockOff {
		return 0, fmt.Errorf("%w: decompressed block shorter than offset", ErrIO)
	}
	return copy(dst, data[blockOff:]), nil
}

// readFragmentInto copies the fragment tail starting blockOff bytes into the tail:
// the file offset for a fragment-only file, the position inside the tail when a
// read starts past the block list, and 0 when a read reaches the tail after the
// last block.
func (sb *Superblock) readFragmentInto(dst []byte, ino *RegularInode, blockOff uint64) (int, error) {
	if int(ino.FragmentIndex) >= len(sb.fragments) {
		return 0, fmt.Errorf("%w: fragment index %d", ErrInvalidIndex, ino.FragmentIndex)
	}
	frag := sb.fragments[ino.FragmentIndex]
	fsize := frag.CompressedSize()
	blockSize := uint64(sb.BlockSize)
	if fsize == 0 || uint64(fsize) > blockSize {
		return 0, fmt.Errorf("%w: fragment size %d", ErrIO, fsize)
	}
	if frag.StartBlock+uint64(fsize) > sb.BytesUsed {
		return 0, fmt.Errorf("%w: fragment at %d size %d out of bounds", ErrIO, frag.StartBlock, fsize)
	}
	raw := make([]byte, fsize)
	if _, err := sb.src.ReadAt(raw, int64(frag.StartBlock)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	data := raw
	if frag.Compressed() {
		d, err := lookupCompressor(sb.Comp)
		if err != nil {
			return 0, err
		}
		scratch := make([]byte, blockSize)
		m, err := d.Decompress(scratch, raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
		}
		data = scratch[:m]
	}

	fragOff := uint64(ino.FragmentOffset) + blockOff
	if uint64(len(data)) < fragOff {
		return 0, fmt.Errorf("%w: fragment shorter than offset", ErrIO)
	}
	return copy(dst, data[fragOff:]), nil
}

// fileReaderAt adapts ReadFile to io.ReaderAt for use with io.SectionReader in the
// io/fs integration (fsys.go).
type fileReaderAt struct {
	sb  *Superblock
	ino *RegularInode
}

func (f *fileReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n, err := f.sb.ReadFile(f.ino, p, off)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
