package squashfs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const superblockSize = 96
const magicValue = 0x73717368

// Superblock is both the parsed 96-byte image header (spec.md §6) and the
// filesystem handle of spec.md §3 ("Filesystem handle"): it owns the backing file,
// the selected decompressor, and the loaded tables. The zero value is not usable;
// construct with Open or New.
type Superblock struct {
	Magic             uint32
	Inodes            uint32
	ModTime           int32
	BlockSize         uint32
	FragCount         uint32
	Comp              SquashComp
	BlockLog          uint16
	Flags             SquashFlags
	IDCount           uint16
	VMajor            uint16
	VMinor            uint16
	RootInodeRef      InodeRef
	BytesUsed         uint64
	IDTableStart      uint64
	XattrIDTableStart uint64
	InodeTableStart   uint64
	DirTableStart     uint64
	FragTableStart    uint64
	LookupTableStart  uint64

	src      io.ReaderAt
	closer   io.Closer
	filename string
	inoOfft  uint64

	skipFragments bool
	skipLookup    bool
	skipIDs       bool

	fragments []fragmentEntry
	ids       []uint32
	lookup    []uint64
}

// Open opens the named file and parses it as a SquashFS image.
func Open(name string, opts ...Option) (*Superblock, error) {
	f, err := os.Open(name)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %v", ErrPermission, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	sb, err := New(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	sb.closer = f
	sb.filename = name
	return sb, nil
}

// New parses a SquashFS image already opened as a positioned reader. The returned
// Superblock does not own src for Close purposes unless src also implements
// io.Closer's counterpart semantics via Open.
func New(src io.ReaderAt, opts ...Option) (*Superblock, error) {
	hdr := make([]byte, superblockSize)
	if _, err := src.ReadAt(hdr, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	sb := &Superblock{src: src}
	if err := sb.unmarshal(hdr); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(sb); err != nil {
			return nil, err
		}
	}
	if err := sb.validate(); err != nil {
		return nil, err
	}
	if !sb.skipFragments {
		ft, err := sb.loadFragmentTable()
		if err != nil {
			return nil, err
		}
		sb.fragments = ft
	}
	if !sb.skipIDs {
		ids, err := sb.loadIDTable()
		if err != nil {
			return nil, err
		}
		sb.ids = ids
	}
	if !sb.skipLookup && sb.LookupTableStart != invalidBlock {
		lk, err := sb.loadLookupTable()
		if err != nil {
			return nil, err
		}
		sb.lookup = lk
	}
	return sb, nil
}

func (sb *Superblock) unmarshal(d []byte) error {
	le := binary.LittleEndian
	sb.Magic = le.Uint32(d[0:4])
	sb.Inodes = le.Uint32(d[4:8])
	sb.ModTime = int32(le.Uint32(d[8:12]))
	sb.BlockSize = le.Uint32(d[12:16])
	sb.FragCount = le.Uint32(d[16:20])
	sb.Comp = SquashComp(le.Uint16(d[20:22]))
	sb.BlockLog = le.Uint16(d[22:24])
	sb.Flags = SquashFlags(le.Uint16(d[24:26]))
	sb.IDCount = le.Uint16(d[26:28])
	sb.VMajor = le.Uint16(d[28:30])
	sb.VMinor = le.Uint16(d[30:32])
	sb.RootInodeRef = InodeRef(le.Uint64(d[32:40]))
	sb.BytesUsed = le.Uint64(d[40:48])
	sb.IDTableStart = le.Uint64(d[48:56])
	sb.XattrIDTableStart = le.Uint64(d[56:64])
	sb.InodeTableStart = le.Uint64(d[64:72])
	sb.DirTableStart = le.Uint64(d[72:80])
	sb.FragTableStart = le.Uint64(d[80:88])
	sb.LookupTableStart = le.Uint64(d[88:96])
	if sb.Magic != magicValue {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, sb.Magic)
	}
	return nil
}

// validate checks the superblock invariants of spec.md §3. Root inode handling and
// the 1..6 compression range follow the resolved Open Questions of SPEC_FULL.md §3:
// bounds-only validation, no rescue scan; ZSTD=6 accepted.
func (sb *Superblock) validate() error {
	if sb.VMajor != 4 || (sb.VMinor != 0 && sb.VMinor != 1) {
		return fmt.Errorf("%w: got %d.%d", ErrInvalidVersion, sb.VMajor, sb.VMinor)
	}
	if !sb.Comp.Valid() {
		return fmt.Errorf("%w: %d", ErrCompression, sb.Comp)
	}
	if sb.BlockSize == 0 || sb.BlockSize != 1<<sb.BlockLog {
		return fmt.Errorf("%w: block_size %d != 1<<%d", ErrInvalidFile, sb.BlockSize, sb.BlockLog)
	}
	if sb.InodeTableStart >= sb.BytesUsed {
		return fmt.Errorf("%w: inode_table_start %d >= bytes_used %d", ErrInvalidFile, sb.InodeTableStart, sb.BytesUsed)
	}
	if sb.DirTableStart < sb.InodeTableStart || sb.DirTableStart > sb.BytesUsed {
		return fmt.Errorf("%w: directory_table_start %d out of range", ErrInvalidFile, sb.DirTableStart)
	}
	rootBlock := sb.RootInodeRef.Block() + sb.inoOfft
	if rootBlock >= sb.DirTableStart-sb.InodeTableStart {
		return fmt.Errorf("%w: root_inode_ref block %d out of range", ErrInvalidInode, rootBlock)
	}
	return nil
}

// Close releases the backing file if Open (not New) was used to create this handle.
// Safe to call on a Superblock that does not own its source.
func (sb *Superblock) Close() error {
	if sb == nil || sb.closer == nil {
		return nil
	}
	err := sb.closer.Close()
	sb.closer = nil
	return err
}

// GetSuper returns a copy of the parsed superblock header fields, matching spec.md
// §6's get_super operation (callers cannot mutate the live handle through it).
func (sb *Superblock) GetSuper() Superblock {
	cp := *sb
	cp.src = nil
	cp.closer = nil
	cp.fragments = nil
	cp.ids = nil
	cp.lookup = nil
	return cp
}

// Filename returns the informational source filename recorded at Open time, or "" if
// the handle was constructed with New directly from a reader.
func (sb *Superblock) Filename() string {
	return sb.filename
}

// CompressionName implements spec.md §6's compression_name operation.
func (sb *Superblock) CompressionName() string {
	return sb.Comp.String()
}

// inodeTableRegion bounds metaReaders that walk the inode table.
func (sb *Superblock) inodeTableRegion() region {
	return region{sb.InodeTableStart, sb.DirTableStart}
}

// directoryTableRegion bounds metaReaders that walk the directory table.
func (sb *Superblock) directoryTableRegion() region {
	return region{sb.DirTableStart, sb.BytesUsed}
}
