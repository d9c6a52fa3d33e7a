package squashfs

// InodeCommon holds the 16-byte header shared by all 14 inode variants (spec.md §3).
type InodeCommon struct {
	Type    Type
	RawMode uint16
	UIDIdx  uint16
	GIDIdx  uint16
	MTime   int32
	Number  uint32

	sb *Superblock
}

// Uid resolves the inode's owning user id through the id table.
func (c InodeCommon) Uid() uint32 { return c.sb.ID(c.UIDIdx) }

// Gid resolves the inode's owning group id through the id table.
func (c InodeCommon) Gid() uint32 { return c.sb.ID(c.GIDIdx) }

// Inode is the sum type of spec.md §9: a tagged union discriminated by Type, with
// one concrete Go type per variant family. Callers type-switch on the concrete type
// rather than inspecting a raw type code.
type Inode interface {
	Common() InodeCommon
	inodeVariant()
}

// RegularInode is the REG/LREG variant (spec.md §3).
type RegularInode struct {
	InodeCommon
	StartBlock     uint64
	FragmentIndex  uint32
	FragmentOffset uint32
	FileSize       uint64
	BlockList      []uint32 // raw 32-bit words: low 24 bits size, bit 24 "not compressed"

	blockOffsets []uint64 // absolute data-region offset of each BlockList entry's payload
}

func (i *RegularInode) Common() InodeCommon { return i.InodeCommon }
func (*RegularInode) inodeVariant()         {}

// HasFragment reports whether the file has a fragment tail.
func (i *RegularInode) HasFragment() bool { return i.FragmentIndex != invalidFragment }

// DirectoryInode is the DIR/LDIR variant (spec.md §3).
type DirectoryInode struct {
	InodeCommon
	StartBlock  uint64 // byte offset into the directory table
	FileSize    uint32 // logical bytes consumed by the listing
	Offset      uint16 // byte offset inside the first decompressed directory block
	ParentInode uint32
	NLink       uint32
}

func (i *DirectoryInode) Common() InodeCommon { return i.InodeCommon }
func (*DirectoryInode) inodeVariant()         {}

// SymlinkInode is the SYMLINK/LSYMLINK variant.
type SymlinkInode struct {
	InodeCommon
	NLink  uint32
	Target []byte
}

func (i *SymlinkInode) Common() InodeCommon { return i.InodeCommon }
func (*SymlinkInode) inodeVariant()         {}

// DeviceInode is the BLKDEV/CHRDEV/LBLKDEV/LCHRDEV variant.
type DeviceInode struct {
	InodeCommon
	NLink uint32
	Rdev  uint32
}

func (i *DeviceInode) Common() InodeCommon { return i.InodeCommon }
func (*DeviceInode) inodeVariant()         {}

// IPCInode is the FIFO/SOCKET/LFIFO/LSOCKET variant.
type IPCInode struct {
	InodeCommon
	NLink uint32
}

func (i *IPCInode) Common() InodeCommon { return i.InodeCommon }
func (*IPCInode) inodeVariant()         {}

// IsFile implements spec.md §6's is_file operation.
func IsFile(i Inode) bool {
	_, ok := i.(*RegularInode)
	return ok
}

// IsDirectory implements spec.md §6's is_directory operation.
func IsDirectory(i Inode) bool {
	_, ok := i.(*DirectoryInode)
	return ok
}

// IsSymlink implements spec.md §6's is_symlink operation.
func IsSymlink(i Inode) bool {
	_, ok := i.(*SymlinkInode)
	return ok
}

// GetFileSize implements spec.md §6's get_file_size operation.
func GetFileSize(i Inode) (uint64, error) {
	r, ok := i.(*RegularInode)
	if !ok {
		return 0, ErrNotFile
	}
	return r.FileSize, nil
}
