package squashfs

import "fmt"

// InodeRef is the opaque 64-bit value SquashFS uses to address an inode record: the
// upper 48 bits are a byte offset added to inode_table_start, the lower 16 bits are
// the byte offset of the record inside that block's decompressed payload.
type InodeRef uint64

// NewInodeRef packs a block offset and an in-block offset into an InodeRef.
func NewInodeRef(blockOffset uint64, inBlockOffset uint16) InodeRef {
	return InodeRef(blockOffset<<16 | uint64(inBlockOffset))
}

// Block returns the byte offset to add to inode_table_start.
func (r InodeRef) Block() uint64 {
	return uint64(r) >> 16
}

// Offset returns the byte offset inside the decompressed block.
func (r InodeRef) Offset() uint16 {
	return uint16(uint64(r) & 0xffff)
}

func (r InodeRef) String() string {
	return fmt.Sprintf("InodeRef(block=0x%x,offset=0x%x)", r.Block(), r.Offset())
}
