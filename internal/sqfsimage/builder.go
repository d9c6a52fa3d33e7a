// Package sqfsimage builds minimal, byte-exact SquashFS 4.0 images in memory for use
// as test fixtures by the squashfs package's tests. It is adapted from the teacher
// repository's full mksquashfs-equivalent writer.go: spec.md's Non-goals exclude
// image writing as a library feature, so this package stays internal and is
// deliberately narrower than a general-purpose writer, but it keeps the same
// responsibilities the teacher's writer had — superblock assembly, metadata block
// framing, directory/inode table packing — repurposed for deterministic fixture
// generation instead of compressing an arbitrary host directory tree.
package sqfsimage

import (
	"bytes"
	"encoding/binary"
)

const (
	superblockSize = 96
	magic          = 0x73717368
	metadataCap    = 8192
	invalidFrag    = 0xFFFFFFFF
	invalidBlock64 = 0xFFFFFFFFFFFFFFFF

	dirBasicType     = 1
	fileBasicType    = 2
	symlinkBasicType = 3
	xdirType         = 8
	xfileType        = 9
)

// BlockCompressor compresses one block's raw bytes for on-disk storage. Returning
// ok=false stores the block raw — the default for every scenario that doesn't need
// to exercise a real codec end to end.
type BlockCompressor func(raw []byte) (compressed []byte, ok bool)

// File describes a regular file to place in the built image.
type File struct {
	Name string
	Data []byte
	// SparseBlocks marks 0-based block indices (relative to this file's full block
	// list, excluding any fragment tail) as sparse: no backing bytes are written and
	// the block-list entry is the all-zero sentinel.
	SparseBlocks map[int]bool
	// NoFragment forces every block, including a short tail, into the block list
	// instead of packing a short tail into a dedicated fragment.
	NoFragment bool
	// Extended uses the extended regular-file inode layout (parseLRegInode's wire
	// shape) instead of the basic one, to exercise that code path.
	Extended bool
	// Compress compresses this file's data blocks and fragment, when non-nil.
	Compress BlockCompressor
}

// Symlink describes a symbolic link entry.
type Symlink struct {
	Name   string
	Target string
}

// Dir describes a directory and its children, in on-disk listing order.
type Dir struct {
	Name    string
	Entries []Entry
	// Extended uses the extended directory inode layout (parseLDirInode's wire shape,
	// type code XDirType) instead of the basic one, to exercise that code path.
	Extended bool
}

// Entry is a File, a Dir, or a Symlink (exactly one must be non-nil).
type Entry struct {
	File    *File
	Dir     *Dir
	Symlink *Symlink
}

// Options configures Build.
type Options struct {
	BlockSize uint32
	Comp      uint16 // superblock compression id
	// MetaCompress compresses inode/directory metadata blocks when non-nil.
	MetaCompress BlockCompressor
}

// fieldPatch records a deferred write into a raw metadata stream: once the OTHER
// stream's block prefixes are known, the field at raw offset Offset receives the
// resolved position of the record that started at raw offset TargetRaw in that
// other stream — the absolute block offset (Wide=true, 4 bytes) or the in-block
// offset (Wide=false, 2 bytes). Patches are applied before the stream is chunked.
type fieldPatch struct {
	Offset    int
	TargetRaw int
	Wide      bool
}

type fragRecord struct {
	startBlock uint64
	size       uint32
}

// child is one already-built directory entry, carrying everything writeDirListing
// needs to emit a directory-table record for it.
type child struct {
	name      string
	ino       uint32
	inoRawPos int // offset in inodeRaw where this child's inode record begins
	typ       uint16
}

type builder struct {
	opt Options

	inodeRaw bytes.Buffer
	dirRaw   bytes.Buffer
	data     bytes.Buffer

	nextIno uint32

	dirPatches []fieldPatch // patches into the on-disk directory table
	inoPatches []fieldPatch // patches into the on-disk inode table

	fragments []fragRecord
}

// Build assembles a complete image rooted at root and returns its bytes.
func Build(root Dir, opt Options) []byte {
	if opt.BlockSize == 0 {
		opt.BlockSize = 131072
	}
	if opt.Comp == 0 {
		opt.Comp = 1 // gzip id; only consulted if a block is actually marked compressed
	}
	b := &builder{opt: opt, nextIno: 1}

	rootIno := b.nextIno
	b.nextIno++
	children := b.buildEntries(root.Entries)
	dirRawPos, dirSize := b.writeDirListing(children)
	var rootInoPos int
	if root.Extended {
		rootInoPos = b.writeXDirInode(rootIno, rootIno, dirRawPos, dirSize, len(children)+2)
	} else {
		rootInoPos = b.writeDirInode(rootIno, rootIno, dirRawPos, dirSize, len(children)+2)
	}

	// A first chunking pass yields each stream's block prefixes; the patches are
	// then written into the raw streams, which are chunked again for the image.
	_, inodePrefix := chunk(b.inodeRaw.Bytes(), opt.MetaCompress)
	_, dirPrefix := chunk(b.dirRaw.Bytes(), opt.MetaCompress)

	for _, p := range b.dirPatches {
		applyPatch(b.dirRaw.Bytes(), p, inodePrefix)
	}
	for _, p := range b.inoPatches {
		applyPatch(b.inodeRaw.Bytes(), p, dirPrefix)
	}

	inodeOnDisk, _ := chunk(b.inodeRaw.Bytes(), opt.MetaCompress)
	dirOnDisk, _ := chunk(b.dirRaw.Bytes(), opt.MetaCompress)

	rootBlock, rootInBlock := resolve(rootInoPos, inodePrefix)
	rootInodeRef := rootBlock<<16 | uint64(rootInBlock)

	// Layout: [superblock][data region][inode table][directory table][fragment table]
	var img bytes.Buffer
	img.Write(make([]byte, superblockSize))
	img.Write(b.data.Bytes())

	inodeTableStart := img.Len()
	img.Write(inodeOnDisk)

	dirTableStart := img.Len()
	img.Write(dirOnDisk)

	var fragTableStart uint64
	fragCount := uint32(len(b.fragments))
	if fragCount > 0 {
		fragTableStart = b.writeFragmentTable(&img)
	}

	out := img.Bytes()
	putSuperblock(out, superblockFields{
		inodes:          b.nextIno - 1,
		blockSize:       opt.BlockSize,
		fragCount:       fragCount,
		comp:            opt.Comp,
		rootInodeRef:    rootInodeRef,
		bytesUsed:       uint64(len(out)),
		inodeTableStart: uint64(inodeTableStart),
		dirTableStart:   uint64(dirTableStart),
		fragTableStart:  fragTableStart,
		idTableStart:    invalidBlock64,
		xattrTableStart: invalidBlock64,
		lookupStart:     invalidBlock64,
	})
	return out
}

func (b *builder) buildEntries(entries []Entry) []child {
	out := make([]child, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.File != nil:
			ino := b.nextIno
			b.nextIno++
			typ := uint16(fileBasicType)
			if e.File.Extended {
				typ = xfileType
			}
			pos := b.writeFileInode(ino, e.File)
			out = append(out, child{name: e.File.Name, ino: ino, inoRawPos: pos, typ: typ})
		case e.Dir != nil:
			ino := b.nextIno
			b.nextIno++
			kids := b.buildEntries(e.Dir.Entries)
			dirRawPos, dirSize := b.writeDirListing(kids)
			typ := uint16(dirBasicType)
			var pos int
			if e.Dir.Extended {
				typ = xdirType
				pos = b.writeXDirInode(ino, ino, dirRawPos, dirSize, len(kids)+2)
			} else {
				pos = b.writeDirInode(ino, ino, dirRawPos, dirSize, len(kids)+2)
			}
			out = append(out, child{name: e.Dir.Name, ino: ino, inoRawPos: pos, typ: typ})
		case e.Symlink != nil:
			ino := b.nextIno
			b.nextIno++
			pos := b.writeSymlinkInode(ino, e.Symlink)
			out = append(out, child{name: e.Symlink.Name, ino: ino, inoRawPos: pos, typ: symlinkBasicType})
		}
	}
	return out
}

// --- directory table ---

// writeDirListing emits one group per child (the simplest valid encoding: a group of
// size 1 avoids the real format's "entries sharing a group must share a start_block"
// constraint) and returns the raw-buffer offset the listing begins at, plus its exact
// byte length — the value ReadDir's FileSize drives its consume loop with.
func (b *builder) writeDirListing(children []child) (rawPos int, size int) {
	start := b.dirRaw.Len()
	for _, c := range children {
		groupPos := b.dirRaw.Len()
		var group [12]byte
		binary.LittleEndian.PutUint32(group[8:12], c.ino)
		b.dirRaw.Write(group[:])
		b.dirPatches = append(b.dirPatches, fieldPatch{Offset: groupPos + 4, TargetRaw: c.inoRawPos, Wide: true})

		entryPos := b.dirRaw.Len()
		var entry [8]byte
		binary.LittleEndian.PutUint16(entry[4:6], c.typ)
		binary.LittleEndian.PutUint16(entry[6:8], uint16(len(c.name)-1))
		b.dirRaw.Write(entry[:])
		b.dirPatches = append(b.dirPatches, fieldPatch{Offset: entryPos, TargetRaw: c.inoRawPos, Wide: false})
		b.dirRaw.WriteString(c.name)
	}
	return start, b.dirRaw.Len() - start
}

// --- chunking and patch resolution ---

func chunk(raw []byte, fn BlockCompressor) (onDisk []byte, prefix []int64) {
	if len(raw) == 0 {
		raw = []byte{0}
	}
	var out bytes.Buffer
	for off := 0; off < len(raw); off += metadataCap {
		end := off + metadataCap
		if end > len(raw) {
			end = len(raw)
		}
		block := raw[off:end]
		prefix = append(prefix, int64(out.Len()))

		payload := block
		hdr := uint16(len(block)) | 0x8000 // uncompressed
		if fn != nil {
			if c, ok := fn(block); ok {
				payload = c
				hdr = uint16(len(c))
			}
		}
		var h [2]byte
		binary.LittleEndian.PutUint16(h[:], hdr)
		out.Write(h[:])
		out.Write(payload)
	}
	return out.Bytes(), prefix
}

func resolve(rawOffset int, prefix []int64) (blockOffset uint64, inBlock uint16) {
	idx := rawOffset / metadataCap
	return uint64(prefix[idx]), uint16(rawOffset % metadataCap)
}

func applyPatch(onDisk []byte, p fieldPatch, prefix []int64) {
	block, inBlock := resolve(p.TargetRaw, prefix)
	if p.Wide {
		binary.LittleEndian.PutUint32(onDisk[p.Offset:p.Offset+4], uint32(block))
	} else {
		binary.LittleEndian.PutUint16(onDisk[p.Offset:p.Offset+2], inBlock)
	}
}

// --- superblock ---

type superblockFields struct {
	inodes          uint32
	blockSize       uint32
	fragCount       uint32
	comp            uint16
	rootInodeRef    uint64
	bytesUsed       uint64
	idTableStart    uint64
	xattrTableStart uint64
	inodeTableStart uint64
	dirTableStart   uint64
	fragTableStart  uint64
	lookupStart     uint64
}

func putSuperblock(out []byte, f superblockFields) {
	le := binary.LittleEndian
	le.PutUint32(out[0:4], magic)
	le.PutUint32(out[4:8], f.inodes)
	le.PutUint32(out[8:12], 0) // mtime
	le.PutUint32(out[12:16], f.blockSize)
	le.PutUint32(out[16:20], f.fragCount)
	le.PutUint16(out[20:22], f.comp)
	var blockLog uint16
	for bs := f.blockSize; bs > 1; bs >>= 1 {
		blockLog++
	}
	le.PutUint16(out[22:24], blockLog)
	le.PutUint16(out[24:26], 0) // flags
	le.PutUint16(out[26:28], 0) // id_count
	le.PutUint16(out[28:30], 4) // vmajor
	le.PutUint16(out[30:32], 0) // vminor
	le.PutUint64(out[32:40], f.rootInodeRef)
	le.PutUint64(out[40:48], f.bytesUsed)
	le.PutUint64(out[48:56], f.idTableStart)
	le.PutUint64(out[56:64], f.xattrTableStart)
	le.PutUint64(out[64:72], f.inodeTableStart)
	le.PutUint64(out[72:80], f.dirTableStart)
	le.PutUint64(out[80:88], f.fragTableStart)
	le.PutUint64(out[88:96], f.lookupStart)
}

// --- fragment table ---

func (b *builder) writeFragmentTable(img *bytes.Buffer) uint64 {
	var raw bytes.Buffer
	for _, fr := range b.fragments {
		var e [16]byte
		binary.LittleEndian.PutUint64(e[0:8], fr.startBlock)
		binary.LittleEndian.PutUint32(e[8:12], fr.size)
		raw.Write(e[:])
	}
	onDisk, prefix := chunk(raw.Bytes(), b.opt.MetaCompress)
	blocksStart := img.Len()
	img.Write(onDisk)

	indexStart := img.Len()
	for _, p := range prefix {
		var v [8]byte
		binary.LittleEndian.PutUint64(v[:], uint64(blocksStart)+uint64(p))
		img.Write(v[:])
	}
	return uint64(indexStart)
}

// --- file inodes and data ---

// writeFileInode lays out f's data blocks (and fragment tail, if any) into the data
// region, then writes its inode record, and returns the raw-buffer offset of that
// record.
func (b *builder) writeFileInode(ino uint32, f *File) int {
	blockSize := int(b.opt.BlockSize)
	data := f.Data

	nFull := len(data) / blockSize
	tail := len(data) % blockSize
	useFragment := tail > 0 && !f.NoFragment

	var blocks []uint32
	fragIndex := uint32(invalidFrag)
	fragOffset := uint32(0)
	firstBlockAbs := uint64(superblockSize) + uint64(b.data.Len())
	haveBlock := false

	for i := 0; i < nFull; i++ {
		sparse := f.SparseBlocks[i]
		abs := uint64(superblockSize) + uint64(b.data.Len())
		entry := b.writeDataBlock(data[i*blockSize:(i+1)*blockSize], sparse, f.Compress)
		if !haveBlock {
			firstBlockAbs = abs
			haveBlock = true
		}
		blocks = append(blocks, entry)
	}
	if tail > 0 {
		tailData := data[nFull*blockSize:]
		if useFragment {
			abs := uint64(superblockSize) + uint64(b.data.Len())
			entry := b.writeDataBlock(tailData, false, f.Compress)
			fragIndex = uint32(len(b.fragments))
			b.fragments = append(b.fragments, fragRecord{startBlock: abs, size: entry})
		} else {
			sparse := f.SparseBlocks[nFull]
			abs := uint64(superblockSize) + uint64(b.data.Len())
			entry := b.writeDataBlock(tailData, sparse, f.Compress)
			if !haveBlock {
				firstBlockAbs = abs
				haveBlock = true
			}
			blocks = append(blocks, entry)
		}
	}
	if !haveBlock {
		// Fragment-only or empty file: finishRegInode still bounds-checks start_block
		// against bytes_used, so it must be a valid (if unused) in-image position.
		firstBlockAbs = superblockSize
	}

	start := b.inodeRaw.Len()
	var hdr [16]byte
	typ := uint16(fileBasicType)
	if f.Extended {
		typ = xfileType
	}
	binary.LittleEndian.PutUint16(hdr[0:2], typ)
	binary.LittleEndian.PutUint16(hdr[2:4], 0o644)
	binary.LittleEndian.PutUint32(hdr[8:12], 0)
	binary.LittleEndian.PutUint32(hdr[12:16], ino)
	b.inodeRaw.Write(hdr[:])

	if f.Extended {
		var body [40]byte
		binary.LittleEndian.PutUint64(body[0:8], firstBlockAbs)
		binary.LittleEndian.PutUint64(body[8:16], uint64(len(data)))
		binary.LittleEndian.PutUint32(body[24:28], 1) // nlink
		binary.LittleEndian.PutUint32(body[28:32], fragIndex)
		binary.LittleEndian.PutUint32(body[32:36], fragOffset)
		binary.LittleEndian.PutUint32(body[36:40], 0xFFFFFFFF) // xattr idx
		b.inodeRaw.Write(body[:])
	} else {
		var body [16]byte
		binary.LittleEndian.PutUint32(body[0:4], uint32(firstBlockAbs))
		binary.LittleEndian.PutUint32(body[4:8], fragIndex)
		binary.LittleEndian.PutUint32(body[8:12], fragOffset)
		binary.LittleEndian.PutUint32(body[12:16], uint32(len(data)))
		b.inodeRaw.Write(body[:])
	}
	for _, bl := range blocks {
		var e [4]byte
		binary.LittleEndian.PutUint32(e[:], bl)
		b.inodeRaw.Write(e[:])
	}
	return start
}

func (b *builder) writeDataBlock(raw []byte, sparse bool, fn BlockCompressor) uint32 {
	if sparse {
		return 0
	}
	payload := raw
	flag := uint32(0x1000000) // "not compressed" bit set
	if fn != nil {
		if c, ok := fn(raw); ok {
			payload = c
			flag = 0
		}
	}
	b.data.Write(payload)
	return uint32(len(payload)) | flag
}

// --- symlink inodes ---

// writeSymlinkInode matches parseSymlinkInode's wire shape: an 8-byte body
// (nlink, target_size) followed by the raw target bytes, no block list or fragment.
func (b *builder) writeSymlinkInode(ino uint32, s *Symlink) int {
	start := b.inodeRaw.Len()
	var hdr [16]byte
	binary.LittleEndian.PutUint16(hdr[0:2], symlinkBasicType)
	binary.LittleEndian.PutUint16(hdr[2:4], 0o777)
	binary.LittleEndian.PutUint32(hdr[8:12], 0)
	binary.LittleEndian.PutUint32(hdr[12:16], ino)
	b.inodeRaw.Write(hdr[:])

	var body [8]byte
	binary.LittleEndian.PutUint32(body[0:4], 1) // nlink
	binary.LittleEndian.PutUint32(body[4:8], uint32(len(s.Target)))
	b.inodeRaw.Write(body[:])
	b.inodeRaw.WriteString(s.Target)
	return start
}

// --- directory inodes ---

func (b *builder) writeDirInode(ino, parentIno uint32, dirRawPos, dirSize, nlink int) int {
	start := b.inodeRaw.Len()
	var hdr [16]byte
	binary.LittleEndian.PutUint16(hdr[0:2], dirBasicType)
	binary.LittleEndian.PutUint16(hdr[2:4], 0o755)
	binary.LittleEndian.PutUint32(hdr[8:12], 0)
	binary.LittleEndian.PutUint32(hdr[12:16], ino)
	b.inodeRaw.Write(hdr[:])

	bodyStart := b.inodeRaw.Len()
	var body [16]byte
	binary.LittleEndian.PutUint32(body[4:8], uint32(nlink))
	binary.LittleEndian.PutUint16(body[8:10], uint16(dirSize))
	binary.LittleEndian.PutUint32(body[12:16], parentIno)
	b.inodeRaw.Write(body[:])

	b.inoPatches = append(b.inoPatches, fieldPatch{Offset: bodyStart, TargetRaw: dirRawPos, Wide: true})
	b.inoPatches = append(b.inoPatches, fieldPatch{Offset: bodyStart + 10, TargetRaw: dirRawPos, Wide: false})
	return start
}

// writeXDirInode matches parseLDirInode's wire shape: nlink[0:4], file_size[4:8],
// start_block[8:12], parent_inode[12:16], i_count[16:18], offset[18:20],
// xattr_idx[20:24]. i_count is left at 0 (no directory index records are built).
func (b *builder) writeXDirInode(ino, parentIno uint32, dirRawPos, dirSize, nlink int) int {
	start := b.inodeRaw.Len()
	var hdr [16]byte
	binary.LittleEndian.PutUint16(hdr[0:2], xdirType)
	binary.LittleEndian.PutUint16(hdr[2:4], 0o755)
	binary.LittleEndian.PutUint32(hdr[8:12], 0)
	binary.LittleEndian.PutUint32(hdr[12:16], ino)
	b.inodeRaw.Write(hdr[:])

	bodyStart := b.inodeRaw.Len()
	var body [24]byte
	binary.LittleEndian.PutUint32(body[0:4], uint32(nlink))
	binary.LittleEndian.PutUint32(body[4:8], uint32(dirSize))
	binary.LittleEndian.PutUint32(body[12:16], parentIno)
	binary.LittleEndian.PutUint32(body[20:24], 0xFFFFFFFF) // xattr idx
	b.inodeRaw.Write(body[:])

	b.inoPatches = append(b.inoPatches, fieldPatch{Offset: bodyStart + 8, TargetRaw: dirRawPos, Wide: true})
	b.inoPatches = append(b.inoPatches, fieldPatch{Offset: bodyStart + 18, TargetRaw: dirRawPos, Wide: false})
	return start
}
