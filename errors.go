package squashfs

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
// Each corresponds to one of the error kinds of the on-disk format's failure taxonomy.
var (
	// ErrInvalidFile is returned for null/garbled arguments or a bounds violation.
	ErrInvalidFile = errors.New("squashfs: invalid file")

	// ErrInvalidMagic is returned when the leading 4 bytes are not the SquashFS magic.
	ErrInvalidMagic = errors.New("invalid squashfs magic")

	// ErrInvalidVersion is returned when the on-disk version is not 4.0 or 4.1.
	// This library only supports SquashFS 4.x format.
	ErrInvalidVersion = errors.New("unsupported squashfs version, expected 4.0 or 4.1")

	// ErrIO is returned when a positioned read against the backing file fails or is short.
	ErrIO = errors.New("squashfs: io error")

	// ErrCompression is returned when the superblock names a compression id outside 1..6.
	ErrCompression = errors.New("squashfs: invalid compression id")

	// ErrCompressionNotSupported is returned when a valid compression id has no decoder
	// implementation in this build (only LZO, whose registered decoder always fails
	// with this error).
	ErrCompressionNotSupported = errors.New("squashfs: compression not supported")

	// ErrDecompressionFailed is returned when a registered decoder rejects its input.
	ErrDecompressionFailed = errors.New("squashfs: decompression failed")

	// ErrInvalidInode is returned when an inode reference is out of range or a parsed
	// inode record is malformed or truncated.
	ErrInvalidInode = errors.New("squashfs: invalid inode")

	// ErrInvalidBlock is returned when a metadata block header is malformed or the
	// block lies outside its region's valid range.
	ErrInvalidBlock = errors.New("squashfs: invalid metadata block")

	// ErrInvalidIndex is returned when a fragment, id, or lookup table index is out of range.
	ErrInvalidIndex = errors.New("squashfs: invalid table index")

	// ErrInvalidArgument is returned for caller-supplied arguments that cannot be valid
	// (negative offsets, and similar).
	ErrInvalidArgument = errors.New("squashfs: invalid argument")

	// ErrNotFound is returned by lookup_path when a path component does not exist.
	ErrNotFound = errors.New("squashfs: not found")

	// ErrNotDirectory is returned when a non-directory inode is traversed or opened as a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotFile is returned when a non-regular inode is read or extracted as a file.
	ErrNotFile = errors.New("squashfs: not a regular file")

	// ErrInvalidPath is returned for a malformed path argument.
	ErrInvalidPath = errors.New("squashfs: invalid path")

	// ErrNameTooLong is returned when a path component exceeds 1023 bytes.
	ErrNameTooLong = errors.New("squashfs: path component too long")

	// ErrPermission is returned when the backing file cannot be opened for reading.
	ErrPermission = errors.New("squashfs: permission denied")

	// ErrCycleDetected is returned by lookup_path when a directory entry's inode
	// reference was already visited along the current path. This is defensive against
	// malformed images; well-formed images have no cycles.
	ErrCycleDetected = errors.New("squashfs: cycle detected")

	// ErrTooManySymlinks names the symlink-depth failure. No operation in this package
	// follows symlinks (LookupPath and extraction do not resolve them), so none
	// returns it.
	ErrTooManySymlinks = errors.New("too many levels of symbolic links")
)
