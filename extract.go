package squashfs

import (
	"io"
	"os"
	"path/filepath"
)

// FileSink is the host filesystem output collaborator of spec.md §1 ("specified only
// as a sink interface"): extraction writes through it instead of calling os.* directly,
// so callers can redirect extraction (archives, dry runs, in-memory trees) without
// touching the decoder.
type FileSink interface {
	CreateDir(path string) error
	CreateFile(path string) (io.WriteCloser, error)
}

// OSSink is the default FileSink, writing under Root on the host filesystem.
// Grounded on original_source/src/squash_utils.c's squash_extract_file /
// squash_extract_directory, which create directories and files directly.
type OSSink struct {
	Root string
}

func (s OSSink) resolve(path string) string {
	return filepath.Join(s.Root, filepath.FromSlash(path))
}

func (s OSSink) CreateDir(path string) error {
	return os.MkdirAll(s.resolve(path), 0o755)
}

func (s OSSink) CreateFile(path string) (io.WriteCloser, error) {
	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	return os.Create(full)
}

// ExtractFile implements spec.md §4.7 / §6's extract_file: resolve path, require a
// regular inode, then copy its content through the sink in block_size chunks.
func (sb *Superblock) ExtractFile(path string, sink FileSink, destPath string) error {
	ref, err := sb.LookupPath(path)
	if err != nil {
		return err
	}
	return sb.extractFileByRef(ref, sink, destPath)
}

func (sb *Superblock) extractFileByRef(ref InodeRef, sink FileSink, destPath string) error {
	inode, err := sb.ReadInode(ref)
	if err != nil {
		return err
	}
	reg, ok := inode.(*RegularInode)
	if !ok {
		return ErrNotFile
	}
	w, err := sink.CreateFile(destPath)
	if err != nil {
		return err
	}
	defer w.Close()

	buf := make([]byte, sb.BlockSize)
	var offset int64
	for uint64(offset) < reg.FileSize {
		n, err := sb.ReadFile(reg, buf, offset)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		if _, werr := w.Write(buf[:n]); werr != nil {
			return werr
		}
		offset += int64(n)
	}
	return nil
}

// ExtractDirectory implements spec.md §4.7 / §6's extract_directory: resolve path,
// require a directory inode, then recurse, sharing one visited set so malformed
// cycles are skipped (advisory) rather than failing the whole extraction — the
// opposite policy from LookupPath's hard CYCLE_DETECTED failure (spec.md §7).
func (sb *Superblock) ExtractDirectory(path string, sink FileSink, destDir string) error {
	ref, err := sb.LookupPath(path)
	if err != nil {
		return err
	}
	return sb.extractDirRecursive(ref, sink, destDir, newVisitedSet(16))
}

func (sb *Superblock) extractDirRecursive(ref InodeRef, sink FileSink, destDir string, visited *visitedSet) error {
	if visited.contains(ref) {
		return nil
	}
	visited.add(ref)

	inode, err := sb.ReadInode(ref)
	if err != nil {
		return err
	}
	dir, ok := inode.(*DirectoryInode)
	if !ok {
		return ErrNotDirectory
	}
	if err := sink.CreateDir(destDir); err != nil {
		return err
	}

	entries, err := sb.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		childPath := destDir + "/" + e.Name
		child, err := sb.ReadInode(e.InodeRef)
		if err != nil {
			return err
		}
		switch child.(type) {
		case *DirectoryInode:
			if err := sb.extractDirRecursive(e.InodeRef, sink, childPath, visited); err != nil {
				return err
			}
		case *RegularInode:
			if err := sb.extractFileByRef(e.InodeRef, sink, childPath); err != nil {
				return err
			}
		default:
			// Symlinks, devices, fifos, and sockets have no required host
			// representation (spec.md §1 Non-goals: full POSIX semantics).
		}
	}
	return nil
}
