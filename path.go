package squashfs

import "strings"

const maxPathComponent = 1023

// LookupPath implements spec.md §4.5's Path Resolver and §6's lookup_path operation:
// resolve a slash-separated path to an inode reference, starting from the root,
// treating the path as raw bytes (grounded on
// original_source/src/squash_inode.c's squash_lookup_path). Cycle detection is a
// hard failure here (ErrCycleDetected), unlike the advisory skip used by extraction
// (spec.md §7).
func (sb *Superblock) LookupPath(p string) (InodeRef, error) {
	cur := sb.RootInodeRef
	if p == "" || p == "/" {
		return cur, nil
	}

	visited := newVisitedSet(16)
	visited.add(cur)

	rest := p
	for len(rest) > 0 {
		for len(rest) > 0 && rest[0] == '/' {
			rest = rest[1:]
		}
		if len(rest) == 0 {
			break
		}
		var comp string
		if idx := strings.IndexByte(rest, '/'); idx == -1 {
			comp, rest = rest, ""
		} else {
			comp, rest = rest[:idx], rest[idx+1:]
		}
		if len(comp) > maxPathComponent {
			return 0, ErrNameTooLong
		}

		inode, err := sb.ReadInode(cur)
		if err != nil {
			return 0, err
		}
		dir, ok := inode.(*DirectoryInode)
		if !ok {
			return 0, ErrNotDirectory
		}
		entries, err := sb.ReadDir(dir)
		if err != nil {
			return 0, err
		}

		found := false
		for _, e := range entries {
			if e.Name != comp {
				continue
			}
			if visited.contains(e.InodeRef) {
				return 0, ErrCycleDetected
			}
			cur = e.InodeRef
			visited.add(cur)
			found = true
			break
		}
		if !found {
			return 0, ErrNotFound
		}
	}
	return cur, nil
}
