package squashfs

// Option configures a Superblock at Open/New time.
type Option func(sb *Superblock) error

// InodeOffset shifts every inode reference's block offset by inoOfft before it is
// resolved against inode_table_start. Some tooling embeds a squashfs image inside a
// larger container and stores inode references relative to that embedding; this lets
// a caller correct for it without re-parsing the image.
func InodeOffset(inoOfft uint64) Option {
	return func(sb *Superblock) error {
		sb.inoOfft = inoOfft
		return nil
	}
}

// WithoutFragmentTable skips loading the fragment table. Files that use a fragment
// tail cannot be fully read afterward (ReadFile returns ErrInvalidIndex for them),
// but opening a large image with many fragments becomes cheaper when the caller only
// needs directory traversal.
func WithoutFragmentTable() Option {
	return func(sb *Superblock) error {
		sb.skipFragments = true
		return nil
	}
}

// WithoutLookupTable skips loading the inode lookup (export) table. InodeByNumber
// becomes unavailable; nothing else in this package depends on the lookup table.
func WithoutLookupTable() Option {
	return func(sb *Superblock) error {
		sb.skipLookup = true
		return nil
	}
}

// WithoutIDTable skips loading the id table. Uid/Gid on inode common fields fall back
// to reporting the raw index instead of the resolved id.
func WithoutIDTable() Option {
	return func(sb *Superblock) error {
		sb.skipIDs = true
		return nil
	}
}
