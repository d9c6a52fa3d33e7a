package squashfs_test

import (
	"testing"

	"github.com/kestrelfs/squashfs"
)

func TestFlagsString(t *testing.T) {
	cases := []struct {
		flag     squashfs.SquashFlags
		expected string
	}{
		{squashfs.UNCOMPRESSED_INODES, "UNCOMPRESSED_INODES"},
		{squashfs.EXPORTABLE | squashfs.NO_FRAGMENTS, "NO_FRAGMENTS|EXPORTABLE"},
		{0, ""},
	}
	for _, tc := range cases {
		if got := tc.flag.String(); got != tc.expected {
			t.Errorf("flag %d: got %q, want %q", tc.flag, got, tc.expected)
		}
	}
}

func TestFlagsHas(t *testing.T) {
	flags := squashfs.EXPORTABLE | squashfs.UNCOMPRESSED_DATA
	if !flags.Has(squashfs.EXPORTABLE) {
		t.Error("flags should have EXPORTABLE")
	}
	if !flags.Has(squashfs.UNCOMPRESSED_DATA) {
		t.Error("flags should have UNCOMPRESSED_DATA")
	}
	if flags.Has(squashfs.NO_FRAGMENTS) {
		t.Error("flags should not have NO_FRAGMENTS")
	}
}
