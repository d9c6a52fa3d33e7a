package squashfs_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/kestrelfs/squashfs"
	"github.com/kestrelfs/squashfs/internal/sqfsimage"
)

// memSink is a FileSink that records created directories and file contents without
// touching the host filesystem, per spec.md §1's "specified only as a sink
// interface" — exactly the kind of collaborator extraction is meant to be testable
// against.
type memSink struct {
	dirs  map[string]bool
	files map[string][]byte
}

func newMemSink() *memSink {
	return &memSink{dirs: map[string]bool{}, files: map[string][]byte{}}
}

func (s *memSink) CreateDir(path string) error {
	s.dirs[path] = true
	return nil
}

type memWriter struct {
	sink *memSink
	path string
	buf  bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *memWriter) Close() error {
	w.sink.files[w.path] = w.buf.Bytes()
	return nil
}

func (s *memSink) CreateFile(path string) (io.WriteCloser, error) {
	return &memWriter{sink: s, path: path}, nil
}

func TestExtractDirectoryRecursive(t *testing.T) {
	tree := sqfsimage.Dir{
		Entries: []sqfsimage.Entry{
			{File: &sqfsimage.File{Name: "a.txt", Data: []byte("A")}},
			{Dir: &sqfsimage.Dir{
				Name: "sub",
				Entries: []sqfsimage.Entry{
					{File: &sqfsimage.File{Name: "b.txt", Data: []byte("B")}},
				},
			}},
		},
	}
	img := sqfsimage.Build(tree, sqfsimage.Options{BlockSize: 4096})
	sb, err := squashfs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatal(err)
	}

	sink := newMemSink()
	if err := sb.ExtractDirectory("/", sink, "out"); err != nil {
		t.Fatalf("ExtractDirectory: %v", err)
	}

	if !sink.dirs["out"] || !sink.dirs["out/sub"] {
		t.Errorf("dirs = %v, want out and out/sub", sink.dirs)
	}
	if string(sink.files["out/a.txt"]) != "A" {
		t.Errorf("out/a.txt = %q, want A", sink.files["out/a.txt"])
	}
	if string(sink.files["out/sub/b.txt"]) != "B" {
		t.Errorf("out/sub/b.txt = %q, want B", sink.files["out/sub/b.txt"])
	}
}

func TestExtractFileSingle(t *testing.T) {
	tree := sqfsimage.Dir{
		Entries: []sqfsimage.Entry{
			{File: &sqfsimage.File{Name: "only.txt", Data: []byte("only content")}},
		},
	}
	img := sqfsimage.Build(tree, sqfsimage.Options{BlockSize: 4096})
	sb, err := squashfs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatal(err)
	}

	sink := newMemSink()
	if err := sb.ExtractFile("/only.txt", sink, "dest.txt"); err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if string(sink.files["dest.txt"]) != "only content" {
		t.Errorf("dest.txt = %q, want %q", sink.files["dest.txt"], "only content")
	}
}

func TestExtractFileOnDirectoryFails(t *testing.T) {
	tree := sqfsimage.Dir{Entries: []sqfsimage.Entry{{Dir: &sqfsimage.Dir{Name: "d"}}}}
	img := sqfsimage.Build(tree, sqfsimage.Options{BlockSize: 4096})
	sb, err := squashfs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatal(err)
	}
	sink := newMemSink()
	if err := sb.ExtractFile("/d", sink, "d"); err == nil {
		t.Error("expected an error extracting a directory as a file")
	}
}
