package filesys

import (
	"errors"
	"os"
	"path"
	"testing"
)

func TestWriteAtomically(t *testing.T) {
	dir := t.TempDir()
	fn := path.Join(dir, "out.csv")
	err := WriteAtomically(fn, func(f *os.File) error {
		_, err := f.WriteString("a\nb\n")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	lines, err := FileLines(fn)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Fatalf("Bad lines %v", lines)
	}

	// A failing writer leaves the old contents and no temp files.
	err = WriteAtomically(fn, func(f *os.File) error {
		f.WriteString("garbage")
		return errors.New("nope")
	})
	if err == nil {
		t.Fatalf("Expected error")
	}
	lines, _ = FileLines(fn)
	if len(lines) != 2 {
		t.Fatalf("Old contents clobbered: %v", lines)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("Temp file left behind: %v", entries)
	}
}
