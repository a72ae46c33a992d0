package filesys

import (
	"bufio"
	"os"
	"path"
)

func FileLines(filename string) (lines []string, err error) {
	lines = make([]string, 0)
	f, err := os.Open(filename)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	return
}

// Write the file by way of a temp file in the same directory and a rename, so that readers see
// either the old contents or the new, and a failed write leaves the old file alone.  `write` is
// called with the open temp file.

func WriteAtomically(filename string, write func(f *os.File) error) error {
	f, err := os.CreateTemp(path.Dir(filename), "."+path.Base(filename)+".tmp")
	if err != nil {
		return err
	}
	tmpname := f.Name()
	// NOTE, error exits before the rename must remove the temp file.
	if err = write(f); err != nil {
		f.Close()
		os.Remove(tmpname)
		return err
	}
	if err = f.Close(); err != nil {
		os.Remove(tmpname)
		return err
	}
	// CreateTemp makes the file 0600, but this is user data and should get the usual permissions.
	os.Chmod(tmpname, 0644)
	if err = os.Rename(tmpname, filename); err != nil {
		os.Remove(tmpname)
		return err
	}
	return nil
}
