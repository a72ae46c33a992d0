package options

import (
	"fmt"
	"io/fs"
	"os"
	"path"
)

// Require a non-empty value that names an existing directory.

func RequireDirectory(optval, optname string) (string, error) {
	if optval == "" {
		return "", fmt.Errorf("Required argument: %s", optname)
	}

	optval = path.Clean(optval)
	info, err := os.DirFS(optval).(fs.StatFS).Stat(".")
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("Bad %s directory %s", optname, optval)
	}

	return optval, nil
}

// Require a non-empty value that names an existing regular file.

func RequireFile(optval, optname string) (string, error) {
	if optval == "" {
		return "", fmt.Errorf("Required argument: %s", optname)
	}

	optval = path.Clean(optval)
	info, err := os.Stat(optval)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("Bad %s file %s", optname, optval)
	}

	return optval, nil
}
