package main

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"
)

//go:embed embed/version.txt
var embedVersion string

//go:embed embed/sql
var embeddedSQLFS embed.FS

// unembedFS returns the embed subdirectory of the file system.
func unembedFS(fsys fs.FS) (fs.FS, error) {
	return fs.Sub(fsys, "embed")
}

// sqlFiles reads the setup files of the sql subdirectory of the embedded file system in name order.
func sqlFiles(fsys fs.FS, driverName string) ([]io.Reader, error) {
	dir := path.Join("sql", driverName)
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading %v setup directory: %w", driverName, err)
	}
	files := make([]io.Reader, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %v: %w", e.Name(), err)
		}
		files = append(files, bytes.NewReader(b))
	}
	return files, nil
}
