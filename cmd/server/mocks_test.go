package main

import (
	"io/fs"
	"testing/fstest"
)

// openCountingFS is a file system that counts the files that are open.
type openCountingFS struct {
	fsys fstest.MapFS
	open int
}

func (o *openCountingFS) Open(name string) (fs.File, error) {
	f, err := o.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	o.open++
	return openCountingFile{File: f, fsys: o}, nil
}

func (o *openCountingFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return o.fsys.ReadDir(name)
}

// openCountingFile decrements the open count of its file system when it is closed.
type openCountingFile struct {
	fs.File
	fsys *openCountingFS
}

func (f openCountingFile) Close() error {
	f.fsys.open--
	return f.File.Close()
}
