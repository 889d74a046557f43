package fsutil

import (
	"os"
)

func createRenamingWriter(filename string, perm os.FileMode) (
	*RenamingWriter, error) {
	tmpFilename := filename + "~"
	file, err := os.OpenFile(tmpFilename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY,
		perm)
	if err != nil {
		return nil, err
	}
	return &RenamingWriter{File: file, filename: filename}, nil
}

func (w *RenamingWriter) close() error {
	tmpFilename := w.filename + "~"
	if w.abort {
		w.File.Close()
		os.Remove(tmpFilename)
		return nil
	}
	if err := w.File.Sync(); err != nil {
		w.File.Close()
		os.Remove(tmpFilename)
		return err
	}
	if err := w.File.Close(); err != nil {
		os.Remove(tmpFilename)
		return err
	}
	return os.Rename(tmpFilename, w.filename)
}

func (w *RenamingWriter) write(p []byte) (int, error) {
	nWritten, err := w.File.Write(p)
	if err != nil {
		w.abort = true
	}
	return nWritten, err
}
