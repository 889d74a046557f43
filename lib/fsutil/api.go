package fsutil

import (
	"io"
	"os"
	"time"
)

const (
	DirPerms         = 0755
	PrivateDirPerms  = 0700
	PrivateFilePerms = 0600
	PublicFilePerms  = 0644
	SudoersFilePerms = 0440
)

// CopyFile copies sourceFilename to destFilename with the given mode. The
// destination is replaced atomically.
func CopyFile(destFilename, sourceFilename string, mode os.FileMode) error {
	return copyFile(destFilename, sourceFilename, mode)
}

// CopyToFile writes the contents of reader to destFilename. If length is
// non-zero then exactly length bytes must be copied.
func CopyToFile(destFilename string, perm os.FileMode, reader io.Reader,
	length uint64) error {
	return copyToFile(destFilename, perm, reader, length)
}

// CopyTree copies the directory tree rooted at sourceDir to destDir,
// including symbolic links. Missing sourceDir is not an error.
func CopyTree(destDir, sourceDir string) error {
	return copyTree(destDir, sourceDir)
}

// LoadLines reads filename and returns its non-empty lines with surrounding
// whitespace and comments (lines starting with '#') removed. A missing file
// yields no lines and no error.
func LoadLines(filename string) ([]string, error) {
	return loadLines(filename)
}

// ReadLines is similar to LoadLines, except it consumes a reader.
func ReadLines(reader io.Reader) ([]string, error) {
	return readLines(reader)
}

// WriteLines writes lines to filename, one per line, through a
// RenamingWriter.
func WriteLines(filename string, lines []string, perm os.FileMode) error {
	return writeLines(filename, lines, perm)
}

// WaitForBlockAvailable waits until pathname can be opened and is a device
// node, or the timeout expires. Opening may be what triggers creation of a
// dynamic device node, so it is retried with backoff.
func WaitForBlockAvailable(pathname string, timeout time.Duration) error {
	return waitForBlockAvailable(pathname, timeout)
}

// RenamingWriter is a writable os.File backed by a temporary file which is
// renamed to the final name on Close, unless Abort was called or a Write
// failed.
type RenamingWriter struct {
	*os.File
	filename string
	abort    bool
}

// CreateRenamingWriter creates the temporary file for filename.
func CreateRenamingWriter(filename string, perm os.FileMode) (
	*RenamingWriter, error) {
	return createRenamingWriter(filename, perm)
}

// Abort prevents the rename during a subsequent Close.
func (w *RenamingWriter) Abort() {
	w.abort = true
}

func (w *RenamingWriter) Close() error {
	return w.close()
}

func (w *RenamingWriter) Write(p []byte) (int, error) {
	return w.write(p)
}
