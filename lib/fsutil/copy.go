package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func copyFile(destFilename, sourceFilename string, mode os.FileMode) error {
	sourceFile, err := os.Open(sourceFilename)
	if err != nil {
		return err
	}
	defer sourceFile.Close()
	if mode == 0 {
		fi, err := sourceFile.Stat()
		if err != nil {
			return err
		}
		mode = fi.Mode().Perm()
	}
	return copyToFile(destFilename, mode, sourceFile, 0)
}

func copyToFile(destFilename string, perm os.FileMode, reader io.Reader,
	length uint64) error {
	writer, err := createRenamingWriter(destFilename, perm)
	if err != nil {
		return err
	}
	if err := copyToWriter(writer, destFilename, reader, length); err != nil {
		writer.Abort()
		writer.Close()
		return err
	}
	return writer.Close()
}

func copyToWriter(writer io.Writer, filename string, reader io.Reader,
	length uint64) error {
	if length < 1 {
		if _, err := io.Copy(writer, reader); err != nil {
			return fmt.Errorf("error copying: %s", err)
		}
		return nil
	}
	nCopied, err := io.CopyN(writer, reader, int64(length))
	if err != nil {
		return fmt.Errorf("error copying: %s", err)
	}
	if nCopied != int64(length) {
		return fmt.Errorf("expected length: %d, got: %d for: %s",
			length, nCopied, filename)
	}
	return nil
}

func copyTree(destDir, sourceDir string) error {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(destDir, DirPerms); err != nil {
		return err
	}
	for _, entry := range entries {
		sourceName := filepath.Join(sourceDir, entry.Name())
		destName := filepath.Join(destDir, entry.Name())
		fi, err := os.Lstat(sourceName)
		if err != nil {
			return err
		}
		switch mode := fi.Mode(); {
		case mode.IsDir():
			if err := copyTree(destName, sourceName); err != nil {
				return err
			}
		case mode.IsRegular():
			if err := copyFile(destName, sourceName, mode.Perm()); err != nil {
				return err
			}
		case mode&os.ModeSymlink != 0:
			target, err := os.Readlink(sourceName)
			if err != nil {
				return fmt.Errorf("%s: %s", sourceName, err)
			}
			os.Remove(destName)
			if err := os.Symlink(target, destName); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s: unsupported file type", sourceName)
		}
	}
	return nil
}
