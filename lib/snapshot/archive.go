package snapshot

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/arch-suite/arch-suite/lib/fsutil"
	"github.com/arch-suite/arch-suite/lib/log"
	"github.com/klauspost/compress/gzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

type tarWriterFunc func(tw *tar.Writer) error

// createTarGz writes a gzip compressed tar archive to filename through a
// renaming writer, so a failed capture never leaves a truncated archive.
func createTarGz(filename string, perm os.FileMode, fill tarWriterFunc) error {
	writer, err := fsutil.CreateRenamingWriter(filename, perm)
	if err != nil {
		return err
	}
	gzipWriter := gzip.NewWriter(writer)
	tarWriter := tar.NewWriter(gzipWriter)
	err = fill(tarWriter)
	if err == nil {
		err = tarWriter.Close()
	}
	if err == nil {
		err = gzipWriter.Close()
	}
	if err != nil {
		writer.Abort()
		writer.Close()
		return fmt.Errorf("error writing: %s: %w", filename, err)
	}
	return writer.Close()
}

// addFile adds the regular file filename to tw as name.
func addFile(tw *tar.Writer, filename, name string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	fi, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return err
	}
	header.Name = name
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, file)
	return err
}

// addTree adds the tree rooted at root to tw, with entry names prefixed by
// prefix. Paths for which exclude returns true are skipped along with their
// children. Unreadable files and special files are skipped and logged.
func addTree(tw *tar.Writer, root, prefix string,
	exclude func(relPath string) bool, logger log.DebugLogger) error {
	return filepath.WalkDir(root, func(pathname string, entry fs.DirEntry,
		err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) && pathname != root {
				logger.Debugf(1, "skipping unreadable: %s\n", pathname)
				return nil
			}
			return err
		}
		relPath, err := filepath.Rel(root, pathname)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if relPath != "." && exclude != nil && exclude(relPath) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		fi, err := entry.Info()
		if err != nil {
			return err
		}
		var link string
		switch mode := fi.Mode(); {
		case mode.IsRegular(), mode.IsDir():
		case mode&fs.ModeSymlink != 0:
			if link, err = os.Readlink(pathname); err != nil {
				return err
			}
		default:
			logger.Debugf(1, "skipping special file: %s\n", pathname)
			return nil
		}
		header, err := tar.FileInfoHeader(fi, link)
		if err != nil {
			return err
		}
		header.Name = path.Join(prefix, relPath)
		if fi.IsDir() {
			header.Name += "/"
		}
		if !fi.Mode().IsRegular() {
			return tw.WriteHeader(header)
		}
		file, err := os.Open(pathname)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				logger.Debugf(1, "skipping unreadable: %s\n", pathname)
				return nil
			}
			return err
		}
		defer file.Close()
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		_, err = io.Copy(tw, file)
		return err
	})
}

func archiveTree(filename, root, prefix string,
	exclude func(relPath string) bool, logger log.DebugLogger) error {
	return createTarGz(filename, fsutil.PrivateFilePerms,
		func(tw *tar.Writer) error {
			return addTree(tw, root, prefix, exclude, logger)
		})
}

// extractOptions control extractTarGz.
type extractOptions struct {
	// Skip, if set, is called with each cleaned entry name (no leading "./").
	Skip          func(name string) bool
	StripPrefix   string // Only entries below it are extracted, without it.
	KeepOwnership bool
}

// extractTarGz extracts the gzip compressed tar stream from reader into
// destDir. Entries which would land outside destDir are rejected.
func extractTarGz(reader io.Reader, destDir string,
	options extractOptions) error {
	if err := os.MkdirAll(destDir, fsutil.DirPerms); err != nil {
		return err
	}
	gzipReader, err := gzip.NewReader(reader)
	if err != nil {
		return err
	}
	defer gzipReader.Close()
	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		name := cleanName(header.Name)
		if options.StripPrefix != "" {
			if name != options.StripPrefix &&
				!strings.HasPrefix(name, options.StripPrefix+"/") {
				continue
			}
			name = strings.TrimPrefix(strings.TrimPrefix(name,
				options.StripPrefix), "/")
		}
		if name == "" {
			continue
		}
		if options.Skip != nil && options.Skip(name) {
			continue
		}
		target, err := safeJoin(destDir, name)
		if err != nil {
			return err
		}
		if err := extractEntry(tarReader, header, destDir, target,
			options); err != nil {
			return fmt.Errorf("error extracting: %s: %w", name, err)
		}
	}
}

func cleanName(name string) string {
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}

// safeJoin joins name to destDir and checks that neither the result nor any
// existing parent directory resolves outside destDir.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !isWithin(destDir, target) {
		return "", fmt.Errorf("entry escapes destination: %s", name)
	}
	realDest, err := filepath.EvalSymlinks(destDir)
	if err != nil {
		return "", err
	}
	for dir := filepath.Dir(target); isWithin(destDir, dir); {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			if !isWithin(realDest, resolved) {
				return "", fmt.Errorf("entry escapes destination via link: %s",
					name)
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		dir = filepath.Dir(dir)
	}
	return target, nil
}

func isWithin(dir, pathname string) bool {
	dir, pathname = filepath.Clean(dir), filepath.Clean(pathname)
	return pathname == dir ||
		strings.HasPrefix(pathname, strings.TrimSuffix(dir, "/")+"/")
}

func extractEntry(reader io.Reader, header *tar.Header, destDir,
	target string, options extractOptions) error {
	mode := os.FileMode(header.Mode).Perm() |
		os.FileMode(header.Mode)&(os.ModeSetuid|os.ModeSetgid|os.ModeSticky)
	if err := os.MkdirAll(filepath.Dir(target), fsutil.DirPerms); err != nil {
		return err
	}
	switch header.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, mode); err != nil {
			return err
		}
		if err := os.Chmod(target, mode); err != nil {
			return err
		}
	case tar.TypeReg:
		if fi, err := os.Lstat(target); err == nil && !fi.Mode().IsRegular() {
			if err := os.RemoveAll(target); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(target,
			os.O_CREATE|os.O_TRUNC|os.O_WRONLY|syscall.O_NOFOLLOW, mode)
		if err != nil {
			return err
		}
		if _, err := io.Copy(file, reader); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		if err := os.Chmod(target, mode); err != nil {
			return err
		}
	case tar.TypeSymlink:
		os.Remove(target)
		if err := os.Symlink(header.Linkname, target); err != nil {
			return err
		}
	case tar.TypeLink:
		source, err := safeJoin(destDir, cleanName(header.Linkname))
		if err != nil {
			return err
		}
		os.Remove(target)
		if err := os.Link(source, target); err != nil {
			return err
		}
	default:
		return nil
	}
	if options.KeepOwnership && os.Geteuid() == 0 {
		return os.Lchown(target, header.Uid, header.Gid)
	}
	return nil
}

// listTarGz returns the cleaned entry names of a gzip compressed tar
// archive.
func listTarGz(reader io.Reader) ([]string, error) {
	gzipReader, err := gzip.NewReader(reader)
	if err != nil {
		return nil, err
	}
	defer gzipReader.Close()
	tarReader := tar.NewReader(gzipReader)
	var names []string
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, err
		}
		if name := cleanName(header.Name); name != "" {
			names = append(names, name)
		}
	}
}
