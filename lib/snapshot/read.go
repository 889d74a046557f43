package snapshot

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/arch-suite/arch-suite/lib/fsutil"
	"github.com/klauspost/compress/gzip"
)

func isList(name string) bool {
	switch name {
	case MemberPackages, MemberForeign, MemberServices:
		return true
	}
	return false
}

func (c *Contents) setList(name string, lines []string) {
	switch name {
	case MemberPackages:
		c.Packages = lines
	case MemberForeign:
		c.Foreign = lines
	case MemberServices:
		c.Services = lines
	}
}

func readArchive(filename string) (*Contents, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	gzipReader, err := gzip.NewReader(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	defer gzipReader.Close()
	tarReader := tar.NewReader(gzipReader)
	contents := &Contents{}
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return contents, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		switch name := cleanName(header.Name); {
		case isList(name):
			lines, err := fsutil.ReadLines(tarReader)
			if err != nil {
				return nil, err
			}
			contents.setList(name, lines)
		case name == MemberEtc:
			contents.HasEtc = true
		case name == MemberHome:
			contents.HasHome = true
		}
	}
}

func extract(filename, dir string) (*Extracted, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := os.MkdirAll(dir, fsutil.PrivateDirPerms); err != nil {
		return nil, err
	}
	known := map[string]struct{}{
		MemberPackages: {}, MemberForeign: {}, MemberServices: {},
		MemberEtc: {}, MemberHome: {},
	}
	err = extractTarGz(bufio.NewReader(file), dir, extractOptions{
		Skip: func(name string) bool {
			_, ok := known[name]
			return !ok
		},
	})
	if err != nil {
		return nil, err
	}
	extracted := &Extracted{Dir: dir, Contents: &Contents{}}
	for _, name := range []string{MemberPackages, MemberForeign,
		MemberServices} {
		lines, err := fsutil.LoadLines(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		extracted.setList(name, lines)
	}
	extracted.HasEtc = extracted.EtcArchive() != ""
	extracted.HasHome = extracted.HomeArchive() != ""
	return extracted, nil
}

func (e *Extracted) member(name string) string {
	pathname := filepath.Join(e.Dir, name)
	if fi, err := os.Stat(pathname); err == nil && fi.Mode().IsRegular() {
		return pathname
	}
	return ""
}

func listTree(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return listTarGz(bufio.NewReader(file))
}

func validate(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	magic := make([]byte, len(gzipMagic))
	if _, err := io.ReadFull(file, magic); err != nil {
		return fmt.Errorf("%s: too short to be a snapshot", filename)
	}
	if !bytes.Equal(magic, gzipMagic) {
		return fmt.Errorf("%s: not a gzip compressed archive", filename)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	defer gzipReader.Close()
	if _, err := tar.NewReader(gzipReader).Next(); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty archive", filename)
		}
		return fmt.Errorf("%s: not a tar archive: %w", filename, err)
	}
	return nil
}
