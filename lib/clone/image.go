package clone

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil"
	"github.com/kdomanski/iso9660"
)

func listImages(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	images := make(map[string]struct{})
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".iso" {
			images[entry.Name()] = struct{}{}
		}
	}
	return images, nil
}

func verifyImage(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	image, err := iso9660.OpenImage(file)
	if err != nil {
		return fmt.Errorf("%s is not an ISO 9660 image: %w", filename, err)
	}
	root, err := image.RootDir()
	if err != nil {
		return fmt.Errorf("error reading root of %s: %w", filename, err)
	}
	children, err := root.GetChildren()
	if err != nil {
		return fmt.Errorf("error reading root of %s: %w", filename, err)
	}
	for _, child := range children {
		if child.IsDir() && strings.EqualFold(child.Name(), requiredISODir) {
			return nil
		}
	}
	return fmt.Errorf("%s has no /%s directory", filename, requiredISODir)
}

func nativePackages(e executor.Executor) ([]string, error) {
	output, err := executor.Output(e, "pacman", "-Qqen")
	if err != nil {
		return nil, err
	}
	return fsutil.ReadLines(strings.NewReader(string(output)))
}
